package spawn

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status identifies which launch step failed.
type Status int

const (
	StatusSuccess Status = iota
	StatusPipeCreateError
	StatusPipeFlagError
	StatusForkError
	StatusPipeDupError
	StatusExecError
)

// String returns the wire name of the status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusPipeCreateError:
		return "PIPE_CREATE_ERROR"
	case StatusPipeFlagError:
		return "PIPE_FLAG_ERROR"
	case StatusForkError:
		return "FORK_ERROR"
	case StatusPipeDupError:
		return "PIPE_DUP_ERROR"
	case StatusExecError:
		return "EXEC_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ErrInvalidArgument marks caller-contract violations. They are detected
// before any kernel call and leave nothing behind.
var ErrInvalidArgument = errors.New("invalid argument")

// LaunchError is a runtime launch failure.
type LaunchError struct {
	Status Status
	Errno  syscall.Errno
}

func newLaunchError(status Status, err error) *LaunchError {
	return &LaunchError{Status: status, Errno: errnoOf(err)}
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Status, e.Errno)
}

// Unwrap exposes the errno so errors.Is(err, syscall.EMFILE) works.
func (e *LaunchError) Unwrap() error {
	return e.Errno
}

// ArgumentError describes a rejected argument.
type ArgumentError struct {
	// Index is the offending argv position, or -1 when the whole vector
	// (or a non-argv input such as a pid) is at fault.
	Index  int
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid argument: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument %d: %s", e.Index, e.Reason)
}

// Is reports whether target is ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IsTransient reports whether err is a retryable condition on a
// non-blocking descriptor (no data or no buffer space yet, or an
// interrupted call).
func IsTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINTR)
}

// Errno extracts the system error code carried by err, or 0 if none.
func Errno(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

// errnoOf is Errno with a fallback for errors that carry no code.
func errnoOf(err error) syscall.Errno {
	if errno := Errno(err); errno != 0 {
		return errno
	}
	return unix.EINVAL
}

// ErrnoName returns the symbolic name of an errno ("EAGAIN"), falling back
// to the number.
func ErrnoName(errno syscall.Errno) string {
	if errno == 0 {
		return "0"
	}
	if name := unix.ErrnoName(errno); name != "" {
		return name
	}
	return fmt.Sprintf("errno(%d)", int(errno))
}
