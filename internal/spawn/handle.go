package spawn

import (
	"golang.org/x/sys/unix"
)

// ReadChunkSize is the most ReadOutput returns from one call.
const ReadChunkSize = 64 * 1024

// WriteInput performs one write(2) on fd and returns how many bytes the
// kernel accepted, which may be fewer than len(p). Retrying the remainder
// is the caller's job.
func WriteInput(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReadOutput performs one read(2) of up to ReadChunkSize bytes. An empty
// slice with a nil error is end-of-stream. A non-blocking descriptor with
// nothing buffered fails with EAGAIN (see IsTransient).
func ReadOutput(fd int) ([]byte, error) {
	buf := make([]byte, ReadChunkSize)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, buf[:n])
	return out, nil
}

// ClosePipe closes fd. Closing an already closed descriptor fails with EBADF.
func ClosePipe(fd int) error {
	return unix.Close(fd)
}

// IsAlive reports whether pid exists and may be signalled by this process.
// "No such process" and "not permitted" both report false.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

// Terminate sends SIGTERM to pid without waiting for it to exit.
func Terminate(pid int) error {
	return signal(pid, unix.SIGTERM)
}

// Kill sends SIGKILL to pid without waiting for it to exit.
func Kill(pid int) error {
	return signal(pid, unix.SIGKILL)
}

func signal(pid int, sig unix.Signal) error {
	// kill(2) with 0 or a negative pid targets process groups.
	if err := validatePID(pid); err != nil {
		return err
	}
	return unix.Kill(pid, sig)
}

// WaitResult is the outcome of a non-blocking reap attempt.
type WaitResult struct {
	// PID is the reaped pid, 0 if the child has not exited yet, or -1 if
	// the attempt failed. Anything other than the requested pid means the
	// child is not known to have exited.
	PID    int
	Status unix.WaitStatus
}

// Reaped reports whether the attempt reaped pid.
func (r WaitResult) Reaped(pid int) bool {
	return pid > 0 && r.PID == pid
}

// Exited reports a normal exit.
func (r WaitResult) Exited() bool {
	return r.PID > 0 && r.Status.Exited()
}

// ExitCode returns the exit status of a normal exit, or -1.
func (r WaitResult) ExitCode() int {
	if !r.Exited() {
		return -1
	}
	return r.Status.ExitStatus()
}

// Signaled reports termination by a signal.
func (r WaitResult) Signaled() bool {
	return r.PID > 0 && r.Status.Signaled()
}

// Signal returns the terminating signal, or 0.
func (r WaitResult) Signal() unix.Signal {
	if !r.Signaled() {
		return 0
	}
	return r.Status.Signal()
}

// WaitNonBlocking attempts to reap pid without blocking. The returned
// WaitResult is always usable; the error is diagnostic only and never
// means more than "not yet known to have exited".
func WaitNonBlocking(pid int) (WaitResult, error) {
	if err := validatePID(pid); err != nil {
		return WaitResult{}, err
	}

	var status unix.WaitStatus
	wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
	return WaitResult{PID: wpid, Status: status}, err
}
