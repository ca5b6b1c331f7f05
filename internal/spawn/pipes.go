package spawn

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Role indexes the pipe pairs of a PipeSet by the child stream they serve.
type Role int

const (
	RoleStdin Role = iota
	RoleStdout
	RoleStderr
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleStdin:
		return "stdin"
	case RoleStdout:
		return "stdout"
	case RoleStderr:
		return "stderr"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Pair is the two ends of one pipe. A closed or never-created end is -1.
type Pair struct {
	Read  int
	Write int
}

var closedPair = Pair{Read: -1, Write: -1}

// PipeSet holds the pipes for one child: stdin and stdout always, stderr
// unless the child inherits the host's stderr.
type PipeSet struct {
	pairs      [3]Pair
	withStderr bool
}

// CreatePipeSet creates the pipe pairs for one child. On failure every
// descriptor created so far is closed before the error is returned.
func CreatePipeSet(withStderr bool) (*PipeSet, error) {
	ps := &PipeSet{
		pairs:      [3]Pair{closedPair, closedPair, closedPair},
		withStderr: withStderr,
	}

	// Hold ForkLock so a concurrent ForkExec cannot inherit the new
	// descriptors before they are marked close-on-exec.
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()

	for _, role := range ps.roles() {
		var fds [2]int
		if err := unix.Pipe(fds[:]); err != nil {
			ps.Close()
			return nil, newLaunchError(StatusPipeCreateError, err)
		}
		ps.pairs[role] = Pair{Read: fds[0], Write: fds[1]}
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}

	return ps, nil
}

// ConfigureNonBlockingCloexec adds O_NONBLOCK and FD_CLOEXEC to every
// descriptor in the set, preserving the flags already present. On failure
// all descriptors are closed.
func (ps *PipeSet) ConfigureNonBlockingCloexec() error {
	for _, fd := range ps.fds() {
		if err := addFlags(fd); err != nil {
			ps.Close()
			return newLaunchError(StatusPipeFlagError, err)
		}
	}
	return nil
}

// Pair returns the pair for role. Absent pairs are reported as -1/-1.
func (ps *PipeSet) Pair(role Role) Pair {
	if role < RoleStdin || role > RoleStderr {
		return closedPair
	}
	return ps.pairs[role]
}

// HasStderr reports whether the set carries a stderr pair.
func (ps *PipeSet) HasStderr() bool {
	return ps.withStderr
}

// Close closes every descriptor the set still holds. Safe to call twice.
func (ps *PipeSet) Close() {
	for i := range ps.pairs {
		closeFD(&ps.pairs[i].Read)
		closeFD(&ps.pairs[i].Write)
	}
}

// prepareChildEnds puts the child's ends back in blocking mode. O_NONBLOCK
// lives on the open file description, so leaving it set would make the
// child program's own stdin/stdout non-blocking.
func (ps *PipeSet) prepareChildEnds() error {
	for _, fd := range ps.childEnds() {
		if err := unix.SetNonblock(fd, false); err != nil {
			ps.Close()
			return newLaunchError(StatusPipeFlagError, err)
		}
	}
	return nil
}

// closeChildEnds drops the parent's copy of the ends now owned by the child.
func (ps *PipeSet) closeChildEnds() {
	closeFD(&ps.pairs[RoleStdin].Read)
	closeFD(&ps.pairs[RoleStdout].Write)
	closeFD(&ps.pairs[RoleStderr].Write)
}

func (ps *PipeSet) roles() []Role {
	if ps.withStderr {
		return []Role{RoleStdin, RoleStdout, RoleStderr}
	}
	return []Role{RoleStdin, RoleStdout}
}

func (ps *PipeSet) fds() []int {
	fds := make([]int, 0, 6)
	for _, role := range ps.roles() {
		fds = append(fds, ps.pairs[role].Read, ps.pairs[role].Write)
	}
	return fds
}

func (ps *PipeSet) childEnds() []int {
	ends := []int{ps.pairs[RoleStdin].Read, ps.pairs[RoleStdout].Write}
	if ps.withStderr {
		ends = append(ends, ps.pairs[RoleStderr].Write)
	}
	return ends
}

func addFlags(fd int) error {
	fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, fl|unix.O_NONBLOCK); err != nil {
		return err
	}

	fdfl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return err
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, fdfl|unix.FD_CLOEXEC)
	return err
}

func closeFD(fd *int) {
	if *fd >= 0 {
		_ = unix.Close(*fd)
		*fd = -1
	}
}
