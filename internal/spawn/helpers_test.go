package spawn

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const testTimeout = 5 * time.Second

// openFDs counts the descriptors currently open in this process.
func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot inspect descriptors: %v", err)
	}
	// ReadDir holds one descriptor on the directory while listing it.
	return len(entries) - 1
}

func isOpen(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

// readAll reads fd until end-of-stream, retrying transient errors.
func readAll(t *testing.T, fd int) []byte {
	t.Helper()
	var out []byte
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		data, err := ReadOutput(fd)
		if IsTransient(err) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		require.NoError(t, err)
		if len(data) == 0 {
			return out
		}
		out = append(out, data...)
	}
	t.Fatalf("timed out reading fd %d", fd)
	return nil
}

// reap polls WaitNonBlocking until pid is collected.
func reap(t *testing.T, pid int) WaitResult {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		res, err := WaitNonBlocking(pid)
		require.NoError(t, err)
		if res.Reaped(pid) {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for pid %d", pid)
	return WaitResult{}
}

// closeResult closes every descriptor of a launch result.
func closeResult(t *testing.T, res *Result) {
	t.Helper()
	for _, fd := range []int{res.InputFD, res.OutputFD, res.ErrorFD} {
		if fd >= 0 {
			require.NoError(t, ClosePipe(fd))
		}
	}
}

func requireStatusFlags(t *testing.T, fd int) {
	t.Helper()
	fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	require.NotZero(t, fl&unix.O_NONBLOCK, "fd %d should be non-blocking", fd)

	fdfl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	require.NotZero(t, fdfl&unix.FD_CLOEXEC, "fd %d should be close-on-exec", fd)
}
