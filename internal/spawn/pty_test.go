package spawn

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// readPTY reads the master until the slave side is gone (EIO or EOF).
func readPTY(t *testing.T, fd int) string {
	t.Helper()
	var out strings.Builder
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		data, err := ReadOutput(fd)
		switch {
		case IsTransient(err):
			time.Sleep(5 * time.Millisecond)
		case errors.Is(err, unix.EIO):
			return out.String()
		case err != nil:
			require.NoError(t, err)
		case len(data) == 0:
			return out.String()
		default:
			out.Write(data)
		}
	}
	t.Fatalf("timed out reading pty %d", fd)
	return ""
}

// warmPoller opens and closes a pty so the runtime poller, which allocates
// its own descriptors on first use, does not skew descriptor counts.
func warmPoller(t *testing.T) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	tty.Close()
	ptmx.Close()
}

func TestLaunchPTY(t *testing.T) {
	warmPoller(t)
	before := openFDs(t)

	res, err := LaunchPTY([]string{"sh", "-c", "test -t 0 && test -t 1 && echo tty"})
	require.NoError(t, err)

	assert.Equal(t, -1, res.ErrorFD)
	assert.NotEqual(t, res.InputFD, res.OutputFD)
	assert.Equal(t, before+2, openFDs(t))
	requireStatusFlags(t, res.InputFD)
	requireStatusFlags(t, res.OutputFD)

	assert.Contains(t, readPTY(t, res.OutputFD), "tty")

	wr := reap(t, res.PID)
	assert.Equal(t, 0, wr.ExitCode())

	closeResult(t, res)
	assert.Equal(t, before, openFDs(t))
}

func TestLaunchPTYWindowSize(t *testing.T) {
	res, err := LaunchPTY([]string{"stty", "size"}, WithWindowSize(40, 132))
	require.NoError(t, err)
	defer closeResult(t, res)

	assert.Contains(t, readPTY(t, res.OutputFD), "40 132")
	reap(t, res.PID)
}

func TestLaunchPTYInput(t *testing.T) {
	res, err := LaunchPTY([]string{"sh", "-c", "read line; echo got:$line"})
	require.NoError(t, err)
	defer closeResult(t, res)

	_, err = WriteInput(res.InputFD, []byte("ping\n"))
	require.NoError(t, err)

	assert.Contains(t, readPTY(t, res.OutputFD), "got:ping")
	reap(t, res.PID)
}

func TestLaunchPTYErrors(t *testing.T) {
	_, err := LaunchPTY(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	warmPoller(t)
	before := openFDs(t)
	_, err = LaunchPTY([]string{"./missing"}, WithPTYDir(t.TempDir()))

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, StatusExecError, le.Status)
	assert.Equal(t, before, openFDs(t))
}

func TestWithTerm(t *testing.T) {
	assert.Equal(t, []string{"A=1", "TERM=xterm-256color"}, withTerm([]string{"A=1"}))
	assert.Equal(t, []string{"TERM=dumb"}, withTerm([]string{"TERM=dumb"}))
}
