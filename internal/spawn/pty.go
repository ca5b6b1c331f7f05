package spawn

import (
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

type ptyConfig struct {
	rows uint16
	cols uint16
	dir  string
	env  []string
}

// PTYOption configures a LaunchPTY call.
type PTYOption func(*ptyConfig)

// WithWindowSize sets the initial terminal size (default 24x80).
func WithWindowSize(rows, cols uint16) PTYOption {
	return func(c *ptyConfig) {
		if rows > 0 {
			c.rows = rows
		}
		if cols > 0 {
			c.cols = cols
		}
	}
}

// WithPTYDir runs the child in dir.
func WithPTYDir(dir string) PTYOption {
	return func(c *ptyConfig) {
		c.dir = dir
	}
}

// WithPTYEnv replaces the child's environment. TERM is added when missing.
func WithPTYEnv(env []string) PTYOption {
	return func(c *ptyConfig) {
		c.env = env
	}
}

// LaunchPTY starts argv[0] as a session leader whose stdin, stdout and
// stderr are the slave side of a new pseudo-terminal.
//
// InputFD and OutputFD are two independent non-blocking duplicates of the
// master, so the caller closes each exactly once as with Launch. ErrorFD
// is -1: the terminal merges stderr into the output stream. Once the child
// exits, Linux reports EIO rather than end-of-stream on the master.
func LaunchPTY(argv []string, opts ...PTYOption) (*Result, error) {
	if err := ValidateArgv(argv); err != nil {
		return nil, err
	}

	cfg := ptyConfig{rows: 24, cols: 80}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.env == nil {
		cfg.env = newLaunchConfig(nil).env
	}
	cfg.env = withTerm(cfg.env)

	path, err := resolveProgram(argv[0], cfg.dir)
	if err != nil {
		return nil, err
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, newLaunchError(StatusPipeCreateError, err)
	}
	// The parent keeps only the duplicated master descriptors.
	defer ptmx.Close()
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: cfg.rows, Cols: cfg.cols}); err != nil {
		return nil, newLaunchError(StatusPipeFlagError, err)
	}

	in, out, err := dupMaster(int(ptmx.Fd()))
	if err != nil {
		return nil, err
	}

	slave := tty.Fd()
	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Dir:   cfg.dir,
		Env:   cfg.env,
		Files: []uintptr{slave, slave, slave},
		Sys: &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
			Ctty:    0,
		},
	})
	if err != nil {
		_ = unix.Close(in)
		_ = unix.Close(out)
		return nil, newLaunchError(classifyForkExec(err), err)
	}

	return &Result{PID: pid, InputFD: in, OutputFD: out, ErrorFD: -1}, nil
}

// dupMaster returns two close-on-exec duplicates of the pty master and
// makes the shared file description non-blocking.
func dupMaster(master int) (int, int, error) {
	in, err := unix.FcntlInt(uintptr(master), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, -1, newLaunchError(StatusPipeDupError, err)
	}
	out, err := unix.FcntlInt(uintptr(master), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		_ = unix.Close(in)
		return -1, -1, newLaunchError(StatusPipeDupError, err)
	}
	if err := unix.SetNonblock(in, true); err != nil {
		_ = unix.Close(in)
		_ = unix.Close(out)
		return -1, -1, newLaunchError(StatusPipeFlagError, err)
	}
	return in, out, nil
}

func withTerm(env []string) []string {
	for _, kv := range env {
		if len(kv) >= 5 && kv[:5] == "TERM=" {
			return env
		}
	}
	out := make([]string, 0, len(env)+1)
	out = append(out, env...)
	return append(out, "TERM=xterm-256color")
}
