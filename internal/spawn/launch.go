package spawn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// StderrMode selects where the child's standard error goes.
type StderrMode int

const (
	// StderrPipe captures stderr through its own pipe, returned as ErrorFD.
	StderrPipe StderrMode = iota
	// StderrInherit leaves the child writing to the host's stderr.
	StderrInherit
)

// String returns the config name of the mode.
func (m StderrMode) String() string {
	switch m {
	case StderrPipe:
		return "pipe"
	case StderrInherit:
		return "inherit"
	default:
		return fmt.Sprintf("stderr_mode(%d)", int(m))
	}
}

// ParseStderrMode parses "pipe" or "inherit". The empty string means pipe.
func ParseStderrMode(s string) (StderrMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pipe":
		return StderrPipe, nil
	case "inherit":
		return StderrInherit, nil
	default:
		return StderrPipe, fmt.Errorf("%w: unknown stderr mode %q", ErrInvalidArgument, s)
	}
}

// Result is a successful launch. The caller owns every descriptor in it.
type Result struct {
	PID      int
	InputFD  int
	OutputFD int
	// ErrorFD is -1 when stderr is inherited or the child runs on a pty.
	ErrorFD int
}

type launchConfig struct {
	stderr StderrMode
	dir    string
	env    []string
}

// LaunchOption configures a single Launch call.
type LaunchOption func(*launchConfig)

// WithStderr selects the stderr mode (default StderrPipe).
func WithStderr(mode StderrMode) LaunchOption {
	return func(c *launchConfig) {
		c.stderr = mode
	}
}

// WithDir runs the child in dir instead of the host's working directory.
func WithDir(dir string) LaunchOption {
	return func(c *launchConfig) {
		c.dir = dir
	}
}

// WithEnv replaces the child's environment. A nil env inherits the host's.
func WithEnv(env []string) LaunchOption {
	return func(c *launchConfig) {
		c.env = env
	}
}

func newLaunchConfig(opts []LaunchOption) launchConfig {
	var cfg launchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.env == nil {
		cfg.env = os.Environ()
	}
	return cfg
}

// Launch starts argv[0] (resolved through PATH) with its stdin and stdout,
// and by default stderr, attached to fresh pipes.
//
// Caller-contract violations return an *ArgumentError. Runtime failures
// return a *LaunchError; whatever step failed, no descriptor created by the
// call stays open and no child is left running.
func Launch(argv []string, opts ...LaunchOption) (*Result, error) {
	if err := ValidateArgv(argv); err != nil {
		return nil, err
	}
	cfg := newLaunchConfig(opts)

	path, err := resolveProgram(argv[0], cfg.dir)
	if err != nil {
		return nil, err
	}

	ps, err := CreatePipeSet(cfg.stderr == StderrPipe)
	if err != nil {
		return nil, err
	}
	if err := ps.ConfigureNonBlockingCloexec(); err != nil {
		return nil, err
	}
	if err := ps.prepareChildEnds(); err != nil {
		return nil, err
	}

	pid, err := syscall.ForkExec(path, argv, childPlan(ps, cfg))
	if err != nil {
		ps.Close()
		return nil, newLaunchError(classifyForkExec(err), err)
	}

	return parentResult(ps, pid), nil
}

// childPlan describes the child side of the fork: the STDIN read end
// becomes fd 0, the STDOUT write end fd 1 and the STDERR write end (or the
// host's stderr) fd 2. Every other descriptor of the set is close-on-exec
// and vanishes when the image is replaced.
func childPlan(ps *PipeSet, cfg launchConfig) *syscall.ProcAttr {
	stderr := uintptr(unix.Stderr)
	if ps.withStderr {
		stderr = uintptr(ps.pairs[RoleStderr].Write)
	}

	return &syscall.ProcAttr{
		Dir: cfg.dir,
		Env: cfg.env,
		Files: []uintptr{
			uintptr(ps.pairs[RoleStdin].Read),
			uintptr(ps.pairs[RoleStdout].Write),
			stderr,
		},
	}
}

// parentResult is the parent side of the fork: drop the child's ends and
// hand the remaining ones to the caller.
func parentResult(ps *PipeSet, pid int) *Result {
	ps.closeChildEnds()

	res := &Result{
		PID:      pid,
		InputFD:  ps.pairs[RoleStdin].Write,
		OutputFD: ps.pairs[RoleStdout].Read,
		ErrorFD:  -1,
	}
	if ps.withStderr {
		res.ErrorFD = ps.pairs[RoleStderr].Read
	}
	return res
}

// classifyForkExec maps a ForkExec errno to the launch step that produced
// it. ForkExec reports child-side failures (dup2, exec) through its own
// status pipe and reaps the failed child before returning.
func classifyForkExec(err error) Status {
	switch Errno(err) {
	case unix.EAGAIN, unix.ENOMEM, unix.ENOSYS:
		return StatusForkError
	case unix.EBADF, unix.EMFILE, unix.EBUSY:
		return StatusPipeDupError
	default:
		return StatusExecError
	}
}

// resolveProgram applies execvp lookup rules: names with a slash are used
// as-is, anything else is searched in PATH.
func resolveProgram(name, dir string) (string, error) {
	if dir != "" && strings.Contains(name, "/") {
		return name, nil
	}

	path, err := exec.LookPath(name)
	if err != nil && !errors.Is(err, exec.ErrDot) {
		errno := Errno(err)
		if errno == 0 {
			errno = unix.ENOENT
			if errors.Is(err, fs.ErrPermission) {
				errno = unix.EACCES
			}
		}
		return "", &LaunchError{Status: StatusExecError, Errno: errno}
	}
	return path, nil
}
