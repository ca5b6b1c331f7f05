package spawn

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Engine wraps the package functions with logging and metrics. It keeps no
// per-process state: every method is a thin pass-through and may be called
// concurrently for different descriptors and pids.
type Engine struct {
	log     *zap.Logger
	metrics MetricsCollector
	stderr  StderrMode
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the diagnostics logger.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithStderrMode sets the default stderr mode for Launch.
func WithStderrMode(mode StderrMode) EngineOption {
	return func(e *Engine) {
		e.stderr = mode
	}
}

// NewEngine creates an engine with a no-op logger and collector unless
// overridden.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		log:     zap.NewNop(),
		metrics: NoopMetricsCollector{},
		stderr:  StderrPipe,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StderrMode returns the engine's default stderr mode.
func (e *Engine) StderrMode() StderrMode {
	return e.stderr
}

// Launch starts a child with pipes. Options override the engine defaults.
func (e *Engine) Launch(argv []string, opts ...LaunchOption) (*Result, error) {
	start := time.Now()
	res, err := Launch(argv, append([]LaunchOption{WithStderr(e.stderr)}, opts...)...)
	e.recordLaunch("pipe", argv, res, err, time.Since(start))
	return res, err
}

// LaunchPTY starts a child on a pseudo-terminal.
func (e *Engine) LaunchPTY(argv []string, opts ...PTYOption) (*Result, error) {
	start := time.Now()
	res, err := LaunchPTY(argv, opts...)
	e.recordLaunch("pty", argv, res, err, time.Since(start))
	return res, err
}

func (e *Engine) recordLaunch(kind string, argv []string, res *Result, err error, d time.Duration) {
	var program string
	if len(argv) > 0 {
		program = argv[0]
	}

	if err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			e.log.Debug("Launch rejected",
				zap.String("kind", kind),
				zap.String("program", program),
				zap.Error(err))
			return
		}
		e.metrics.LaunchCompleted(le.Status, d)
		e.log.Warn("Launch failed",
			zap.String("kind", kind),
			zap.String("program", program),
			zap.String("status", le.Status.String()),
			zap.String("errno", ErrnoName(le.Errno)),
			zap.Duration("duration", d))
		return
	}

	e.metrics.LaunchCompleted(StatusSuccess, d)
	e.log.Info("Process launched",
		zap.String("kind", kind),
		zap.String("program", program),
		zap.Int("pid", res.PID),
		zap.Int("input_fd", res.InputFD),
		zap.Int("output_fd", res.OutputFD),
		zap.Int("error_fd", res.ErrorFD),
		zap.Duration("duration", d))
}

// Write performs a single WriteInput.
func (e *Engine) Write(fd int, p []byte) (int, error) {
	n, err := WriteInput(fd, p)
	if err != nil {
		e.opError("write", fd, err)
		return 0, err
	}
	e.metrics.BytesWritten(n)
	return n, nil
}

// Read performs a single ReadOutput.
func (e *Engine) Read(fd int) ([]byte, error) {
	data, err := ReadOutput(fd)
	if err != nil {
		e.opError("read", fd, err)
		return nil, err
	}
	e.metrics.BytesRead(len(data))
	return data, nil
}

// Close closes a descriptor returned by Launch.
func (e *Engine) Close(fd int) error {
	err := ClosePipe(fd)
	if err != nil {
		e.opError("close", fd, err)
	}
	return err
}

func (e *Engine) opError(op string, fd int, err error) {
	if IsTransient(err) {
		e.log.Debug("Pipe not ready",
			zap.String("op", op),
			zap.Int("fd", fd),
			zap.String("errno", ErrnoName(Errno(err))))
		return
	}
	e.metrics.OperationError(op, err)
	e.log.Warn("Pipe operation failed",
		zap.String("op", op),
		zap.Int("fd", fd),
		zap.Error(err))
}

// IsAlive reports whether pid exists.
func (e *Engine) IsAlive(pid int) bool {
	return IsAlive(pid)
}

// Terminate sends SIGTERM.
func (e *Engine) Terminate(pid int) error {
	return e.sendSignal(pid, unix.SIGTERM, Terminate)
}

// Kill sends SIGKILL.
func (e *Engine) Kill(pid int) error {
	return e.sendSignal(pid, unix.SIGKILL, Kill)
}

func (e *Engine) sendSignal(pid int, sig unix.Signal, send func(int) error) error {
	name := unix.SignalName(sig)
	err := send(pid)
	if errors.Is(err, ErrInvalidArgument) {
		return err
	}

	e.metrics.SignalSent(name, err)
	if err != nil {
		e.log.Warn("Signal failed",
			zap.Int("pid", pid),
			zap.String("signal", name),
			zap.Error(err))
		return err
	}
	e.log.Debug("Signal sent", zap.Int("pid", pid), zap.String("signal", name))
	return nil
}

// WaitNonBlocking attempts to reap pid. Wait failures are reported on the
// engine's logger, which is the diagnostic channel for this operation.
func (e *Engine) WaitNonBlocking(pid int) (WaitResult, error) {
	res, err := WaitNonBlocking(pid)
	switch {
	case errors.Is(err, ErrInvalidArgument):
	case err != nil:
		e.metrics.OperationError("wait", err)
		e.log.Warn("Wait failed", zap.Int("pid", pid), zap.Error(err))
	case res.Reaped(pid):
		e.metrics.ProcessReaped(res)
		e.log.Info("Process reaped",
			zap.Int("pid", pid),
			zap.Bool("exited", res.Exited()),
			zap.Int("exit_code", res.ExitCode()),
			zap.Bool("signaled", res.Signaled()),
			zap.String("signal", signalName(res.Signal())))
	}
	return res, err
}

func signalName(sig unix.Signal) string {
	if sig == 0 {
		return ""
	}
	return unix.SignalName(sig)
}
