package process

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/procpipe/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/procpipe/internal/service"
	"github.com/GriffinCanCode/procpipe/internal/shared/types"
	"github.com/GriffinCanCode/procpipe/internal/spawn"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Provider exposes the process engine as service tools
type Provider struct {
	engine  *spawn.Engine
	allowed map[string]struct{}
	breaker *resilience.Breaker
	log     *zap.Logger
}

// Option configures a Provider
type Option func(*Provider)

// WithAllowedPrograms restricts process.launch to the given argv[0] values.
// An empty list allows every program.
func WithAllowedPrograms(programs []string) Option {
	return func(p *Provider) {
		if len(programs) == 0 {
			p.allowed = nil
			return
		}
		p.allowed = make(map[string]struct{}, len(programs))
		for _, prog := range programs {
			p.allowed[prog] = struct{}{}
		}
	}
}

// WithLaunchBreaker suspends launches while b is open. Only fork failures
// count against it.
func WithLaunchBreaker(b *resilience.Breaker) Option {
	return func(p *Provider) {
		p.breaker = b
	}
}

// WithLogger sets the provider logger
func WithLogger(log *zap.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProvider creates a new process provider
func NewProvider(engine *spawn.Engine, opts ...Option) *Provider {
	p := &Provider{
		engine: engine,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "process",
		Name:        "Process Service",
		Description: "Launch child programs with piped stdio and drive them through non-blocking descriptor operations",
		Category:    types.CategoryProcess,
		Capabilities: []string{
			"launch",
			"pipes",
			"pty",
			"signals",
			"non_blocking_io",
		},
		Tools: p.getTools(),
		DataModels: []types.DataModel{
			{
				Name: "launch_result",
				Fields: map[string]string{
					"pid":       "number",
					"input_fd":  "number",
					"output_fd": "number",
					"error_fd":  "number (-1 when stderr is not piped)",
				},
			},
			{
				Name: "failure",
				Fields: map[string]string{
					"status":    "string (launch step, launch only)",
					"errno":     "string",
					"transient": "boolean",
				},
			},
		},
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	switch toolID {
	case "process.launch":
		return p.launch(params, appCtx)
	case "process.write":
		return p.write(params)
	case "process.read":
		return p.read(params)
	case "process.close":
		return p.close(params)
	case "process.terminate":
		return p.signal(params, p.engine.Terminate)
	case "process.kill":
		return p.signal(params, p.engine.Kill)
	case "process.wait":
		return p.wait(params)
	case "process.is_alive":
		return p.isAlive(params)
	default:
		return nil, fmt.Errorf("%w: %s", service.ErrToolNotFound, toolID)
	}
}

func (p *Provider) launch(params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	argv, err := argsParam(params)
	if err != nil {
		return nil, err
	}
	if err := spawn.ValidateArgv(argv); err != nil {
		return nil, err
	}
	if !p.isAllowed(argv[0]) {
		p.log.Warn("Program not allowed",
			zap.String("program", argv[0]),
			zap.String("request_id", requestID(appCtx)))
		return nil, fmt.Errorf("%w: program %q is not allowed", spawn.ErrInvalidArgument, argv[0])
	}

	dir, err := optionalString(params, "dir")
	if err != nil {
		return nil, err
	}
	env, err := envParam(params)
	if err != nil {
		return nil, err
	}
	usePTY, err := optionalBool(params, "pty")
	if err != nil {
		return nil, err
	}

	res, err := p.guarded(func() (*spawn.Result, error) {
		if usePTY {
			return p.launchPTY(argv, params, dir, env)
		}
		return p.launchPipes(argv, params, dir, env)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		p.log.Warn("Launch suspended",
			zap.String("program", argv[0]),
			zap.String("request_id", requestID(appCtx)))
		return types.Failure("launches suspended after repeated fork failures", map[string]interface{}{
			"status":    spawn.StatusForkError.String(),
			"errno":     spawn.ErrnoName(unix.EAGAIN),
			"transient": true,
		}), nil
	}
	if err != nil {
		return launchFailure(err)
	}

	return types.Success(map[string]interface{}{
		"pid":       res.PID,
		"input_fd":  res.InputFD,
		"output_fd": res.OutputFD,
		"error_fd":  res.ErrorFD,
		"pty":       usePTY,
	}), nil
}

// guarded runs launch under the breaker, if any
func (p *Provider) guarded(launch func() (*spawn.Result, error)) (*spawn.Result, error) {
	if p.breaker == nil {
		return launch()
	}
	done, err := p.breaker.Allow()
	if err != nil {
		return nil, err
	}
	res, err := launch()
	done(!isForkFailure(err))
	return res, err
}

func isForkFailure(err error) bool {
	var le *spawn.LaunchError
	return errors.As(err, &le) && le.Status == spawn.StatusForkError
}

func (p *Provider) launchPipes(argv []string, params map[string]interface{}, dir string, env []string) (*spawn.Result, error) {
	opts := []spawn.LaunchOption{spawn.WithDir(dir), spawn.WithEnv(env)}

	modeName, err := optionalString(params, "stderr")
	if err != nil {
		return nil, err
	}
	if modeName != "" {
		mode, err := spawn.ParseStderrMode(modeName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, spawn.WithStderr(mode))
	}

	return p.engine.Launch(argv, opts...)
}

func (p *Provider) launchPTY(argv []string, params map[string]interface{}, dir string, env []string) (*spawn.Result, error) {
	rows, err := optionalInt(params, "rows", 24)
	if err != nil {
		return nil, err
	}
	cols, err := optionalInt(params, "cols", 80)
	if err != nil {
		return nil, err
	}
	if rows <= 0 || rows > 0xffff || cols <= 0 || cols > 0xffff {
		return nil, invalid("rows and cols must be between 1 and 65535")
	}

	return p.engine.LaunchPTY(argv,
		spawn.WithWindowSize(uint16(rows), uint16(cols)),
		spawn.WithPTYDir(dir),
		spawn.WithPTYEnv(env))
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	fd, err := intParam(params, "fd")
	if err != nil {
		return nil, err
	}
	data, err := dataParam(params)
	if err != nil {
		return nil, err
	}

	n, err := p.engine.Write(fd, data)
	if err != nil {
		return opFailure(err, map[string]interface{}{"written": 0})
	}

	return types.Success(map[string]interface{}{
		"written": n,
	}), nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	fd, err := intParam(params, "fd")
	if err != nil {
		return nil, err
	}

	data, err := p.engine.Read(fd)
	if err != nil {
		return opFailure(err, nil)
	}

	// Encode output as base64 to handle binary data
	return types.Success(map[string]interface{}{
		"data":        string(data),
		"data_base64": base64.StdEncoding.EncodeToString(data),
		"length":      len(data),
		"eof":         len(data) == 0,
	}), nil
}

func (p *Provider) close(params map[string]interface{}) (*types.Result, error) {
	fd, err := intParam(params, "fd")
	if err != nil {
		return nil, err
	}

	if err := p.engine.Close(fd); err != nil {
		return opFailure(err, nil)
	}
	return types.Success(nil), nil
}

func (p *Provider) signal(params map[string]interface{}, send func(int) error) (*types.Result, error) {
	pid, err := intParam(params, "pid")
	if err != nil {
		return nil, err
	}

	if err := send(pid); err != nil {
		if errors.Is(err, spawn.ErrInvalidArgument) {
			return nil, err
		}
		return opFailure(err, map[string]interface{}{"result": -1})
	}
	return types.Success(map[string]interface{}{"result": 0}), nil
}

func (p *Provider) wait(params map[string]interface{}) (*types.Result, error) {
	pid, err := intParam(params, "pid")
	if err != nil {
		return nil, err
	}

	res, err := p.engine.WaitNonBlocking(pid)
	if errors.Is(err, spawn.ErrInvalidArgument) {
		return nil, err
	}

	// Wait errors are diagnostics; the outcome stays a valid answer.
	data := map[string]interface{}{
		"pid":       res.PID,
		"reaped":    res.Reaped(pid),
		"status":    int(res.Status),
		"exited":    res.Exited(),
		"exit_code": res.ExitCode(),
		"signaled":  res.Signaled(),
		"signal":    signalName(res.Signal()),
	}
	if err != nil {
		data["diagnostic"] = err.Error()
	}
	return types.Success(data), nil
}

func (p *Provider) isAlive(params map[string]interface{}) (*types.Result, error) {
	pid, err := intParam(params, "pid")
	if err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{
		"alive": p.engine.IsAlive(pid),
	}), nil
}

func (p *Provider) isAllowed(program string) bool {
	if p.allowed == nil {
		return true
	}
	_, ok := p.allowed[program]
	return ok
}

// launchFailure turns a launch error into a result. Contract violations
// stay Go errors.
func launchFailure(err error) (*types.Result, error) {
	var le *spawn.LaunchError
	if !errors.As(err, &le) {
		return nil, err
	}
	return types.Failure(le.Error(), map[string]interface{}{
		"status":    le.Status.String(),
		"errno":     spawn.ErrnoName(le.Errno),
		"transient": false,
	}), nil
}

func opFailure(err error, data map[string]interface{}) (*types.Result, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["errno"] = spawn.ErrnoName(spawn.Errno(err))
	data["transient"] = spawn.IsTransient(err)
	return types.Failure(err.Error(), data), nil
}

func signalName(sig unix.Signal) string {
	if sig == 0 {
		return ""
	}
	return unix.SignalName(sig)
}

func requestID(appCtx *types.Context) string {
	if appCtx == nil || appCtx.RequestID == nil {
		return ""
	}
	return *appCtx.RequestID
}
