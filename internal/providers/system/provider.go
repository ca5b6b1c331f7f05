package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/procpipe/internal/service"
	"github.com/GriffinCanCode/procpipe/internal/shared/types"
)

// Provider reports facts about the host that bound what process.launch can do
type Provider struct {
	startTime time.Time
	fdDir     string
}

// NewProvider creates a system provider
func NewProvider() *Provider {
	return &Provider{
		startTime: time.Now(),
		fdDir:     "/proc/self/fd",
	}
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "Host information and resource limits",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"info",
			"limits",
		},
		Tools: []types.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get runtime and host information",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.limits",
				Name:        "Resource Limits",
				Description: "Descriptor and process limits of the server, and how many descriptors it holds open",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.info":
		return s.info()
	case "system.limits":
		return s.limits()
	case "system.time":
		return s.currentTime()
	case "system.ping":
		return s.ping()
	default:
		return nil, fmt.Errorf("%w: %s", service.ErrToolNotFound, toolID)
	}
}

func (s *Provider) info() (*types.Result, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	hostname, _ := os.Hostname()

	return types.Success(map[string]interface{}{
		"hostname":       hostname,
		"pid":            os.Getpid(),
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"cpus":           runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"memory_sys":     m.Sys / 1024 / 1024,   // MB
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	}), nil
}

func (s *Provider) limits() (*types.Result, error) {
	data := map[string]interface{}{}

	for name, resource := range map[string]int{
		"nofile": unix.RLIMIT_NOFILE,
		"nproc":  unix.RLIMIT_NPROC,
	} {
		var rl unix.Rlimit
		if err := unix.Getrlimit(resource, &rl); err != nil {
			return types.Failure(fmt.Sprintf("getrlimit %s: %v", name, err), nil), nil
		}
		data[name] = map[string]interface{}{
			"soft": limitValue(rl.Cur),
			"hard": limitValue(rl.Max),
		}
	}

	// Each piped launch costs up to six descriptors while it runs and three
	// afterwards until the caller closes them.
	if entries, err := os.ReadDir(s.fdDir); err == nil {
		data["open_fds"] = len(entries) - 1 // ReadDir's own descriptor
	}

	return types.Success(data), nil
}

// limitValue reports RLIM_INFINITY as -1
func limitValue(v uint64) int64 {
	if v == ^uint64(0) {
		return -1
	}
	return int64(v)
}

func (s *Provider) currentTime() (*types.Result, error) {
	now := time.Now()
	return types.Success(map[string]interface{}{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
	}), nil
}

func (s *Provider) ping() (*types.Result, error) {
	return types.Success(map[string]interface{}{
		"pong":      true,
		"timestamp": time.Now().Unix(),
	}), nil
}
