package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/procpipe/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/procpipe/internal/spawn"
	"github.com/GriffinCanCode/procpipe/internal/testutil"
)

func forkFailure() (*spawn.Result, error) {
	return nil, &spawn.LaunchError{Status: spawn.StatusForkError, Errno: unix.EAGAIN}
}

func execFailure() (*spawn.Result, error) {
	return nil, &spawn.LaunchError{Status: spawn.StatusExecError, Errno: unix.ENOENT}
}

func TestLaunchBreaker(t *testing.T) {
	breaker := resilience.New("launch", resilience.Settings{
		Timeout: time.Hour,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})
	p := newTestProvider(WithLaunchBreaker(breaker))

	// Exec failures are the caller's problem, not the system's.
	for i := 0; i < 3; i++ {
		_, err := p.guarded(execFailure)
		assert.Error(t, err)
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())

	_, err := p.guarded(forkFailure)
	assert.ErrorIs(t, err, unix.EAGAIN)
	_, err = p.guarded(forkFailure)
	assert.ErrorIs(t, err, unix.EAGAIN)
	require.Equal(t, resilience.StateOpen, breaker.State())

	result, err := p.Execute(context.Background(), "process.launch", map[string]interface{}{
		"args": []interface{}{"true"},
	}, nil)
	require.NoError(t, err)
	testutil.AssertFailure(t, result)
	assert.Equal(t, "FORK_ERROR", result.Data["status"])
	assert.Equal(t, "EAGAIN", result.Data["errno"])
	assert.Equal(t, true, result.Data["transient"])
}

func TestLaunchWithoutBreaker(t *testing.T) {
	p := newTestProvider()
	for i := 0; i < 10; i++ {
		_, err := p.guarded(forkFailure)
		assert.ErrorIs(t, err, unix.EAGAIN)
	}
}
