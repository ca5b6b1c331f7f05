package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New("test", settings)
	b.now = clock.now
	b.newGeneration(clock.now())
	return b, clock
}

func run(t *testing.T, b *Breaker, success bool) error {
	t.Helper()
	done, err := b.Allow()
	if err != nil {
		return err
	}
	done(success)
	return nil
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen},
		{"success resets the streak", []bool{false, false, true, false, false}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(Settings{Timeout: time.Minute, ReadyToTrip: tripAfter(3)})
			for _, ok := range tt.requests {
				require.NoError(t, run(t, b, ok))
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerOpenRejects(t *testing.T) {
	b, _ := newTestBreaker(Settings{Timeout: time.Minute, ReadyToTrip: tripAfter(1)})

	require.NoError(t, run(t, b, false))
	assert.ErrorIs(t, run(t, b, true), ErrCircuitOpen)
	assert.Equal(t, Counts{}, b.Counts())
}

func TestBreakerHalfOpen(t *testing.T) {
	b, clock := newTestBreaker(Settings{MaxRequests: 1, Timeout: 10 * time.Second, ReadyToTrip: tripAfter(1)})

	require.NoError(t, run(t, b, false))
	clock.advance(9 * time.Second)
	assert.Equal(t, StateOpen, b.State())

	clock.advance(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	done, err := b.Allow()
	require.NoError(t, err)
	_, err = b.Allow()
	assert.ErrorIs(t, err, ErrTooManyRequests, "only one trial at a time")

	done(false)
	assert.Equal(t, StateOpen, b.State(), "failed trial reopens")

	clock.advance(10 * time.Second)
	require.NoError(t, run(t, b, true))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStaleOutcomeIgnored(t *testing.T) {
	b, _ := newTestBreaker(Settings{Timeout: time.Minute, ReadyToTrip: tripAfter(1)})

	slow, err := b.Allow()
	require.NoError(t, err)
	require.NoError(t, run(t, b, false))
	require.Equal(t, StateOpen, b.State())

	// The request admitted before the trip reports late.
	slow(true)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, Counts{}, b.Counts())
}

func TestBreakerInterval(t *testing.T) {
	b, clock := newTestBreaker(Settings{Interval: time.Minute, ReadyToTrip: tripAfter(3)})

	require.NoError(t, run(t, b, false))
	require.NoError(t, run(t, b, false))
	assert.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	clock.advance(time.Minute)
	require.NoError(t, run(t, b, false))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	b, clock := newTestBreaker(Settings{
		Timeout:     time.Second,
		ReadyToTrip: tripAfter(1),
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	require.NoError(t, run(t, b, false))
	clock.advance(time.Second)
	require.NoError(t, run(t, b, true))

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, transitions)
}

func TestDefaults(t *testing.T) {
	b := New("defaults", Settings{})
	assert.Equal(t, uint32(1), b.settings.MaxRequests)
	assert.Equal(t, 60*time.Second, b.settings.Timeout)
	assert.False(t, b.settings.ReadyToTrip(Counts{ConsecutiveFailures: 5}))
	assert.True(t, b.settings.ReadyToTrip(Counts{ConsecutiveFailures: 6}))
	assert.Equal(t, "defaults", b.Name())
	assert.Equal(t, "unknown", State(42).String())
}
