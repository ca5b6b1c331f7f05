/*
Package resilience provides a two-step circuit breaker.

The process provider uses it to stop forking while the system is refusing
new processes: after enough consecutive fork failures (EAGAIN, ENOMEM) the
breaker opens and launches are answered immediately until the timeout
passes, then a trial launch decides whether to close again.

# Usage

	breaker := resilience.New("launch", resilience.Settings{
		Timeout: 5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	done, err := breaker.Allow()
	if err != nil {
		return err // ErrCircuitOpen or ErrTooManyRequests
	}
	res, err := launch()
	done(!isForkFailure(err))
*/
package resilience
