package spawn

import "time"

// MetricsCollector receives engine events. Implementations must be safe for
// concurrent use.
type MetricsCollector interface {
	// LaunchCompleted records one launch attempt; status is StatusSuccess
	// for a running child.
	LaunchCompleted(status Status, duration time.Duration)
	BytesWritten(n int)
	BytesRead(n int)
	// OperationError records a failed per-handle operation ("write",
	// "read", "close", "signal", "wait").
	OperationError(op string, err error)
	SignalSent(sig string, err error)
	// ProcessReaped records a wait attempt that collected the child.
	ProcessReaped(res WaitResult)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

var _ MetricsCollector = NoopMetricsCollector{}

func (NoopMetricsCollector) LaunchCompleted(Status, time.Duration) {}
func (NoopMetricsCollector) BytesWritten(int)                      {}
func (NoopMetricsCollector) BytesRead(int)                         {}
func (NoopMetricsCollector) OperationError(string, error)          {}
func (NoopMetricsCollector) SignalSent(string, error)              {}
func (NoopMetricsCollector) ProcessReaped(WaitResult)              {}
