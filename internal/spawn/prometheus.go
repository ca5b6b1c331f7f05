package spawn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector on its own
// Prometheus registry.
type PrometheusMetricsCollector struct {
	launches       *prometheus.CounterVec
	launchDuration *prometheus.HistogramVec

	bytesWritten prometheus.Counter
	bytesRead    prometheus.Counter

	errors  *prometheus.CounterVec
	signals *prometheus.CounterVec
	reaps   *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)

// NewPrometheusMetricsCollector creates a collector. An empty namespace
// defaults to "procpipe".
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "procpipe"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Total number of launch attempts by status",
		},
		[]string{"status"},
	)

	pmc.launchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "launch_duration_seconds",
			Help:      "Duration of launch attempts",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .5},
		},
		[]string{"status"},
	)

	pmc.bytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Total bytes written to child input pipes",
		},
	)

	pmc.bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Total bytes read from child output pipes",
		},
	)

	pmc.errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Total number of failed handle operations",
		},
		[]string{"op", "errno"},
	)

	pmc.signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Total number of signals sent to children",
		},
		[]string{"signal", "result"},
	)

	pmc.reaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaped_total",
			Help:      "Total number of children reaped by outcome",
		},
		[]string{"outcome"},
	)

	pmc.registry.MustRegister(
		pmc.launches,
		pmc.launchDuration,
		pmc.bytesWritten,
		pmc.bytesRead,
		pmc.errors,
		pmc.signals,
		pmc.reaps,
	)

	return pmc
}

// LaunchCompleted records a launch attempt
func (pmc *PrometheusMetricsCollector) LaunchCompleted(status Status, duration time.Duration) {
	pmc.launches.WithLabelValues(status.String()).Inc()
	pmc.launchDuration.WithLabelValues(status.String()).Observe(duration.Seconds())
}

// BytesWritten adds to the input byte counter
func (pmc *PrometheusMetricsCollector) BytesWritten(n int) {
	if n > 0 {
		pmc.bytesWritten.Add(float64(n))
	}
}

// BytesRead adds to the output byte counter
func (pmc *PrometheusMetricsCollector) BytesRead(n int) {
	if n > 0 {
		pmc.bytesRead.Add(float64(n))
	}
}

// OperationError records a failed operation labelled by errno name
func (pmc *PrometheusMetricsCollector) OperationError(op string, err error) {
	pmc.errors.WithLabelValues(op, ErrnoName(Errno(err))).Inc()
}

// SignalSent records a signal delivery attempt
func (pmc *PrometheusMetricsCollector) SignalSent(sig string, err error) {
	result := "ok"
	if err != nil {
		result = ErrnoName(Errno(err))
	}
	pmc.signals.WithLabelValues(sig, result).Inc()
}

// ProcessReaped records a reaped child
func (pmc *PrometheusMetricsCollector) ProcessReaped(res WaitResult) {
	outcome := "other"
	switch {
	case res.Exited():
		outcome = "exited"
	case res.Signaled():
		outcome = "signaled"
	}
	pmc.reaps.WithLabelValues(outcome).Inc()
}

// Registry returns the registry holding the collector's metrics.
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}
