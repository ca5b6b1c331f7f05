package spawn

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPrometheusMetricsCollector_Launches(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.LaunchCompleted(StatusSuccess, time.Millisecond)
	pmc.LaunchCompleted(StatusSuccess, 2*time.Millisecond)
	pmc.LaunchCompleted(StatusExecError, time.Millisecond)

	expected := `
		# HELP test_launches_total Total number of launch attempts by status
		# TYPE test_launches_total counter
		test_launches_total{status="EXEC_ERROR"} 1
		test_launches_total{status="SUCCESS"} 2
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected), "test_launches_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(pmc.Registry(), "test_launch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheusMetricsCollector_Bytes(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.BytesWritten(10)
	pmc.BytesWritten(0)
	pmc.BytesRead(5)
	pmc.BytesRead(7)

	assert.Equal(t, 10.0, testutil.ToFloat64(pmc.bytesWritten))
	assert.Equal(t, 12.0, testutil.ToFloat64(pmc.bytesRead))
}

func TestPrometheusMetricsCollector_ErrorsAndSignals(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.OperationError("write", unix.EPIPE)
	pmc.OperationError("write", unix.EPIPE)
	pmc.OperationError("close", unix.EBADF)
	pmc.SignalSent("SIGTERM", nil)
	pmc.SignalSent("SIGKILL", unix.ESRCH)

	expected := `
		# HELP test_operation_errors_total Total number of failed handle operations
		# TYPE test_operation_errors_total counter
		test_operation_errors_total{errno="EBADF",op="close"} 1
		test_operation_errors_total{errno="EPIPE",op="write"} 2
		# HELP test_signals_total Total number of signals sent to children
		# TYPE test_signals_total counter
		test_signals_total{result="ESRCH",signal="SIGKILL"} 1
		test_signals_total{result="ok",signal="SIGTERM"} 1
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected),
		"test_operation_errors_total", "test_signals_total")
	assert.NoError(t, err)
}

func TestPrometheusMetricsCollector_Reaps(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	// Raw wait statuses: exit code in the high byte, signal in the low bits.
	pmc.ProcessReaped(WaitResult{PID: 10, Status: unix.WaitStatus(3 << 8)})
	pmc.ProcessReaped(WaitResult{PID: 11, Status: unix.WaitStatus(unix.SIGKILL)})

	assert.Equal(t, 1.0, testutil.ToFloat64(pmc.reaps.WithLabelValues("exited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pmc.reaps.WithLabelValues("signaled")))
}

func TestPrometheusMetricsCollector_DefaultNamespace(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("")
	pmc.BytesRead(1)

	count, err := testutil.GatherAndCount(pmc.Registry(), "procpipe_output_bytes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
