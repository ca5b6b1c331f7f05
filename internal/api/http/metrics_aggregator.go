package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/procpipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/procpipe/internal/service"
)

// MetricsAggregator serves a JSON view of the server metrics
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	registry *service.Registry
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, registry *service.Registry) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		registry: registry,
	}
}

// MetricsSnapshot represents a snapshot of all server metrics
type MetricsSnapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Backend   map[string]interface{} `json:"backend"`
	Services  map[string]interface{} `json:"services"`
	Summary   MetricsSummary         `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	ToolFailureRate  float64 `json:"tool_failure_rate"`
	ActiveStreams    int64   `json:"active_streams"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// GetAggregatedMetrics returns the current metrics snapshot
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Backend:   ma.getBackendMetrics(),
		Services:  ma.registry.Stats(),
		Summary:   ma.calculateSummary(),
	})
}

func (ma *MetricsAggregator) getBackendMetrics() map[string]interface{} {
	snapshot := ma.metrics.GetSnapshot()

	return map[string]interface{}{
		"status":           "operational",
		"total_requests":   snapshot.TotalRequests,
		"total_errors":     snapshot.TotalErrors,
		"service_calls":    snapshot.ServiceCalls,
		"service_failures": snapshot.ServiceFailures,
		"active_streams":   snapshot.ActiveStreams,
		"uptime_seconds":   ma.metrics.GetUptimeSeconds(),
	}
}

// calculateSummary computes high-level summary metrics
func (ma *MetricsAggregator) calculateSummary() MetricsSummary {
	snapshot := ma.metrics.GetSnapshot()

	var avgLatency float64
	if snapshot.RequestCount > 0 {
		avgLatency = (snapshot.TotalDuration / float64(snapshot.RequestCount)) * 1000
	}

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	var failureRate float64
	if snapshot.ServiceCalls > 0 {
		failureRate = float64(snapshot.ServiceFailures) / float64(snapshot.ServiceCalls)
	}

	return MetricsSummary{
		TotalRequests:    snapshot.TotalRequests,
		AverageLatencyMs: avgLatency,
		ErrorRate:        errorRate,
		ToolFailureRate:  failureRate,
		ActiveStreams:    snapshot.ActiveStreams,
		UptimeSeconds:    ma.metrics.GetUptimeSeconds(),
	}
}
