/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the HTTP
host: requests, service tool calls, output streams and uptime. Process
engine metrics live in their own registry (spawn.PrometheusMetricsCollector)
and are served on the same endpoint through Handler.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time tool calls
	timer := monitoring.NewTimer(metrics, "process", "process.launch")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(monitoring.Handler(
		prometheus.DefaultGatherer,
		collector.Registry(),
	)))
*/
package monitoring
