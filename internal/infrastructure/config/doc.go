// Package config provides 12-factor configuration management for the
// procpipe server.
//
// Configuration is loaded from environment variables with sensible defaults.
// A YAML file named by CONFIG_FILE is applied on top of the environment, and
// CLI flags in cmd/server override both.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Spawn: Default stderr mode and program allowlist
//   - Stream: Output streaming poll interval and backoff ceiling
//   - Metrics: Prometheus namespace
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SPAWN_STDERR_MODE, SPAWN_ALLOWED_PROGRAMS (comma separated)
//   - STREAM_POLL_INTERVAL, STREAM_MAX_BACKOFF
//   - METRICS_NAMESPACE
//   - CONFIG_FILE
package config
