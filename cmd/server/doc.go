// Package main is the entry point for the procpipe server.
//
// procpipe launches child programs on non-blocking pipes (or a
// pseudo-terminal) and exposes the descriptor operations as service tools
// over HTTP, with child output streamable over WebSocket.
//
// Configuration:
//   - Environment variables (PORT, LOG_LEVEL, SPAWN_ALLOWED_PROGRAMS, ...)
//   - CONFIG_FILE: YAML file applied over the environment
//   - CLI flags (override both)
//
// Usage:
//
//	# Only allow cat and sh
//	SPAWN_ALLOWED_PROGRAMS=cat,sh ./server -port 8000
//
//	# Development mode (console logs)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
