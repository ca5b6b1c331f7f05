// Package server wires configuration, logging, metrics, tracing, the spawn
// engine and the service registry into a single HTTP server.
package server
