// Package middleware provides the Gin middleware stack shared by every
// route: CORS, per-client rate limiting and request IDs.
package middleware
