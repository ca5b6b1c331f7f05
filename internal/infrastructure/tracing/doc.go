/*
Package tracing provides lightweight request tracing.

# Overview

Spans carry ULID trace and span identifiers, are propagated through the
X-Trace-ID and X-Span-ID headers, and are logged through zap by a single
collector goroutine when they finish.

# Usage

	tracer := tracing.New("procpipe", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Child span inside a handler
	span, ctx := tracer.StartSpan(c.Request.Context(), "process.launch")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
