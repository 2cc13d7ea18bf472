/*
Package tracing provides lightweight request tracing.

Every HTTP request gets a span. The trace ID (a prefixed ULID) is taken from
an incoming X-Trace-ID header or generated, stored in the request context and
returned in the response, so a client can quote it when reporting a problem.
Registry log lines carry the same trace_id field.

# Usage

	tracer := tracing.New("galaxy", logger)
	defer tracer.Close()

	router.Use(tracing.Middleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "seed")
	err := seed(ctx)
	span.Finish(0, err)
	tracer.Submit(span)

# Propagation

	X-Trace-ID: identifier for the entire request flow
	X-Span-ID:  identifier of the caller's span (becomes the parent)

Finished spans are logged by a single background collector. Spans that
arrive while its buffer is full are counted and dropped.
*/
package tracing
