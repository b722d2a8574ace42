/*
Package tracing gives each dashboard request a trace and span id.

Spans are logged by a background collector rather than exported; the ids are
returned to callers in the X-Trace-ID and X-Span-ID headers so a browser
console error can be matched to the server log line.

	tracer := tracing.New("taskdock", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

Work started from a handler can hang child spans off the request context:

	span, ctx := tracer.StartSpan(c.Request.Context(), "install")
	defer func() { span.Finish(); tracer.Submit(span) }()
*/
package tracing
