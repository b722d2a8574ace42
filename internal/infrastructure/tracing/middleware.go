package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request. An inbound X-Trace-ID is joined;
// the trace and span ids are echoed back on the response.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithParent(c.Request.Context(), c.GetHeader(TraceHeader), c.GetHeader(SpanHeader))

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, span.TraceID)
		c.Header(SpanHeader, span.SpanID)

		c.Next()

		span.Status = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}
		span.Finish()
		tracer.Submit(span)
	}
}
