package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(c.Request.Method, path, status, duration, respSize)
	}
}

// Timer measures operation duration
type Timer struct {
	start     time.Time
	metrics   *Metrics
	operation string
	kind      string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, operation, kind string) *Timer {
	return &Timer{
		start:     time.Now(),
		metrics:   metrics,
		operation: operation,
		kind:      kind,
	}
}

// Stop stops the timer and records the outcome. A nil timer metrics is a no-op.
func (t *Timer) Stop(err error) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.RecordOperation(t.operation, t.kind, err, time.Since(t.start))
}
