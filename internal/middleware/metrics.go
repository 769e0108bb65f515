package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cds-scoring-engine/internal/metrics"
)

// Metrics records request counts, latency and in-flight requests. Paths are
// labelled by route template; unrouted requests share the "unmatched" label.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := collector.RequestStarted()
		start := time.Now()

		c.Next()

		done()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
