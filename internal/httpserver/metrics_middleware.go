package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"threedays/internal/metrics"
)

// MetricsMiddleware records request duration labeled by route template,
// not the raw path, to keep cardinality bounded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
