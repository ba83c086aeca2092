package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/service"
)

// Metrics records request counts and latencies. The scrape endpoint itself
// is not recorded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// Prefer the route template so metric cardinality stays bounded.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
