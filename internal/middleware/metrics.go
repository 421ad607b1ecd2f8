package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/service"
)

// Metrics records method, route and latency for every handled request.
// Scrape and probe endpoints are skipped so they do not drown the booking
// traffic in the histograms.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	skipped := map[string]bool{
		"/metrics": true,
		"/health":  true,
		"/ready":   true,
	}

	return func(c *gin.Context) {
		if metricsSvc == nil || skipped[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// FullPath keeps the route template so IDs do not explode label
		// cardinality; unmatched requests fall back to the raw path.
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
