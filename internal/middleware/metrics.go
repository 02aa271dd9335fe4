package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mystik-app/backend/internal/metrics"
)

// Metrics records request duration by method, route template and status.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
