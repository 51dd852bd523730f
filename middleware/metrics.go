package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feyndora/backend/metrics"
)

// Metrics records request latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status()/100) + "xx"
		metrics.HTTPRequestDuration.WithLabelValues(ctx.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
	}
}
