package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestMiddleware logs each request and records HTTP metrics.
func (h *Handler) requestMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	status := c.Writer.Status()
	elapsed := time.Since(start)

	h.opts.Metrics.ObserveHTTP(c.Request.Method, route, status, elapsed)

	if h.log == nil {
		return
	}
	fields := []interface{}{
		"method", c.Request.Method,
		"route", route,
		"status", status,
		"latency", elapsed,
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "errors", c.Errors.String())
	}
	if status >= 500 {
		h.log.Errorw("http_request", fields...)
		return
	}
	h.log.Debugw("http_request", fields...)
}
