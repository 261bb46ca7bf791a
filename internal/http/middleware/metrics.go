package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
)

const (
	routeSPA       = "spa"
	routeUnmatched = "unmatched"
)

// metricsRoute keeps label cardinality bounded: matched requests use the route
// template, anything served by the fallback collapses to spa or unmatched.
func metricsRoute(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return routeUnmatched
	}
	return routeSPA
}

// Metrics records request counts and latency per route template, plus the
// error code of every error envelope.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := metricsRoute(c)
		status := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
		if status >= 400 && len(c.Errors) > 0 {
			m.ObserveAPIError(route, apierr.As(c.Errors.Last().Err).Code)
		}
	}
}
