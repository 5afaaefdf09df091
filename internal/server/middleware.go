package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}
		switch {
		case status >= 500:
			s.log.Error("request failed", kv...)
		case status >= 400:
			s.log.Warn("request rejected", kv...)
		default:
			s.log.Debug("request served", kv...)
		}
	}
}
