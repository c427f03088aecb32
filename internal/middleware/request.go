package middleware

import (
	"strconv"
	"time"

	"Tubely/pkg/logger"
	"Tubely/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID 沿用上游传来的请求ID，没有就生成一个，方便把一次请求的日志串起来
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Log 带上request_id的日志入口
func Log(c *gin.Context) *logrus.Entry {
	return logger.Log.WithField(ContextRequestID, c.GetString(ContextRequestID))
}

// AccessLog 每个请求结束后记一条访问日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := Log(c).
			WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).
			WithField("status", c.Writer.Status()).
			WithField("latency", time.Since(start).String()).
			WithField("ip", c.ClientIP())
		if userID, ok := UserID(c); ok {
			entry = entry.WithField("user_id", userID)
		}
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("请求处理完成")
		case c.Writer.Status() >= 400:
			entry.Warn("请求处理完成")
		default:
			entry.Info("请求处理完成")
		}
	}
}

// Metrics 按路由模板统计请求数和耗时，未匹配的路由归到一起，避免标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
