// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"time"

	"safechat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 记录每个 HTTP 请求的访问日志。
// 聊天内容涉及未成年人隐私，只记录请求元数据，不记录请求体与响应体。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Infow("http request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"clientIp", c.ClientIP(),
			"latency", time.Since(start).String(),
		)
	}
}
