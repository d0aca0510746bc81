package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// Logging пишет access-лог через logrus и проставляет request id.
// Входящий X-Request-ID сохраняется, иначе генерируется новый.
func Logging(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(log.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"client_ip":   c.ClientIP(),
			"status_code": status,
			"duration_ms": time.Since(started).Milliseconds(),
		})
		if size := c.Writer.Size(); size > 0 {
			entry = entry.WithField("response_size", size)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// GetRequestID возвращает request id текущего запроса.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
