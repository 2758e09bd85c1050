// README: Request logging middleware; tags each request with an ID and logs handler errors.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vdrop/internal/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxRequestID    = "request.id"
)

// Logging writes one line per request. Errors attached with c.Error are
// logged at error level; everything else at info.
func Logging(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		fields := []logger.Field{
			logger.String("request_id", id),
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		}
		if uid := CallerUID(c); uid != "" {
			fields = append(fields, logger.String("uid", uid))
		}
		if len(c.Errors) > 0 {
			log.Error("request failed", append(fields, logger.Strings("errors", c.Errors.Errors()))...)
			return
		}
		log.Info("request", fields...)
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
