package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minfaz98/cozy-stay/internal/service/reservation"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"

	callerKey = "caller"
)

// RequestLogger writes one structured line per request. It reuses an
// incoming X-Request-ID or mints one.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			logger.ErrorContext(c.Request.Context(), "request", attrs...)
			return
		}
		logger.InfoContext(c.Request.Context(), "request", attrs...)
	}
}

// Identity reads the caller established by the upstream auth proxy.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, reservation.Caller{
			UserID: c.GetHeader(HeaderUserID),
			Role:   c.GetHeader(HeaderUserRole),
		})
		c.Next()
	}
}

func callerFrom(c *gin.Context) reservation.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(reservation.Caller); ok {
			return caller
		}
	}
	return reservation.Caller{UserID: c.GetHeader(HeaderUserID), Role: c.GetHeader(HeaderUserRole)}
}
