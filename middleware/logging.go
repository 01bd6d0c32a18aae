package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxRequestID    = "requestId"
)

// RequestLogger tags each request with an id and logs it once finished.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if userID := c.GetString(ctxUserID); userID != "" {
			entry = entry.WithField("user_id", userID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// Recovery turns panics into a 500. The panic value is only echoed to the
// client in development.
func Recovery(log *logrus.Logger, devMode bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.WithFields(logrus.Fields{
			"request_id": RequestID(c),
			"panic":      rec,
			"stack":      string(debug.Stack()),
		}).Error("panic while handling request")

		body := gin.H{"success": false, "message": "Internal server error"}
		if devMode {
			body["error"] = fmt.Sprint(rec)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
