package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/metrics"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID    = "X-Request-ID"
	sentryFlushTimeout = 2 * time.Second
)

// requestID reuses a well-formed id set by an upstream gateway, otherwise mints one
func requestID(c *gin.Context) string {
	if incoming, err := uuid.Parse(c.GetHeader(headerRequestID)); err == nil {
		return incoming.String()
	}
	return uuid.New().String()
}

// RequestTracking tags each request with an id, logs its outcome and records
// its latency. recorder may be nil.
func RequestTracking(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestID(c)
		c.Set("request_id", id)
		c.Header(headerRequestID, id)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetTag("request_id", id)
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		fields := logger.WithContext(c).With(logger.Fields{
			"duration_ms": duration.Milliseconds(),
			"status_code": status,
			"client_ip":   c.ClientIP(),
		})
		if c.Writer.Header().Get("Content-Type") == "text/event-stream" {
			fields["stream"] = true
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed with server error", fmt.Errorf("%s %s returned %d", c.Request.Method, c.FullPath(), status), fields)
		case status >= http.StatusBadRequest:
			logger.Warn("Request failed with client error", fields)
		default:
			logger.Info("Request completed", fields)
		}

		recorder.APIRequest(c.Request.Context(), c.FullPath(), status, duration)
	}
}

// SentryMiddleware attaches a per-request Sentry hub
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         sentryFlushTimeout,
	})
}

// RecoverWithSentry turns a handler panic into a 500 and reports it with the
// owner and chat it happened on. A panic after an SSE stream has started can
// only be reported; the response is already committed.
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetRequest(c.Request)
					if ownerID, ok := middleware.OwnerID(c); ok {
						scope.SetUser(sentry.User{ID: ownerID})
					}
					if chatID := c.Param("id"); chatID != "" {
						scope.SetTag("chat_id", chatID)
					}
					hub.RecoverWithContext(c.Request.Context(), recovered)
				})
			}

			logger.Error("Panic recovered", fmt.Errorf("panic: %v", recovered), logger.WithContext(c))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": c.GetString("request_id"),
			})
		}()
		c.Next()
	}
}
