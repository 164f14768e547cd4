package logger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Field keys promoted to Sentry tags so events can be filtered on them
var taggedFields = []string{"request_id", "owner_id", "chat_id", "mode", "model", "kind"}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
	if ownerID, exists := c.Get("owner_id"); exists {
		fields["owner_id"] = ownerID
	}
	if chatID := c.Param("id"); chatID != "" {
		fields["chat_id"] = chatID
	}
	return fields
}

// With returns a copy of fields with extra entries added
func (f Fields) With(extra Fields) Fields {
	out := make(Fields, len(f)+len(extra))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %s", msg, formatFields(fields))
	breadcrumb(sentry.LevelInfo, "info", msg, fields)
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %s", msg, formatFields(fields))
	breadcrumb(sentry.LevelWarning, "warning", msg, fields)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %s", msg, formatFields(fields))
	breadcrumb(sentry.LevelDebug, "debug", msg, fields)
}

// Error logs an error message with structured fields and sends it to Sentry
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %s", msg, err, formatFields(fields))

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetContext("fields", map[string]interface{}(fields.With(Fields{"message": msg})))
		for _, key := range taggedFields {
			if v, ok := fields[key]; ok {
				scope.SetTag(key, fmt.Sprint(v))
			}
		}
		hub.CaptureException(err)
	})
}

// LogGenerationRequest logs one model call with its token usage
func LogGenerationRequest(ctx context.Context, kind, model string, duration time.Duration, inputTokens, outputTokens, totalTokens int64, fields Fields) {
	fields = fields.With(Fields{
		"kind":          kind,
		"model":         model,
		"duration_ms":   duration.Milliseconds(),
		"total_tokens":  totalTokens,
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
	})
	Info("Generation request completed", fields)

	if sentry.GetHubFromContext(ctx) != nil {
		span := sentry.StartSpan(ctx, "llm.generate")
		span.Description = kind + " " + model
		span.SetData("total_tokens", totalTokens)
		span.Finish()
	}
}

func breadcrumb(level sentry.Level, kind, msg string, fields Fields) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     kind,
		Category: "log",
		Message:  msg,
		Data:     map[string]interface{}(fields.With(nil)),
		Level:    level,
	})
}

// formatFields renders fields as {k=v, ...} with sorted keys
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		switch v := fields[k].(type) {
		case float64:
			fmt.Fprintf(&b, "%.2f", v)
		default:
			fmt.Fprint(&b, v)
		}
	}
	b.WriteByte('}')
	return b.String()
}
