package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics records measurements as Sentry spans on the request's
// transaction. Spans are dropped by the SDK when Sentry is not initialised.
type SentryMetrics struct{}

// NewSentryMetrics creates the span sink
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{}
}

// spanRecord is one finished operation reported after the fact
type spanRecord struct {
	op          string
	description string
	duration    time.Duration
	success     bool
	tags        map[string]string
	data        map[string]interface{}
}

func (m *SentryMetrics) record(ctx context.Context, rec spanRecord) {
	span := sentry.StartSpan(ctx, rec.op)
	if rec.duration > 0 {
		span.StartTime = time.Now().Add(-rec.duration)
	}
	span.Description = rec.description
	span.SetTag("success", strconv.FormatBool(rec.success))
	for k, v := range rec.tags {
		span.SetTag(k, v)
	}
	for k, v := range rec.data {
		span.SetData(k, v)
	}
	span.Status = spanStatus(rec.success)
	span.Finish()
}

// RecordAPIRequest records a served request; 4xx and 5xx count as failures
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	m.record(ctx, spanRecord{
		op:          "api.request",
		description: "API Request: " + endpoint,
		duration:    duration,
		success:     statusCode < http.StatusBadRequest,
		tags:        map[string]string{"endpoint": endpoint, "status_code": strconv.Itoa(statusCode)},
	})
}

// RecordGeneration records one model call (title, variants or chat) and,
// when it succeeded, its token usage on the enclosing transaction.
func (m *SentryMetrics) RecordGeneration(ctx context.Context, kind, model string, usage TokenUsage, duration time.Duration, success bool) {
	rec := spanRecord{
		op:          "generation.request",
		description: "Generation: " + kind,
		duration:    duration,
		success:     success,
		tags:        map[string]string{"kind": kind, "model": model},
	}
	if success {
		rec.data = map[string]interface{}{
			"total_tokens":  usage.Total,
			"input_tokens":  usage.Input,
			"output_tokens": usage.Output,
		}
		if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
			transaction.SetTag("llm.model", model)
			transaction.SetData("llm.total_tokens", usage.Total)
		}
	}
	m.record(ctx, rec)
}

// RecordTurn records a chat turn and the mode it ran in
func (m *SentryMetrics) RecordTurn(ctx context.Context, mode string, duration time.Duration, success bool) {
	m.record(ctx, spanRecord{
		op:          "chat.turn",
		description: "Chat Turn: " + mode,
		duration:    duration,
		success:     success,
		tags:        map[string]string{"mode": mode},
	})
}

// RecordPublish records a publish attempt
func (m *SentryMetrics) RecordPublish(ctx context.Context, success bool) {
	m.record(ctx, spanRecord{
		op:          "twitter.publish",
		description: "Publish post",
		success:     success,
	})
}

func spanStatus(success bool) sentry.SpanStatus {
	if success {
		return sentry.SpanStatusOK
	}
	return sentry.SpanStatusInternalError
}
