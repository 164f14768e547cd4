package metrics

import (
	"context"
	"time"
)

// TokenUsage is the token count of one model call
type TokenUsage struct {
	Total  int64
	Input  int64
	Output int64
}

// Recorder fans every measurement out to Sentry spans and CloudWatch.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder combines the two sinks; cloudwatch may be nil
func NewRecorder(cloudwatch *Client) *Recorder {
	return &Recorder{sentry: NewSentryMetrics(), cloudwatch: cloudwatch}
}

// APIRequest records one served HTTP request
func (r *Recorder) APIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
}

// Generation records one model call with its token usage
func (r *Recorder) Generation(ctx context.Context, kind, model string, usage TokenUsage, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	r.sentry.RecordGeneration(ctx, kind, model, usage, duration, success)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordGeneration(kind, model, usage, duration, success)
	}
}

// Turn records one chat turn and the mode it ran in
func (r *Recorder) Turn(ctx context.Context, mode string, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	r.sentry.RecordTurn(ctx, mode, duration, success)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordTurn(mode, success)
	}
}

// Publish records one publish attempt
func (r *Recorder) Publish(ctx context.Context, success bool) {
	if r == nil {
		return
	}
	r.sentry.RecordPublish(ctx, success)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordPublish(success)
	}
}
