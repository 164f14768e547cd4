package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/metrics"
	"github.com/Conceptual-Machines/stagepost-api/internal/observability"
	"github.com/Conceptual-Machines/stagepost-api/internal/services"
)

// Runner performs model calls with tracing, metrics and logging around them.
// Agents share one Runner and differ only in the requests they build.
type Runner struct {
	resolver llm.ProviderResolver
	recorder *metrics.Recorder
}

// NewRunner creates a runner; recorder may be nil
func NewRunner(resolver llm.ProviderResolver, recorder *metrics.Recorder) *Runner {
	return &Runner{resolver: resolver, recorder: recorder}
}

// Call names one model call for traces and metrics
type Call struct {
	Kind  string // "title", "variants" or "chat"
	Model string // model reference, optionally provider-prefixed
}

// Generate runs a non-streaming request
func (r *Runner) Generate(ctx context.Context, call Call, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	return r.run(ctx, call, request, func(provider llm.Provider) (*llm.GenerationResponse, error) {
		return provider.Generate(ctx, request)
	})
}

// Stream runs a streaming request, passing every text delta to onDelta
func (r *Runner) Stream(ctx context.Context, call Call, request *llm.GenerationRequest, onDelta func(string) error) (*llm.GenerationResponse, error) {
	return r.run(ctx, call, request, func(provider llm.Provider) (*llm.GenerationResponse, error) {
		return provider.GenerateStream(ctx, request, func(event llm.StreamEvent) error {
			if event.Type != llm.StreamEventTextDelta {
				return nil
			}
			return onDelta(event.Message)
		})
	})
}

func (r *Runner) run(
	ctx context.Context,
	call Call,
	request *llm.GenerationRequest,
	invoke func(llm.Provider) (*llm.GenerationResponse, error),
) (*llm.GenerationResponse, error) {
	provider, modelID, err := r.resolver.GetProvider(ctx, call.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve provider for %s: %w", call.Model, err)
	}
	request.Model = modelID
	if request.ReasoningMode == "" {
		request.ReasoningMode = services.GetLLMParameters(services.LLMStage(call.Kind)).ReasoningEffort
	}

	trace := observability.GetClient().TraceCall(ctx, call.Kind, provider.Name(), modelID, map[string]any{
		"system":   request.SystemPrompt,
		"messages": request.Messages,
	})

	log.Printf("🤖 %s REQUEST: provider=%s model=%s messages=%d", call.Kind, provider.Name(), modelID, len(request.Messages))
	start := time.Now()
	resp, err := invoke(provider)
	duration := time.Since(start)

	if err != nil {
		trace.Fail(err)
		r.recorder.Generation(ctx, call.Kind, modelID, metrics.TokenUsage{}, duration, false)
		logger.Warn("Generation request failed", logger.Fields{
			"kind":        call.Kind,
			"model":       modelID,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return nil, err
	}

	trace.Succeed(resp.RawOutput, resp.Usage)
	r.recorder.Generation(ctx, call.Kind, modelID, metrics.TokenUsage{
		Total:  resp.Usage.TotalTokens,
		Input:  resp.Usage.InputTokens,
		Output: resp.Usage.OutputTokens,
	}, duration, true)
	logger.LogGenerationRequest(ctx, call.Kind, modelID, duration,
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens, nil)

	return resp, nil
}
