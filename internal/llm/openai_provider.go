package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Reasoning effort levels
	reasoningNone    = "none"
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"

	// Provider name
	providerNameOpenAI = "openai"

	// Logging limits
	maxLogEventCountOpenAI = 5
	maxErrorPreviewChars   = 200
	heartbeatEveryEvents   = 50
)

// modelsWithReasoning lists the models that accept a reasoning effort parameter
var modelsWithReasoning = map[string]bool{
	"gpt-5":        true,
	"gpt-5-mini":   true,
	"gpt-5-nano":   true,
	"gpt-5.1":      true,
	"gpt-5.1-mini": true,
	"gpt-5.2":      true,
	"gpt-5.2-mini": true,
}

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
// Extra request options (base URL, HTTP client) are mostly useful in tests.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements non-streaming generation using OpenAI's Responses API
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🤖 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	resp, err := p.client.Responses.New(ctx, params)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	textOutput := cleanTextOutput(resp.OutputText())
	if textOutput == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	usage := usageFromResponse(resp.Usage)
	logUsageStats(providerNameOpenAI, usage)
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (%d chars)", time.Since(startTime), len(textOutput))

	transaction.SetTag("success", "true")
	return &GenerationResponse{
		RawOutput: textOutput,
		Usage:     usage,
	}, nil
}

// GenerateStream implements streaming generation using OpenAI's Responses API
// It streams text chunks as they arrive from the LLM and calls the callback for each chunk
func (p *OpenAIProvider) GenerateStream(
	ctx context.Context,
	request *GenerationRequest,
	callback StreamCallback,
) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🤖 OPENAI STREAMING GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate_stream")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("streaming", "true")

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_stream")
	stream := p.client.Responses.NewStreaming(ctx, params)
	defer stream.Close()

	var accumulated strings.Builder
	var finalResponse *responses.Response
	eventCount := 0

	for stream.Next() {
		event := stream.Current()
		eventCount++

		if eventCount <= maxLogEventCountOpenAI {
			log.Printf("📥 Stream event #%d: type=%s", eventCount, event.Type)
		}

		switch event.Type {
		case "response.output_text.delta":
			delta := event.AsResponseOutputTextDelta().Delta
			if delta == "" {
				continue
			}
			accumulated.WriteString(delta)
			if callback != nil {
				if err := callback(StreamEvent{Type: StreamEventTextDelta, Message: delta}); err != nil {
					span.Finish()
					transaction.SetTag("success", "false")
					return nil, err
				}
			}

		case "response.completed":
			completed := event.AsResponseCompleted()
			finalResponse = &completed.Response

		case "response.failed":
			failed := event.AsResponseFailed()
			log.Printf("❌ Stream failed: %s", failed.Response.Error.Message)
			span.Finish()
			transaction.SetTag("success", "false")
			return nil, fmt.Errorf("streaming failed: %s", failed.Response.Error.Message)

		case "error":
			errorEvent := event.AsError()
			log.Printf("❌ Stream error: %s", errorEvent.Message)
			span.Finish()
			transaction.SetTag("success", "false")
			return nil, fmt.Errorf("stream error: %s", errorEvent.Message)
		}

		if eventCount%heartbeatEveryEvents == 0 && callback != nil {
			_ = callback(StreamEvent{
				Type:    StreamEventHeartbeat,
				Message: "Processing...",
				Data: map[string]any{
					"events_received": eventCount,
					"elapsed_seconds": int(time.Since(startTime).Seconds()),
				},
			})
		}
	}

	span.Finish()

	if err := stream.Err(); err != nil {
		log.Printf("❌ Stream error: %v", err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("stream error: %w", err)
	}

	log.Printf("✅ OPENAI STREAMING COMPLETE: %d events, %d chars, %v duration",
		eventCount, accumulated.Len(), time.Since(startTime))

	if callback != nil {
		_ = callback(StreamEvent{
			Type:    StreamEventCompleted,
			Message: "Generation complete",
			Data:    map[string]any{"total_length": accumulated.Len()},
		})
	}

	response := &GenerationResponse{RawOutput: accumulated.String()}
	if finalResponse != nil {
		response.Usage = usageFromResponse(finalResponse.Usage)
		logUsageStats(providerNameOpenAI, response.Usage)
	}

	transaction.SetTag("success", "true")
	return response, nil
}

// buildRequestParams converts a GenerationRequest into Responses API parameters
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}
	for _, msg := range request.Messages {
		if msg.Content == "" {
			continue
		}
		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(msg.Content, openAIRole(msg.Role)),
		)
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
	}
	if request.SystemPrompt != "" {
		params.Instructions = openai.String(request.SystemPrompt)
	}

	if modelsWithReasoning[request.Model] {
		params.Reasoning = shared.ReasoningParam{
			Effort: reasoningEffort(request.ReasoningMode),
		}
	}

	if request.OutputSchema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.OutputSchema.Name,
				request.OutputSchema.Schema,
			),
		}
		log.Printf("📋 JSON SCHEMA CONFIGURED: %s", request.OutputSchema.Name)
	}

	return params
}

func openAIRole(role string) responses.EasyInputMessageRole {
	switch role {
	case RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case RoleDeveloper:
		return responses.EasyInputMessageRoleDeveloper
	default:
		return responses.EasyInputMessageRoleUser
	}
}

func reasoningEffort(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningMinimal:
		return shared.ReasoningEffort(reasoningMinimal)
	case reasoningMedium:
		return responses.ReasoningEffortMedium
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	case reasoningNone, reasoningLow:
		return responses.ReasoningEffortLow
	default:
		return responses.ReasoningEffortLow
	}
}

func usageFromResponse(usage responses.ResponseUsage) Usage {
	return Usage{
		InputTokens:     usage.InputTokens,
		OutputTokens:    usage.OutputTokens,
		ReasoningTokens: usage.OutputTokensDetails.ReasoningTokens,
		TotalTokens:     usage.TotalTokens,
	}
}

// cleanTextOutput strips markdown code fences some models wrap JSON in
func cleanTextOutput(textOutput string) string {
	cleaned := strings.TrimSpace(textOutput)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned != strings.TrimSpace(textOutput) {
		log.Printf("🧹 Stripped markdown code blocks from output: %d -> %d chars", len(textOutput), len(cleaned))
	}
	return cleaned
}

// logUsageStats logs token usage statistics
func logUsageStats(provider string, usage Usage) {
	log.Printf("📊 %s USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		strings.ToUpper(provider), usage.InputTokens, usage.OutputTokens,
		usage.ReasoningTokens, usage.TotalTokens)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
