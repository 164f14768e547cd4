package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	maxLogEventCount   = 5
	geminiUserRole     = "user"
	geminiModelRole    = "model"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate implements non-streaming generation using Gemini's API
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🤖 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	span := transaction.StartChild("gemini.api_call")
	result, err := p.client.Models.GenerateContent(ctx, request.Model, buildGeminiContents(request.Messages), buildGeminiConfig(request))
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	textOutput := cleanTextOutput(geminiText(result))
	if textOutput == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini response did not include any output text")
	}

	usage := geminiUsage(result.UsageMetadata)
	logUsageStats(providerNameGemini, usage)
	log.Printf("✅ GEMINI GENERATION COMPLETED in %v (%d chars)", time.Since(startTime), len(textOutput))

	transaction.SetTag("success", "true")
	return &GenerationResponse{
		RawOutput: textOutput,
		Usage:     usage,
	}, nil
}

// GenerateStream implements streaming generation for Gemini
func (p *GeminiProvider) GenerateStream(
	ctx context.Context, request *GenerationRequest, callback StreamCallback,
) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🤖 GEMINI STREAMING GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate_stream")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("streaming", "true")

	iter := p.client.Models.GenerateContentStream(ctx, request.Model, buildGeminiContents(request.Messages), buildGeminiConfig(request))

	var accumulated strings.Builder
	var usage Usage
	eventCount := 0

	for chunk, err := range iter {
		if err != nil {
			log.Printf("❌ GEMINI STREAMING ERROR: %v", err)
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("gemini stream error: %w", err)
		}
		eventCount++

		text := geminiText(chunk)
		if text != "" {
			accumulated.WriteString(text)
			if eventCount <= maxLogEventCount {
				log.Printf("✅ Gemini chunk #%d: +%d chars (total: %d)", eventCount, len(text), accumulated.Len())
			}
			if callback != nil {
				if err := callback(StreamEvent{Type: StreamEventTextDelta, Message: text}); err != nil {
					transaction.SetTag("success", "false")
					return nil, err
				}
			}
		}

		if chunk.UsageMetadata != nil {
			usage = geminiUsage(chunk.UsageMetadata)
		}
	}

	log.Printf("✅ GEMINI STREAMING GENERATION COMPLETED in %v (%d chunks)", time.Since(startTime), eventCount)
	logUsageStats(providerNameGemini, usage)

	if callback != nil {
		_ = callback(StreamEvent{
			Type:    StreamEventCompleted,
			Message: "Generation complete",
			Data:    map[string]any{"total_length": accumulated.Len()},
		})
	}

	transaction.SetTag("success", "true")
	return &GenerationResponse{RawOutput: accumulated.String(), Usage: usage}, nil
}

func buildGeminiConfig(request *GenerationRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if request.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		}
	}
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
		config.ResponseSchema = convertSchemaToGemini(request.OutputSchema.Schema)
	}
	return config
}

// buildGeminiContents converts conversation messages to Gemini Content format.
// Gemini only knows "user" and "model"; developer messages go as user.
func buildGeminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		role := geminiUserRole
		if msg.Role == RoleAssistant {
			role = geminiModelRole
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

// convertSchemaToGemini maps a JSON Schema object onto genai.Schema.
// A type list containing "null" becomes a nullable schema of the other type.
func convertSchemaToGemini(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	out := &genai.Schema{}

	switch t := schema["type"].(type) {
	case string:
		out.Type = geminiType(t)
	case []string:
		setGeminiTypeList(out, t)
	case []any:
		names := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		setGeminiTypeList(out, names)
	}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propSchema, ok := prop.(map[string]any); ok {
				out.Properties[name] = convertSchemaToGemini(propSchema)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = convertSchemaToGemini(items)
	}
	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if v, ok := schemaInt(schema["maxLength"]); ok {
		out.MaxLength = &v
	}
	if v, ok := schemaInt(schema["minItems"]); ok {
		out.MinItems = &v
	}
	if v, ok := schemaInt(schema["maxItems"]); ok {
		out.MaxItems = &v
	}
	return out
}

func setGeminiTypeList(out *genai.Schema, names []string) {
	for _, name := range names {
		if name == "null" {
			nullable := true
			out.Nullable = &nullable
			continue
		}
		out.Type = geminiType(name)
	}
}

func geminiType(name string) genai.Type {
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

func schemaInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func geminiUsage(meta *genai.GenerateContentResponseUsageMetadata) Usage {
	if meta == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:     int64(meta.PromptTokenCount),
		OutputTokens:    int64(meta.CandidatesTokenCount),
		ReasoningTokens: int64(meta.ThoughtsTokenCount),
		TotalTokens:     int64(meta.TotalTokenCount),
	}
}
