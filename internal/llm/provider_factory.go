package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on model name
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
	}
}

// ResolveModel splits a model reference such as "openai/gpt-5-mini" or
// "gemini-2.5-flash" into a provider name and the bare model id.
func ResolveModel(model string) (providerName, modelID string) {
	modelID = strings.TrimSpace(model)
	lower := strings.ToLower(modelID)

	switch {
	case strings.HasPrefix(lower, "openai/"):
		return providerNameOpenAI, modelID[len("openai/"):]
	case strings.HasPrefix(lower, "google/"):
		return providerNameGemini, modelID[len("google/"):]
	case strings.HasPrefix(lower, "gemini-"):
		return providerNameGemini, modelID
	default:
		// Unknown models go to OpenAI
		return providerNameOpenAI, modelID
	}
}

// GetProvider returns the provider for a model reference and the bare model id to send it
func (f *ProviderFactory) GetProvider(ctx context.Context, model string) (Provider, string, error) {
	providerName, modelID := ResolveModel(model)

	switch providerName {
	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, "", fmt.Errorf("gemini API key not configured")
		}
		provider, err := NewGeminiProvider(ctx, f.geminiAPIKey)
		if err != nil {
			return nil, "", err
		}
		return provider, modelID, nil

	default:
		if f.openaiAPIKey == "" {
			return nil, "", fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), modelID, nil
	}
}

// ProviderResolver picks the provider serving a model reference
type ProviderResolver interface {
	GetProvider(ctx context.Context, model string) (Provider, string, error)
}

// StaticResolver serves every model with one provider; useful in tests and
// single-provider deployments.
type StaticResolver struct {
	Provider Provider
}

// GetProvider returns the fixed provider and the bare model id
func (s StaticResolver) GetProvider(_ context.Context, model string) (Provider, string, error) {
	if s.Provider == nil {
		return nil, "", fmt.Errorf("no provider configured")
	}
	_, modelID := ResolveModel(model)
	return s.Provider, modelID, nil
}
