package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		model    string
		provider string
		id       string
	}{
		{"openai/gpt-5-mini", "openai", "gpt-5-mini"},
		{"gpt-4.1-mini", "openai", "gpt-4.1-mini"},
		{"google/gemini-2.5-flash", "gemini", "gemini-2.5-flash"},
		{"gemini-2.5-pro", "gemini", "gemini-2.5-pro"},
		{"  some-model ", "openai", "some-model"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, id := ResolveModel(tt.model)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestProviderFactory_MissingKeys(t *testing.T) {
	factory := NewProviderFactory("", "")

	_, _, err := factory.GetProvider(context.Background(), "gpt-5-mini")
	assert.ErrorContains(t, err, "openai API key not configured")

	_, _, err = factory.GetProvider(context.Background(), "google/gemini-2.5-flash")
	assert.ErrorContains(t, err, "gemini API key not configured")
}

func TestProviderFactory_OpenAI(t *testing.T) {
	factory := NewProviderFactory("sk-test", "")

	provider, modelID, err := factory.GetProvider(context.Background(), "openai/gpt-5-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
	assert.Equal(t, "gpt-5-mini", modelID)
}

func TestCleanTextOutput(t *testing.T) {
	assert.Equal(t, `{"posts":[]}`, cleanTextOutput("```json\n{\"posts\":[]}\n```"))
	assert.Equal(t, "plain", cleanTextOutput("  plain \n"))
}
