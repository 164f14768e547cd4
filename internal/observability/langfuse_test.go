package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestWithChat(t *testing.T) {
	assert.Equal(t, "", chatFrom(context.Background()))
	assert.Equal(t, "chat-1", chatFrom(WithChat(context.Background(), "chat-1")))
}

func TestDisabledClientIsNoop(t *testing.T) {
	client := InitializeLangfuse(context.Background(), &config.Config{LangfuseEnabled: false})
	assert.False(t, client.IsEnabled())
	assert.Same(t, client, GetClient())

	trace := client.TraceCall(context.Background(), "title", "openai", "gpt-5-mini", nil)
	assert.NotPanics(t, func() {
		trace.Succeed("ok", llm.Usage{TotalTokens: 3})
		trace.Fail(errors.New("boom"))
		client.Flush()
	})
}
