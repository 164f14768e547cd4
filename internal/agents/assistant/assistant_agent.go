package assistant

import (
	"context"

	"github.com/Conceptual-Machines/stagepost-api/internal/agents/core"
	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
)

const callKind = "chat"

// Agent answers free-form chat turns
type Agent struct {
	runner        *core.Runner
	defaultModel  string
	defaultPrompt string
}

// NewAgent creates an assistant agent; defaultModel serves requests that name no model
func NewAgent(runner *core.Runner, defaultModel string) *Agent {
	return &Agent{
		runner:        runner,
		defaultModel:  defaultModel,
		defaultPrompt: prompt.NewPromptLoader().GetAssistantSystemPrompt(),
	}
}

// StreamText streams a reply to history, calling onDelta for every chunk.
// An onDelta error stops the stream and is returned as is.
func (a *Agent) StreamText(ctx context.Context, model, system string, history []llm.Message, onDelta func(string) error) error {
	var sinkErr error
	_, err := a.runner.Stream(ctx, core.Call{Kind: callKind, Model: a.model(model)}, &llm.GenerationRequest{
		SystemPrompt: a.system(system),
		Messages:     history,
	}, func(delta string) error {
		sinkErr = onDelta(delta)
		return sinkErr
	})
	switch {
	case err == nil:
		return nil
	case sinkErr != nil:
		return sinkErr
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return apperrors.Generation(err)
	}
}

func (a *Agent) model(requested string) string {
	if requested != "" {
		return requested
	}
	return a.defaultModel
}

func (a *Agent) system(requested string) string {
	if requested != "" {
		return requested
	}
	return a.defaultPrompt
}
