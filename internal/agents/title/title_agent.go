package title

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/agents/core"
	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
)

const (
	callKind = "title"

	// MaxTitleLength bounds a cleaned title, in runes
	MaxTitleLength = 30
)

// TitleAgent summarizes the first user message into a short chat title
type TitleAgent struct {
	runner       *core.Runner
	model        string
	systemPrompt string
}

// NewTitleAgent creates a title agent for the given model reference
func NewTitleAgent(runner *core.Runner, model string) *TitleAgent {
	return &TitleAgent{
		runner:       runner,
		model:        model,
		systemPrompt: prompt.NewPromptLoader().GetTitleSystemPrompt(),
	}
}

// GenerateTitle returns a cleaned title for firstMessage.
// Failures wrap apperrors.ErrTitleGeneration; callers log and move on.
func (a *TitleAgent) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return "", fmt.Errorf("%w: first message is empty", apperrors.ErrTitleGeneration)
	}

	resp, err := a.runner.Generate(ctx, core.Call{Kind: callKind, Model: a.model}, &llm.GenerationRequest{
		SystemPrompt: a.systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: firstMessage}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrTitleGeneration, err)
	}

	title := CleanTitle(resp.RawOutput)
	if title == "" {
		return "", fmt.Errorf("%w: model returned no usable title", apperrors.ErrTitleGeneration)
	}
	return title, nil
}

// CleanTitle keeps the first non-empty line, drops quotes and colons and bounds the length
func CleanTitle(raw string) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.NewReplacer(":", "", `"`, "", "'", "", "`", "").Replace(line)
	line = strings.Join(strings.Fields(line), " ")

	runes := []rune(line)
	if len(runes) > MaxTitleLength {
		line = strings.TrimSpace(string(runes[:MaxTitleLength]))
	}
	return line
}
