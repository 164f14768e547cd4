package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Conceptual-Machines/stagepost-api/internal/agents/core"
	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
)

const callKind = "variants"

// VariantAgent requests post variants as schema-constrained JSON
type VariantAgent struct {
	runner       *core.Runner
	model        string
	systemPrompt string
	schema       *llm.OutputSchema
	validator    *llm.SchemaValidator
}

// postVariants is the decoded structured output
type postVariants struct {
	Posts []struct {
		Content  string  `json:"content"`
		Variant  *int    `json:"variant"`
		Approach *string `json:"approach"`
	} `json:"posts"`
}

// NewVariantAgent compiles the variants schema once for all requests
func NewVariantAgent(runner *core.Runner, model string) (*VariantAgent, error) {
	schema := &llm.OutputSchema{
		Name:        llm.PostVariantsSchemaName,
		Description: "Exactly three social media post variants",
		Schema:      llm.GetPostVariantsSchema(),
	}
	validator, err := llm.NewSchemaValidator(schema)
	if err != nil {
		return nil, fmt.Errorf("variants schema: %w", err)
	}

	return &VariantAgent{
		runner:       runner,
		model:        model,
		systemPrompt: prompt.NewPromptLoader().GetVariantOutputInstructions(),
		schema:       schema,
		validator:    validator,
	}, nil
}

// GenerateVariants returns exactly three posts in the order the model emitted them.
// Any upstream, JSON or schema failure is an apperrors.ErrGeneration; there is no
// free-text fallback here.
func (a *VariantAgent) GenerateVariants(ctx context.Context, instruction string) ([]string, error) {
	if instruction == "" {
		return nil, apperrors.Validation("variant instruction is empty")
	}

	resp, err := a.runner.Generate(ctx, core.Call{Kind: callKind, Model: a.model}, &llm.GenerationRequest{
		SystemPrompt: a.systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: instruction}},
		OutputSchema: a.schema,
	})
	if err != nil {
		return nil, apperrors.Generation(err)
	}

	if err := a.validator.Validate(resp.RawOutput); err != nil {
		return nil, apperrors.Generation(err)
	}

	var out postVariants
	if err := json.Unmarshal([]byte(resp.RawOutput), &out); err != nil {
		return nil, apperrors.Generation(fmt.Errorf("decode variants: %w", err))
	}

	posts := make([]string, 0, len(out.Posts))
	for _, p := range out.Posts {
		posts = append(posts, p.Content)
	}
	log.Printf("✅ VARIANTS GENERATED: %d posts", len(posts))
	return posts, nil
}
