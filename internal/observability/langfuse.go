package observability

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

type chatKey struct{}

// WithChat marks ctx as belonging to a chat; model calls made under it are
// grouped into that chat's Langfuse session.
func WithChat(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatKey{}, chatID)
}

func chatFrom(ctx context.Context) string {
	chatID, _ := ctx.Value(chatKey{}).(string)
	return chatID
}

// LangfuseClient sends one trace per model call. A disabled client is a no-op.
type LangfuseClient struct {
	client  *langfuse.Langfuse
	release string
	ctx     context.Context
}

var globalClient = &LangfuseClient{ctx: context.Background()}

// InitializeLangfuse sets up the process-wide client.
// The henomis SDK reads LANGFUSE_HOST and the key pair from the environment.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		globalClient = &LangfuseClient{ctx: ctx}
		return globalClient
	}

	globalClient = &LangfuseClient{
		client:  langfuse.New(ctx),
		release: cfg.Environment,
		ctx:     ctx,
	}
	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	return globalClient
}

// GetClient returns the process-wide client
func GetClient() *LangfuseClient {
	return globalClient
}

// IsEnabled returns whether traces are sent
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.client != nil
}

// Flush sends buffered events; call before shutdown
func (c *LangfuseClient) Flush() {
	if c.IsEnabled() {
		c.client.Flush(c.ctx)
	}
}

// CallTrace follows one model call from request to outcome
type CallTrace struct {
	client     *langfuse.Langfuse
	generation *model.Generation
}

// TraceCall opens a trace named after the call kind (title, variants, chat)
// with a single generation holding the request input.
func (c *LangfuseClient) TraceCall(ctx context.Context, kind, provider, modelID string, input any) *CallTrace {
	if !c.IsEnabled() {
		return &CallTrace{}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:      "stagepost." + kind,
		SessionID: chatFrom(ctx),
		Release:   c.release,
		Tags:      []string{kind, provider},
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &CallTrace{}
	}

	now := time.Now()
	gen, err := c.client.Generation(&model.Generation{
		TraceID:   trace.ID,
		Name:      kind,
		Model:     modelID,
		StartTime: &now,
		Input:     input,
		Metadata:  map[string]any{"provider": provider},
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &CallTrace{}
	}
	return &CallTrace{client: c.client, generation: gen}
}

// Succeed records the output with its token usage and estimated cost
func (t *CallTrace) Succeed(output any, usage llm.Usage) {
	if t.generation == nil {
		return
	}
	t.generation.Output = output
	t.generation.Usage = model.Usage{
		Input:     int(usage.InputTokens),
		Output:    int(usage.OutputTokens),
		Total:     int(usage.TotalTokens),
		Unit:      model.ModelUsageUnitTokens,
		TotalCost: CalculateCost(t.generation.Model, usage),
	}
	t.end()
}

// Fail marks the generation as errored
func (t *CallTrace) Fail(err error) {
	if t.generation == nil {
		return
	}
	t.generation.Level = model.ObservationLevel("ERROR")
	t.generation.StatusMessage = err.Error()
	t.end()
}

func (t *CallTrace) end() {
	now := time.Now()
	t.generation.EndTime = &now
	if _, err := t.client.GenerationEnd(t.generation); err != nil {
		log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
	}
}
