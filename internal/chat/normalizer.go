package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/models"
)

// MessageWriter persists a turn's messages in one batch
type MessageWriter interface {
	InsertMessages(ctx context.Context, chatID string, messages []models.Message) error
}

// Emitter receives turn events
type Emitter interface {
	Emit(event Event) error
}

// ErrGateClosed is returned for events observed after the turn finished
var ErrGateClosed = errors.New("turn already finished")

type pendingPart struct {
	tag      TransientTag
	text     strings.Builder
	selector *models.PostSelectorData
}

// Gate accumulates a turn's events into an assistant message and writes the
// turn's messages exactly once, when finish is observed. A stream that ends
// any other way leaves storage untouched.
type Gate struct {
	ctx    context.Context
	writer MessageWriter
	next   Emitter
	chatID string

	user   *models.Message
	parts  []*pendingPart
	textBy map[string]*pendingPart
	form   bool
	closed bool
}

// NewGate wraps next so every event is recorded before it is forwarded
func NewGate(ctx context.Context, writer MessageWriter, chatID string, next Emitter) *Gate {
	return &Gate{
		ctx:    ctx,
		writer: writer,
		next:   next,
		chatID: chatID,
		textBy: make(map[string]*pendingPart),
	}
}

// IncludeUserMessage queues the turn's new user message ahead of the assistant reply
func (g *Gate) IncludeUserMessage(msg models.Message) {
	g.user = &msg
}

// Emit records event and forwards it. On finish the batch is written first;
// a failed write is returned instead of forwarding finish.
func (g *Gate) Emit(event Event) error {
	if g.closed {
		return ErrGateClosed
	}

	if event.Type == EventFinish {
		g.closed = true
		if err := g.flush(); err != nil {
			return err
		}
		return g.next.Emit(event)
	}

	g.observe(event)
	return g.next.Emit(event)
}

func (g *Gate) observe(event Event) {
	switch event.Type {
	case EventTextStart:
		g.textPart(event.ID)
	case EventTextDelta:
		g.textPart(event.ID).text.WriteString(event.Delta)
	case EventProfileForm:
		if !g.form {
			g.form = true
			g.parts = append(g.parts, &pendingPart{tag: TagProfileForm})
		}
	case EventVariantSelector:
		if data, ok := event.Data.(*models.PostSelectorData); ok && data != nil {
			g.parts = append(g.parts, &pendingPart{tag: TagVariantSelector, selector: data})
		}
	}
}

// textPart returns the part for id, so repeated ids merge into one part
func (g *Gate) textPart(id string) *pendingPart {
	if p, ok := g.textBy[id]; ok {
		return p
	}
	p := &pendingPart{tag: TagText}
	g.textBy[id] = p
	g.parts = append(g.parts, p)
	return p
}

// Messages returns the batch the gate would write for the events seen so far
func (g *Gate) Messages() ([]models.Message, error) {
	var batch []models.Message
	if g.user != nil {
		batch = append(batch, *g.user)
	}

	parts := make([]models.Part, 0, len(g.parts))
	for _, p := range g.parts {
		part := models.Part{Type: ToDurable(p.tag)}
		switch part.Type {
		case models.PartText:
			part.Text = p.text.String()
			if part.Text == "" {
				continue
			}
		case models.PartPostSelector:
			part.Selector = p.selector
		}
		parts = append(parts, part)
	}
	if len(parts) > 0 {
		msg, err := models.NewMessage(g.chatID, models.RoleAssistant, parts)
		if err != nil {
			return nil, fmt.Errorf("encode assistant message: %w", err)
		}
		batch = append(batch, msg)
	}
	return batch, nil
}

func (g *Gate) flush() error {
	batch, err := g.Messages()
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	if err := g.writer.InsertMessages(g.ctx, g.chatID, batch); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}
	return nil
}
