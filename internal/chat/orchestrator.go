package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/metrics"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/observability"
	"github.com/Conceptual-Machines/stagepost-api/internal/services"
	"github.com/google/uuid"
)

// Mode is the path a turn took
type Mode string

// Turn modes, chosen in this order
const (
	ModeNeedsProfile Mode = "needs_profile"
	ModeStructured   Mode = "structured"
	ModeFreeForm     Mode = "free_form"
)

// VariantIntro precedes the variant selector in the assistant message
const VariantIntro = "Here are 3 post options for you. Pick the one you like best and publish it:"

// TextStreamer streams free-form replies
type TextStreamer interface {
	StreamText(ctx context.Context, model, system string, history []llm.Message, onDelta func(string) error) error
}

// VariantGenerator produces exactly three post variants for an instruction
type VariantGenerator interface {
	GenerateVariants(ctx context.Context, instruction string) ([]string, error)
}

// TitleGenerator summarizes a first message into a chat title
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// Store is the storage the orchestrator writes through
type Store interface {
	MessageWriter
	SetTitle(ctx context.Context, chatID, title string) error
}

// Sink receives the turn output. SetTitle is called, if at all, before the first Emit.
type Sink interface {
	Emitter
	SetTitle(title string)
}

// Turn is one inbound request against a stored chat
type Turn struct {
	// Chat is the stored chat, messages loaded
	Chat *models.Chat
	// Messages is the full message list the client sent
	Messages []ClientMessage
	// System is the explicit generation instruction for this turn, if any
	System  string
	Profile *models.ArtistProfile
	Model   string
}

// Orchestrator decides a turn's mode and drives it to completion
type Orchestrator struct {
	store    Store
	text     TextStreamer
	variants VariantGenerator
	titles   TitleGenerator
	recorder *metrics.Recorder
}

// NewOrchestrator wires the turn collaborators. recorder may be nil.
func NewOrchestrator(store Store, text TextStreamer, variants VariantGenerator, titles TitleGenerator, recorder *metrics.Recorder) *Orchestrator {
	return &Orchestrator{
		store:    store,
		text:     text,
		variants: variants,
		titles:   titles,
		recorder: recorder,
	}
}

// SelectMode picks the turn mode: a chat holding only its opening message with
// no instruction needs a profile, an instruction asks for variants, anything
// else is a free-form reply.
func SelectMode(turn Turn) Mode {
	switch {
	case turn.System == "" && len(turn.Chat.Messages) == 1:
		return ModeNeedsProfile
	case turn.System != "":
		return ModeStructured
	default:
		return ModeFreeForm
	}
}

// Run executes the turn, sending events to sink. Messages are persisted only
// when the turn reaches finish; any returned error means nothing was written.
func (o *Orchestrator) Run(ctx context.Context, turn Turn, sink Sink) (Mode, error) {
	if turn.Chat == nil {
		return "", apperrors.NotFound("chat")
	}
	if len(turn.Messages) == 0 {
		return "", apperrors.Validation("messages are required")
	}

	ctx = observability.WithChat(ctx, turn.Chat.ID)
	gate := NewGate(ctx, o.store, turn.Chat.ID, sink)
	if last := turn.Messages[len(turn.Messages)-1]; last.Role == models.RoleUser && len(turn.Messages) > 1 {
		msg, err := NormalizeClientMessage(turn.Chat.ID, last)
		if err != nil {
			return "", err
		}
		gate.IncludeUserMessage(msg)
	}

	o.backfillTitle(ctx, turn, sink)

	mode := SelectMode(turn)
	started := time.Now()
	fields := logger.Fields{"chat_id": turn.Chat.ID, "mode": string(mode)}
	logger.Info("Turn started", fields)

	var err error
	switch mode {
	case ModeNeedsProfile:
		err = o.askForProfile(gate)
	case ModeStructured:
		err = o.offerVariants(ctx, turn, gate)
	default:
		err = o.streamReply(ctx, turn, gate)
	}

	o.recorder.Turn(ctx, string(mode), time.Since(started), err == nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Turn aborted by client", fields)
		} else {
			logger.Error("Turn failed", err, fields)
		}
		return mode, err
	}
	logger.Info("Turn finished", fields)
	return mode, nil
}

func (o *Orchestrator) askForProfile(out Emitter) error {
	return emitAll(out,
		StartEvent(newID()),
		ProfileFormEvent(),
		FinishEvent(),
	)
}

// offerVariants generates before emitting anything, so a failure reaches the
// caller with the stream still unopened.
func (o *Orchestrator) offerVariants(ctx context.Context, turn Turn, out Emitter) error {
	instruction := turn.System
	if request := lastUserText(turn.Messages); request != "" {
		instruction += "\n\nUser request: " + request
	}

	posts, err := o.variants.GenerateVariants(ctx, instruction)
	if err != nil {
		if !errors.Is(err, apperrors.ErrGeneration) && !errors.Is(err, apperrors.ErrValidation) {
			err = apperrors.Generation(err)
		}
		return err
	}

	textID := newID()
	return emitAll(out,
		StartEvent(newID()),
		TextStartEvent(textID),
		TextDeltaEvent(textID, VariantIntro),
		TextEndEvent(textID),
		VariantSelectorEvent(posts, turn.Profile),
		FinishEvent(),
	)
}

func (o *Orchestrator) streamReply(ctx context.Context, turn Turn, out Emitter) error {
	textID := newID()
	if err := emitAll(out, StartEvent(newID()), TextStartEvent(textID)); err != nil {
		return err
	}

	var reply strings.Builder
	err := o.text.StreamText(ctx, turn.Model, turn.System, ModelHistory(turn.Messages), func(delta string) error {
		if delta == "" {
			return nil
		}
		reply.WriteString(delta)
		return out.Emit(TextDeltaEvent(textID, delta))
	})
	if err != nil {
		return err
	}

	if err := out.Emit(TextEndEvent(textID)); err != nil {
		return err
	}
	// A reply that labels its variants is offered as a selector as well, with
	// however many posts could be pulled out of it.
	if text := reply.String(); services.HasVariantMarkers(text) {
		if posts := services.ExtractVariants(text); len(posts) > 0 {
			if err := out.Emit(VariantSelectorEvent(posts, turn.Profile)); err != nil {
				return err
			}
		}
	}
	return out.Emit(FinishEvent())
}

// backfillTitle names an untitled chat from its first stored user message.
// Failures are logged and the turn carries on untitled.
func (o *Orchestrator) backfillTitle(ctx context.Context, turn Turn, sink Sink) {
	if turn.Chat.Title != "" || o.titles == nil {
		return
	}

	first := firstUserText(turn)
	if first == "" {
		return
	}

	title, err := o.titles.GenerateTitle(ctx, first)
	if err != nil {
		logger.Warn("Title generation failed", logger.Fields{"chat_id": turn.Chat.ID, "error": err.Error()})
		return
	}
	if title == "" {
		return
	}
	if err := o.store.SetTitle(ctx, turn.Chat.ID, title); err != nil {
		logger.Warn("Saving chat title failed", logger.Fields{"chat_id": turn.Chat.ID, "error": err.Error()})
		return
	}

	log.Printf("🏷️  Chat %s titled %q", turn.Chat.ID, title)
	turn.Chat.Title = title
	sink.SetTitle(title)
}

func firstUserText(turn Turn) string {
	for i := range turn.Chat.Messages {
		if turn.Chat.Messages[i].Role == models.RoleUser {
			if text := turn.Chat.Messages[i].FirstText(); text != "" {
				return text
			}
		}
	}
	for _, m := range turn.Messages {
		if m.Role == models.RoleUser {
			if text := m.Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

func lastUserText(messages []ClientMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}

func emitAll(out Emitter, events ...Event) error {
	for _, e := range events {
		if err := out.Emit(e); err != nil {
			return err
		}
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}
