package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
)

// TransientTag is the part tag used on the wire while a turn streams
type TransientTag string

// Transient part tags
const (
	TagText            TransientTag = "text"
	TagProfileForm     TransientTag = "data-profile-form"
	TagVariantSelector TransientTag = "data-variant-selector"
	TagPostCard        TransientTag = "data-post-card"
)

var transientToDurable = map[TransientTag]models.PartType{
	TagText:            models.PartText,
	TagProfileForm:     models.PartProfileForm,
	TagVariantSelector: models.PartPostSelector,
	TagPostCard:        models.PartPostCard,
}

var durableToTransient = map[models.PartType]TransientTag{
	models.PartText:         TagText,
	models.PartProfileForm:  TagProfileForm,
	models.PartPostSelector: TagVariantSelector,
	models.PartPostCard:     TagPostCard,
}

// ToDurable maps a transient tag to its storage tag.
// Tags outside the closed set are a programming error.
func ToDurable(tag TransientTag) models.PartType {
	durable, ok := transientToDurable[tag]
	if !ok {
		panic(fmt.Sprintf("chat: no durable tag for %q", tag))
	}
	return durable
}

// ToTransient maps a storage tag back to its wire tag
func ToTransient(tag models.PartType) TransientTag {
	transient, ok := durableToTransient[tag]
	if !ok {
		panic(fmt.Sprintf("chat: no transient tag for %q", tag))
	}
	return transient
}

// ClientPart is one part of a message as the client sends it
type ClientPart struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is one message of the turn as the client sends it
type ClientMessage struct {
	ID    string       `json:"id,omitempty"`
	Role  string       `json:"role"`
	Parts []ClientPart `json:"parts"`
}

// Text joins the message's text parts
func (m ClientMessage) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == string(TagText) && strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// resolveTag accepts either vocabulary from the client; clients replaying a
// stored chat send durable tags back.
func resolveTag(tag string) (models.PartType, bool) {
	if durable, ok := transientToDurable[TransientTag(tag)]; ok {
		return durable, true
	}
	if models.PartType(tag).Valid() {
		return models.PartType(tag), true
	}
	return "", false
}

// NormalizeClientMessage validates an incoming message and rewrites its parts
// into the durable shape.
func NormalizeClientMessage(chatID string, msg ClientMessage) (models.Message, error) {
	if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
		return models.Message{}, apperrors.Validation("unknown message role %q", msg.Role)
	}

	parts := make([]models.Part, 0, len(msg.Parts))
	for i, cp := range msg.Parts {
		tag, ok := resolveTag(cp.Type)
		if !ok {
			return models.Message{}, apperrors.Validation("part %d has unknown type %q", i, cp.Type)
		}
		part := models.Part{Type: tag}
		switch tag {
		case models.PartText:
			part.Text = cp.Text
		case models.PartPostSelector:
			part.Selector = &models.PostSelectorData{}
			if err := decodeData(cp.Data, part.Selector); err != nil {
				return models.Message{}, apperrors.Validation("part %d: %v", i, err)
			}
		case models.PartPostCard:
			part.Card = &models.PostCardData{}
			if err := decodeData(cp.Data, part.Card); err != nil {
				return models.Message{}, apperrors.Validation("part %d: %v", i, err)
			}
		}
		parts = append(parts, part)
	}

	stored, err := models.NewMessage(chatID, msg.Role, parts)
	if err != nil {
		return models.Message{}, apperrors.Validation("encode parts: %v", err)
	}
	return stored, nil
}

func decodeData(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}

// ModelHistory converts the client messages into provider messages.
// Only text reaches the model; a picked post card is passed on as its content
// and an offered selector as its numbered variants.
func ModelHistory(messages []ClientMessage) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		text := m.Text()
		if text == "" {
			text = cardContent(m)
		}
		if text == "" {
			text = selectorContent(m)
		}
		if text == "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: text})
	}
	return history
}

func cardContent(m ClientMessage) string {
	for _, p := range m.Parts {
		if tag, ok := resolveTag(p.Type); ok && tag == models.PartPostCard {
			var card models.PostCardData
			if decodeData(p.Data, &card) == nil && card.Content != "" {
				return card.Content
			}
		}
	}
	return ""
}

func selectorContent(m ClientMessage) string {
	for _, p := range m.Parts {
		if tag, ok := resolveTag(p.Type); ok && tag == models.PartPostSelector {
			var selector models.PostSelectorData
			if decodeData(p.Data, &selector) != nil {
				continue
			}
			var b strings.Builder
			for i, post := range selector.Posts {
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "%s %d: %s", prompt.VariantMarker, i+1, post)
			}
			return b.String()
		}
	}
	return ""
}
