package chat

import "github.com/Conceptual-Machines/stagepost-api/internal/models"

// EventType names one event of the turn stream
type EventType string

// Turn stream vocabulary. EventError only ever travels over the wire.
const (
	EventStart           EventType = "start"
	EventTextStart       EventType = "text-start"
	EventTextDelta       EventType = "text-delta"
	EventTextEnd         EventType = "text-end"
	EventProfileForm     EventType = "data-profile-form"
	EventVariantSelector EventType = "data-variant-selector"
	EventFinish          EventType = "finish"
	EventError           EventType = "error"
)

// Event is one element of the turn stream, serialized as the SSE payload
type Event struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId,omitempty"`
	ID        string    `json:"id,omitempty"`
	Delta     string    `json:"delta,omitempty"`
	Data      any       `json:"data,omitempty"`
	ErrorText string    `json:"errorText,omitempty"`
}

// StartEvent opens the assistant message
func StartEvent(messageID string) Event {
	return Event{Type: EventStart, MessageID: messageID}
}

// TextStartEvent opens the text block id
func TextStartEvent(id string) Event {
	return Event{Type: EventTextStart, ID: id}
}

// TextDeltaEvent appends delta to the text block id
func TextDeltaEvent(id, delta string) Event {
	return Event{Type: EventTextDelta, ID: id, Delta: delta}
}

// TextEndEvent closes the text block id
func TextEndEvent(id string) Event {
	return Event{Type: EventTextEnd, ID: id}
}

// ProfileFormEvent asks the client to collect an artist profile
func ProfileFormEvent() Event {
	return Event{Type: EventProfileForm, Data: map[string]any{}}
}

// VariantSelectorEvent offers the generated posts for the user to pick from
func VariantSelectorEvent(posts []string, profile *models.ArtistProfile) Event {
	return Event{Type: EventVariantSelector, Data: &models.PostSelectorData{Posts: posts, Profile: profile}}
}

// FinishEvent closes the turn
func FinishEvent() Event {
	return Event{Type: EventFinish}
}

// ErrorEvent reports a failure to the client after streaming has begun
func ErrorEvent(text string) Event {
	return Event{Type: EventError, ErrorText: text}
}
