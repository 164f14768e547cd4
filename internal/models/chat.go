package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is one conversation owned by a user or an anonymous session
type Chat struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not
func (c *Chat) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Message is a persisted chat message. Parts hold durable tags only.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	ChatID    string         `gorm:"not null;index;size:36" json:"chat_id"`
	Role      string         `gorm:"not null" json:"role"`
	Parts     datatypes.JSON `json:"parts"`
}

// NewMessage encodes parts into a message ready for insertion
func NewMessage(chatID, role string, parts []Part) (Message, error) {
	raw, err := json.Marshal(parts)
	if err != nil {
		return Message{}, err
	}
	return Message{ChatID: chatID, Role: role, Parts: datatypes.JSON(raw)}, nil
}

// DecodeParts returns the typed parts stored on the message
func (m *Message) DecodeParts() ([]Part, error) {
	if len(m.Parts) == 0 {
		return nil, nil
	}
	var parts []Part
	if err := json.Unmarshal(m.Parts, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// FirstText returns the text of the first text part, or ""
func (m *Message) FirstText() string {
	parts, err := m.DecodeParts()
	if err != nil {
		return ""
	}
	for _, p := range parts {
		if p.Type == PartText && p.Text != "" {
			return p.Text
		}
	}
	return ""
}
