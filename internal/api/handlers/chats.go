package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/chat"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/Conceptual-Machines/stagepost-api/internal/store"
	"github.com/gin-gonic/gin"
)

// TurnRunner drives one chat turn
type TurnRunner interface {
	Run(ctx context.Context, turn chat.Turn, sink chat.Sink) (chat.Mode, error)
}

// ChatHandler serves chat CRUD and the streamed turn endpoint
type ChatHandler struct {
	store    store.ChatStore
	sessions *session.Store
	turns    TurnRunner
}

func NewChatHandler(chatStore store.ChatStore, sessions *session.Store, turns TurnRunner) *ChatHandler {
	return &ChatHandler{store: chatStore, sessions: sessions, turns: turns}
}

// CreateChatRequest opens a chat with its first user message
type CreateChatRequest struct {
	Input string `json:"input"`
}

// TurnRequest is the body of a chat turn
type TurnRequest struct {
	Model    string                `json:"model"`
	Messages []chat.ClientMessage  `json:"messages"`
	System   string                `json:"system,omitempty"`
	Profile  *models.ArtistProfile `json:"profile,omitempty"`
}

func (r *TurnRequest) validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return apperrors.Validation("model is required")
	}
	if len(r.Messages) == 0 {
		return apperrors.Validation("messages are required")
	}
	if r.Profile != nil {
		if err := r.Profile.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func owner(c *gin.Context) (string, bool) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return ownerID, ok
}

// Create handles POST /api/chats
func (h *ChatHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Input) == "" {
		respondError(c, apperrors.Validation("input is required"))
		return
	}

	// A new chat never inherits an instruction meant for an earlier one
	if err := h.sessions.ClearSystemPrompt(c.Writer, c.Request); err != nil {
		respondError(c, err)
		return
	}

	first, err := models.NewMessage("", models.RoleUser, []models.Part{models.TextPart(req.Input)})
	if err != nil {
		respondError(c, err)
		return
	}
	created, err := h.store.CreateChat(c.Request.Context(), ownerID, first)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("💬 Chat %s created", created.ID)
	c.JSON(http.StatusOK, created)
}

// List handles GET /api/chats
func (h *ChatHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	chats, err := h.store.ListChats(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// Get handles GET /api/chats/:id
func (h *ChatHandler) Get(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	found, err := h.store.FindChat(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// Delete handles DELETE /api/chats/:id
func (h *ChatHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if err := h.store.DeleteChat(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Turn handles POST /api/chats/:id and streams the turn as SSE
func (h *ChatHandler) Turn(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	stored, err := h.store.FindChat(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The stored instruction is consumed by this turn whether or not it is used,
	// so it can never surface in a later one.
	sessionSystem, err := h.sessions.TakeSystemPrompt(c.Writer, c.Request, stored.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	system, profile := req.System, req.Profile
	if system == "" && sessionSystem != "" {
		system = sessionSystem
		if profile == nil {
			if data, err := h.sessions.Get(c.Request); err == nil {
				profile = data.Profile
			}
		}
	}

	sink := &sseSink{c: c}
	mode, err := h.turns.Run(c.Request.Context(), chat.Turn{
		Chat:     stored,
		Messages: req.Messages,
		System:   system,
		Profile:  profile,
		Model:    req.Model,
	}, sink)
	if err != nil {
		if !sink.started {
			respondError(c, err)
			return
		}
		if c.Request.Context().Err() == nil {
			_ = sink.Emit(chat.ErrorEvent(publicMessage(err, statusFor(err))))
			sink.done()
		}
		return
	}

	sink.done()
	log.Printf("✅ Turn on chat %s completed (%s)", stored.ID, mode)
}

// sseSink writes turn events as server-sent events. Headers, including the
// chat title, are sent with the first event.
type sseSink struct {
	c       *gin.Context
	started bool
}

func (s *sseSink) SetTitle(title string) {
	if !s.started {
		s.c.Header(headerChatTitle, title)
	}
}

func (s *sseSink) start() {
	s.c.Header("Content-Type", "text/event-stream")
	s.c.Header("Cache-Control", "no-cache")
	s.c.Header("Connection", "keep-alive")
	s.c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
	s.c.Status(http.StatusOK)
	s.started = true
}

func (s *sseSink) Emit(event chat.Event) error {
	if !s.started {
		s.start()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return s.write(string(payload))
}

func (s *sseSink) write(data string) error {
	if _, err := fmt.Fprintf(s.c.Writer, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.c.Writer.Flush()
	return nil
}

func (s *sseSink) done() {
	_ = s.write(sseDone)
}
