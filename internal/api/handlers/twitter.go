package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/metrics"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/prompt"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/Conceptual-Machines/stagepost-api/internal/twitter"
	"github.com/gin-gonic/gin"
)

// TwitterHandler serves the social-post flow: profile, one-shot instruction and publish
type TwitterHandler struct {
	sessions  *session.Store
	publisher twitter.Publisher
	recorder  *metrics.Recorder
}

func NewTwitterHandler(sessions *session.Store, publisher twitter.Publisher, recorder *metrics.Recorder) *TwitterHandler {
	return &TwitterHandler{sessions: sessions, publisher: publisher, recorder: recorder}
}

// SystemPromptRequest stores an instruction for the next turn on ChatID
type SystemPromptRequest struct {
	System string `json:"system"`
	ChatID string `json:"chatId"`
}

// ProfileRequest is an artist profile bound to the chat it was filled in
type ProfileRequest struct {
	models.ArtistProfile
	ChatID string `json:"chatId"`
}

// PostRequest publishes the chosen variant
type PostRequest struct {
	Content string `json:"content"`
}

// SetSystemPrompt handles POST /api/twitter/system
func (h *TwitterHandler) SetSystemPrompt(c *gin.Context) {
	var req SystemPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.System) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing system prompt"})
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing chatId"})
		return
	}

	if err := h.sessions.SetSystemPrompt(c.Writer, c.Request, req.ChatID, req.System); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SaveProfile handles POST /api/twitter/profile. The synthesized prompt is
// returned and also stored as the next turn's instruction.
func (h *TwitterHandler) SaveProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid profile: %v", err))
		return
	}
	profile := req.ArtistProfile
	if err := profile.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		respondError(c, apperrors.Validation("missing chatId"))
		return
	}

	data, err := h.sessions.Get(c.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	data.Profile = &profile
	if err := h.sessions.Save(c.Writer, c.Request, data); err != nil {
		respondError(c, err)
		return
	}

	instruction := prompt.BuildArtistPrompt(profile)
	if err := h.sessions.SetSystemPrompt(c.Writer, c.Request, req.ChatID, instruction); err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Artist profile saved", logger.Fields{
		"genre": profile.Genre,
		"tone":  profile.Tone,
		"chat":  req.ChatID,
	})
	c.JSON(http.StatusOK, gin.H{"prompt": instruction, "profile": profile})
}

// Post handles POST /api/twitter/post
func (h *TwitterHandler) Post(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("missing or invalid content"))
		return
	}
	if err := twitter.ValidateContent(req.Content); err != nil {
		respondError(c, err)
		return
	}

	data, err := h.sessions.Get(c.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	if data.Twitter == nil || data.Twitter.AccessToken == "" || data.Twitter.AccessSecret == "" {
		respondError(c, fmt.Errorf("%w: twitter not connected", apperrors.ErrPublishUnauthorized))
		return
	}

	tweetID, err := h.publisher.Publish(c.Request.Context(), req.Content, twitter.Credentials{
		AccessToken:  data.Twitter.AccessToken,
		AccessSecret: data.Twitter.AccessSecret,
	})
	h.recorder.Publish(c.Request.Context(), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("🐦 Posted %s for @%s", tweetID, data.Twitter.ScreenName)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tweetId": tweetID,
		"content": req.Content,
	})
}
