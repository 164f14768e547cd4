package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Conceptual-Machines/stagepost-api/internal/chat"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "gpt-5-mini"

func turnBody(messages ...gin.H) gin.H {
	return gin.H{"model": testModel, "messages": messages}
}

// openChat creates a chat and runs its profile turn, so later turns are
// free-form replies
func (b *browser) openChat(t *testing.T, input string) *models.Chat {
	t.Helper()
	created := b.createChat(t, input)
	w := b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(textMessage("user", input)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return created
}

func TestCreateChat(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()

	created := b.createChat(t, "Help me announce my new single")
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.Title)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, models.RoleUser, created.Messages[0].Role)
	assert.Equal(t, "Help me announce my new single", created.Messages[0].FirstText())
}

func TestCreateChat_BlankInputIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	w := env.browser().do(http.MethodPost, "/api/chats", gin.H{"input": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListGetDeleteChat(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	created := b.createChat(t, "first")

	w := b.do(http.MethodGet, "/api/chats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Chat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	w = b.do(http.MethodGet, "/api/chats/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodDelete, "/api/chats/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = b.do(http.MethodGet, "/api/chats/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTurn_OtherOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	created := env.browser().createChat(t, "mine")

	w := env.browser().do(http.MethodPost, "/api/chats/"+created.ID, turnBody(textMessage("user", "mine")))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, storedMessages(t, env, created.ID), 1)
}

func TestTurn_MissingModelIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	created := b.createChat(t, "hello")

	w := b.do(http.MethodPost, "/api/chats/"+created.ID, gin.H{"messages": []gin.H{textMessage("user", "hello")}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.text.calls)
}

func TestTurn_NewChatAsksForProfile(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	created := b.createChat(t, "Help me announce my new single")

	w := b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(textMessage("user", "Help me announce my new single")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "Album launch", w.Header().Get(headerChatTitle))

	events, done := sseEvents(t, w.Body.String())
	assert.True(t, done)
	assert.Equal(t, []chat.EventType{chat.EventStart, chat.EventProfileForm, chat.EventFinish}, eventTypes(events))

	msgs := storedMessages(t, env, created.ID)
	require.Len(t, msgs, 2)
	parts, err := msgs[1].DecodeParts()
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, models.PartProfileForm, parts[0].Type)

	var titled models.Chat
	require.NoError(t, env.db.First(&titled, "id = ?", created.ID).Error)
	assert.Equal(t, "Album launch", titled.Title)
}

func TestTurn_StoredInstructionProducesVariants(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	created := b.createChat(t, "launch")

	w := b.do(http.MethodPost, "/api/twitter/system", gin.H{"system": "Write three posts", "chatId": created.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(
		textMessage("user", "launch"),
		textMessage("user", "about the tour"),
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	events, done := sseEvents(t, w.Body.String())
	assert.True(t, done)
	assert.Equal(t, []chat.EventType{
		chat.EventStart,
		chat.EventTextStart,
		chat.EventTextDelta,
		chat.EventTextEnd,
		chat.EventVariantSelector,
		chat.EventFinish,
	}, eventTypes(events))
	assert.Equal(t, chat.VariantIntro, events[2].Delta)
	require.Len(t, env.variants.instructions, 1)
	assert.Equal(t, "Write three posts\n\nUser request: about the tour", env.variants.instructions[0])

	msgs := storedMessages(t, env, created.ID)
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, models.RoleAssistant, msgs[2].Role)
	parts, err := msgs[2].DecodeParts()
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, models.PartPostSelector, parts[1].Type)
	assert.Equal(t, []string{"a", "b", "c"}, parts[1].Selector.Posts)

	// The instruction was one-shot: the next turn is a plain reply
	w = b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(
		textMessage("user", "launch"),
		textMessage("user", "thanks"),
	))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.variants.instructions, 1)
	assert.Equal(t, 1, env.text.calls)
}

func TestTurn_InstructionBoundToAnotherChatIsDropped(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	chatA := b.createChat(t, "a")
	chatB := b.createChat(t, "b")

	w := b.do(http.MethodPost, "/api/twitter/system", gin.H{"system": "Write three posts", "chatId": chatA.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodPost, "/api/chats/"+chatB.ID, turnBody(textMessage("user", "b")))
	require.Equal(t, http.StatusOK, w.Code)
	events, _ := sseEvents(t, w.Body.String())
	assert.Equal(t, chat.EventProfileForm, events[1].Type)
	assert.Empty(t, env.variants.instructions)

	// Taken by chat B's turn, so chat A no longer sees it either
	w = b.do(http.MethodPost, "/api/chats/"+chatA.ID, turnBody(textMessage("user", "a")))
	require.Equal(t, http.StatusOK, w.Code)
	events, _ = sseEvents(t, w.Body.String())
	assert.Equal(t, chat.EventProfileForm, events[1].Type)
	assert.Empty(t, env.variants.instructions)
}

func TestTurn_NewChatClearsPendingInstruction(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	first := b.createChat(t, "first")

	w := b.do(http.MethodPost, "/api/twitter/system", gin.H{"system": "Write three posts", "chatId": first.ID})
	require.Equal(t, http.StatusOK, w.Code)

	b.createChat(t, "fresh")
	w = b.do(http.MethodPost, "/api/chats/"+first.ID, turnBody(textMessage("user", "first")))
	require.Equal(t, http.StatusOK, w.Code)

	events, _ := sseEvents(t, w.Body.String())
	assert.Equal(t, chat.EventProfileForm, events[1].Type)
	assert.Empty(t, env.variants.instructions)
}

func TestTurn_VariantFailureIsBadGatewayAndPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.variants.err = errors.New("model refused")
	b := env.browser()
	created := b.createChat(t, "launch")

	w := b.do(http.MethodPost, "/api/chats/"+created.ID, gin.H{
		"model":    testModel,
		"system":   "Write three posts",
		"messages": []gin.H{textMessage("user", "launch"), textMessage("user", "tour")},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Len(t, storedMessages(t, env, created.ID), 1)
}

func TestTurn_StreamFailureEndsWithErrorEvent(t *testing.T) {
	env := newTestEnv(t)
	env.text.err = errors.New("upstream reset")
	b := env.browser()
	created := b.openChat(t, "launch")

	w := b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(
		textMessage("user", "launch"),
		textMessage("user", "tell me more"),
	))
	require.Equal(t, http.StatusOK, w.Code)

	events, done := sseEvents(t, w.Body.String())
	assert.True(t, done)
	last := events[len(events)-1]
	assert.Equal(t, chat.EventError, last.Type)
	assert.Equal(t, "Internal server error", last.ErrorText)
	assert.NotContains(t, eventTypes(events), chat.EventFinish)
	assert.Len(t, storedMessages(t, env, created.ID), 2)
}

func TestTurn_FreeFormStreamsAndPersists(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser()
	created := b.openChat(t, "launch")

	w := b.do(http.MethodPost, "/api/chats/"+created.ID, turnBody(
		textMessage("user", "launch"),
		textMessage("user", "tell me more"),
	))
	require.Equal(t, http.StatusOK, w.Code)

	events, done := sseEvents(t, w.Body.String())
	assert.True(t, done)
	assert.Equal(t, []chat.EventType{
		chat.EventStart,
		chat.EventTextStart,
		chat.EventTextDelta,
		chat.EventTextDelta,
		chat.EventTextEnd,
		chat.EventFinish,
	}, eventTypes(events))

	msgs := storedMessages(t, env, created.ID)
	require.Len(t, msgs, 4)
	assert.Equal(t, "tell me more", msgs[2].FirstText())
	assert.Equal(t, "Hi there", msgs[3].FirstText())
}
