package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/chat"
	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/database"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/Conceptual-Machines/stagepost-api/internal/store"
	"github.com/Conceptual-Machines/stagepost-api/internal/twitter"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockText streams fixed chunks, optionally failing afterwards
type MockText struct {
	chunks []string
	err    error
	calls  int
}

func (m *MockText) StreamText(_ context.Context, _, _ string, _ []llm.Message, onDelta func(string) error) error {
	m.calls++
	for _, c := range m.chunks {
		if err := onDelta(c); err != nil {
			return err
		}
	}
	return m.err
}

// MockVariants returns fixed posts or an error
type MockVariants struct {
	posts        []string
	err          error
	instructions []string
}

func (m *MockVariants) GenerateVariants(_ context.Context, instruction string) ([]string, error) {
	m.instructions = append(m.instructions, instruction)
	return m.posts, m.err
}

// MockTitles always names the chat the same way
type MockTitles struct {
	title string
}

func (m *MockTitles) GenerateTitle(context.Context, string) (string, error) {
	return m.title, nil
}

// MockPublisher records what would have been posted
type MockPublisher struct {
	id        string
	err       error
	published []string
	creds     twitter.Credentials
}

func (m *MockPublisher) Publish(_ context.Context, content string, creds twitter.Credentials) (string, error) {
	m.creds = creds
	if m.err != nil {
		return "", m.err
	}
	m.published = append(m.published, content)
	return m.id, nil
}

// MockAuthenticator completes handshakes with a canned user
type MockAuthenticator struct {
	user goth.User
	err  error
}

func (m *MockAuthenticator) AuthURL(_ http.ResponseWriter, _ *http.Request, provider string) (string, error) {
	return "https://auth.example.com/" + provider, m.err
}

func (m *MockAuthenticator) Complete(http.ResponseWriter, *http.Request, string) (goth.User, error) {
	return m.user, m.err
}

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	chats     *store.GormStore
	sessions  *session.Store
	text      *MockText
	variants  *MockVariants
	publisher *MockPublisher
	auth      *MockAuthenticator
	cfg       *config.Config
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		db:        newTestDB(t),
		sessions:  session.NewStore("test-secret-test-secret-test-sec", false),
		text:      &MockText{chunks: []string{"Hi", " there"}},
		variants:  &MockVariants{posts: []string{"a", "b", "c"}},
		publisher: &MockPublisher{id: "1789"},
		auth:      &MockAuthenticator{},
		cfg: &config.Config{
			JWTSecret:        "jwt-secret",
			TwitterAPIKey:    "key",
			TwitterAPISecret: "secret",
		},
	}
	env.chats = store.NewGormStore(env.db)
	orchestrator := chat.NewOrchestrator(env.chats, env.text, env.variants, &MockTitles{title: "Album launch"}, nil)

	router := gin.New()
	identity := func(c *gin.Context) {
		ownerID, err := env.sessions.OwnerID(c.Writer, c.Request)
		require.NoError(t, err)
		middleware.SetOwnerID(c, ownerID)
		c.Next()
	}

	chatHandler := NewChatHandler(env.chats, env.sessions, orchestrator)
	twitterHandler := NewTwitterHandler(env.sessions, env.publisher, nil)
	oauthHandler := NewOAuthHandler(env.db, env.cfg, env.sessions, env.auth)

	api := router.Group("/api", identity)
	api.POST("/chats", chatHandler.Create)
	api.GET("/chats", chatHandler.List)
	api.GET("/chats/:id", chatHandler.Get)
	api.POST("/chats/:id", chatHandler.Turn)
	api.DELETE("/chats/:id", chatHandler.Delete)
	api.POST("/twitter/system", twitterHandler.SetSystemPrompt)
	api.POST("/twitter/profile", twitterHandler.SaveProfile)
	api.POST("/twitter/post", twitterHandler.Post)

	router.GET("/api/auth/session", oauthHandler.Session)
	router.POST("/api/auth/logout", oauthHandler.Logout)
	router.GET("/api/auth/github", oauthHandler.GitHubLogin)
	router.GET("/api/auth/github/callback", oauthHandler.GitHubCallback)
	router.POST("/api/auth/twitter/login", oauthHandler.TwitterLogin)
	router.GET("/api/auth/twitter/callback", oauthHandler.TwitterCallback)

	// Lets tests seed a connected X account without the handshake
	router.POST("/test/connect", func(c *gin.Context) {
		data, err := env.sessions.Get(c.Request)
		require.NoError(t, err)
		data.Twitter = &session.TwitterCredentials{AccessToken: "tok", AccessSecret: "sec", ScreenName: "band"}
		require.NoError(t, env.sessions.Save(c.Writer, c.Request, data))
		c.Status(http.StatusNoContent)
	})

	env.router = router
	return env
}

// browser replays the latest value of every cookie it was sent
type browser struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser() *browser {
	return &browser{env: e, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.env.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) createChat(t *testing.T, input string) *models.Chat {
	t.Helper()
	w := b.do(http.MethodPost, "/api/chats", gin.H{"input": input})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created models.Chat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return &created
}

func textMessage(role, text string) gin.H {
	return gin.H{"role": role, "parts": []gin.H{{"type": "text", "text": text}}}
}

// sseEvents decodes the data lines of an SSE body, [DONE] excluded
func sseEvents(t *testing.T, body string) ([]chat.Event, bool) {
	t.Helper()
	var events []chat.Event
	done := false
	for _, block := range strings.Split(body, "\n\n") {
		line := strings.TrimSpace(block)
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), line)
		payload := strings.TrimPrefix(line, "data: ")
		if payload == sseDone {
			done = true
			continue
		}
		var e chat.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &e))
		events = append(events, e)
	}
	return events, done
}

func eventTypes(events []chat.Event) []chat.EventType {
	out := make([]chat.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func storedMessages(t *testing.T, env *testEnv, chatID string) []models.Message {
	t.Helper()
	var msgs []models.Message
	require.NoError(t, env.db.Where("chat_id = ?", chatID).Order("id ASC").Find(&msgs).Error)
	return msgs
}

var errPublishRejected = apperrors.Publish(context.DeadlineExceeded)
