package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionView struct {
	User    *models.User `json:"user"`
	Twitter struct {
		Connected  bool   `json:"connected"`
		UserID     string `json:"userId"`
		ScreenName string `json:"screenName"`
	} `json:"twitter"`
}

func (b *browser) session(t *testing.T) sessionView {
	t.Helper()
	w := b.do(http.MethodGet, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestTwitterLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.browser().do(http.MethodPost, "/api/auth/twitter/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authUrl":"https://auth.example.com/twitterv2"}`, w.Body.String())
}

func TestTwitterLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.TwitterAPIKey = ""

	w := env.browser().do(http.MethodPost, "/api/auth/twitter/login", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTwitterCallback_MissingParamsRedirectsWithError(t *testing.T) {
	env := newTestEnv(t)

	w := env.browser().do(http.MethodGet, "/api/auth/twitter/callback?oauth_token=abc", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, redirectTwitterFailed, w.Header().Get("Location"))
}

func TestTwitterCallback_HandshakeFailureRedirectsWithError(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = errors.New("token rejected")

	w := env.browser().do(http.MethodGet, "/api/auth/twitter/callback?oauth_token=abc&oauth_verifier=def", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, redirectTwitterFailed, w.Header().Get("Location"))
}

func TestTwitterCallback_ConnectsAccount(t *testing.T) {
	env := newTestEnv(t)
	env.auth.user = goth.User{
		Provider:          providerTwitter,
		UserID:            "42",
		NickName:          "theband",
		AccessToken:       "user-token",
		AccessTokenSecret: "user-secret",
	}
	b := env.browser()

	w := b.do(http.MethodGet, "/api/auth/twitter/callback?oauth_token=abc&oauth_verifier=def", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, redirectHome, w.Header().Get("Location"))

	view := b.session(t)
	assert.True(t, view.Twitter.Connected)
	assert.Equal(t, "42", view.Twitter.UserID)
	assert.Equal(t, "theband", view.Twitter.ScreenName)
	assert.Nil(t, view.User)

	// Publishing now uses the connected account's tokens
	w = b.do(http.MethodPost, "/api/twitter/post", map[string]string{"content": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-token", env.publisher.creds.AccessToken)

	w = b.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, b.session(t).Twitter.Connected)
}

func TestGitHubLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	w := env.browser().do(http.MethodGet, "/api/auth/github", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGitHubCallback_SignsInAndIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	env.auth.user = goth.User{
		Provider: providerGitHub,
		UserID:   "gh-7",
		Email:    "band@example.com",
		Name:     "The Band",
		NickName: "theband",
	}
	b := env.browser()

	w := b.do(http.MethodGet, "/api/auth/github/callback", nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, redirectHome, w.Header().Get("Location"))

	cookie, ok := b.cookies[middleware.AccessTokenCookie]
	require.True(t, ok)
	claims, err := middleware.ParseToken(env.cfg.JWTSecret, cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "band@example.com", claims.Email)

	view := b.session(t)
	require.NotNil(t, view.User)
	assert.Equal(t, "theband", view.User.Username)
	assert.Equal(t, "1", claims.Subject)
}

func TestGitHubCallback_FailureIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = errors.New("state mismatch")

	w := env.browser().do(http.MethodGet, "/api/auth/github/callback", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFindOrCreateOAuthUser_RefreshesExistingUser(t *testing.T) {
	db := newTestDB(t)

	first, err := findOrCreateOAuthUser(db, &goth.User{Provider: providerGitHub, UserID: "gh-7", NickName: "old"})
	require.NoError(t, err)
	second, err := findOrCreateOAuthUser(db, &goth.User{Provider: providerGitHub, UserID: "gh-7", NickName: "new"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "new", second.Username)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
