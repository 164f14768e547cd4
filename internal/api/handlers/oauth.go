package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/twitterv2"
	"gorm.io/gorm"
)

// Authenticator runs a provider's OAuth handshake
type Authenticator interface {
	AuthURL(w http.ResponseWriter, r *http.Request, provider string) (string, error)
	Complete(w http.ResponseWriter, r *http.Request, provider string) (goth.User, error)
}

// gothicAuthenticator keeps handshake state in the gothic session store
type gothicAuthenticator struct{}

func (gothicAuthenticator) AuthURL(w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	return gothic.GetAuthURL(w, gothic.GetContextWithProvider(r, provider))
}

func (gothicAuthenticator) Complete(w http.ResponseWriter, r *http.Request, provider string) (goth.User, error) {
	return gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, provider))
}

// NewGothicAuthenticator registers the configured providers with goth.
// Handshake state shares the application's session store.
func NewGothicAuthenticator(cfg *config.Config, sessions *session.Store) Authenticator {
	gothic.Store = sessions.Backend()

	var providers []goth.Provider
	if cfg.GitHubConfigured() {
		providers = append(providers, github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.BaseURL+"/api/auth/github/callback",
			"user:email",
		))
	}
	if cfg.TwitterConfigured() {
		providers = append(providers, twitterv2.New(
			cfg.TwitterAPIKey,
			cfg.TwitterAPISecret,
			cfg.TwitterCallbackURL,
		))
	}
	goth.UseProviders(providers...)

	return gothicAuthenticator{}
}

// OAuthHandler serves GitHub login, the X account connection and the session view
type OAuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Store
	auth     Authenticator
}

func NewOAuthHandler(db *gorm.DB, cfg *config.Config, sessions *session.Store, auth Authenticator) *OAuthHandler {
	return &OAuthHandler{db: db, cfg: cfg, sessions: sessions, auth: auth}
}

// TwitterLogin handles POST /api/auth/twitter/login
func (h *OAuthHandler) TwitterLogin(c *gin.Context) {
	if !h.cfg.TwitterConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Twitter is not configured"})
		return
	}

	authURL, err := h.auth.AuthURL(c.Writer, c.Request, providerTwitter)
	if err != nil {
		logger.Error("Twitter OAuth start failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate Twitter authentication"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authUrl": authURL})
}

// TwitterCallback handles GET /api/auth/twitter/callback. Every failure
// lands the user back in the app with an error flag.
func (h *OAuthHandler) TwitterCallback(c *gin.Context) {
	if c.Query("oauth_token") == "" || c.Query("oauth_verifier") == "" {
		logger.Warn("Twitter callback without OAuth parameters", logger.WithContext(c))
		c.Redirect(http.StatusFound, redirectTwitterFailed)
		return
	}

	user, err := h.auth.Complete(c.Writer, c.Request, providerTwitter)
	if err != nil {
		logger.Error("Twitter OAuth callback failed", err, logger.WithContext(c))
		c.Redirect(http.StatusFound, redirectTwitterFailed)
		return
	}

	data, err := h.sessions.Get(c.Request)
	if err == nil {
		data.Twitter = &session.TwitterCredentials{
			AccessToken:  user.AccessToken,
			AccessSecret: user.AccessTokenSecret,
			UserID:       user.UserID,
			ScreenName:   user.NickName,
		}
		err = h.sessions.Save(c.Writer, c.Request, data)
	}
	if err != nil {
		logger.Error("Storing Twitter credentials failed", err, logger.WithContext(c))
		c.Redirect(http.StatusFound, redirectTwitterFailed)
		return
	}

	log.Printf("🔗 Twitter connected: @%s", user.NickName)
	c.Redirect(http.StatusFound, redirectHome)
}

// GitHubLogin handles GET /api/auth/github
func (h *OAuthHandler) GitHubLogin(c *gin.Context) {
	if !h.cfg.GitHubConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub login is not configured"})
		return
	}

	authURL, err := h.auth.AuthURL(c.Writer, c.Request, providerGitHub)
	if err != nil {
		logger.Error("GitHub OAuth start failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate GitHub authentication"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GitHubCallback handles GET /api/auth/github/callback
func (h *OAuthHandler) GitHubCallback(c *gin.Context) {
	gothUser, err := h.auth.Complete(c.Writer, c.Request, providerGitHub)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth authentication failed"})
		return
	}

	user, err := findOrCreateOAuthUser(h.db, &gothUser)
	if err != nil {
		logger.Error("Failed to store OAuth user", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	userID := strconv.FormatUint(uint64(user.ID), 10)

	data, err := h.sessions.Get(c.Request)
	if err == nil {
		data.UserID = userID
		err = h.sessions.Save(c.Writer, c.Request, data)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	accessToken, err := middleware.IssueToken(h.cfg.JWTSecret, userID, user.Email, middleware.AccessTokenDuration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, int(middleware.AccessTokenDuration.Seconds()), "/", "", h.cfg.IsProduction(), true)

	log.Printf("👤 User %s signed in with GitHub", userID)
	c.Redirect(http.StatusTemporaryRedirect, redirectHome)
}

// Session handles GET /api/auth/session
func (h *OAuthHandler) Session(c *gin.Context) {
	data, err := h.sessions.Get(c.Request)
	if err != nil {
		respondError(c, err)
		return
	}

	var user *models.User
	if data.UserID != "" {
		var found models.User
		if err := h.db.WithContext(c.Request.Context()).First(&found, "id = ?", data.UserID).Error; err == nil {
			user = &found
		}
	}

	twitterView := gin.H{"connected": false}
	if data.Twitter != nil && data.Twitter.AccessToken != "" {
		twitterView = gin.H{
			"connected":  true,
			"userId":     data.Twitter.UserID,
			"screenName": data.Twitter.ScreenName,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"twitter": twitterView,
		"profile": data.Profile,
	})
}

// Logout handles POST /api/auth/logout
func (h *OAuthHandler) Logout(c *gin.Context) {
	data, err := h.sessions.Get(c.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	data.UserID = ""
	data.Twitter = nil
	if err := h.sessions.Save(c.Writer, c.Request, data); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// findOrCreateOAuthUser finds the user behind a provider account, creating
// it on first login and refreshing the profile fields on every later one.
func findOrCreateOAuthUser(db *gorm.DB, gothUser *goth.User) (*models.User, error) {
	var user models.User
	err := db.
		Where(models.User{Provider: gothUser.Provider, ProviderUserID: gothUser.UserID}).
		Assign(models.User{
			Email:     gothUser.Email,
			Name:      gothUser.Name,
			Username:  gothUser.NickName,
			AvatarURL: gothUser.AvatarURL,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
