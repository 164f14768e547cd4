package api

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/stagepost-api/internal/agents/assistant"
	"github.com/Conceptual-Machines/stagepost-api/internal/agents/core"
	agentconfig "github.com/Conceptual-Machines/stagepost-api/internal/agents/core/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/agents/social"
	"github.com/Conceptual-Machines/stagepost-api/internal/agents/title"
	"github.com/Conceptual-Machines/stagepost-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/stagepost-api/internal/api/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/chat"
	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/llm"
	"github.com/Conceptual-Machines/stagepost-api/internal/metrics"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/observability"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/Conceptual-Machines/stagepost-api/internal/store"
	"github.com/Conceptual-Machines/stagepost-api/internal/twitter"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services are the collaborators the HTTP layer is built from
type Services struct {
	Sessions  *session.Store
	Chats     store.ChatStore
	Turns     handlers.TurnRunner
	Publisher twitter.Publisher
	Auth      handlers.Authenticator
	Recorder  *metrics.Recorder
	// CloudWatch reports whether metrics are shipped to CloudWatch
	CloudWatch bool
}

// NewServices wires the production collaborators from configuration
func NewServices(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Services, error) {
	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("cloudwatch metrics: %w", err)
	}
	recorder := metrics.NewRecorder(cloudwatch)

	agents := agentconfig.FromApp(cfg)
	runner := core.NewRunner(llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey), recorder)

	variants, err := social.NewVariantAgent(runner, agents.VariantModel)
	if err != nil {
		return nil, fmt.Errorf("variant agent: %w", err)
	}

	chats := store.NewGormStore(db)
	sessions := session.NewStore(cfg.SessionSecret, cfg.IsProduction())

	return &Services{
		Sessions: sessions,
		Chats:    chats,
		Turns: chat.NewOrchestrator(
			chats,
			assistant.NewAgent(runner, agents.DefaultModel),
			variants,
			title.NewTitleAgent(runner, agents.TitleModel),
			recorder,
		),
		Publisher:  twitter.NewClient(cfg.TwitterAPIKey, cfg.TwitterAPISecret),
		Auth:       handlers.NewGothicAuthenticator(cfg, sessions),
		Recorder:   recorder,
		CloudWatch: cloudwatch.Enabled(),
	}, nil
}

func SetupRouter(db *gorm.DB, cfg *config.Config, version string, svc *Services) *gin.Engine {
	router := gin.New()

	// Sentry hub first so recovery and tracking can report through it
	router.Use(apimiddleware.SentryMiddleware())
	router.Use(apimiddleware.RecoverWithSentry())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(svc.Recorder))

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(db, version, handlers.FeatureFlags{
		Twitter:    cfg.TwitterConfigured(),
		GitHub:     cfg.GitHubConfigured(),
		Langfuse:   observability.GetClient().IsEnabled(),
		CloudWatch: svc.CloudWatch,
		AuthMode:   cfg.AuthMode,
	})
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		oauthHandler := handlers.NewOAuthHandler(db, cfg, svc.Sessions, svc.Auth)
		auth.GET("/session", oauthHandler.Session)
		auth.POST("/logout", oauthHandler.Logout)
		auth.GET("/github", oauthHandler.GitHubLogin)
		auth.GET("/github/callback", oauthHandler.GitHubCallback)
		auth.POST("/twitter/login", oauthHandler.TwitterLogin)
		auth.GET("/twitter/callback", oauthHandler.TwitterCallback)
	}

	// Chat and social-post routes, owned by the identity the auth mode resolves
	protected := router.Group("/api")
	protected.Use(ownerAuth(cfg, svc.Sessions))
	{
		chatHandler := handlers.NewChatHandler(svc.Chats, svc.Sessions, svc.Turns)
		protected.POST("/chats", chatHandler.Create)
		protected.GET("/chats", chatHandler.List)
		protected.GET("/chats/:id", chatHandler.Get)
		protected.POST("/chats/:id", chatHandler.Turn)
		protected.DELETE("/chats/:id", chatHandler.Delete)

		twitterHandler := handlers.NewTwitterHandler(svc.Sessions, svc.Publisher, svc.Recorder)
		protected.POST("/twitter/system", twitterHandler.SetSystemPrompt)
		protected.POST("/twitter/profile", twitterHandler.SaveProfile)
		protected.POST("/twitter/post", twitterHandler.Post)
	}

	return router
}

// ownerAuth picks the identity middleware for the configured auth mode
func ownerAuth(cfg *config.Config, sessions *session.Store) gin.HandlerFunc {
	switch cfg.AuthMode {
	case config.AuthModeGateway:
		return apimiddleware.GatewayAuth()
	case config.AuthModeJWT:
		return middleware.JWTAuth(cfg.JWTSecret)
	default:
		return apimiddleware.SessionIdentity(sessions)
	}
}
