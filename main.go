package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/api"
	"github.com/Conceptual-Machines/stagepost-api/internal/config"
	"github.com/Conceptual-Machines/stagepost-api/internal/database"
	"github.com/Conceptual-Machines/stagepost-api/internal/observability"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout = 2 * time.Second
	shutdownTimeout    = 15 * time.Second
	readHeaderTimeout  = 10 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// Request data that must never leave the process: session and bearer
// credentials, gateway identity and the OAuth1 callback parameters.
var (
	redactedHeaders = map[string]bool{
		"authorization": true,
		"cookie":        true,
		"set-cookie":    true,
		"x-api-key":     true,
		"x-user-id":     true,
		"x-user-email":  true,
	}
	redactedQueryKeys = []string{"oauth_token", "oauth_verifier", "code", "state"}
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	if initSentry(cfg) {
		defer sentry.Flush(sentryFlushTimeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// No-op unless LANGFUSE_ENABLED=true
	langfuse := observability.InitializeLangfuse(ctx, cfg)
	defer langfuse.Flush()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to run migrations:", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	services, err := api.NewServices(ctx, db, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize services:", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.SetupRouter(db, cfg, releaseVersion, services),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down, draining open streams")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

// initSentry reports whether a client was started
func initSentry(cfg *config.Config) bool {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return false
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "stagepost-api@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		EnableLogs:       true,
		Debug:            !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				event.Request.Cookies = ""
				event.Request.QueryString = filterQueryString(event.Request.QueryString)
			}
			return event
		},
	})
	if err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return false
	}

	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
	return true
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if redactedHeaders[strings.ToLower(k)] {
			v = "[REDACTED]"
		}
		filtered[k] = v
	}
	return filtered
}

func filterQueryString(query string) string {
	if query == "" {
		return ""
	}
	pairs := strings.Split(query, "&")
	for i, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		for _, secret := range redactedQueryKeys {
			if key == secret {
				pairs[i] = key + "=[REDACTED]"
				break
			}
		}
	}
	return strings.Join(pairs, "&")
}
