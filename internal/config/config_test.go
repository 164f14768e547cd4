package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASE_URL", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("TWITTER_CALLBACK_URL", "")
	t.Setenv("TWITTER_API_KEY", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeNone, cfg.AuthMode)
	assert.Equal(t, "openai/gpt-5-mini", cfg.DefaultModel)
	assert.Equal(t, "http://localhost:8080/api/auth/twitter/callback", cfg.TwitterCallbackURL)
	assert.False(t, cfg.TwitterConfigured())
	assert.False(t, cfg.IsGatewayMode())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://stagepost.example")
	t.Setenv("TWITTER_CALLBACK_URL", "")
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TWITTER_API_KEY", "key")
	t.Setenv("TWITTER_API_SECRET", "secret")
	t.Setenv("LANGFUSE_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "https://stagepost.example/api/auth/twitter/callback", cfg.TwitterCallbackURL)
	assert.True(t, cfg.IsGatewayMode())
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.TwitterConfigured())
	assert.True(t, cfg.LangfuseEnabled)
}
