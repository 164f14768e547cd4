package config

import appconfig "github.com/Conceptual-Machines/stagepost-api/internal/config"

// Config contains the model references each agent runs with
type Config struct {
	DefaultModel string // free-form chat turns, when the client names none
	TitleModel   string // chat title generation
	VariantModel string // structured post variants
}

// FromApp extracts agent settings from the application configuration
func FromApp(cfg *appconfig.Config) Config {
	return Config{
		DefaultModel: cfg.DefaultModel,
		TitleModel:   cfg.TitleModel,
		VariantModel: cfg.VariantModel,
	}
}
