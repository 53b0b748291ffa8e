package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/sketchduel.db"`
	RedisURL string     `env:"REDIS_URL"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	DefaultProvider string `env:"DEFAULT_AI_PROVIDER" envDefault:"openai"`
	DefaultModel    string `env:"DEFAULT_AI_MODEL"`
	PromptVersion   string `env:"PROMPT_VERSION" envDefault:"v1"`

	OpenAIKey        string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicKey     string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`

	AITimeout time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	AIMaxRPS  float64       `env:"AI_MAX_RPS" envDefault:"2"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@sketchduel.dev"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"changeme"`

	RecentPromptLimit int `env:"RECENT_PROMPT_LIMIT" envDefault:"50"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
