// Package llm wraps the chat models used for narrative commentary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDisabled is returned by New when no provider is configured.
var ErrDisabled = errors.New("llm: no provider configured")

// Options tune one generation call.
type Options struct {
	Model       string // overrides the provider default
	JSON        bool   // ask for a JSON object response
	Temperature *float32
	MaxTokens   int
}

// Provider is implemented by every chat model backend.
type Provider interface {
	Name() string
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string `yaml:"provider" validate:"omitempty,oneof=gemini deepseek openai ollama none"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	APIKey   string `yaml:"-"`
}

// New builds the configured provider. API keys not set in cfg are read from
// the provider's usual environment variable at call time.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, ErrDisabled
	case "gemini":
		return &GeminiProvider{Model: cfg.Model, APIKey: cfg.APIKey}, nil
	case "deepseek", "openai", "ollama":
		return NewOpenAICompatible(strings.ToLower(cfg.Provider), cfg.BaseURL, cfg.Model, cfg.APIKey), nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
}

func temperature(opts Options, def float32) float32 {
	if opts.Temperature != nil {
		return *opts.Temperature
	}
	return def
}
