// Package config loads application settings from an optional YAML file,
// a .env file and FINSIGHT_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"gopkg.in/yaml.v2"

	"finsight/pkg/core/engine"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/period"
	"finsight/pkg/core/validate"
)

// Config is the full application configuration.
type Config struct {
	Addr          string              `yaml:"addr" validate:"required"`
	LogLevel      string              `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	DatabaseURL   string              `yaml:"database_url"`
	CacheDir      string              `yaml:"cache_dir" validate:"required"`
	Benchmarks    string              `yaml:"benchmarks"` // YAML or HJSON file; empty uses the bundled set
	Industry      string              `yaml:"industry"`
	FiscalYearEnd string              `yaml:"fiscal_year_end"` // "06-30"
	Tolerances    validate.Tolerances `yaml:"tolerances"`
	LLM           llm.Config          `yaml:"llm"`
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:          ":8080",
		LogLevel:      "info",
		CacheDir:      ".cache",
		FiscalYearEnd: "06-30",
		Tolerances:    validate.DefaultTolerances(),
		LLM:           llm.Config{Provider: "none"},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies the
// environment and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Addr, "FINSIGHT_ADDR")
	set(&c.DatabaseURL, "DATABASE_URL")
	set(&c.LogLevel, "FINSIGHT_LOG_LEVEL")
	set(&c.Benchmarks, "FINSIGHT_BENCHMARKS")
	set(&c.LLM.Provider, "FINSIGHT_LLM_PROVIDER")
	set(&c.LLM.Model, "FINSIGHT_LLM_MODEL")
	set(&c.CacheDir, "FINSIGHT_CACHE_DIR")
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
}

// Validate checks struct tags and the fiscal year end.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := period.ParseYearEnd(c.FiscalYearEnd); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Calendar returns the fiscal calendar for FiscalYearEnd.
func (c *Config) Calendar() period.Calendar {
	cal, err := period.ParseYearEnd(c.FiscalYearEnd)
	if err != nil {
		return period.DefaultCalendar()
	}
	return cal
}

// EngineOptions maps the configuration onto per-run engine options.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Calendar = c.Calendar()
	opts.Industry = c.Industry
	opts.Tolerances = c.Tolerances
	return opts
}

// Level is the parsed log level.
func (c *Config) Level() log.Level {
	return log.ParseLevel(c.LogLevel)
}
