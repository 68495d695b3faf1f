package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FINSIGHT_ADDR", "DATABASE_URL", "FINSIGHT_LOG_LEVEL", "FINSIGHT_BENCHMARKS", "FINSIGHT_LLM_PROVIDER", "FINSIGHT_LLM_MODEL", "FINSIGHT_CACHE_DIR"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "finsight.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, log.InfoLevel, cfg.Level())
	assert.Equal(t, time.June, cfg.Calendar().YearEndMonth)
	assert.Equal(t, 30, cfg.Calendar().YearEndDay)
	assert.Equal(t, 1.0, cfg.Tolerances.Absolute)
	assert.Equal(t, "none", cfg.LLM.Provider)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
addr: ":9090"
log_level: debug
industry: Retail Trade
fiscal_year_end: "12-31"
llm:
  provider: gemini
  model: gemini-2.0-flash
`)
	t.Setenv("FINSIGHT_ADDR", ":7070")
	t.Setenv("FINSIGHT_LLM_PROVIDER", "Ollama")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr, "environment wins over file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, ".cache", cfg.CacheDir, "defaults survive a partial file")

	opts := cfg.EngineOptions()
	assert.Equal(t, "Retail Trade", opts.Industry)
	assert.Equal(t, time.December, opts.Calendar.YearEndMonth)
	assert.Equal(t, 31, opts.Calendar.YearEndDay)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"log level":      "log_level: verbose\n",
		"provider":       "llm:\n  provider: mystery\n",
		"year end":       "fiscal_year_end: someday\n",
		"base url":       "llm:\n  provider: ollama\n  base_url: not a url\n",
		"malformed yaml": "addr: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
