package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"finsight/pkg/api/analysis"
	"finsight/pkg/core/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("FINSIGHT_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Addr).Str("llm", cfg.LLM.Provider).Msg("starting finsight api")
	log.Info().Msg("  POST /api/analysis")
	log.Info().Msg("  POST /api/analysis/upload")
	log.Info().Msg("  GET  /api/analysis/{id}")
	log.Info().Msg("  POST /api/analysis/{id}/acknowledge")
	log.Info().Msg("  POST /api/analysis/{id}/commentary")
	log.Info().Msg("  GET  /api/benchmarks/industries")

	if err := analysis.Serve(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
