package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/commentary"
	"finsight/pkg/core/config"
	"finsight/pkg/core/engine"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/store"
)

// FromConfig wires a handler from application settings: benchmark dataset,
// run store and the optional commentary provider.
func FromConfig(ctx context.Context, cfg *config.Config) (*Handler, error) {
	ds, err := benchmark.Load(cfg.Benchmarks)
	if err != nil {
		return nil, err
	}
	repo, err := store.Open(ctx, cfg.DatabaseURL, filepath.Join(cfg.CacheDir, "analyses"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var gen *commentary.Generator
	provider, err := llm.New(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Info().Msg("commentary disabled: no llm provider configured")
	case err != nil:
		return nil, err
	default:
		gen = commentary.New(provider, cfg.LLM.Model)
		log.Info().Str("provider", provider.Name()).Msg("commentary enabled")
	}

	return NewHandler(engine.New(ds), repo, ds, gen, cfg.EngineOptions()), nil
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config) error {
	h, err := FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("api server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("api server shutting down")
	return srv.Shutdown(shutdownCtx)
}
