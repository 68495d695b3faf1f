package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool    *pgxpool.Pool
	poolErr error
	once    sync.Once
)

// InitDB opens the shared connection pool. Later calls return the result of
// the first.
func InitDB(ctx context.Context, databaseURL string) error {
	once.Do(func() {
		if databaseURL == "" {
			poolErr = fmt.Errorf("database URL not set")
			return
		}
		config, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			poolErr = fmt.Errorf("parse database config: %w", err)
			return
		}
		pool, poolErr = pgxpool.NewWithConfig(ctx, config)
		if poolErr == nil {
			poolErr = pool.Ping(ctx)
		}
	})
	return poolErr
}

// GetPool returns the shared pool, or nil before InitDB succeeds.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
