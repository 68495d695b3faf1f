package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"finsight/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	industry        TEXT NOT NULL DEFAULT '',
	gate_state      TEXT NOT NULL,
	acknowledged    BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged_by TEXT NOT NULL DEFAULT '',
	result          JSONB NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_runs_created_at ON analysis_runs (created_at DESC);
`

// PGRepository stores each run as a JSONB document with its gate state
// copied into columns for listing.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *PGRepository) Save(ctx context.Context, res *models.AnalysisResult) error {
	return upsert(ctx, r.pool, res)
}

func upsert(ctx context.Context, db execer, res *models.AnalysisResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (id, created_at, source, industry, gate_state, acknowledged, acknowledged_by, result, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			gate_state = EXCLUDED.gate_state,
			acknowledged = EXCLUDED.acknowledged,
			acknowledged_by = EXCLUDED.acknowledged_by,
			result = EXCLUDED.result,
			updated_at = EXCLUDED.updated_at`

	_, err = db.Exec(ctx, query, res.ID, res.CreatedAt, res.Source, res.Industry,
		string(res.Gate.State), res.Gate.Acknowledged, res.Gate.AcknowledgedBy, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", res.ID, err)
	}
	return nil
}

func (r *PGRepository) Load(ctx context.Context, id string) (*models.AnalysisResult, error) {
	return load(r.pool.QueryRow(ctx, `SELECT result FROM analysis_runs WHERE id = $1`, id), id)
}

func load(row pgx.Row, id string) (*models.AnalysisResult, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load analysis %s: %w", id, err)
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal analysis %s: %w", id, err)
	}
	return &res, nil
}

func (r *PGRepository) Acknowledge(ctx context.Context, id, by string) (*models.AnalysisResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := load(tx.QueryRow(ctx, `SELECT result FROM analysis_runs WHERE id = $1 FOR UPDATE`, id), id)
	if err != nil {
		return nil, err
	}
	res.Gate = res.Gate.Acknowledge(by)
	if err := upsert(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (r *PGRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, source, industry, gate_state, acknowledged
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var gate string
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Source, &s.Industry, &gate, &s.Acknowledged); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		s.Gate = models.GateState(gate)
		out = append(out, s)
	}
	return out, rows.Err()
}
