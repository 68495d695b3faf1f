// Package store persists analysis runs and their acknowledgements, in
// Postgres when a database is configured and as JSON files otherwise.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/phuslu/log"

	"finsight/pkg/models"
)

var ErrNotFound = errors.New("analysis not found")

// Summary is the listing view of a stored run.
type Summary struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Source       string           `json:"source,omitempty"`
	Industry     string           `json:"industry,omitempty"`
	Gate         models.GateState `json:"gate"`
	Acknowledged bool             `json:"acknowledged"`
}

func summarize(r *models.AnalysisResult) Summary {
	return Summary{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Source:       r.Source,
		Industry:     r.Industry,
		Gate:         r.Gate.State,
		Acknowledged: r.Gate.Acknowledged,
	}
}

type Repository interface {
	Save(ctx context.Context, res *models.AnalysisResult) error
	Load(ctx context.Context, id string) (*models.AnalysisResult, error)
	// Acknowledge records that by has reviewed the failing checks and
	// returns the updated result.
	Acknowledge(ctx context.Context, id, by string) (*models.AnalysisResult, error)
	// List returns the newest runs first.
	List(ctx context.Context, limit int) ([]Summary, error)
}

// Open returns a Postgres repository when databaseURL is set and a file
// repository under dir otherwise.
func Open(ctx context.Context, databaseURL, dir string) (Repository, error) {
	if databaseURL == "" {
		repo, err := NewFileRepository(dir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", repo.dir).Msg("using file store")
		return repo, nil
	}
	if err := InitDB(ctx, databaseURL); err != nil {
		return nil, err
	}
	repo := NewPGRepository(GetPool())
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("using postgres store")
	return repo, nil
}
