package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"finsight/pkg/models"
)

// FileRepository keeps one JSON document per run under a directory. It is
// the local fallback when no database is configured.
type FileRepository struct {
	dir string
	mu  sync.RWMutex
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository creates dir if needed. An empty dir defaults to
// .cache/analyses.
func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "analyses")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

// path rejects anything but a run ID so callers cannot escape the directory.
func (r *FileRepository) path(id string) (string, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return filepath.Join(r.dir, id+".json"), true
}

func (r *FileRepository) Save(ctx context.Context, res *models.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(res)
}

func (r *FileRepository) write(res *models.AnalysisResult) error {
	p, ok := r.path(res.ID)
	if !ok {
		return fmt.Errorf("save analysis: invalid id %q", res.ID)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

func (r *FileRepository) Load(ctx context.Context, id string) (*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read(id)
}

func (r *FileRepository) read(id string) (*models.AnalysisResult, error) {
	p, ok := r.path(id)
	if !ok {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read analysis %s: %w", id, err)
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal analysis %s: %w", id, err)
	}
	return &res, nil
}

func (r *FileRepository) Acknowledge(ctx context.Context, id, by string) (*models.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.read(id)
	if err != nil {
		return nil, err
	}
	res.Gate = res.Gate.Acknowledge(by)
	if err := r.write(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *FileRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		res, err := r.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable analysis")
			continue
		}
		out = append(out, summarize(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
