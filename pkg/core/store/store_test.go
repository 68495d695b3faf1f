package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/models"
)

func result(created time.Time, gate models.GateState) *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:        uuid.NewString(),
		CreatedAt: created,
		Source:    "acme.csv",
		Industry:  "Retail Trade",
		Periods:   []models.Period{{Index: 0, Label: "FY2023-24", Source: models.SourceDetected}},
		Metrics: []models.Metric{{
			Key: "current_ratio", Name: "Current Ratio",
			Values: []models.MetricValue{{Period: "FY2023-24", Ratio: models.Computed(1.8), Status: models.StatusGreen}},
		}, {
			Key: "revenue_growth", Name: "Revenue Growth",
			Values: []models.MetricValue{{Period: "FY2023-24", Ratio: models.NotComputable("no prior period"), Status: models.StatusGrey}},
		}},
		Gate: models.Gate{State: gate},
	}
}

func TestFileRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	res := result(time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC), models.GateClear)
	require.NoError(t, repo.Save(ctx, res))

	got, err := repo.Load(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.True(t, res.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "Retail Trade", got.Industry)
	require.Len(t, got.Metrics, 2)
	assert.InDelta(t, 1.8, got.Metrics[0].Values[0].Ratio.Value, 1e-9)
	assert.False(t, got.Metrics[1].Values[0].Ratio.Computable)
	assert.Equal(t, "no prior period", got.Metrics[1].Values[0].Ratio.Reason)
}

func TestFileRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Load(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.Load(ctx, "../../etc/passwd")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.Acknowledge(ctx, uuid.NewString(), "me")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileRepository_AcknowledgePersists(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	res := result(time.Now().UTC(), models.GateBlocked)
	require.NoError(t, repo.Save(ctx, res))

	got, err := repo.Acknowledge(ctx, res.ID, "j.citizen")
	require.NoError(t, err)
	assert.True(t, got.Gate.Acknowledged)
	assert.True(t, got.Gate.Visible())

	reloaded, err := repo.Load(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Gate.Acknowledged)
	assert.Equal(t, "j.citizen", reloaded.Gate.AcknowledgedBy)
	assert.Equal(t, models.GateBlocked, reloaded.Gate.State)
}

func TestFileRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		res := result(base.Add(time.Duration(i)*time.Hour), models.GateClear)
		ids = append(ids, res.ID)
		require.NoError(t, repo.Save(ctx, res))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
	assert.Equal(t, models.GateClear, list[0].Gate)

	list, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestOpen_FileFallback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	repo, err := Open(context.Background(), "", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
