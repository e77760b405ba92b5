package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optistock/replenish/internal/domain"
)

func testBatch(runDate time.Time) *domain.DecisionBatch {
	return &domain.DecisionBatch{
		RunDate:     runDate,
		GeneratedAt: runDate.Add(6 * time.Hour),
		Recommendations: []domain.ReorderRecommendation{
			{
				ProductCode:    "301234",
				Category:       domain.CategoryDailyLens,
				RecommendedQty: 3000,
				Criticality:    domain.CriticalityHigh,
			},
		},
		Summary: domain.BatchSummary{
			ProductsEvaluated:   1,
			ProductsSkipped:     map[string]int{},
			ReordersRecommended: 1,
		},
	}
}

func TestArchiverRoundTrip(t *testing.T) {
	store, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store)

	runDate := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	batch := testBatch(runDate)

	ctx := context.Background()
	require.NoError(t, archiver.SaveBatch(ctx, batch))

	loaded, err := archiver.LoadBatch(ctx, runDate)
	require.NoError(t, err)
	assert.True(t, loaded.RunDate.Equal(batch.RunDate))
	assert.Equal(t, batch.Summary, loaded.Summary)
	require.Len(t, loaded.Recommendations, 1)
	assert.Equal(t, batch.Recommendations[0].ProductCode, loaded.Recommendations[0].ProductCode)
	assert.Equal(t, batch.Recommendations[0].RecommendedQty, loaded.Recommendations[0].RecommendedQty)
}

func TestArchiverOverwritesSameDate(t *testing.T) {
	store, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store)

	runDate := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first := testBatch(runDate)
	require.NoError(t, archiver.SaveBatch(ctx, first))

	second := testBatch(runDate)
	second.Recommendations[0].RecommendedQty = 6000
	require.NoError(t, archiver.SaveBatch(ctx, second))

	loaded, err := archiver.LoadBatch(ctx, runDate)
	require.NoError(t, err)
	assert.Equal(t, 6000, loaded.Recommendations[0].RecommendedQty)
}

func TestArchiverLoadMissingDate(t *testing.T) {
	store, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store)

	_, err = archiver.LoadBatch(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestLocalClientListObjectsReturnsRelativeKeys(t *testing.T) {
	store, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "decisions/2026-08-23.json", []byte(`{}`)))
	require.NoError(t, store.PutObject(ctx, "decisions/2026-08-24.json", []byte(`{}`)))

	keys, err := store.ListObjects(ctx, "decisions")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2026-08-23.json", "2026-08-24.json"}, keys)
}

func TestArchiverListRunDates(t *testing.T) {
	store, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store)

	ctx := context.Background()
	for _, day := range []int{22, 23, 24} {
		runDate := time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC)
		require.NoError(t, archiver.SaveBatch(ctx, testBatch(runDate)))
	}

	dates, err := archiver.ListRunDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 3)
}
