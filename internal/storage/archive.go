// internal/storage/archive.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/optistock/replenish/internal/domain"
)

const archivePrefix = "decisions"

// Archiver persists one JSON report per daily run for the audit trail.
type Archiver struct {
	store ObjectStorage
}

func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{store: store}
}

func batchKey(runDate time.Time) string {
	return fmt.Sprintf("%s/%s.json", archivePrefix, runDate.Format("2006-01-02"))
}

// SaveBatch writes the batch report, overwriting any earlier report for the
// same run date.
func (a *Archiver) SaveBatch(ctx context.Context, batch *domain.DecisionBatch) error {
	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode decision batch: %w", err)
	}
	return a.store.PutObject(ctx, batchKey(batch.RunDate), payload)
}

// LoadBatch reads back the archived report for a run date.
func (a *Archiver) LoadBatch(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, error) {
	payload, err := a.store.GetObject(ctx, batchKey(runDate))
	if err != nil {
		return nil, err
	}

	var batch domain.DecisionBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, fmt.Errorf("decode decision batch: %w", err)
	}
	return &batch, nil
}

// ListRunDates returns the run dates that have an archived report.
func (a *Archiver) ListRunDates(ctx context.Context) ([]time.Time, error) {
	keys, err := a.store.ListObjects(ctx, archivePrefix)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(keys))
	for _, name := range keys {
		if len(name) < len("2006-01-02.json") {
			continue
		}
		day, err := time.Parse("2006-01-02", name[:len("2006-01-02")])
		if err != nil {
			continue
		}
		dates = append(dates, day)
	}
	return dates, nil
}
