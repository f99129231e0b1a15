package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
)

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// maxLoadAttempts bounds retries of a single failed batch.
const maxLoadAttempts = 4

// Exporter publishes an assembled dataset row by row in batches.
type Exporter struct {
	loader    BatchLoader
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewExporter creates an Exporter sending batches of batchSize events.
func NewExporter(l BatchLoader, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Exporter{
		loader:    l,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Export serializes every row of rs and loads it. It returns the number of
// rows loaded before the first unrecoverable error.
func (e *Exporter) Export(ctx context.Context, rs *domain.RecordSet) (int, error) {
	n := rs.Len()
	e.logger.Info("export started", "rows", n, "batch_size", e.batchSize)

	exported := 0
	batch := make([]domain.OutputEvent, 0, e.batchSize)
	for i := 0; i < n; i++ {
		ev, err := domain.SerializeRecord(rs, i)
		if err != nil {
			return exported, err
		}
		batch = append(batch, ev)
		if len(batch) < e.batchSize && i < n-1 {
			continue
		}
		if err := e.loadWithRetry(ctx, batch); err != nil {
			return exported, err
		}
		exported += len(batch)
		batch = batch[:0]
	}

	e.logger.Info("export finished", "rows", exported)
	return exported, nil
}

// loadWithRetry loads one batch, backing off between failed attempts:
// start at 200ms, double each retry, cap at 5s.
func (e *Exporter) loadWithRetry(ctx context.Context, batch []domain.OutputEvent) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		if err = e.loader.LoadBatch(ctx, batch); err == nil {
			e.metrics.RecordsExported.Add(float64(len(batch)))
			e.metrics.BatchSize.Observe(float64(len(batch)))
			return nil
		}
		e.metrics.ExportErrors.Inc()
		e.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "attempt", attempt)

		if attempt == maxLoadAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("load batch: %w", err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
