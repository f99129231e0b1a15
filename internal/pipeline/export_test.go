package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/couchcryptid/accident-data-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLoader struct {
	batches  [][]domain.OutputEvent
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.batches = append(m.batches, append([]domain.OutputEvent(nil), events...))
	return nil
}

func (m *mockLoader) loaded() []domain.OutputEvent {
	var out []domain.OutputEvent
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func testDataset(t *testing.T) *domain.RecordSet {
	t.Helper()
	rs, err := newMockParser().ParseRegion(context.Background(), domain.RegionPHA)
	require.NoError(t, err)
	stc, err := newMockParser().ParseRegion(context.Background(), domain.RegionSTC)
	require.NoError(t, err)
	require.NoError(t, rs.Concat(stc))
	return rs
}

func TestExporter_BatchesAllRows(t *testing.T) {
	rs := testDataset(t)
	loader := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	n, err := pipeline.NewExporter(loader, 2, discardLogger(), metrics).Export(context.Background(), rs)
	require.NoError(t, err)
	assert.Equal(t, rs.Len(), n)
	assert.Len(t, loader.loaded(), rs.Len())
	assert.Len(t, loader.batches, (rs.Len()+1)/2)
	for _, b := range loader.batches[:len(loader.batches)-1] {
		assert.Len(t, b, 2)
	}
	assert.InDelta(t, float64(rs.Len()), testutil.ToFloat64(metrics.RecordsExported), 0)
}

func TestExporter_EventShape(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2021, time.October, 1, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	rs := testDataset(t)
	loader := &mockLoader{}
	_, err := pipeline.NewExporter(loader, 50, discardLogger(), observability.NewMetricsForTesting()).
		Export(context.Background(), rs)
	require.NoError(t, err)

	first := loader.loaded()[0]
	assert.Equal(t, []byte("1"), first.Key)
	assert.Equal(t, "PHA", first.Headers["region"])
	assert.Equal(t, "2021-10-01T08:00:00Z", first.Headers["exported_at"])

	var row map[string]any
	require.NoError(t, json.Unmarshal(first.Value, &row))
	assert.Equal(t, "2020-01-01", row["p2a"])
	assert.Equal(t, "PHA", row["region"])
	assert.InDelta(t, -1, row["p47"], 0)
	assert.Len(t, row, len(domain.Schema)+1)
}

func TestExporter_RetriesFailedBatch(t *testing.T) {
	rs := testDataset(t)
	loader := &mockLoader{failures: 1}
	metrics := observability.NewMetricsForTesting()

	n, err := pipeline.NewExporter(loader, 100, discardLogger(), metrics).Export(context.Background(), rs)
	require.NoError(t, err)
	assert.Equal(t, rs.Len(), n)
	assert.Equal(t, 2, loader.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ExportErrors), 0)
}

func TestExporter_StopsOnCancelledContext(t *testing.T) {
	rs := testDataset(t)
	loader := &mockLoader{failures: 100}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := pipeline.NewExporter(loader, 100, discardLogger(), observability.NewMetricsForTesting()).Export(ctx, rs)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Equal(t, 1, loader.calls)
}

func TestExporter_EmptyDataset(t *testing.T) {
	loader := &mockLoader{}
	n, err := pipeline.NewExporter(loader, 10, discardLogger(), observability.NewMetricsForTesting()).
		Export(context.Background(), domain.NewRecordSet(0))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, loader.calls)
}
