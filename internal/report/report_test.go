package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionSet(t *testing.T, r domain.Region, rows [][]string) *domain.RecordSet {
	t.Helper()
	for _, row := range rows {
		domain.NormalizeRow(row)
	}
	rs, err := domain.CoerceRows(rows, r)
	require.NoError(t, err)
	return rs
}

func sampleDataset(t *testing.T) *domain.RecordSet {
	t.Helper()
	rs := regionSet(t, domain.RegionPHA, [][]string{
		fixture.Row(1, "2021-02-10"),
		fixture.Row(2, "2021-01-05"),
	})
	other := regionSet(t, domain.RegionSTC, [][]string{
		fixture.Row(3, "2021-06-30"),
	})
	require.NoError(t, rs.Concat(other))
	return rs
}

func setFloat(t *testing.T, rs *domain.RecordSet, name string, i int, v float64) {
	t.Helper()
	col, ok := rs.Column(name)
	require.True(t, ok)
	col.Floats[i] = v
}

func setInt(t *testing.T, rs *domain.RecordSet, name string, values ...int64) {
	t.Helper()
	col, ok := rs.Column(name)
	require.True(t, ok)
	copy(col.Ints, values)
}

func TestSummarize(t *testing.T) {
	rs := sampleDataset(t)
	setInt(t, rs, "p13a", 1, -1, 2)
	setInt(t, rs, "p13b", 0, 0, 0)
	setInt(t, rs, "p13c", 3, 4, -1)

	s := Summarize(rs)

	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, domain.ColumnNames(), s.Columns)
	assert.Equal(t, []RegionCount{{Region: "PHA", Rows: 2}, {Region: "STC", Rows: 1}}, s.Regions)
	assert.Equal(t, []string{"PHA", "STC"}, s.RegionCodes())
	assert.Equal(t, "2021-01-05", s.FirstDate)
	assert.Equal(t, "2021-06-30", s.LastDate)
	assert.Equal(t, Casualties{Killed: 3, SeriouslyInjured: 0, LightlyInjured: 7}, s.Casualties)
}

func TestSummarize_Extent(t *testing.T) {
	rs := sampleDataset(t)
	setFloat(t, rs, "d", 0, -740000)
	setFloat(t, rs, "e", 0, -1050000)
	setFloat(t, rs, "d", 1, -730000)
	setFloat(t, rs, "e", 1, -1040000)
	setFloat(t, rs, "d", 2, -1)

	s := Summarize(rs)

	require.NotNil(t, s.Extent)
	assert.Equal(t, CRS, s.Extent.CRS)
	assert.Equal(t, 2, s.Extent.Points)
	assert.InDelta(t, -740000, s.Extent.MinX, 1e-9)
	assert.InDelta(t, -730000, s.Extent.MaxX, 1e-9)
	assert.InDelta(t, -1050000, s.Extent.MinY, 1e-9)
	assert.InDelta(t, -1040000, s.Extent.MaxY, 1e-9)
}

func TestSummarize_NoKnownCoordinates(t *testing.T) {
	rs := sampleDataset(t)
	for i := 0; i < rs.Len(); i++ {
		setFloat(t, rs, "d", i, -1)
	}
	assert.Nil(t, Summarize(rs).Extent)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(domain.NewRecordSet(0))
	assert.Equal(t, 0, s.Rows)
	assert.Empty(t, s.Regions)
	assert.Empty(t, s.FirstDate)
	assert.Nil(t, s.Extent)
}

func TestRender(t *testing.T) {
	rs := sampleDataset(t)
	var buf bytes.Buffer

	require.NoError(t, Render(&buf, Summarize(rs), 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "Data contains 3 entries with 65 attributes (assembled in 1.5s)")
	assert.Contains(t, out, "p1, p36, p37, p2a")
	assert.Contains(t, out, "PHA")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "Dates:      2021-01-05 .. 2021-06-30")
	assert.Contains(t, out, "EPSG:5514")
}

func TestRender_LargeCountsAreGrouped(t *testing.T) {
	s := Summary{Rows: 1234567, Regions: []RegionCount{{Region: "JHM", Rows: 1234567}}}
	var buf bytes.Buffer

	require.NoError(t, Render(&buf, s, 0))

	assert.Contains(t, buf.String(), "Data contains 1,234,567 entries with 0 attributes\n")
	assert.Contains(t, buf.String(), "100.0%")
	assert.NotContains(t, buf.String(), "Dates:")
	assert.NotContains(t, buf.String(), "Extent:")
}
