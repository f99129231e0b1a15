// Package report summarizes an assembled accident dataset for the command
// line and the HTTP summary endpoint.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/twpayne/go-geom"
)

// CRS is the coordinate reference system of the d/e columns (S-JTSK / Krovak East North).
const CRS = "EPSG:5514"

// RegionCount is the number of rows of one region.
type RegionCount struct {
	Region string `json:"region"`
	Rows   int    `json:"rows"`
}

// Extent is the bounding box of accidents with known coordinates.
type Extent struct {
	CRS    string  `json:"crs"`
	Points int     `json:"points"`
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
}

// Casualties sums the known casualty counts.
type Casualties struct {
	Killed           int64 `json:"killed"`
	SeriouslyInjured int64 `json:"seriously_injured"`
	LightlyInjured   int64 `json:"lightly_injured"`
}

// Summary describes a dataset at a glance.
type Summary struct {
	Rows       int           `json:"rows"`
	Columns    []string      `json:"columns"`
	Regions    []RegionCount `json:"regions"`
	FirstDate  string        `json:"first_date,omitempty"`
	LastDate   string        `json:"last_date,omitempty"`
	Casualties Casualties    `json:"casualties"`
	Extent     *Extent       `json:"extent,omitempty"`
}

// Summarize computes a Summary. Missing values (-1) are skipped in sums, date
// ranges and the extent.
func Summarize(rs *domain.RecordSet) Summary {
	s := Summary{
		Rows:    rs.Len(),
		Columns: rs.Names(),
		Regions: regionCounts(rs),
	}
	s.FirstDate, s.LastDate = dateRange(rs)
	s.Casualties = Casualties{
		Killed:           sumKnown(rs, "p13a"),
		SeriouslyInjured: sumKnown(rs, "p13b"),
		LightlyInjured:   sumKnown(rs, "p13c"),
	}
	s.Extent = extent(rs)
	return s
}

// RegionCodes returns the distinct region codes in sorted order.
func (s Summary) RegionCodes() []string {
	out := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		out[i] = r.Region
	}
	return out
}

func regionCounts(rs *domain.RecordSet) []RegionCount {
	col, ok := rs.Column(domain.RegionColumn)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range col.Strings {
		counts[r]++
	}
	out := make([]RegionCount, 0, len(counts))
	for r, n := range counts {
		out = append(out, RegionCount{Region: r, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func dateRange(rs *domain.RecordSet) (string, string) {
	col, ok := rs.Column("p2a")
	if !ok || len(col.Dates) == 0 {
		return "", ""
	}
	first, last := col.Dates[0], col.Dates[0]
	for _, d := range col.Dates[1:] {
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first.Format(domain.DateLayout), last.Format(domain.DateLayout)
}

func sumKnown(rs *domain.RecordSet, name string) int64 {
	col, ok := rs.Column(name)
	if !ok {
		return 0
	}
	var total int64
	for _, v := range col.Ints {
		if v > 0 {
			total += v
		}
	}
	return total
}

// extent builds a multipoint of the known d/e coordinates and returns its bounds.
func extent(rs *domain.RecordSet) *Extent {
	d, okD := rs.Column("d")
	e, okE := rs.Column("e")
	if !okD || !okE {
		return nil
	}

	flat := make([]float64, 0, 2*len(d.Floats))
	for i := range d.Floats {
		x, y := d.Floats[i], e.Floats[i]
		if x == -1 || y == -1 || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		flat = append(flat, x, y)
	}
	if len(flat) == 0 {
		return nil
	}

	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()
	return &Extent{
		CRS:    CRS,
		Points: len(flat) / 2,
		MinX:   b.Min(0),
		MinY:   b.Min(1),
		MaxX:   b.Max(0),
		MaxY:   b.Max(1),
	}
}

// Render writes a human-readable summary.
func Render(w io.Writer, s Summary, elapsed time.Duration) error {
	var b strings.Builder
	b.WriteString("===================================\n")
	fmt.Fprintf(&b, "Data contains %s entries with %d attributes", humanize.Comma(int64(s.Rows)), len(s.Columns))
	if elapsed > 0 {
		fmt.Fprintf(&b, " (assembled in %s)", elapsed.Round(time.Millisecond))
	}
	b.WriteString("\n\nAttributes:\n\t")
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString("\n\n")

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Region", "Accidents", "Share"})
	for _, r := range s.Regions {
		share := 0.0
		if s.Rows > 0 {
			share = 100 * float64(r.Rows) / float64(s.Rows)
		}
		tbl.AppendRow(table.Row{r.Region, humanize.Comma(int64(r.Rows)), fmt.Sprintf("%.1f%%", share)})
	}
	tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(s.Rows)), ""})
	b.WriteString(tbl.Render())
	b.WriteString("\n\n")

	if s.FirstDate != "" {
		fmt.Fprintf(&b, "Dates:      %s .. %s\n", s.FirstDate, s.LastDate)
	}
	fmt.Fprintf(&b, "Casualties: %s killed, %s seriously injured, %s lightly injured\n",
		humanize.Comma(s.Casualties.Killed),
		humanize.Comma(s.Casualties.SeriouslyInjured),
		humanize.Comma(s.Casualties.LightlyInjured))
	if s.Extent != nil {
		fmt.Fprintf(&b, "Extent:     [%.2f, %.2f] .. [%.2f, %.2f] %s (%s located)\n",
			s.Extent.MinX, s.Extent.MinY, s.Extent.MaxX, s.Extent.MaxY, s.Extent.CRS,
			humanize.Comma(int64(s.Extent.Points)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
