// Command validate checks the integrity of the region cache in a data folder:
// every entry must decode, match the column schema, and carry its own region
// code. With -archives it also re-parses the archives in the folder and
// verifies that each cached entry equals a fresh parse.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data [-template data_%s.gob.gz] [-archives]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/accident-data-etl/internal/cache"
	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/couchcryptid/accident-data-etl/internal/parser"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// entry is one decoded cache file.
type entry struct {
	region domain.Region
	data   *domain.RecordSet
}

// offline refuses to download; validation only looks at what is on disk.
type offline struct{}

func (offline) EnsureArchives(context.Context) error {
	return errors.New("no archives in data folder")
}

func main() {
	dataDir := flag.String("data-dir", "data", "data folder holding archives and cache entries")
	template := flag.String("template", cache.DefaultTemplate, "cache file name template")
	archives := flag.Bool("archives", false, "also compare cache entries against a fresh parse of the archives")
	flag.Parse()

	if code := run(os.Stdout, *dataDir, *template, *archives); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, dataDir, template string, checkArchives bool) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	c := cache.New(dataDir, template, logger, metrics)

	fmt.Fprintln(w, "=== Accident Cache Integrity Validation ===")
	fmt.Fprintln(w)

	readable, entries := validateReadability(c)
	phases := []*phase{
		readable,
		validateSchemaAlignment(entries),
		validateRegionTags(entries),
	}
	if checkArchives {
		p := parser.New(dataDir, offline{}, logger, metrics)
		phases = append(phases, validateArchiveParity(p, entries))
	}

	if len(entries) == 0 && readable.passed() {
		fmt.Fprintf(w, "No cache entries found in %s.\n", dataDir)
		return 1
	}

	allPassed := true
	for _, p := range phases {
		status := color.GreenString("PASS")
		if !p.passed() {
			status = color.RedString("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	rows := 0
	for _, e := range entries {
		rows += e.data.Len()
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Entries: %d regions, %s rows\n", len(entries), humanize.Comma(int64(rows)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Readability ──
// Every present cache file must decode into a rectangular record set.

func validateReadability(c *cache.Cache) (*phase, []entry) {
	p := &phase{name: "Phase 1: Readability (gzip + gob)"}
	var entries []entry
	for _, r := range domain.AllRegions() {
		rs, err := c.Read(r)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			p.errorf("%s (%s): %v", r, c.Path(r), err)
			continue
		}
		entries = append(entries, entry{region: r, data: rs})
	}
	return p, entries
}

// ── Phase 2: Schema Alignment ──
// Column names, order, and kinds must match the accident schema.

func validateSchemaAlignment(entries []entry) *phase {
	p := &phase{name: "Phase 2: Schema Alignment (65 columns)"}
	want := domain.ColumnNames()
	for _, e := range entries {
		if len(e.data.Columns) != len(want) {
			p.errorf("%s: %d columns, want %d", e.region, len(e.data.Columns), len(want))
			continue
		}
		for i, col := range e.data.Columns {
			if col.Name != want[i] {
				p.errorf("%s: column %d is %q, want %q", e.region, i, col.Name, want[i])
				continue
			}
			wantKind := domain.KindString
			if i < len(domain.Schema) {
				wantKind = domain.Schema[i].Kind
			}
			if col.Kind != wantKind {
				p.errorf("%s: column %q is %s, want %s", e.region, col.Name, col.Kind, wantKind)
			}
		}
	}
	return p
}

// ── Phase 3: Region Tags ──
// Every row must carry the region code of its entry and a real date.

func validateRegionTags(entries []entry) *phase {
	p := &phase{name: "Phase 3: Region Tags (region, p2a)"}
	for _, e := range entries {
		col, ok := e.data.Column(domain.RegionColumn)
		if !ok {
			p.errorf("%s: no %q column", e.region, domain.RegionColumn)
			continue
		}
		bad := 0
		for _, v := range col.Strings {
			if v != string(e.region) {
				bad++
			}
		}
		if bad > 0 {
			p.errorf("%s: %d rows tagged with another region", e.region, bad)
		}

		if dates, ok := e.data.Column("p2a"); ok {
			for i, d := range dates.Dates {
				if d.IsZero() {
					p.errorf("%s row %d: zero accident date", e.region, i)
					break
				}
			}
		}
	}
	return p
}

// ── Phase 4: Archive Parity ──
// A fresh parse of the archives must equal the cached entry.

func validateArchiveParity(p *parser.Parser, entries []entry) *phase {
	ph := &phase{name: "Phase 4: Archive Parity (cache vs parse)"}
	for _, e := range entries {
		fresh, err := p.ParseRegion(context.Background(), e.region)
		if err != nil {
			ph.errorf("%s: parse archives: %v", e.region, err)
			continue
		}
		if fresh.Len() != e.data.Len() {
			ph.errorf("%s: cache has %d rows, archives have %d", e.region, e.data.Len(), fresh.Len())
			continue
		}
		if !fresh.Equal(e.data) {
			ph.errorf("%s: cached values differ from a fresh parse", e.region)
		}
	}
	return ph
}
