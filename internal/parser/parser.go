// Package parser reads one region's rows out of every cached archive and
// coerces them into a typed record set.
package parser

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/accident-data-etl/internal/adapter/izv"
	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/encoding/charmap"
)

// ErrEntryNotFound is returned when an archive has no CSV for the requested region.
var ErrEntryNotFound = errors.New("region entry not found in archive")

// ErrNoArchives is returned when the data folder holds no yearly or
// month-year archive to read.
var ErrNoArchives = errors.New("no archives in data folder")

// ArchiveEnsurer makes archives available in the data folder.
type ArchiveEnsurer interface {
	EnsureArchives(ctx context.Context) error
}

// Parser turns archived CSVs into record sets.
type Parser struct {
	dir     string
	fetcher ArchiveEnsurer
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Parser reading archives from dir. fetcher is called when dir
// is missing or empty.
func New(dir string, fetcher ArchiveEnsurer, logger *slog.Logger, metrics *observability.Metrics) *Parser {
	return &Parser{
		dir:     dir,
		fetcher: fetcher,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// WithClock swaps the clock used to time parses.
func (p *Parser) WithClock(c clockwork.Clock) *Parser {
	p.clock = c
	return p
}

// ParseRegion reads the region's CSV from every archive in the data folder,
// normalizes and coerces all rows, and tags them with the region code.
// Archives are read in name order so the row order is stable.
func (p *Parser) ParseRegion(ctx context.Context, region domain.Region) (*domain.RecordSet, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, region)
	}
	start := p.clock.Now()

	if empty, err := dirEmpty(p.dir); err != nil {
		return nil, err
	} else if empty {
		if err := p.fetcher.EnsureArchives(ctx); err != nil {
			return nil, fmt.Errorf("ensure archives: %w", err)
		}
	}

	archives, err := p.archives()
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("parse region %s: %w: %s", region, ErrNoArchives, p.dir)
	}

	var rows [][]string
	for _, a := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		read, err := readRegionEntry(a, region.CSVName())
		if err != nil {
			return nil, err
		}
		p.logger.Debug("region entry read", "region", region, "archive", filepath.Base(a), "rows", len(read))
		rows = append(rows, read...)
	}

	rs, err := domain.CoerceRows(rows, region)
	if err != nil {
		return nil, fmt.Errorf("parse region %s: %w", region, err)
	}

	p.metrics.RowsParsed.WithLabelValues(string(region)).Add(float64(len(rows)))
	p.metrics.ParseDuration.WithLabelValues(string(region)).Observe(p.clock.Since(start).Seconds())
	p.logger.Info("region parsed", "region", region, "archives", len(archives), "rows", rs.Len())
	return rs, nil
}

// archives lists the yearly and month-year archives in the data folder, sorted by name.
func (p *Parser) archives() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && izv.IsArchiveName(e.Name()) {
			out = append(out, filepath.Join(p.dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// readRegionEntry opens the archive at path and reads every row of the named
// CSV entry, normalized.
func readRegionEntry(path, entry string) ([][]string, error) {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip file %s: %w", path, err)
	}
	defer rz.Close()

	for _, f := range rz.File {
		if f.Name == entry {
			return readEntry(f)
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, entry, filepath.Base(path))
}

func readEntry(f *zip.File) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening file in zip: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(charmap.Windows1250.NewDecoder().Reader(rc))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		rows = append(rows, domain.NormalizeRow(row))
	}
	return rows, nil
}

func dirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read data directory: %w", err)
	}
	return len(entries) == 0, nil
}
