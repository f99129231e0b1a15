// Command genfixture writes synthetic accident archives in the police export
// format together with an index page linking them. Point IZV_BASE_URL at a
// static file server over the output directory to run cmd/accidents offline.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -out data/fixture \
//	  -years 2016,2017,2018,2019,2020 \
//	  -partial 09-2021 \
//	  -rows 200
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/fixture"
	"github.com/dustin/go-humanize"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/fixture", "output directory for archives and index.html")
	years := flag.String("years", "2016,2017,2018,2019,2020", "comma-separated years of full-year archives")
	partial := flag.String("partial", "09-2021", "month-year of the partial archive (MM-YYYY)")
	rows := flag.Int("rows", 200, "rows per region per archive")
	regionList := flag.String("regions", "all", `comma-separated region codes or "all"`)
	flag.Parse()

	if *rows < 0 {
		return fmt.Errorf("-rows must not be negative")
	}

	archives, err := buildArchiveList(*years, *partial, *rows)
	if err != nil {
		return err
	}
	regions, err := parseRegionList(*regionList)
	if err != nil {
		return err
	}

	// The index links into data/, as the portal does.
	dataDir := filepath.Join(*out, "data")
	if err := fixture.Build(dataDir, archives, regions); err != nil {
		return fmt.Errorf("build archives: %w", err)
	}

	links := make([]string, 0, len(archives))
	var size int64
	for _, a := range archives {
		links = append(links, "data/"+a.Name)
		if info, err := os.Stat(filepath.Join(dataDir, a.Name)); err == nil {
			size += info.Size()
		}
		log.Printf("%s: %d regions x %d rows", a.Name, len(regions), a.RowsPerRegion)
	}

	indexPath := filepath.Join(*out, "index.html")
	if err := os.WriteFile(indexPath, []byte(fixture.IndexHTML(links)), 0o600); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	total := len(archives) * len(regions) * *rows
	log.Printf("wrote %d archives (%s, %s rows) and %s", len(archives), humanize.Bytes(uint64(size)), humanize.Comma(int64(total)), indexPath)
	return nil
}

func buildArchiveList(years, partial string, rows int) ([]fixture.Archive, error) {
	var archives []fixture.Archive
	for _, y := range strings.Split(years, ",") {
		y = strings.TrimSpace(y)
		if y == "" {
			continue
		}
		year, err := strconv.Atoi(y)
		if err != nil || len(y) != 4 {
			return nil, fmt.Errorf("invalid year %q", y)
		}
		archives = append(archives, fixture.Archive{
			Name:          fmt.Sprintf("datagis%04d.zip", year),
			Year:          year,
			RowsPerRegion: rows,
		})
	}

	if partial != "" {
		month, year, ok := strings.Cut(partial, "-")
		m, errM := strconv.Atoi(month)
		yy, errY := strconv.Atoi(year)
		if !ok || errM != nil || errY != nil || m < 1 || m > 12 || len(year) != 4 {
			return nil, fmt.Errorf("invalid partial %q, want MM-YYYY", partial)
		}
		archives = append(archives, fixture.Archive{
			Name:          fmt.Sprintf("datagis-%02d-%04d.zip", m, yy),
			Year:          yy,
			Month:         m,
			RowsPerRegion: rows,
		})
	}
	return archives, nil
}

func parseRegionList(s string) ([]domain.Region, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return domain.AllRegions(), nil
	}
	return domain.ParseRegions(strings.Split(s, ","))
}
