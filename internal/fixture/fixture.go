// Package fixture builds synthetic accident archives in the on-disk format of
// the police export: ZIP files holding one semicolon-delimited, Windows-1250
// encoded CSV per region. It backs cmd/genfixture and the package tests.
package fixture

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

// Archive describes one synthetic archive.
type Archive struct {
	// Name is the file name, e.g. "datagis2016.zip" or "datagis-09-2021.zip".
	Name string
	// Year and Month set the accident dates of generated rows. Month 0 spreads
	// rows over the whole year.
	Year  int
	Month int
	// RowsPerRegion is the number of rows written to each region's CSV.
	RowsPerRegion int
}

// Row returns one raw CSV row as the police export writes it: sentinels and
// decimal commas included. The accident id is id and the date is date
// (YYYY-MM-DD).
func Row(id int64, date string) []string {
	row := make([]string, len(domain.Schema))
	for i, f := range domain.Schema {
		switch f.Kind {
		case domain.KindInt:
			row[i] = strconv.Itoa(int((id + int64(i)) % 7))
		case domain.KindFloat:
			row[i] = ""
		case domain.KindString:
			row[i] = "Silnice I. třídy"
		case domain.KindDate:
			row[i] = date
		}
	}
	set := func(name, v string) {
		for i, f := range domain.Schema {
			if f.Name == name {
				row[i] = v
				return
			}
		}
	}
	set("p1", strconv.FormatInt(id, 10))
	set("p47", "XX")
	set("d", fmt.Sprintf("-%d,%02d", 700000+id%50000, id%100))
	set("e", fmt.Sprintf("-%d,%02d", 1050000+id%40000, (id*7)%100))
	set("h", "A:")
	set("k", "Křižovatka")
	set("p5a", "")
	return row
}

// RegionRows generates n rows for region r in archive a. Ids are unique across
// regions and archives built from the same list.
func RegionRows(a Archive, archiveIndex int, r domain.Region, n int) [][]string {
	regionIndex := 0
	for i, reg := range domain.AllRegions() {
		if reg == r {
			regionIndex = i
		}
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		id := int64(regionIndex)*1_000_000 + int64(archiveIndex)*10_000 + int64(i) + 1
		month := a.Month
		if month == 0 {
			month = i%12 + 1
		} else {
			month = i%month + 1
		}
		date := fmt.Sprintf("%04d-%02d-%02d", a.Year, month, i%28+1)
		rows = append(rows, Row(id, date))
	}
	return rows
}

// WriteArchive writes a ZIP archive at path holding one CSV entry per key of
// entries (e.g. "00.csv"), encoded in Windows-1250.
func WriteArchive(path string, entries map[string][][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, rows := range entries {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		cw.Comma = ';'
		cw.UseCRLF = true
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		encoded, err := charmap.Windows1250.NewEncoder().Bytes(buf.Bytes())
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", name, err)
		}
		if _, err := w.Write(encoded); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", path, err)
	}
	return f.Close()
}

// Build writes every archive into dir with entries for the given regions.
func Build(dir string, archives []Archive, regions []domain.Region) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	for ai, a := range archives {
		entries := make(map[string][][]string, len(regions))
		for _, r := range regions {
			entries[r.CSVName()] = RegionRows(a, ai, r, a.RowsPerRegion)
		}
		if err := WriteArchive(filepath.Join(dir, a.Name), entries); err != nil {
			return err
		}
	}
	return nil
}

// IndexHTML renders a page shaped like the data portal index: one "ZIP"
// button per link, with the link inside an onclick download call.
func IndexHTML(links []string) string {
	var b strings.Builder
	b.WriteString("<html><body><table>\n")
	for _, l := range links {
		fmt.Fprintf(&b, "<tr><td>%s</td><td><button type=\"button\" class=\"btn btn-sm btn-primary\" onclick=\"download('%s')\">ZIP</button></td></tr>\n", filepath.Base(l), l)
	}
	b.WriteString("</table></body></html>\n")
	return b.String()
}
