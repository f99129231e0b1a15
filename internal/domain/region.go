package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRegion is returned when a region code is not one of the 14 known codes.
var ErrUnknownRegion = errors.New("unknown region")

// Region is a short code of one of the 14 Czech reporting regions.
type Region string

const (
	RegionPHA Region = "PHA" // Hlavní město Praha
	RegionSTC Region = "STC" // Středočeský
	RegionJHC Region = "JHC" // Jihočeský
	RegionPLK Region = "PLK" // Plzeňský
	RegionULK Region = "ULK" // Ústecký
	RegionHKK Region = "HKK" // Královéhradecký
	RegionJHM Region = "JHM" // Jihomoravský
	RegionMSK Region = "MSK" // Moravskoslezský
	RegionOLK Region = "OLK" // Olomoucký
	RegionZLK Region = "ZLK" // Zlínský
	RegionVYS Region = "VYS" // Vysočina
	RegionPAK Region = "PAK" // Pardubický
	RegionLBK Region = "LBK" // Liberecký
	RegionKVK Region = "KVK" // Karlovarský
)

// regionFileIDs maps each region to the numeric identifier naming its CSV
// entry inside an archive. The numbering has gaps (08–13 are unused).
var regionFileIDs = map[Region]string{
	RegionPHA: "00",
	RegionSTC: "01",
	RegionJHC: "02",
	RegionPLK: "03",
	RegionULK: "04",
	RegionHKK: "05",
	RegionJHM: "06",
	RegionMSK: "07",
	RegionOLK: "14",
	RegionZLK: "15",
	RegionVYS: "16",
	RegionPAK: "17",
	RegionLBK: "18",
	RegionKVK: "19",
}

var allRegions = []Region{
	RegionPHA, RegionSTC, RegionJHC, RegionPLK, RegionULK, RegionHKK, RegionJHM,
	RegionMSK, RegionOLK, RegionZLK, RegionVYS, RegionPAK, RegionLBK, RegionKVK,
}

// AllRegions returns every known region in canonical order.
func AllRegions() []Region {
	out := make([]Region, len(allRegions))
	copy(out, allRegions)
	return out
}

// ParseRegion validates a region code. Matching is case-insensitive.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := regionFileIDs[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	return r, nil
}

// ParseRegions validates a list of region codes, preserving order.
func ParseRegions(codes []string) ([]Region, error) {
	out := make([]Region, 0, len(codes))
	for _, c := range codes {
		r, err := ParseRegion(c)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	_, ok := regionFileIDs[r]
	return ok
}

// FileID returns the numeric identifier of the region's CSV file.
func (r Region) FileID() string {
	return regionFileIDs[r]
}

// CSVName returns the name of the region's entry inside an archive, e.g. "00.csv".
func (r Region) CSVName() string {
	return r.FileID() + ".csv"
}

func (r Region) String() string { return string(r) }
