package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrCoercion is returned when a cell cannot be parsed as its declared kind.
var ErrCoercion = errors.New("field coercion failed")

// Missing is the literal substituted for unknown or unreported values.
const Missing = "-1"

// sentinels are source tokens meaning "unknown". The letter-colon markers
// appear in category columns of the police export.
var sentinels = map[string]struct{}{
	"":   {},
	"XX": {},
	"A:": {},
	"B:": {},
	"C:": {},
	"D:": {},
	"E:": {},
	"F:": {},
	"G:": {},
}

// NormalizeField maps sentinel tokens to Missing and replaces decimal commas
// with decimal points.
func NormalizeField(v string) string {
	if _, ok := sentinels[v]; ok {
		return Missing
	}
	return strings.ReplaceAll(v, ",", ".")
}

// NormalizeRow normalizes every field of a row in place and returns it.
func NormalizeRow(row []string) []string {
	for i, v := range row {
		row[i] = NormalizeField(v)
	}
	return row
}

// CoerceRows converts normalized, row-major string rows into a typed record
// set tagged with region. Every row must have exactly len(Schema) fields and
// every cell must parse as its column's kind; the first failure aborts.
func CoerceRows(rows [][]string, region Region) (*RecordSet, error) {
	rs := NewRecordSet(len(rows))
	for r, row := range rows {
		if len(row) != len(Schema) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrCoercion, r, len(row), len(Schema))
		}
		for c, f := range Schema {
			if err := appendCell(&rs.Columns[c], f, row[c]); err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %w", ErrCoercion, r, f.Name, err)
			}
		}
	}

	regionCol := &rs.Columns[len(Schema)]
	for range rows {
		regionCol.Strings = append(regionCol.Strings, string(region))
	}
	return rs, nil
}

func appendCell(col *Column, f Field, v string) error {
	switch f.Kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		col.Ints = append(col.Ints, n)
	case KindFloat:
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		col.Floats = append(col.Floats, x)
	case KindDate:
		d, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return err
		}
		col.Dates = append(col.Dates, d)
	case KindString:
		col.Strings = append(col.Strings, v)
	default:
		return fmt.Errorf("unsupported kind %d", f.Kind)
	}
	return nil
}
