package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrShapeMismatch is returned when record sets or columns disagree on their
// column set, kinds, or lengths.
var ErrShapeMismatch = errors.New("record set shape mismatch")

// Column is a named, homogeneous value sequence. Exactly one of the value
// slices is used, selected by Kind. Fields are exported so that a Column can
// be gob-encoded as-is.
type Column struct {
	Name    string
	Kind    Kind
	Ints    []int64
	Floats  []float64
	Strings []string
	Dates   []time.Time
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindInt:
		return len(c.Ints)
	case KindFloat:
		return len(c.Floats)
	case KindString:
		return len(c.Strings)
	case KindDate:
		return len(c.Dates)
	default:
		return 0
	}
}

// Value returns the i-th value boxed as any.
func (c *Column) Value(i int) any {
	switch c.Kind {
	case KindInt:
		return c.Ints[i]
	case KindFloat:
		return c.Floats[i]
	case KindString:
		return c.Strings[i]
	case KindDate:
		return c.Dates[i]
	default:
		return nil
	}
}

func (c *Column) appendColumn(other *Column) error {
	if c.Kind != other.Kind {
		return fmt.Errorf("%w: column %q is %s, other is %s", ErrShapeMismatch, c.Name, c.Kind, other.Kind)
	}
	switch c.Kind {
	case KindInt:
		c.Ints = append(c.Ints, other.Ints...)
	case KindFloat:
		c.Floats = append(c.Floats, other.Floats...)
	case KindString:
		c.Strings = append(c.Strings, other.Strings...)
	case KindDate:
		c.Dates = append(c.Dates, other.Dates...)
	}
	return nil
}

func (c *Column) clone() Column {
	return Column{
		Name:    c.Name,
		Kind:    c.Kind,
		Ints:    slices.Clone(c.Ints),
		Floats:  slices.Clone(c.Floats),
		Strings: slices.Clone(c.Strings),
		Dates:   slices.Clone(c.Dates),
	}
}

// RecordSet is a column-oriented table: an ordered list of columns that all
// share the same length. The column set is fixed once built.
type RecordSet struct {
	Columns []Column
}

// NewRecordSet creates an empty record set with one column per schema field
// plus the region column.
func NewRecordSet(capacity int) *RecordSet {
	rs := &RecordSet{Columns: make([]Column, 0, len(Schema)+1)}
	for _, f := range Schema {
		rs.Columns = append(rs.Columns, newColumn(f, capacity))
	}
	rs.Columns = append(rs.Columns, newColumn(Field{Name: RegionColumn, Kind: KindString}, capacity))
	return rs
}

func newColumn(f Field, capacity int) Column {
	c := Column{Name: f.Name, Kind: f.Kind}
	switch f.Kind {
	case KindInt:
		c.Ints = make([]int64, 0, capacity)
	case KindFloat:
		c.Floats = make([]float64, 0, capacity)
	case KindString:
		c.Strings = make([]string, 0, capacity)
	case KindDate:
		c.Dates = make([]time.Time, 0, capacity)
	}
	return c
}

// Len returns the number of rows. An empty record set has zero rows.
func (rs *RecordSet) Len() int {
	if rs == nil || len(rs.Columns) == 0 {
		return 0
	}
	return rs.Columns[0].Len()
}

// Column returns the named column.
func (rs *RecordSet) Column(name string) (*Column, bool) {
	for i := range rs.Columns {
		if rs.Columns[i].Name == name {
			return &rs.Columns[i], true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (rs *RecordSet) Names() []string {
	out := make([]string, len(rs.Columns))
	for i := range rs.Columns {
		out[i] = rs.Columns[i].Name
	}
	return out
}

// Validate checks that every column has the same length.
func (rs *RecordSet) Validate() error {
	n := rs.Len()
	for i := range rs.Columns {
		if l := rs.Columns[i].Len(); l != n {
			return fmt.Errorf("%w: column %q has %d values, want %d", ErrShapeMismatch, rs.Columns[i].Name, l, n)
		}
	}
	return nil
}

// Concat appends other's rows to rs column by column. Both record sets must
// have the same column names in the same order.
func (rs *RecordSet) Concat(other *RecordSet) error {
	if !slices.Equal(rs.Names(), other.Names()) {
		return fmt.Errorf("%w: column sets differ", ErrShapeMismatch)
	}
	for i := range rs.Columns {
		if err := rs.Columns[i].appendColumn(&other.Columns[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of rs.
func (rs *RecordSet) Clone() *RecordSet {
	out := &RecordSet{Columns: make([]Column, len(rs.Columns))}
	for i := range rs.Columns {
		out.Columns[i] = rs.Columns[i].clone()
	}
	return out
}

// Row returns a map view of the i-th row keyed by column name.
func (rs *RecordSet) Row(i int) map[string]any {
	row := make(map[string]any, len(rs.Columns))
	for c := range rs.Columns {
		row[rs.Columns[c].Name] = rs.Columns[c].Value(i)
	}
	return row
}

// Equal reports whether two record sets have identical columns and values.
func (rs *RecordSet) Equal(other *RecordSet) bool {
	if len(rs.Columns) != len(other.Columns) {
		return false
	}
	for i := range rs.Columns {
		a, b := &rs.Columns[i], &other.Columns[i]
		if a.Name != b.Name || a.Kind != b.Kind || a.Len() != b.Len() {
			return false
		}
		for j := 0; j < a.Len(); j++ {
			if !valueEqual(a, b, j) {
				return false
			}
		}
	}
	return true
}

func valueEqual(a, b *Column, j int) bool {
	switch a.Kind {
	case KindInt:
		return a.Ints[j] == b.Ints[j]
	case KindFloat:
		return a.Floats[j] == b.Floats[j]
	case KindString:
		return a.Strings[j] == b.Strings[j]
	case KindDate:
		return a.Dates[j].Equal(b.Dates[j])
	default:
		return true
	}
}
