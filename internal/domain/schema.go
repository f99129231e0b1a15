package domain

// Kind is the value type stored in a column.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Field describes one column of the accident row schema.
type Field struct {
	Name string
	Kind Kind
}

// RegionColumn is the synthetic column holding the region code of every row.
const RegionColumn = "region"

// DateLayout is the layout of the p2a (accident date) column.
const DateLayout = "2006-01-02"

// Schema is the fixed, ordered list of the 64 columns of every CSV row.
var Schema = buildSchema()

func buildSchema() []Field {
	ints := func(names ...string) []Field {
		out := make([]Field, len(names))
		for i, n := range names {
			out[i] = Field{Name: n, Kind: KindInt}
		}
		return out
	}
	strs := func(names ...string) []Field {
		out := make([]Field, len(names))
		for i, n := range names {
			out[i] = Field{Name: n, Kind: KindString}
		}
		return out
	}

	var s []Field
	s = append(s, ints("p1", "p36", "p37")...)
	s = append(s, Field{Name: "p2a", Kind: KindDate})
	s = append(s, ints(
		"weekday(p2a)", "p2b", "p6", "p7", "p8", "p9", "p10", "p11", "p12", "p13a",
		"p13b", "p13c", "p14", "p15", "p16", "p17", "p18", "p19", "p20", "p21",
		"p22", "p23", "p24", "p27", "p28", "p34", "p35", "p39", "p44", "p45a",
		"p47", "p48a", "p49", "p50a", "p50b", "p51", "p52", "p53", "p55a", "p57",
		"p58",
	)...)
	s = append(s, strs("a", "b")...)
	s = append(s, Field{Name: "d", Kind: KindFloat}, Field{Name: "e", Kind: KindFloat})
	s = append(s, strs("f", "g", "h", "i", "j", "k", "l", "n", "o", "p", "q", "r", "s", "t", "p5a")...)
	return s
}

// ColumnNames returns the schema column names in order, followed by RegionColumn.
func ColumnNames() []string {
	out := make([]string, 0, len(Schema)+1)
	for _, f := range Schema {
		out = append(out, f.Name)
	}
	return append(out, RegionColumn)
}
