package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OutputEvent is the serialized form of one accident row destined for the
// export topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeRecord encodes the i-th row of rs as a flat JSON object keyed by
// column name. Dates are written in DateLayout. The key is the accident id
// (p1) and the headers carry the region and export time.
func SerializeRecord(rs *RecordSet, i int) (OutputEvent, error) {
	if i < 0 || i >= rs.Len() {
		return OutputEvent{}, fmt.Errorf("serialize record: row %d out of range [0,%d)", i, rs.Len())
	}

	row := rs.Row(i)
	for k, v := range row {
		if d, ok := v.(time.Time); ok {
			row[k] = d.Format(DateLayout)
		}
	}

	data, err := json.Marshal(row)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize record: %w", err)
	}

	var key []byte
	if id, ok := row["p1"].(int64); ok {
		key = []byte(strconv.FormatInt(id, 10))
	}
	region, _ := row[RegionColumn].(string)

	return OutputEvent{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			"region":      region,
			"exported_at": clock.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
