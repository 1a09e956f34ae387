// Package result shapes a materialized rowset into the header-plus-rows
// table the platform consumes.
package result

import (
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/biconnector/internal/database"
)

// Table is element 0 the header of field codes, then one positional row per
// record. A table with no records is empty and carries no header.
type Table [][]any

// Format builds a Table from rs. When selectFields is non-empty only those
// columns are kept; either way columns appear in the rowset's own order.
func Format(rs *database.ResultSet, selectFields []string) Table {
	if rs == nil || len(rs.Rows) == 0 {
		return Table{}
	}

	keep := make(map[string]bool, len(selectFields))
	for _, f := range selectFields {
		keep[f] = true
	}

	idx := make([]int, 0, len(rs.Columns))
	header := make([]any, 0, len(rs.Columns))
	for i, col := range rs.Columns {
		if len(keep) > 0 && !keep[col] {
			continue
		}
		idx = append(idx, i)
		header = append(header, col)
	}

	out := make(Table, 0, len(rs.Rows)+1)
	out = append(out, header)
	for _, row := range rs.Rows {
		values := make([]any, len(idx))
		for j, i := range idx {
			if i < len(row) {
				values[j] = formatValue(row[i])
			}
		}
		out = append(out, values)
	}
	return out
}

// formatValue converts driver values into JSON-friendly ones.
func formatValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return formatTime(val)
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return val
	}
}

// formatTime renders temporal values the way MySQL returns them as text:
// a bare date for midnight values, otherwise date and time.
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.999999")
	}
	return t.Format(time.DateTime)
}
