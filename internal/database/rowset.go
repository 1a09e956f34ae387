package database

import (
	"context"

	"github.com/koustreak/biconnector/internal/errs"
)

// ResultSet is a fully materialized rowset. Columns keeps the order the
// database returned them in; every row in Rows is aligned to it.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Index returns the position of the named column, or -1.
func (rs *ResultSet) Index(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// QueryAll runs sql on conn and materializes every row.
func QueryAll(ctx context.Context, conn Conn, sql string, args ...any) (*ResultSet, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return ScanAll(rows)
}

// ScanAll drains rows into a ResultSet and always closes them. Rows is
// never nil, even for an empty result. Errors already classified by a
// driver pass through unchanged.
func ScanAll(rows Rows) (*ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classify(err, "failed to read column names")
	}

	rs := &ResultSet{Columns: columns, Rows: [][]any{}}
	targets := make([]any, len(columns))
	for rows.Next() {
		row := make([]any, len(columns))
		for i := range row {
			targets[i] = &row[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, classify(err, "failed to scan row")
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "error during row iteration")
	}
	return rs, nil
}

func classify(err error, msg string) error {
	if errs.KindOf(err) != errs.ErrKindUnknown {
		return err
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
