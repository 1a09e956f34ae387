package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/database/mysql"
)

// MySQLIntrospector implements Reader for MySQL using SHOW TABLES and DESCRIBE
type MySQLIntrospector struct {
	db      database.Conn
	mapType TypeMapper
}

// NewMySQLIntrospector creates a new MySQL schema introspector. Column
// types are canonicalized with mapType, or CanonicalMySQL when nil.
func NewMySQLIntrospector(db database.Conn, mapType TypeMapper) *MySQLIntrospector {
	if mapType == nil {
		mapType = CanonicalMySQL
	}
	return &MySQLIntrospector{db: db, mapType: mapType}
}

// ListTables returns the tables of the connected database. The first column
// of SHOW TABLES is named after the database, so it is read by position.
func (m *MySQLIntrospector) ListTables(ctx context.Context, search string) ([]TableDescriptor, error) {
	q := "SHOW TABLES"
	var args []any
	if search != "" {
		q += " LIKE ?"
		args = append(args, likePattern(search))
	}

	rs, err := database.QueryAll(ctx, m.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]TableDescriptor, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row) == 0 {
			continue
		}
		tables = append(tables, newTable(cellString(row[0])))
	}
	return tables, nil
}

// DescribeTable returns the Field and Type of every column
func (m *MySQLIntrospector) DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	rs, err := database.QueryAll(ctx, m.db, "DESCRIBE "+mysql.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	fieldIdx, typeIdx := indexOr(rs, "Field", 0), indexOr(rs, "Type", 1)

	cols := make([]ColumnDescriptor, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if fieldIdx >= len(row) || typeIdx >= len(row) {
			continue
		}
		cols = append(cols, newColumn(cellString(row[fieldIdx]), m.mapType(cellString(row[typeIdx]))))
	}
	return cols, nil
}

func indexOr(rs *database.ResultSet, name string, fallback int) int {
	if i := rs.Index(name); i >= 0 {
		return i
	}
	return fallback
}

// cellString renders a scanned catalog value. The MySQL driver hands text
// columns back as []byte when scanning into *any.
func cellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
