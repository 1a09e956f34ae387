package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/biconnector/internal/database"
)

// PgIntrospector implements Reader for PostgreSQL over the public schema
type PgIntrospector struct {
	db      database.Conn
	mapType TypeMapper
}

// NewPgIntrospector creates a new Postgres schema introspector. Column
// types are canonicalized with mapType, or CanonicalPostgres when nil.
func NewPgIntrospector(db database.Conn, mapType TypeMapper) *PgIntrospector {
	if mapType == nil {
		mapType = CanonicalPostgres
	}
	return &PgIntrospector{db: db, mapType: mapType}
}

// ListTables returns all tables in the public schema
func (p *PgIntrospector) ListTables(ctx context.Context, search string) ([]TableDescriptor, error) {
	q := `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`
	var args []any
	if search != "" {
		q += ` AND tablename LIKE $1`
		args = append(args, likePattern(search))
	}

	names, err := p.fetchStrings(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]TableDescriptor, 0, len(names))
	for _, name := range names {
		tables = append(tables, newTable(name))
	}
	return tables, nil
}

// DescribeTable returns column names and data types from information_schema
func (p *PgIntrospector) DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	const q = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = $1
		  AND table_schema = 'public'`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make([]ColumnDescriptor, 0)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, newColumn(name, p.mapType(dataType)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	return cols, nil
}

// fetchStrings is a helper for queries that return a single text column.
func (p *PgIntrospector) fetchStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
