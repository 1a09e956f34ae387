// Package schema lists tables and describes their columns in canonical form
// for each supported dialect.
package schema

import "context"

// Reader is the interface for introspecting a database schema
type Reader interface {
	// ListTables returns user tables, optionally filtered by a substring
	// match on the name. An empty search returns every table.
	ListTables(ctx context.Context, search string) ([]TableDescriptor, error)

	// DescribeTable returns the columns of one table in catalog order.
	DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error)
}

// likePattern turns a search string into a substring LIKE pattern.
func likePattern(search string) string {
	return "%" + search + "%"
}
