// Package testutil provides shared mock implementations of the database
// interfaces for use in tests across the codebase.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/koustreak/biconnector/internal/database"
)

// === Connection Mock ===

// QueryCall records one call to MockConn.Query.
type QueryCall struct {
	SQL  string
	Args []any
}

// MockConn implements database.Conn for testing.
type MockConn struct {
	DialectName database.Dialect
	PingFn      func(ctx context.Context) error
	QueryFn     func(ctx context.Context, sql string, args ...any) (database.Rows, error)

	mu      sync.Mutex
	Queries []QueryCall
	Closed  bool
}

// Dialect implements the interface method for testing.
func (m *MockConn) Dialect() database.Dialect {
	if m.DialectName == "" {
		return database.DialectMySQL
	}
	return m.DialectName
}

// Ping implements the interface method for testing.
func (m *MockConn) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// Query implements the interface method for testing.
func (m *MockConn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, QueryCall{SQL: sql, Args: args})
	m.mu.Unlock()

	if m.QueryFn != nil {
		return m.QueryFn(ctx, sql, args...)
	}
	panic("unexpected call to MockConn.Query")
}

// Close implements the interface method for testing.
func (m *MockConn) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// LastQuery returns the last recorded query, or the zero value if none.
func (m *MockConn) LastQuery() QueryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Queries) == 0 {
		return QueryCall{}
	}
	return m.Queries[len(m.Queries)-1]
}

// IsClosed reports whether Close was called.
func (m *MockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// === Rows Mock ===

// StaticRows implements database.Rows over an in-memory column/row grid.
type StaticRows struct {
	Cols    []string
	Data    [][]any
	IterErr error

	pos    int
	closed bool
}

// NewRows builds StaticRows from column names and positional rows.
func NewRows(cols []string, data ...[]any) *StaticRows {
	return &StaticRows{Cols: cols, Data: data}
}

// Next implements the interface method for testing.
func (r *StaticRows) Next() bool {
	if r.closed || r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	return true
}

// Scan implements the interface method for testing. Destinations must be
// *any, *string or *int64.
func (r *StaticRows) Scan(dest ...any) error {
	row := r.Data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *any:
			*p = row[i]
		case *string:
			s, ok := row[i].(string)
			if !ok {
				return fmt.Errorf("scan: column %d is %T, not string", i, row[i])
			}
			*p = s
		case *int64:
			n, ok := row[i].(int64)
			if !ok {
				return fmt.Errorf("scan: column %d is %T, not int64", i, row[i])
			}
			*p = n
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

// Columns implements the interface method for testing.
func (r *StaticRows) Columns() ([]string, error) { return r.Cols, nil }

// Close implements the interface method for testing.
func (r *StaticRows) Close() { r.closed = true }

// Err implements the interface method for testing.
func (r *StaticRows) Err() error { return r.IterErr }

// IsClosed reports whether Close was called.
func (r *StaticRows) IsClosed() bool { return r.closed }
