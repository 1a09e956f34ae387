// Package dialect binds each supported database engine to its driver,
// introspector, type mapper and SQL syntax.
//
// Adding an engine means one new Dialect implementation and one entry in
// the registry.
package dialect

import (
	"context"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/schema"
)

// Dialect is the per-engine strategy.
type Dialect interface {
	// Name is the tag callers use to pick this dialect.
	Name() database.Dialect

	// Open builds a live single connection.
	Open(ctx context.Context, d *database.Descriptor, opts database.Options) (database.Conn, error)

	// Introspector returns a schema reader over conn.
	Introspector(conn database.Conn) schema.Reader

	// Canonicalize maps a native column type.
	Canonicalize(nativeType string) schema.CanonicalType

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// Placeholder is the bind-parameter style for compiled statements.
	Placeholder() sq.PlaceholderFormat
}

var registry = map[database.Dialect]Dialect{
	database.DialectMySQL:    mysqlDialect{},
	database.DialectPostgres: postgresDialect{},
}

// Lookup returns the dialect registered under name. Unknown names yield an
// InvalidInput error that names the offending dialect.
func Lookup(name database.Dialect) (Dialect, error) {
	d, ok := registry[database.Dialect(strings.ToLower(strings.TrimSpace(string(name))))]
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported dialect: %s", name)
	}
	return d, nil
}

// Names lists the registered dialect tags in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

// Open resolves the descriptor's dialect and opens a connection with it.
func Open(ctx context.Context, d *database.Descriptor, opts database.Options) (database.Conn, error) {
	if d == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "connection parameters are required")
	}
	dl, err := Lookup(d.Dialect)
	if err != nil {
		return nil, err
	}
	return dl.Open(ctx, d, opts)
}
