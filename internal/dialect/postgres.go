package dialect

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/database/postgres"
	"github.com/koustreak/biconnector/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) Name() database.Dialect { return database.DialectPostgres }

func (postgresDialect) Open(ctx context.Context, d *database.Descriptor, opts database.Options) (database.Conn, error) {
	c, err := postgres.Open(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d postgresDialect) Introspector(conn database.Conn) schema.Reader {
	return schema.NewPgIntrospector(conn, d.Canonicalize)
}

func (d postgresDialect) Canonicalize(nativeType string) schema.CanonicalType {
	return schema.Canonicalize(nativeType, d.Name())
}

func (postgresDialect) QuoteIdent(name string) string { return postgres.QuoteIdent(name) }

func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }
