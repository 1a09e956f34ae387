package dialect

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/database/mysql"
	"github.com/koustreak/biconnector/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() database.Dialect { return database.DialectMySQL }

func (mysqlDialect) Open(ctx context.Context, d *database.Descriptor, opts database.Options) (database.Conn, error) {
	c, err := mysql.Open(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d mysqlDialect) Introspector(conn database.Conn) schema.Reader {
	return schema.NewMySQLIntrospector(conn, d.Canonicalize)
}

func (d mysqlDialect) Canonicalize(nativeType string) schema.CanonicalType {
	return schema.Canonicalize(nativeType, d.Name())
}

func (mysqlDialect) QuoteIdent(name string) string { return mysql.QuoteIdent(name) }

func (mysqlDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
