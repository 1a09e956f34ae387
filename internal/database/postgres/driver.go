// Package postgres opens single, request-scoped PostgreSQL connections
// through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/errs"
)

const defaultPort = 5432

// Conn is a PostgreSQL implementation of database.Conn backed by one
// *pgx.Conn. It is not safe for concurrent use; each request owns its own.
type Conn struct {
	conn *pgx.Conn
}

var _ database.Conn = (*Conn)(nil)

// Open connects to PostgreSQL and pings before returning. The connect phase
// is bounded by opts.Timeout().
func Open(ctx context.Context, d *database.Descriptor, opts database.Options) (*Conn, error) {
	cfg, err := pgx.ParseConfig(buildURL(d))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgresql connection parameters", err)
	}
	cfg.ConnectTimeout = opts.Timeout()

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout())
	defer cancel()

	conn, err := pgx.ConnectConfig(connectCtx, cfg)
	if err != nil {
		return nil, mapError(err, "connect failed")
	}

	c := &Conn{conn: conn}
	if err := c.Ping(connectCtx); err != nil {
		_ = conn.Close(context.Background())
		return nil, err
	}
	return c, nil
}

// buildURL renders the descriptor as a postgres:// URL. url.UserPassword
// percent-encodes the credentials, and the database name is path-escaped.
func buildURL(d *database.Descriptor) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   net.JoinHostPort(d.HostOrDefault(), strconv.Itoa(d.PortOr(defaultPort))),
		Path:   "/" + d.Database,
	}
	return u.String()
}

// --- database.Conn implementation ---

func (c *Conn) Dialect() database.Dialect { return database.DialectPostgres }

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

func (c *Conn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// QuoteIdent wraps an identifier in double quotes, doubling any embedded
// double quote.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// --- error mapping ---

// PostgreSQL SQLSTATE codes and classes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection     = "08"
	pgClassAuth           = "28"
	pgClassSyntaxOrRule   = "42"
	pgClassInsufficient   = "53"
	pgErrInvalidCatalog   = "3D000"
	pgErrInsufficientPriv = "42501"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(
			classifySQLState(pgErr.Code),
			fmt.Sprintf("%s: %s", msg, pgErr.Message),
			err,
		)
	}

	if pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// Fallthrough: connection-level errors (TLS, network, dial)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifySQLState maps a SQLSTATE code to ErrKind.
func classifySQLState(code string) errs.ErrKind {
	if code == pgErrInvalidCatalog {
		return errs.ErrKindConnectionFailed
	}
	if code == pgErrInsufficientPriv {
		return errs.ErrKindPermissionDenied
	}
	if len(code) < 2 {
		return errs.ErrKindQueryFailed
	}
	switch code[:2] {
	case pgClassConnection, pgClassInsufficient:
		return errs.ErrKindConnectionFailed
	case pgClassAuth:
		return errs.ErrKindPermissionDenied
	case pgClassSyntaxOrRule:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
