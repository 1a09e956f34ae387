// Package mysql opens single, request-scoped MySQL connections through
// database/sql and go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/errs"
)

const defaultPort = 3306

// Conn is a MySQL implementation of database.Conn backed by a *sql.DB that
// is capped at one physical connection.
type Conn struct {
	db *sql.DB
}

var _ database.Conn = (*Conn)(nil)

// Open dials MySQL with the descriptor's credentials and pings it before
// returning. The whole connect phase is bounded by opts.Timeout().
func Open(ctx context.Context, d *database.Descriptor, opts database.Options) (*Conn, error) {
	connector, err := mysql.NewConnector(buildConfig(d, opts))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql connection parameters", err)
	}

	db := sql.OpenDB(connector)
	// One connection per request: never grow, keep the one we have.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Conn{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout())
	defer cancel()

	if err := c.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Wrap adapts an already opened *sql.DB. Used by tests with sqlmock.
func Wrap(db *sql.DB) *Conn {
	return &Conn{db: db}
}

// buildConfig constructs the driver config. Credentials are carried as
// struct fields, so characters such as '@' or '/' in a password never need
// escaping.
func buildConfig(d *database.Descriptor, opts database.Options) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.HostOrDefault(), strconv.Itoa(d.PortOr(defaultPort)))
	cfg.DBName = d.Database
	cfg.Timeout = opts.Timeout()
	// Temporal values come back as text, the way the platform expects them.
	cfg.ParseTime = false
	return cfg
}

// --- database.Conn implementation ---

func (c *Conn) Dialect() database.Dialect { return database.DialectMySQL }

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

func (c *Conn) Close(_ context.Context) error {
	return c.db.Close()
}

// QuoteIdent wraps an identifier in backticks, doubling any embedded
// backtick, so reserved words and mixed case survive.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// --- sql.Rows wrapper ---

type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }

func (r *mysqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

// --- error mapping ---

// MySQL server error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied   = 1044
	errAccessDenied     = 1045
	errNoDatabase       = 1046
	errUnknownDatabase  = 1049
	errTooManyConns     = 1040
	errUserConnLimit    = 1203
	errBadField         = 1054
	errParse            = 1064
	errNoSuchTable      = 1146
	errPasswordExpired1 = 1820
	errPasswordExpired2 = 1862
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied, errPasswordExpired1, errPasswordExpired2:
		return errs.ErrKindPermissionDenied
	case errNoDatabase, errUnknownDatabase, errTooManyConns, errUserConnLimit:
		return errs.ErrKindConnectionFailed
	case errBadField, errParse, errNoSuchTable:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
