package connector

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/koustreak/biconnector/internal/cache"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/dialect"
	"github.com/koustreak/biconnector/internal/logger"
	"github.com/koustreak/biconnector/internal/query"
	"github.com/koustreak/biconnector/internal/result"
	"github.com/koustreak/biconnector/internal/schema"
)

// Check opens a connection and runs SELECT 1. It always answers 200; the
// outcome is carried in the body status.
func (s *Service) Check(ctx context.Context, d *database.Descriptor) Response {
	log := s.requestLogger(ctx, d, ActionCheck)

	err := s.withConn(ctx, d, func(conn database.Conn, _ dialect.Dialect) error {
		_, err := database.QueryAll(ctx, conn, "SELECT 1")
		return err
	})
	if err != nil {
		log.WarnWith("connection check failed", map[string]interface{}{"error": err.Error()})
		return ok(StatusBody{Status: "ERROR", Message: messageOf(err)})
	}

	log.Info("connection check succeeded")
	return ok(StatusBody{Status: "OK", Message: "Connection successful"})
}

// TableList returns the tables whose names contain search, served from the
// cache while fresh.
func (s *Service) TableList(ctx context.Context, d *database.Descriptor, search string) Response {
	log := s.requestLogger(ctx, d, ActionTableList)

	key := cache.Fingerprint(cache.KindTableList, d, search)
	tables, err := cached(ctx, s.deps.Cache, key, s.deps.TableListTTL, func(ctx context.Context) ([]schema.TableDescriptor, error) {
		var out []schema.TableDescriptor
		err := s.withConn(ctx, d, func(conn database.Conn, dl dialect.Dialect) error {
			var err error
			out, err = dl.Introspector(conn).ListTables(ctx, search)
			return err
		})
		return out, err
	})
	if err != nil {
		log.ErrorWith("table list failed", err, nil)
		return failure(err)
	}

	log.DebugWith("table list served", map[string]interface{}{"tables": len(tables)})
	return ok(tables)
}

// TableDescription returns the canonical columns of table, served from the
// cache while fresh.
func (s *Service) TableDescription(ctx context.Context, d *database.Descriptor, table string) Response {
	if strings.TrimSpace(table) == "" {
		return errorResponse(http.StatusBadRequest, msgTableRequired)
	}
	log := s.requestLogger(ctx, d, ActionTableDescription).With().Str("table", table).Logger()

	key := cache.Fingerprint(cache.KindTableDescription, d, table)
	cols, err := cached(ctx, s.deps.Cache, key, s.deps.TableDescriptionTTL, func(ctx context.Context) ([]schema.ColumnDescriptor, error) {
		var out []schema.ColumnDescriptor
		err := s.withConn(ctx, d, func(conn database.Conn, dl dialect.Dialect) error {
			var err error
			out, err = dl.Introspector(conn).DescribeTable(ctx, table)
			return err
		})
		return out, err
	})
	if err != nil {
		log.ErrorWith("table description failed", err, nil)
		return failure(err)
	}

	log.DebugWith("table description served", map[string]interface{}{"columns": len(cols)})
	return ok(cols)
}

// Data compiles req, runs it on a fresh connection and returns the
// formatted table. It never touches the cache.
func (s *Service) Data(ctx context.Context, d *database.Descriptor, req query.Request) Response {
	if strings.TrimSpace(req.Table) == "" {
		return errorResponse(http.StatusBadRequest, msgTableRequired)
	}
	log := s.requestLogger(ctx, d, ActionData).With().Str("table", req.Table).Logger()

	var table result.Table
	err := s.withConn(ctx, d, func(conn database.Conn, dl dialect.Dialect) error {
		q, err := s.deps.Compiler.Compile(dl, req)
		if err != nil {
			return err
		}
		log.DebugWith("executing data query", map[string]interface{}{
			"sql":    q.SQL,
			"params": len(q.Params),
		})

		rs, err := database.QueryAll(ctx, conn, q.SQL, q.Args...)
		if err != nil {
			return err
		}
		table = result.Format(rs, req.Select)
		return nil
	})
	if err != nil {
		log.ErrorWith("data query failed", err, nil)
		return failure(err)
	}

	log.DebugWith("data served", map[string]interface{}{"rows": max(len(table)-1, 0)})
	return ok(table)
}

// withConn opens a connection for d, runs fn and always closes it.
func (s *Service) withConn(ctx context.Context, d *database.Descriptor, fn func(database.Conn, dialect.Dialect) error) error {
	dl, err := dialect.Lookup(d.Dialect)
	if err != nil {
		return err
	}

	conn, err := s.deps.Open(ctx, d, s.deps.ConnectOptions)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			s.deps.Logger.DebugWith("closing connection failed", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	return fn(conn, dl)
}

// cached runs compute through c, or directly when caching is disabled.
func cached[T any](ctx context.Context, c *cache.Cache, key cache.Key, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return compute(ctx)
	}
	return cache.GetOrCompute(ctx, c, key, ttl, compute)
}

// requestLogger returns the request logger annotated with the action and the
// connection target. The password is never logged.
func (s *Service) requestLogger(ctx context.Context, d *database.Descriptor, action string) *logger.Logger {
	return logger.FromContextOr(ctx, s.deps.Logger).With().
		Str("action", action).
		Str("dialect", string(d.Dialect)).
		Str("host", d.Host).
		Str("database", d.Database).
		Logger()
}
