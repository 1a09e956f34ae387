// Package connector implements the four platform operations (check,
// table_list, table_description and data) on top of the dialect drivers,
// the schema cache and the query compiler.
//
// Every operation returns a Response; failures are folded into the
// response body and never escape as errors or panics.
package connector

import (
	"context"
	"net/http"
	"time"

	"github.com/koustreak/biconnector/internal/cache"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/dialect"
	"github.com/koustreak/biconnector/internal/logger"
	"github.com/koustreak/biconnector/internal/metrics"
	"github.com/koustreak/biconnector/internal/query"
)

// Action names accepted by Dispatch.
const (
	ActionCheck            = "check"
	ActionTableList        = "table_list"
	ActionTableDescription = "table_description"
	ActionData             = "data"
)

// Default cache lifetimes.
const (
	DefaultTableListTTL        = time.Hour
	DefaultTableDescriptionTTL = 30 * time.Minute
)

// Opener opens one connection for one request.
type Opener func(ctx context.Context, d *database.Descriptor, opts database.Options) (database.Conn, error)

// Deps are the collaborators a Service needs. Zero values fall back to
// working defaults, except Cache: a nil Cache disables caching.
type Deps struct {
	Open     Opener
	Cache    *cache.Cache
	Compiler *query.Compiler
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	ConnectOptions      database.Options
	TableListTTL        time.Duration
	TableDescriptionTTL time.Duration
}

// Service is the connector facade. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	deps Deps
}

// New builds a Service.
func New(deps Deps) *Service {
	if deps.Open == nil {
		deps.Open = dialect.Open
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Compiler == nil {
		deps.Compiler = query.NewCompiler(deps.Logger, query.WithDropHook(deps.Metrics.FilterDropped))
	}
	if deps.TableListTTL <= 0 {
		deps.TableListTTL = DefaultTableListTTL
	}
	if deps.TableDescriptionTTL <= 0 {
		deps.TableDescriptionTTL = DefaultTableDescriptionTTL
	}
	return &Service{deps: deps}
}

// Params is the generic parameter bag of one request.
type Params struct {
	Connection   *database.Descriptor
	SearchString string
	Table        string
	Select       []string
	Filter       *query.Filters
	Limit        int
}

// Dispatch routes action to its operation. Unknown actions, a missing
// connection and an unsupported dialect are rejected with 400 before any
// connection is attempted.
func (s *Service) Dispatch(ctx context.Context, action string, p Params) Response {
	start := time.Now()
	dialectName := ""
	if p.Connection != nil {
		dialectName = string(p.Connection.Dialect)
	}

	resp := s.dispatch(ctx, action, p)

	if IsKnownAction(action) {
		s.deps.Metrics.ObserveAction(action, dialectName, resp.Status, time.Since(start))
	}
	return resp
}

func (s *Service) dispatch(ctx context.Context, action string, p Params) Response {
	if !IsKnownAction(action) {
		return errorResponse(http.StatusBadRequest, "Unknown action: "+action)
	}
	if p.Connection == nil {
		return errorResponse(http.StatusBadRequest, "Connection parameters are required")
	}
	if _, err := dialect.Lookup(p.Connection.Dialect); err != nil {
		return errorResponse(http.StatusBadRequest, messageOf(err))
	}

	switch action {
	case ActionCheck:
		return s.Check(ctx, p.Connection)
	case ActionTableList:
		return s.TableList(ctx, p.Connection, p.SearchString)
	case ActionTableDescription:
		return s.TableDescription(ctx, p.Connection, p.Table)
	default:
		return s.Data(ctx, p.Connection, query.Request{
			Table:   p.Table,
			Select:  p.Select,
			Filters: p.Filter,
			Limit:   p.Limit,
		})
	}
}

// IsKnownAction reports whether action is one of the four operations.
func IsKnownAction(action string) bool {
	switch action {
	case ActionCheck, ActionTableList, ActionTableDescription, ActionData:
		return true
	}
	return false
}
