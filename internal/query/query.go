// Package query compiles a table/select/filter/limit request into a single
// parameterized SELECT statement for one dialect.
//
// Only quoted identifiers are ever inlined into the SQL text. Every filter
// value and the row limit travel as bound parameters.
package query

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/logger"
)

// DefaultLimit is applied by callers when a request carries no limit.
const DefaultLimit = 100

// Syntax is the part of a dialect the compiler needs.
type Syntax interface {
	QuoteIdent(name string) string
	Placeholder() sq.PlaceholderFormat
}

// Request is a generic data request.
type Request struct {
	Table string
	// Select lists field codes in output order. Empty selects every column.
	Select  []string
	Filters *Filters
	// Limit caps the row count when > 0.
	Limit int
}

// Param is one bound value and the name it was derived from.
type Param struct {
	Name  string
	Value any
}

// Query is a compiled statement. Args and Params are aligned.
type Query struct {
	SQL    string
	Args   []any
	Params []Param
}

// Compiler turns requests into statements. It is stateless apart from the
// logger and safe for concurrent use.
type Compiler struct {
	log       *logger.Logger
	onDropped func()
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDropHook calls fn once for every condition dropped because of an
// unknown operator.
func WithDropHook(fn func()) Option {
	return func(c *Compiler) { c.onDropped = fn }
}

// NewCompiler returns a Compiler that reports dropped filters to log.
func NewCompiler(log *logger.Logger, opts ...Option) *Compiler {
	if log == nil {
		log = logger.Nop()
	}
	c := &Compiler{log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the statement for req. Predicates are AND-joined in the
// filter insertion order; identical input gives identical output.
func (c *Compiler) Compile(syntax Syntax, req Request) (Query, error) {
	if strings.TrimSpace(req.Table) == "" {
		return Query{}, errs.New(errs.ErrKindInvalidInput, "Table name is required")
	}

	b := &builder{syntax: syntax, log: c.log, onDropped: c.onDropped}

	columns := make([]string, 0, len(req.Select))
	for _, f := range req.Select {
		if f == "" {
			continue
		}
		columns = append(columns, b.ident(f))
	}
	if len(columns) == 0 {
		columns = append(columns, "*")
	}

	stmt := sq.StatementBuilder.
		PlaceholderFormat(syntax.Placeholder()).
		Select(columns...).
		From(b.ident(req.Table))

	if req.Filters != nil {
		for pair := req.Filters.Oldest(); pair != nil; pair = pair.Next() {
			pred, err := b.predicate(pair.Key, pair.Value)
			if err != nil {
				return Query{}, err
			}
			if pred != nil {
				stmt = stmt.Where(pred)
			}
		}
	}

	if req.Limit > 0 {
		stmt = stmt.Suffix("LIMIT ?", req.Limit)
		b.bind("limit", req.Limit)
	}

	sql, args, err := stmt.ToSql()
	if err != nil {
		return Query{}, errs.Wrap(errs.ErrKindInvalidInput, "failed to build query", err)
	}
	return Query{SQL: sql, Args: args, Params: b.params}, nil
}

// builder accumulates parameter names while predicates are produced.
type builder struct {
	syntax    Syntax
	log       *logger.Logger
	onDropped func()
	params    []Param
}

// ident quotes name. With $n placeholders squirrel rewrites every bare '?',
// so a '?' inside an identifier is escaped as '??'.
func (b *builder) ident(name string) string {
	q := b.syntax.QuoteIdent(name)
	if b.syntax.Placeholder() != sq.Question {
		q = strings.ReplaceAll(q, "?", "??")
	}
	return q
}

func (b *builder) bind(name string, v any) {
	b.params = append(b.params, Param{Name: name, Value: v})
}

// predicate returns nil when the condition adds nothing to the WHERE clause.
func (b *builder) predicate(field string, cond Condition) (sq.Sqlizer, error) {
	col := b.ident(field)
	name := "filter_" + field

	switch c := cond.(type) {
	case Scalar:
		b.bind(name, c.Value)
		return sq.Expr(col+" = ?", c.Value), nil

	case List:
		return b.in(col, name, c.Values, false), nil

	case Node:
		return b.node(field, col, name, c)

	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported condition %T for field %q", cond, field)
	}
}

func (b *builder) node(field, col, name string, n Node) (sq.Sqlizer, error) {
	switch ParseOp(n.Operator) {
	case OpEq:
		b.bind(name, n.Value)
		return sq.Expr(col+" = ?", n.Value), nil
	case OpNeq:
		b.bind(name, n.Value)
		return sq.Expr(col+" != ?", n.Value), nil
	case OpGt:
		b.bind(name, n.Value)
		return sq.Expr(col+" > ?", n.Value), nil
	case OpGte:
		b.bind(name, n.Value)
		return sq.Expr(col+" >= ?", n.Value), nil
	case OpLt:
		b.bind(name, n.Value)
		return sq.Expr(col+" < ?", n.Value), nil
	case OpLte:
		b.bind(name, n.Value)
		return sq.Expr(col+" <= ?", n.Value), nil
	case OpLike:
		v := substring(n.Value)
		b.bind(name, v)
		return sq.Like{col: v}, nil
	case OpNotLike:
		v := substring(n.Value)
		b.bind(name, v)
		return sq.NotLike{col: v}, nil
	case OpIn, OpNotIn:
		values, ok := toSlice(n.Value)
		if !ok {
			return nil, nil
		}
		return b.in(col, name, values, ParseOp(n.Operator) == OpNotIn), nil
	case OpIsNull:
		return sq.Eq{col: nil}, nil
	case OpIsNotNull:
		return sq.NotEq{col: nil}, nil
	case OpBetween:
		if n.From == nil || n.To == nil {
			return nil, nil
		}
		b.bind(name+"_from", n.From)
		b.bind(name+"_to", n.To)
		return sq.Expr(col+" BETWEEN ? AND ?", n.From, n.To), nil
	default:
		b.log.WarnWith("unknown filter operator, condition dropped", map[string]interface{}{
			"field":    field,
			"operator": n.Operator,
		})
		if b.onDropped != nil {
			b.onDropped()
		}
		return nil, nil
	}
}

// in builds IN / NOT IN. An empty value list adds no predicate.
func (b *builder) in(col, name string, values []any, negate bool) sq.Sqlizer {
	if len(values) == 0 {
		return nil
	}
	for i, v := range values {
		b.bind(fmt.Sprintf("%s_%d", name, i), v)
	}
	if negate {
		return sq.NotEq{col: values}
	}
	return sq.Eq{col: values}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// substring wraps v for a contains-match LIKE. Floats are written in
// plain decimal notation, never exponent form.
func substring(v any) string {
	switch n := v.(type) {
	case nil:
		return "%%"
	case float64:
		return "%" + strconv.FormatFloat(n, 'f', -1, 64) + "%"
	case float32:
		return "%" + strconv.FormatFloat(float64(n), 'f', -1, 32) + "%"
	default:
		return fmt.Sprintf("%%%v%%", v)
	}
}
