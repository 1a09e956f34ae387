package query_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/dialect"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/logger"
	"github.com/koustreak/biconnector/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntax(t *testing.T, name database.Dialect) query.Syntax {
	t.Helper()
	d, err := dialect.Lookup(name)
	require.NoError(t, err)
	return d
}

func filters(t *testing.T, js string) *query.Filters {
	t.Helper()
	f, err := query.DecodeFilters([]byte(js))
	require.NoError(t, err)
	return f
}

func compile(t *testing.T, name database.Dialect, req query.Request) query.Query {
	t.Helper()
	q, err := query.NewCompiler(nil).Compile(syntax(t, name), req)
	require.NoError(t, err)
	return q
}

func TestCompile_SelectAll(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{Table: "orders"})

	assert.Equal(t, "SELECT * FROM `orders`", q.SQL)
	assert.Empty(t, q.Args)
	assert.Empty(t, q.Params)
}

func TestCompile_SelectListKeepsCallerOrder(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:  "orders",
		Select: []string{"total", "id", "select"},
	})

	assert.Equal(t, "SELECT `total`, `id`, `select` FROM `orders`", q.SQL)
}

func TestCompile_ScalarEquality(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:   "orders",
		Filters: filters(t, `{"status": "paid"}`),
		Limit:   100,
	})

	assert.Equal(t, "SELECT * FROM `orders` WHERE `status` = ? LIMIT ?", q.SQL)
	assert.Equal(t, []any{"paid", 100}, q.Args)
	assert.Equal(t, []query.Param{
		{Name: "filter_status", Value: "paid"},
		{Name: "limit", Value: 100},
	}, q.Params)
}

func TestCompile_NoLiteralValuesInSQL(t *testing.T) {
	marker := "x'; DROP TABLE orders; --"
	js := fmt.Sprintf(`{
		"a": %q,
		"b": [%q, "other"],
		"c": {"operator": "LIKE", "value": %q},
		"d": {"operator": "BETWEEN", "from": %q, "to": "zzz"},
		"e": {"operator": "NOT IN", "value": [%q]},
		"f": {"operator": ">=", "value": %q}
	}`, marker, marker, marker, marker, marker, marker)

	for _, name := range []database.Dialect{database.DialectMySQL, database.DialectPostgres} {
		q := compile(t, name, query.Request{Table: "orders", Filters: filters(t, js), Limit: 7})

		assert.NotContains(t, q.SQL, marker)
		assert.NotContains(t, q.SQL, "DROP")
		assert.Contains(t, q.Args, marker)
		assert.Len(t, q.Params, len(q.Args))
	}
}

func TestCompile_EmptyListAddsNoPredicate(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:   "orders",
		Filters: filters(t, `{"status": []}`),
	})

	assert.Equal(t, "SELECT * FROM `orders`", q.SQL)
	assert.NotContains(t, q.SQL, "WHERE")
	assert.Empty(t, q.Args)
}

func TestCompile_ImplicitIn(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:   "orders",
		Filters: filters(t, `{"id": [1, 2, 3]}`),
	})

	assert.Equal(t, "SELECT * FROM `orders` WHERE `id` IN (?,?,?)", q.SQL)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, q.Args)
	assert.Equal(t, "filter_id_0", q.Params[0].Name)
	assert.Equal(t, "filter_id_2", q.Params[2].Name)
}

func TestCompile_FilterOrderIsInsertionOrder(t *testing.T) {
	req := query.Request{
		Table:   "orders",
		Filters: filters(t, `{"zeta": 1, "alpha": 2, "mid": {"operator": "<", "value": 3}}`),
	}

	q1 := compile(t, database.DialectMySQL, req)
	q2 := compile(t, database.DialectMySQL, req)

	assert.Equal(t, "SELECT * FROM `orders` WHERE `zeta` = ? AND `alpha` = ? AND `mid` < ?", q1.SQL)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, q1.Args)
	assert.Equal(t, q1, q2)
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		wantSQL  string
		wantArgs []any
	}{
		{"eq", `{"x": {"operator": "eq", "value": 1}}`, "`x` = ?", []any{int64(1)}},
		{"eq symbol", `{"x": {"operator": "=", "value": 1}}`, "`x` = ?", []any{int64(1)}},
		{"neq", `{"x": {"operator": "NEQ", "value": 1}}`, "`x` != ?", []any{int64(1)}},
		{"neq angle", `{"x": {"operator": "<>", "value": 1}}`, "`x` != ?", []any{int64(1)}},
		{"gt", `{"x": {"operator": "gt", "value": 1.5}}`, "`x` > ?", []any{1.5}},
		{"gte", `{"x": {"operator": ">=", "value": 1}}`, "`x` >= ?", []any{int64(1)}},
		{"lt", `{"x": {"operator": "LT", "value": 1}}`, "`x` < ?", []any{int64(1)}},
		{"lte", `{"x": {"operator": "<=", "value": 1}}`, "`x` <= ?", []any{int64(1)}},
		{"like", `{"x": {"operator": "like", "value": "abc"}}`, "`x` LIKE ?", []any{"%abc%"}},
		{"not like", `{"x": {"operator": "NOT LIKE", "value": "abc"}}`, "`x` NOT LIKE ?", []any{"%abc%"}},
		{"in", `{"x": {"operator": "IN", "value": ["a", "b"]}}`, "`x` IN (?,?)", []any{"a", "b"}},
		{"not in", `{"x": {"operator": "not in", "value": ["a"]}}`, "`x` NOT IN (?)", []any{"a"}},
		{"is null", `{"x": {"operator": "IS NULL"}}`, "`x` IS NULL", nil},
		{"is not null", `{"x": {"operator": "is not null"}}`, "`x` IS NOT NULL", nil},
		{"between", `{"x": {"operator": "BETWEEN", "from": 1, "to": 9}}`, "`x` BETWEEN ? AND ?", []any{int64(1), int64(9)}},
		{"gt null", `{"x": {"operator": ">", "value": null}}`, "`x` > ?", []any{nil}},
		{"gt missing value", `{"x": {"operator": "gt"}}`, "`x` > ?", []any{nil}},
		{"gte null", `{"x": {"operator": "gte", "value": null}}`, "`x` >= ?", []any{nil}},
		{"lt null", `{"x": {"operator": "<", "value": null}}`, "`x` < ?", []any{nil}},
		{"lte missing value", `{"x": {"operator": "lte"}}`, "`x` <= ?", []any{nil}},
		{"like float", `{"x": {"operator": "like", "value": 1000000.5}}`, "`x` LIKE ?", []any{"%1000000.5%"}},
		{"like int", `{"x": {"operator": "like", "value": 42}}`, "`x` LIKE ?", []any{"%42%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compile(t, database.DialectMySQL, query.Request{Table: "t", Filters: filters(t, tt.filter)})

			assert.Equal(t, "SELECT * FROM `t` WHERE "+tt.wantSQL, q.SQL)
			if tt.wantArgs == nil {
				assert.Empty(t, q.Args)
			} else {
				assert.Equal(t, tt.wantArgs, q.Args)
			}
		})
	}
}

func TestCompile_ComparisonWithNullOnPostgres(t *testing.T) {
	q := compile(t, database.DialectPostgres, query.Request{
		Table:   "users",
		Filters: filters(t, `{"age": {"operator": ">", "value": null}}`),
		Limit:   100,
	})

	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > $1 LIMIT $2`, q.SQL)
	assert.Equal(t, []any{nil, 100}, q.Args)
	require.Len(t, q.Params, 2)
	assert.Equal(t, "filter_age", q.Params[0].Name)
	assert.Nil(t, q.Params[0].Value)
}

func TestCompile_ConditionsThatAddNothing(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{"in with scalar", `{"x": {"operator": "IN", "value": "a"}}`},
		{"in with empty list", `{"x": {"operator": "IN", "value": []}}`},
		{"not in without value", `{"x": {"operator": "NOT IN"}}`},
		{"between without to", `{"x": {"operator": "BETWEEN", "from": 1}}`},
		{"between with null from", `{"x": {"operator": "BETWEEN", "from": null, "to": 2}}`},
		{"empty object", `{"x": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compile(t, database.DialectMySQL, query.Request{Table: "t", Filters: filters(t, tt.filter)})

			assert.Equal(t, "SELECT * FROM `t`", q.SQL)
			assert.Empty(t, q.Args)
		})
	}
}

func TestCompile_UnknownOperatorIsDroppedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: &buf})

	q, err := query.NewCompiler(log).Compile(syntax(t, database.DialectMySQL), query.Request{
		Table:   "t",
		Filters: filters(t, `{"x": {"operator": "SOUNDS LIKE", "value": "a"}, "y": 2}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM `t` WHERE `y` = ?", q.SQL)
	assert.Equal(t, []any{int64(2)}, q.Args)
	assert.Contains(t, buf.String(), "unknown filter operator")
	assert.Contains(t, buf.String(), `"operator":"SOUNDS LIKE"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestCompile_ObjectWithoutOperatorIsList(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:   "t",
		Filters: filters(t, `{"x": {"first": "b", "second": "a"}}`),
	})

	assert.Equal(t, "SELECT * FROM `t` WHERE `x` IN (?,?)", q.SQL)
	assert.Equal(t, []any{"b", "a"}, q.Args)
}

func TestCompile_Limit(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{Table: "t", Limit: 0})
	assert.NotContains(t, q.SQL, "LIMIT")

	q = compile(t, database.DialectMySQL, query.Request{Table: "t", Limit: 25})
	assert.Equal(t, "SELECT * FROM `t` LIMIT ?", q.SQL)
	assert.Equal(t, []any{25}, q.Args)
}

func TestCompile_Postgres(t *testing.T) {
	q := compile(t, database.DialectPostgres, query.Request{
		Table:   "Orders",
		Select:  []string{"id", "Total"},
		Filters: filters(t, `{"status": ["a", "b"], "total": {"operator": "BETWEEN", "from": 1, "to": 2}}`),
		Limit:   10,
	})

	assert.Equal(t,
		`SELECT "id", "Total" FROM "Orders" WHERE "status" IN ($1,$2) AND "total" BETWEEN $3 AND $4 LIMIT $5`,
		q.SQL)
	assert.Equal(t, []any{"a", "b", int64(1), int64(2), 10}, q.Args)

	names := make([]string, len(q.Params))
	for i, p := range q.Params {
		names[i] = p.Name
	}
	assert.Equal(t, []string{
		"filter_status_0", "filter_status_1", "filter_total_from", "filter_total_to", "limit",
	}, names)
}

func TestCompile_PostgresQuestionMarkInIdentifier(t *testing.T) {
	q := compile(t, database.DialectPostgres, query.Request{
		Table:   "t",
		Filters: filters(t, `{"why?": 1}`),
	})

	assert.Equal(t, `SELECT * FROM "t" WHERE "why?" = $1`, q.SQL)
}

func TestCompile_QuotesHostileIdentifiers(t *testing.T) {
	q := compile(t, database.DialectMySQL, query.Request{
		Table:  "t` ; DROP TABLE x; --",
		Select: []string{"a`b"},
	})

	assert.Equal(t, "SELECT `a``b` FROM `t`` ; DROP TABLE x; --`", q.SQL)
	assert.Equal(t, 2, strings.Count(q.SQL, "``"))
}

func TestCompile_EmptyTable(t *testing.T) {
	_, err := query.NewCompiler(nil).Compile(syntax(t, database.DialectMySQL), query.Request{Table: " "})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, "Table name is required", errs.Message(err))
}

func TestCompile_DropHook(t *testing.T) {
	dropped := 0
	c := query.NewCompiler(nil, query.WithDropHook(func() { dropped++ }))

	_, err := c.Compile(syntax(t, database.DialectPostgres), query.Request{
		Table:   "t",
		Filters: filters(t, `{"a": {"operator": "~"}, "b": {"operator": "ILIKE", "value": "x"}, "c": 1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
}
