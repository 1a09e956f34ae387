package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAll(t *testing.T) {
	rows := testutil.NewRows([]string{"id", "name"},
		[]any{int64(1), "a"},
		[]any{int64(2), nil},
	)

	rs, err := database.ScanAll(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, rs.Columns)
	assert.Equal(t, [][]any{{int64(1), "a"}, {int64(2), nil}}, rs.Rows)
	assert.True(t, rows.IsClosed())
}

func TestScanAll_Empty(t *testing.T) {
	rs, err := database.ScanAll(testutil.NewRows([]string{"id"}))
	require.NoError(t, err)

	assert.NotNil(t, rs.Rows)
	assert.Empty(t, rs.Rows)
}

func TestScanAll_IterationError(t *testing.T) {
	rows := testutil.NewRows([]string{"id"}, []any{int64(1)})
	rows.IterErr = errors.New("connection reset")

	_, err := database.ScanAll(rows)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.True(t, rows.IsClosed())
}

func TestScanAll_KeepsDriverClassification(t *testing.T) {
	rows := testutil.NewRows([]string{"id"}, []any{int64(1)})
	rows.IterErr = errs.New(errs.ErrKindTimeout, "row iteration failed")

	_, err := database.ScanAll(rows)
	assert.True(t, errs.IsTimeout(err))
	assert.Equal(t, "row iteration failed", errs.Message(err))
}

func TestQueryAll(t *testing.T) {
	conn := &testutil.MockConn{
		QueryFn: func(_ context.Context, sql string, args ...any) (database.Rows, error) {
			assert.Equal(t, "DESCRIBE `t`", sql)
			return testutil.NewRows([]string{"Field", "Type"}, []any{"id", "int"}), nil
		},
	}

	rs, err := database.QueryAll(context.Background(), conn, "DESCRIBE `t`")
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Index("Type"))
	assert.Equal(t, -1, rs.Index("Null"))
	assert.Len(t, rs.Rows, 1)
}

func TestQueryAll_QueryError(t *testing.T) {
	conn := &testutil.MockConn{
		QueryFn: func(context.Context, string, ...any) (database.Rows, error) {
			return nil, errs.New(errs.ErrKindQueryFailed, "query failed")
		},
	}

	_, err := database.QueryAll(context.Background(), conn, "SELECT 1")
	assert.True(t, errs.IsQueryFailed(err))
}
