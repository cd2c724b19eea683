package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		NewSeries("id", Int64, []interface{}{int64(1), int64(2), int64(3)}),
		NewSeries("name", Utf8, []interface{}{"a", "b", nil}),
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTableRowMismatch(t *testing.T) {
	require := require.New(t)

	_, err := NewTable(
		NewSeries("a", Int64, []interface{}{int64(1)}),
		NewSeries("b", Int64, []interface{}{int64(1), int64(2)}),
	)
	require.Error(err)
	require.True(ErrShape.Is(err))
}

func TestNewTableDuplicateColumn(t *testing.T) {
	require := require.New(t)

	_, err := NewTable(
		NewSeries("a", Int64, []interface{}{int64(1)}),
		NewSeries("a", Int64, []interface{}{int64(2)}),
	)
	require.Error(err)
	require.True(ErrDuplicateColumn.Is(err))
}

func TestTableSelect(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable(t)
	sel, err := tbl.Select([]string{"name"})
	require.NoError(err)
	require.Equal(1, sel.NumColumns())
	require.Equal([]string{"name"}, sel.Schema().Names())

	_, err = tbl.Select([]string{"missing"})
	require.Error(err)
	require.True(ErrColumnNotFound.Is(err))
}

func TestTableWithColumn(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable(t)

	added, err := tbl.WithColumn(NewSeries("flag", Boolean, []interface{}{true, false, true}))
	require.NoError(err)
	require.Equal(3, added.NumColumns())

	// same name replaces in place
	replaced, err := added.WithColumn(NewSeries("flag", Boolean, []interface{}{false, false, false}))
	require.NoError(err)
	require.Equal(3, replaced.NumColumns())
	col, err := replaced.Column("flag")
	require.NoError(err)
	require.Equal(false, col.Value(0))

	_, err = tbl.WithColumn(NewSeries("short", Int64, []interface{}{int64(1)}))
	require.Error(err)
	require.True(ErrShape.Is(err))
}

func TestTableVStack(t *testing.T) {
	require := require.New(t)

	a, err := NewTable(NewSeries("x", Int64, []interface{}{int64(1)}))
	require.NoError(err)
	b, err := NewTable(NewSeries("x", Float64, []interface{}{2.5}))
	require.NoError(err)

	stacked, err := a.VStack(b)
	require.NoError(err)
	require.Equal(2, stacked.NumRows())
	require.Equal(Float64.Name(), stacked.ColumnAt(0).Type().Name())

	c, err := NewTable(NewSeries("y", Int64, []interface{}{int64(3)}))
	require.NoError(err)
	_, err = a.VStack(c)
	require.Error(err)
	require.True(ErrSchema.Is(err))
}

func TestTableRow(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable(t)
	require.Equal([]interface{}{int64(3), nil}, tbl.Row(2))
}
