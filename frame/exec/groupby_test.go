package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/source"
)

func salesScan(t *testing.T) *plan.Scan {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("shop", frame.Utf8, []interface{}{"b", "a", "b", "a", "c"}),
		frame.NewSeries("region", frame.Utf8, []interface{}{"n", "n", "s", "n", "s"}),
		frame.NewSeries("amount", frame.Int64, []interface{}{int64(1), int64(2), int64(3), nil, int64(5)}),
	)
	require.NoError(t, err)
	return plan.NewScan(source.NewMemory("sales", tbl))
}

func TestExecuteGroupByFirstOccurrenceOrder(t *testing.T) {
	require := require.New(t)

	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewColumn("shop")},
		[]frame.Expression{expression.NewSum(expression.NewColumn("amount"))},
		true, salesScan(t))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]string{"shop", "sum_amount"}, out.Schema().Names())
	require.Equal([]interface{}{"b", "a", "c"}, columnValues(t, out, "shop"))
	require.Equal([]interface{}{int64(4), int64(2), int64(5)}, columnValues(t, out, "sum_amount"))
}

func TestExecuteGroupByWildcardKeys(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("k", frame.Utf8, []interface{}{"a", "a", "b"}),
		frame.NewSeries("v", frame.Int64, []interface{}{int64(1), int64(1), int64(2)}),
	)
	require.NoError(err)
	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewWildcard()},
		[]frame.Expression{expression.NewCount(expression.NewColumn("k"))},
		true, plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]string{"k", "v", "count_k"}, out.Schema().Names())
	require.Equal([]interface{}{"a", "b"}, columnValues(t, out, "k"))
	require.Equal([]interface{}{int64(2), int64(1)}, columnValues(t, out, "count_k"))
}

func TestExecuteGroupByMultipleKeys(t *testing.T) {
	require := require.New(t)

	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewColumn("shop"), expression.NewColumn("region")},
		[]frame.Expression{expression.NewCount(expression.NewColumn("amount"))},
		true, salesScan(t))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]interface{}{"b", "a", "b", "c"}, columnValues(t, out, "shop"))
	require.Equal([]interface{}{"n", "n", "s", "s"}, columnValues(t, out, "region"))
	// count includes the null amount of the second (a, n) row
	require.Equal([]interface{}{int64(1), int64(2), int64(1), int64(1)},
		columnValues(t, out, "count_amount"))
}

func TestExecuteGroupByNullKeysGroupTogether(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("k", frame.Utf8, []interface{}{nil, "a", nil}),
		frame.NewSeries("x", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
	)
	require.NoError(err)
	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewColumn("k")},
		[]frame.Expression{expression.NewSum(expression.NewColumn("x"))},
		true, plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]interface{}{nil, "a"}, columnValues(t, out, "k"))
	require.Equal([]interface{}{int64(4), int64(2)}, columnValues(t, out, "sum_x"))
}

func TestExecuteGroupByAliasedAndDerivedAggs(t *testing.T) {
	require := require.New(t)

	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewColumn("shop")},
		[]frame.Expression{
			expression.NewAlias("total", expression.NewSum(expression.NewColumn("amount"))),
			expression.NewAlias("spread", expression.NewMinus(
				expression.NewMax(expression.NewColumn("amount")),
				expression.NewMin(expression.NewColumn("amount")))),
		},
		true, salesScan(t))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]string{"shop", "total", "spread"}, out.Schema().Names())
	require.Equal([]interface{}{int64(4), int64(2), int64(5)}, columnValues(t, out, "total"))
	require.Equal([]interface{}{int64(2), int64(0), int64(0)}, columnValues(t, out, "spread"))
}

func TestExecuteGroupByDynamic(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("idx", frame.Int64, []interface{}{int64(1), int64(2), int64(3), int64(7), int64(8)}),
		frame.NewSeries("x", frame.Int64, []interface{}{int64(10), int64(20), int64(30), int64(40), int64(50)}),
	)
	require.NoError(err)

	gb, err := plan.NewGroupByDynamic("idx", 3, 3, 0, plan.ClosedLeft,
		[]frame.Expression{expression.NewSum(expression.NewColumn("x"))},
		plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]interface{}{int64(0), int64(3), int64(6)}, columnValues(t, out, "idx"))
	require.Equal([]interface{}{int64(30), int64(30), int64(90)}, columnValues(t, out, "sum_x"))
}

func TestExecuteGroupByDynamicOverlappingWindows(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("idx", frame.Int64, []interface{}{int64(0), int64(1), int64(2), int64(3)}),
		frame.NewSeries("x", frame.Int64, []interface{}{int64(1), int64(2), int64(4), int64(8)}),
	)
	require.NoError(err)

	// period twice the stride, so each row lands in two windows
	gb, err := plan.NewGroupByDynamic("idx", 2, 4, 0, plan.ClosedLeft,
		[]frame.Expression{expression.NewSum(expression.NewColumn("x"))},
		plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]interface{}{int64(-2), int64(0), int64(2)}, columnValues(t, out, "idx"))
	require.Equal([]interface{}{int64(3), int64(15), int64(12)}, columnValues(t, out, "sum_x"))
}

func TestExecuteGroupByRolling(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("idx", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
		frame.NewSeries("x", frame.Int64, []interface{}{int64(1), int64(2), int64(4)}),
	)
	require.NoError(err)

	gb, err := plan.NewGroupByRolling("idx", 2, plan.ClosedRight,
		[]frame.Expression{expression.NewSum(expression.NewColumn("x"))},
		plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	out := materialize(t, gb)
	require.Equal([]interface{}{int64(1), int64(2), int64(3)}, columnValues(t, out, "idx"))
	require.Equal([]interface{}{int64(1), int64(3), int64(6)}, columnValues(t, out, "sum_x"))
}

func TestExecuteWindowedIndexRejectsNulls(t *testing.T) {
	require := require.New(t)

	tbl, err := frame.NewTable(
		frame.NewSeries("idx", frame.Int64, []interface{}{int64(1), nil}),
		frame.NewSeries("x", frame.Int64, []interface{}{int64(1), int64(2)}),
	)
	require.NoError(err)
	gb, err := plan.NewGroupByRolling("idx", 2, plan.ClosedRight,
		[]frame.Expression{expression.NewSum(expression.NewColumn("x"))},
		plan.NewScan(source.NewMemory("t", tbl)))
	require.NoError(err)

	_, err = Materialize(frame.NewEmptyContext(), gb, nil)
	require.Error(err)
	require.True(frame.ErrCompute.Is(err))
}
