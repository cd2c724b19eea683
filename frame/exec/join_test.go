package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/source"
)

func ordersTable(t *testing.T) *frame.Table {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("id", frame.Int64, []interface{}{int64(1), int64(1), int64(3), int64(5)}),
		frame.NewSeries("total", frame.Int64, []interface{}{int64(5), int64(15), int64(25), int64(40)}),
	)
	require.NoError(t, err)
	return tbl
}

func ordersJoinScan(t *testing.T) *plan.Scan {
	return plan.NewScan(source.NewMemory("orders", ordersTable(t)))
}

func idJoin(t *testing.T, how plan.JoinType) *plan.Join {
	t.Helper()
	j, err := plan.NewJoin(usersScan(t), ordersJoinScan(t),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		how, plan.DefaultJoinSuffix)
	require.NoError(t, err)
	return j
}

func TestExecuteInnerJoin(t *testing.T) {
	require := require.New(t)

	out := materialize(t, idJoin(t, plan.InnerJoin))
	require.Equal([]string{"id", "name", "age", "total"}, out.Schema().Names())
	require.Equal([]interface{}{int64(1), int64(1), int64(3)}, columnValues(t, out, "id"))
	require.Equal([]interface{}{int64(5), int64(15), int64(25)}, columnValues(t, out, "total"))
}

func TestExecuteLeftJoin(t *testing.T) {
	require := require.New(t)

	out := materialize(t, idJoin(t, plan.LeftJoin))
	require.Equal([]interface{}{int64(1), int64(1), int64(2), int64(3), int64(4)},
		columnValues(t, out, "id"))
	require.Equal([]interface{}{int64(5), int64(15), nil, int64(25), nil},
		columnValues(t, out, "total"))
}

func TestExecuteOuterJoinCoalescesKeys(t *testing.T) {
	require := require.New(t)

	out := materialize(t, idJoin(t, plan.OuterJoin))
	// the unmatched right row keeps its key in the coalesced id column
	require.Equal([]interface{}{int64(1), int64(1), int64(2), int64(3), int64(4), int64(5)},
		columnValues(t, out, "id"))
	require.Equal([]interface{}{"ann", "ann", "bob", "cay", nil, nil},
		columnValues(t, out, "name"))
	require.Equal([]interface{}{int64(5), int64(15), nil, int64(25), nil, int64(40)},
		columnValues(t, out, "total"))
}

func TestExecuteSemiAntiJoin(t *testing.T) {
	require := require.New(t)

	out := materialize(t, idJoin(t, plan.SemiJoin))
	require.Equal([]string{"id", "name", "age"}, out.Schema().Names())
	require.Equal([]interface{}{int64(1), int64(3)}, columnValues(t, out, "id"))

	out = materialize(t, idJoin(t, plan.AntiJoin))
	require.Equal([]interface{}{int64(2), int64(4)}, columnValues(t, out, "id"))
}

func TestExecuteCrossJoin(t *testing.T) {
	require := require.New(t)

	right, err := frame.NewTable(
		frame.NewSeries("side", frame.Utf8, []interface{}{"l", "r"}),
	)
	require.NoError(err)
	j, err := plan.NewJoin(usersScan(t), plan.NewScan(source.NewMemory("sides", right)),
		nil, nil, plan.CrossJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	out := materialize(t, j)
	require.Equal(8, out.NumRows())
	require.Equal([]interface{}{"l", "r", "l", "r", "l", "r", "l", "r"},
		columnValues(t, out, "side"))
}

func TestExecuteJoinSuffixesCollisions(t *testing.T) {
	require := require.New(t)

	right, err := frame.NewTable(
		frame.NewSeries("id", frame.Int64, []interface{}{int64(1), int64(2)}),
		frame.NewSeries("name", frame.Utf8, []interface{}{"x", "y"}),
	)
	require.NoError(err)
	j, err := plan.NewJoin(usersScan(t), plan.NewScan(source.NewMemory("aliases", right)),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.InnerJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	out := materialize(t, j)
	require.Equal([]string{"id", "name", "age", "name_right"}, out.Schema().Names())
	require.Equal([]interface{}{"x", "y"}, columnValues(t, out, "name_right"))
}

func TestExecuteJoinNullKeysNeverMatch(t *testing.T) {
	require := require.New(t)

	left, err := frame.NewTable(
		frame.NewSeries("k", frame.Int64, []interface{}{int64(1), nil}),
		frame.NewSeries("v", frame.Utf8, []interface{}{"a", "b"}),
	)
	require.NoError(err)
	right, err := frame.NewTable(
		frame.NewSeries("k", frame.Int64, []interface{}{int64(1), nil}),
		frame.NewSeries("w", frame.Utf8, []interface{}{"c", "d"}),
	)
	require.NoError(err)

	j, err := plan.NewJoin(
		plan.NewScan(source.NewMemory("l", left)),
		plan.NewScan(source.NewMemory("r", right)),
		[]frame.Expression{expression.NewColumn("k")},
		[]frame.Expression{expression.NewColumn("k")},
		plan.InnerJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	out := materialize(t, j)
	require.Equal(1, out.NumRows())
	require.Equal([]interface{}{"c"}, columnValues(t, out, "w"))
}

func TestExecuteJoinWidensKeyTypes(t *testing.T) {
	require := require.New(t)

	right, err := frame.NewTable(
		frame.NewSeries("id", frame.Float64, []interface{}{1.0, 2.5}),
		frame.NewSeries("score", frame.Int64, []interface{}{int64(7), int64(9)}),
	)
	require.NoError(err)
	j, err := plan.NewJoin(usersScan(t), plan.NewScan(source.NewMemory("scores", right)),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.InnerJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	out := materialize(t, j)
	require.Equal(1, out.NumRows())
	require.Equal([]interface{}{int64(7)}, columnValues(t, out, "score"))
}

func TestExecuteJoinParallelSides(t *testing.T) {
	require := require.New(t)

	j := idJoin(t, plan.InnerJoin)
	j.ForceParallel = true
	out := materialize(t, j)
	require.Equal(3, out.NumRows())
}

func tradesScan(t *testing.T) *plan.Scan {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(1), int64(5), int64(10)}),
		frame.NewSeries("qty", frame.Int64, []interface{}{int64(100), int64(200), int64(300)}),
	)
	require.NoError(t, err)
	return plan.NewScan(source.NewMemory("trades", tbl))
}

func quotesScan(t *testing.T) *plan.Scan {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(2), int64(4), int64(9)}),
		frame.NewSeries("bid", frame.Float64, []interface{}{1.0, 2.0, 3.0}),
	)
	require.NoError(t, err)
	return plan.NewScan(source.NewMemory("quotes", tbl))
}

func TestExecuteAsofJoinEqualKeysMatch(t *testing.T) {
	require := require.New(t)

	left, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(5)}),
	)
	require.NoError(err)
	right, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(3), int64(5), int64(7)}),
		frame.NewSeries("v", frame.Int64, []interface{}{int64(3), int64(5), int64(7)}),
	)
	require.NoError(err)

	// an exactly equal key wins under both strategies
	for _, strategy := range []plan.AsofStrategy{plan.AsofBackward, plan.AsofForward} {
		j, err := plan.NewAsofJoin(
			plan.NewScan(source.NewMemory("l", left)),
			plan.NewScan(source.NewMemory("r", right)),
			"ts", "ts", strategy, "")
		require.NoError(err)

		out := materialize(t, j)
		require.Equal([]interface{}{int64(5)}, columnValues(t, out, "v"))
	}
}

func TestExecuteAsofJoinBackward(t *testing.T) {
	require := require.New(t)

	j, err := plan.NewAsofJoin(tradesScan(t), quotesScan(t), "ts", "ts", plan.AsofBackward, "")
	require.NoError(err)

	out := materialize(t, j)
	require.Equal([]string{"ts", "qty", "bid"}, out.Schema().Names())
	require.Equal([]interface{}{nil, 2.0, 3.0}, columnValues(t, out, "bid"))
}

func TestExecuteAsofJoinForward(t *testing.T) {
	require := require.New(t)

	j, err := plan.NewAsofJoin(tradesScan(t), quotesScan(t), "ts", "ts", plan.AsofForward, "")
	require.NoError(err)

	out := materialize(t, j)
	require.Equal([]interface{}{1.0, 3.0, nil}, columnValues(t, out, "bid"))
}

func TestExecuteAsofJoinTolerance(t *testing.T) {
	require := require.New(t)

	j, err := plan.NewAsofJoin(tradesScan(t), quotesScan(t), "ts", "ts", plan.AsofBackward, "")
	require.NoError(err)
	j = j.WithTolerance(0.5)

	out := materialize(t, j)
	require.Equal([]interface{}{nil, nil, nil}, columnValues(t, out, "bid"))

	j = j.WithTolerance(1)
	out = materialize(t, j)
	require.Equal([]interface{}{nil, 2.0, 3.0}, columnValues(t, out, "bid"))
}

func TestExecuteAsofJoinByGroups(t *testing.T) {
	require := require.New(t)

	left, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(1), int64(5)}),
		frame.NewSeries("sym", frame.Utf8, []interface{}{"a", "b"}),
	)
	require.NoError(err)
	right, err := frame.NewTable(
		frame.NewSeries("ts", frame.Int64, []interface{}{int64(0), int64(4)}),
		frame.NewSeries("sym", frame.Utf8, []interface{}{"a", "a"}),
		frame.NewSeries("bid", frame.Float64, []interface{}{1.5, 2.5}),
	)
	require.NoError(err)

	j, err := plan.NewAsofJoin(
		plan.NewScan(source.NewMemory("l", left)),
		plan.NewScan(source.NewMemory("r", right)),
		"ts", "ts", plan.AsofBackward, "")
	require.NoError(err)
	j, err = j.WithBy([]string{"sym"}, []string{"sym"})
	require.NoError(err)

	out := materialize(t, j)
	require.Equal([]string{"ts", "sym", "bid"}, out.Schema().Names())
	require.Equal([]interface{}{1.5, nil}, columnValues(t, out, "bid"))
}
