package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/source"
)

func ordersScan(t *testing.T) *plan.Scan {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("id", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
		frame.NewSeries("total", frame.Int64, []interface{}{int64(5), int64(15), int64(25)}),
	)
	require.NoError(t, err)
	return plan.NewScan(source.NewMemory("orders", tbl))
}

func totalsFilter(child frame.Node) *plan.Filter {
	return plan.NewFilter(expression.NewGreaterThan(
		expression.NewColumn("total"), expression.Lit(10)), child)
}

func TestPredicatePushedIntoCapableScan(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	pushed, err := pushdownPredicates(ctx, NewDefault(), adultsFilter(userScan(t)))
	require.NoError(err)

	scan, ok := pushed.(*plan.Scan)
	require.True(ok)
	require.NotNil(scan.Predicate)
	require.Equal([]string{"age"}, expression.Columns(scan.Predicate))
}

func TestPredicateStaysWithoutCapability(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := adultsFilter(userScanWith(t, frame.SourceCapabilities{}))
	pushed, err := pushdownPredicates(ctx, NewDefault(), node)
	require.NoError(err)

	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	scan, ok := f.Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Predicate)
}

func TestPredicateSplitsConjunctsAcrossInnerJoin(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	join, err := plan.NewJoin(userScan(t), ordersScan(t),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.InnerJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	predicate := expression.JoinAnd(
		expression.NewGreaterThan(expression.NewColumn("age"), expression.Lit(18)),
		expression.NewGreaterThan(expression.NewColumn("total"), expression.Lit(10)),
	)
	pushed, err := pushdownPredicates(ctx, NewDefault(), plan.NewFilter(predicate, join))
	require.NoError(err)

	j, ok := pushed.(*plan.Join)
	require.True(ok)
	left, ok := j.Left.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"age"}, expression.Columns(left.Predicate))
	right, ok := j.Right.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"total"}, expression.Columns(right.Predicate))
}

func TestPredicateLeftJoinKeepsRightConjunctAbove(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	join, err := plan.NewJoin(userScan(t), ordersScan(t),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.LeftJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	predicate := expression.JoinAnd(
		expression.NewGreaterThan(expression.NewColumn("age"), expression.Lit(18)),
		expression.NewGreaterThan(expression.NewColumn("total"), expression.Lit(10)),
	)
	pushed, err := pushdownPredicates(ctx, NewDefault(), plan.NewFilter(predicate, join))
	require.NoError(err)

	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	require.Equal([]string{"total"}, expression.Columns(f.Predicate))

	j, ok := f.Child.(*plan.Join)
	require.True(ok)
	left, ok := j.Left.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"age"}, expression.Columns(left.Predicate))
	right, ok := j.Right.(*plan.Scan)
	require.True(ok)
	require.Nil(right.Predicate)
}

func TestPredicateOuterJoinBlocks(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	join, err := plan.NewJoin(userScan(t), ordersScan(t),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.OuterJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	pushed, err := pushdownPredicates(ctx, NewDefault(), adultsFilter(join))
	require.NoError(err)

	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	j, ok := f.Child.(*plan.Join)
	require.True(ok)
	left, ok := j.Left.(*plan.Scan)
	require.True(ok)
	require.Nil(left.Predicate)
}

func TestPredicateTranslatesThroughRename(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewFilter(
		expression.NewGreaterThan(expression.NewColumn("years"), expression.Lit(18)),
		plan.NewRename(map[string]string{"age": "years"}, userScan(t)),
	)
	pushed, err := pushdownPredicates(ctx, NewDefault(), node)
	require.NoError(err)

	r, ok := pushed.(*plan.Rename)
	require.True(ok)
	scan, ok := r.Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"age"}, expression.Columns(scan.Predicate))
}

func TestPredicateDistinctSubsetSplits(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	distinct := plan.NewDistinct([]string{"name"}, plan.KeepFirst, true, userScan(t))
	predicate := expression.JoinAnd(
		expression.NewEquals(expression.NewColumn("name"), expression.Lit("a")),
		expression.NewGreaterThan(expression.NewColumn("age"), expression.Lit(18)),
	)
	pushed, err := pushdownPredicates(ctx, NewDefault(), plan.NewFilter(predicate, distinct))
	require.NoError(err)

	// the age conjunct could change which duplicate survives, so it stays
	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	require.Equal([]string{"age"}, expression.Columns(f.Predicate))

	d, ok := f.Child.(*plan.Distinct)
	require.True(ok)
	scan, ok := d.Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"name"}, expression.Columns(scan.Predicate))
}

func TestPredicateStopsAtSlice(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := adultsFilter(plan.NewLimit(2, userScan(t)))
	pushed, err := pushdownPredicates(ctx, NewDefault(), node)
	require.NoError(err)

	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	s, ok := f.Child.(*plan.Slice)
	require.True(ok)
	scan, ok := s.Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Predicate)
}

func TestPredicateCrossesSelectThroughAlias(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	sel := plan.NewSelect([]frame.Expression{
		expression.NewAlias("years", expression.NewColumn("age")),
		expression.NewColumn("name"),
	}, userScan(t))
	node := plan.NewFilter(
		expression.NewGreaterThan(expression.NewColumn("years"), expression.Lit(18)), sel)

	pushed, err := pushdownPredicates(ctx, NewDefault(), node)
	require.NoError(err)

	s, ok := pushed.(*plan.Select)
	require.True(ok)
	scan, ok := s.Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"age"}, expression.Columns(scan.Predicate))
}

func TestPredicateBlockedByComputedOutput(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	sel := plan.NewSelect([]frame.Expression{
		expression.NewAlias("double", expression.NewMult(
			expression.NewColumn("age"), expression.Lit(2))),
	}, userScan(t))
	node := plan.NewFilter(
		expression.NewGreaterThan(expression.NewColumn("double"), expression.Lit(40)), sel)

	pushed, err := pushdownPredicates(ctx, NewDefault(), node)
	require.NoError(err)

	f, ok := pushed.(*plan.Filter)
	require.True(ok)
	_, ok = f.Child.(*plan.Select)
	require.True(ok)
}
