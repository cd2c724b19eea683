package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/source"
)

func userTable(t *testing.T) *frame.Table {
	t.Helper()
	tbl, err := frame.NewTable(
		frame.NewSeries("id", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
		frame.NewSeries("name", frame.Utf8, []interface{}{"a", "b", "c"}),
		frame.NewSeries("age", frame.Int64, []interface{}{int64(20), int64(17), int64(35)}),
		frame.NewSeries("flag", frame.Boolean, []interface{}{true, false, true}),
	)
	require.NoError(t, err)
	return tbl
}

func userSource(t *testing.T) *source.Memory {
	return source.NewMemory("users", userTable(t))
}

func userScan(t *testing.T) *plan.Scan {
	return plan.NewScan(userSource(t))
}

// userScanWith creates a scan over the user table with restricted source
// capabilities.
func userScanWith(t *testing.T, caps frame.SourceCapabilities) *plan.Scan {
	return plan.NewScan(userSource(t).WithCapabilities(caps))
}

func adultsFilter(child frame.Node) *plan.Filter {
	return plan.NewFilter(expression.NewGreaterThan(
		expression.NewColumn("age"), expression.Lit(18)), child)
}

func TestOptimizeResolvesBeforeAnyScan(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	src := userSource(t)
	node := plan.NewSelect(
		[]frame.Expression{expression.NewColumn("missing")},
		plan.NewScan(src),
	)

	_, err := NewDefault().Optimize(ctx, node)
	require.Error(err)
	require.True(frame.ErrColumnNotFound.Is(err))
	require.EqualValues(0, src.ScanCount())
}

func TestOptimizeRunsEveryRuleOnce(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := adultsFilter(userScan(t))
	optimized, err := NewDefault().Optimize(ctx, node)
	require.NoError(err)

	scan, ok := optimized.(*plan.Scan)
	require.True(ok)
	require.NotNil(scan.Predicate)
}

func TestNoOptimizationKeepsPlanShape(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := adultsFilter(userScan(t))
	optimized, err := New(NoOptimization()).Optimize(ctx, node)
	require.NoError(err)

	f, ok := optimized.(*plan.Filter)
	require.True(ok)
	scan, ok := f.Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Predicate)
}

func TestSingleRuleToggle(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect(
		[]frame.Expression{expression.NewColumn("name")},
		adultsFilter(userScan(t)),
	)

	optimized, err := New(Flags{NoPredicatePushdown: true}).Optimize(ctx, node)
	require.NoError(err)

	sel, ok := optimized.(*plan.Select)
	require.True(ok)
	f, ok := sel.Child.(*plan.Filter)
	require.True(ok)
	// projection pushdown still ran
	scan, ok := f.Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"name", "age"}, scan.Projection)
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	scan := userScan(t)
	node := adultsFilter(scan)

	_, err := NewDefault().Optimize(ctx, node)
	require.NoError(err)

	require.Nil(scan.Predicate)
	require.Nil(scan.Projection)
	_, ok := node.Child.(*plan.Scan)
	require.True(ok)
}
