package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func TestSliceBecomesScanLimit(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	pushed, err := pushdownSlices(ctx, NewDefault(), plan.NewLimit(5, userScan(t)))
	require.NoError(err)

	scan, ok := pushed.(*plan.Scan)
	require.True(ok)
	require.EqualValues(5, scan.RowLimit)
}

func TestSliceWithOffsetKeepsSliceNode(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	pushed, err := pushdownSlices(ctx, NewDefault(), plan.NewSlice(2, 5, userScan(t)))
	require.NoError(err)

	s, ok := pushed.(*plan.Slice)
	require.True(ok)
	require.EqualValues(2, s.Offset)
	require.EqualValues(5, s.Len)
	scan, ok := s.Child.(*plan.Scan)
	require.True(ok)
	require.EqualValues(7, scan.RowLimit)
}

func TestSliceWithoutLimitCapability(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewLimit(5, userScanWith(t, frame.SourceCapabilities{}))
	pushed, err := pushdownSlices(ctx, NewDefault(), node)
	require.NoError(err)

	s, ok := pushed.(*plan.Slice)
	require.True(ok)
	scan, ok := s.Child.(*plan.Scan)
	require.True(ok)
	require.EqualValues(-1, scan.RowLimit)
}

func TestSliceCrossesSelect(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewLimit(3, plan.NewSelect(
		[]frame.Expression{expression.NewColumn("name")}, userScan(t)))
	pushed, err := pushdownSlices(ctx, NewDefault(), node)
	require.NoError(err)

	sel, ok := pushed.(*plan.Select)
	require.True(ok)
	scan, ok := sel.Child.(*plan.Scan)
	require.True(ok)
	require.EqualValues(3, scan.RowLimit)
}

func TestSliceBlockedByAggregation(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewLimit(3, plan.NewSelect(
		[]frame.Expression{expression.NewSum(expression.NewColumn("age"))},
		userScan(t)))
	pushed, err := pushdownSlices(ctx, NewDefault(), node)
	require.NoError(err)

	s, ok := pushed.(*plan.Slice)
	require.True(ok)
	sel, ok := s.Child.(*plan.Select)
	require.True(ok)
	scan, ok := sel.Child.(*plan.Scan)
	require.True(ok)
	require.EqualValues(-1, scan.RowLimit)
}

func TestSliceNegativeOffsetUntouched(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	pushed, err := pushdownSlices(ctx, NewDefault(), plan.NewSlice(-3, 3, userScan(t)))
	require.NoError(err)

	s, ok := pushed.(*plan.Slice)
	require.True(ok)
	require.EqualValues(-3, s.Offset)
	scan, ok := s.Child.(*plan.Scan)
	require.True(ok)
	require.EqualValues(-1, scan.RowLimit)
}

func TestSliceNestedSlicesTightenLimit(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewLimit(10, plan.NewSlice(0, 4, userScan(t)))
	pushed, err := pushdownSlices(ctx, NewDefault(), node)
	require.NoError(err)

	// both slices collapse and the tighter bound wins
	scan, ok := pushed.(*plan.Scan)
	require.True(ok)
	require.EqualValues(4, scan.RowLimit)
}
