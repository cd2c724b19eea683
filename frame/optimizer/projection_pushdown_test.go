package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func TestProjectionNarrowsScan(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect([]frame.Expression{expression.NewColumn("name")}, userScan(t))
	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	scan, ok := pruned.(*plan.Select).Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"name"}, scan.Projection)
}

func TestProjectionIncludesFilterColumns(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect(
		[]frame.Expression{expression.NewColumn("name")},
		adultsFilter(userScan(t)),
	)
	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	f, ok := pruned.(*plan.Select).Child.(*plan.Filter)
	require.True(ok)
	scan, ok := f.Child.(*plan.Scan)
	require.True(ok)
	// source column order, not reference order
	require.Equal([]string{"name", "age"}, scan.Projection)
}

func TestProjectionWildcardLeavesScan(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect([]frame.Expression{expression.NewWildcard()}, userScan(t))
	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	scan, ok := pruned.(*plan.Select).Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Projection)
}

func TestProjectionWithoutCapability(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect(
		[]frame.Expression{expression.NewColumn("name")},
		userScanWith(t, frame.SourceCapabilities{}),
	)
	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	scan, ok := pruned.(*plan.Select).Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Projection)
}

func TestProjectionCacheBlocks(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	node := plan.NewSelect(
		[]frame.Expression{expression.NewColumn("name")},
		plan.NewCache(userScan(t)),
	)
	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	// another consumer of the cache may need every column
	c, ok := pruned.(*plan.Select).Child.(*plan.Cache)
	require.True(ok)
	scan, ok := c.Child.(*plan.Scan)
	require.True(ok)
	require.Nil(scan.Projection)
}

func TestProjectionGroupByRequirements(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	gb, err := plan.NewGroupBy(
		[]frame.Expression{expression.NewColumn("name")},
		[]frame.Expression{expression.NewSum(expression.NewColumn("age"))},
		true, userScan(t))
	require.NoError(err)

	pruned, err := pushdownProjections(ctx, NewDefault(), gb)
	require.NoError(err)

	scan, ok := pruned.(*plan.GroupBy).Child.(*plan.Scan)
	require.True(ok)
	require.Equal([]string{"name", "age"}, scan.Projection)
}

func TestProjectionJoinPrunesBothSides(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	join, err := plan.NewJoin(userScan(t), ordersScan(t),
		[]frame.Expression{expression.NewColumn("id")},
		[]frame.Expression{expression.NewColumn("id")},
		plan.InnerJoin, plan.DefaultJoinSuffix)
	require.NoError(err)

	node := plan.NewSelect([]frame.Expression{
		expression.NewColumn("name"),
		expression.NewColumn("total"),
	}, join)

	pruned, err := pushdownProjections(ctx, NewDefault(), node)
	require.NoError(err)

	j, ok := pruned.(*plan.Select).Child.(*plan.Join)
	require.True(ok)
	left, ok := j.Left.(*plan.Scan)
	require.True(ok)
	// join keys stay required even when the projection drops them
	require.Equal([]string{"id", "name"}, left.Projection)
	right, ok := j.Right.(*plan.Scan)
	require.True(ok)
	require.Nil(right.Projection)
}
