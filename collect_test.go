package frameengine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/source"
)

func TestFetchLimitsScans(t *testing.T) {
	require := require.New(t)

	out, err := usersFrame(t).Fetch(context.Background(), 2)
	require.NoError(err)
	require.Equal(2, out.NumRows())
}

func TestCollectWithoutOptimizationMatches(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	build := func() *LazyFrame {
		return usersFrame(t).
			Filter(expression.NewGreaterThan(Col("age"), Lit(16))).
			Select(Col("name"), Col("age")).
			Limit(3)
	}

	optimized, err := build().Collect(ctx)
	require.NoError(err)
	raw, err := build().CollectWith(ctx, CollectOptions{NoOptimization: true})
	require.NoError(err)

	require.True(optimized.Schema().Equals(raw.Schema()))
	require.Equal(optimized.NumRows(), raw.NumRows())
	for i := 0; i < optimized.NumRows(); i++ {
		require.Equal(optimized.Row(i), raw.Row(i))
	}
}

func TestDescribePlans(t *testing.T) {
	require := require.New(t)

	f := usersFrame(t).
		Filter(expression.NewGreaterThan(Col("age"), Lit(18))).
		Select(Col("name"))

	logical, err := f.DescribePlan()
	require.NoError(err)
	require.Contains(logical, "Filter")
	require.Contains(logical, "Scan")

	physical, err := f.DescribeOptimizedPlan()
	require.NoError(err)
	// the filter collapsed into the scan
	require.False(strings.Contains(physical, "Filter"))

	dot, err := f.ToDot()
	require.NoError(err)
	require.Contains(dot, "digraph")
}

func TestSerializeDeserializeCollect(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	tbl, err := frame.NewTable(
		frame.NewSeries("id", frame.Int64, []interface{}{int64(1), int64(2), int64(3)}),
		frame.NewSeries("v", frame.Int64, []interface{}{int64(10), int64(20), int64(30)}),
	)
	require.NoError(err)
	src := source.NewMemory("t", tbl)

	f := Scan(src).
		Filter(expression.NewGreaterThan(Col("v"), Lit(10))).
		Select(Col("id"))

	data, err := f.Serialize()
	require.NoError(err)

	decoded, err := Deserialize(data, map[string]frame.Source{"t": src})
	require.NoError(err)

	want, err := f.Collect(ctx)
	require.NoError(err)
	got, err := decoded.Collect(ctx)
	require.NoError(err)
	require.Equal(want.NumRows(), got.NumRows())
	for i := 0; i < want.NumRows(); i++ {
		require.Equal(want.Row(i), got.Row(i))
	}
}

func TestParseConfig(t *testing.T) {
	require := require.New(t)

	c, err := ParseConfig([]byte(`
verbose: true
fetch_rows: 100
optimizer:
  no_predicate_pushdown: true
`))
	require.NoError(err)

	opts := c.CollectOptions()
	require.True(opts.Verbose)
	require.EqualValues(100, opts.FetchRows)
	require.True(opts.Optimizer.NoPredicatePushdown)
	require.False(opts.Optimizer.NoSlicePushdown)
	require.False(opts.NoOptimization)
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	require := require.New(t)

	_, err := ParseConfig([]byte("optimiser:\n  disable: true\n"))
	require.Error(err)
}

func TestCollectHonorsCancelledContext(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := usersFrame(t).Collect(ctx)
	require.Error(err)
}
