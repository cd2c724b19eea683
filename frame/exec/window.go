package exec

import (
	"time"

	"github.com/spf13/cast"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeGroupByDynamic(ctx *frame.Context, n *plan.GroupByDynamic) (*frame.Table, error) {
	span, ctx := ctx.Span("group_by_dynamic")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	indexCol, err := t.Column(n.IndexColumn)
	if err != nil {
		return nil, err
	}
	ordinals, err := indexOrdinals(indexCol)
	if err != nil {
		return nil, err
	}
	if len(ordinals) == 0 {
		return frame.EmptyTable(mustSchema(n)), nil
	}

	lo, hi := ordinals[0], ordinals[0]
	for _, v := range ordinals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	// Window starts are offset + k*every; the earliest window that can
	// still cover lo starts at most period before it.
	kMin := floorDiv(lo-n.Offset-n.Period, n.Every) + 1
	kMax := floorDiv(hi-n.Offset, n.Every)

	var starts []int64
	var groups [][]int
	for k := kMin; k <= kMax; k++ {
		start := n.Offset + k*n.Every
		end := start + n.Period
		var group []int
		for row, v := range ordinals {
			if inWindow(v, start, end, n.Closed) {
				group = append(group, row)
			}
		}
		if len(group) == 0 {
			continue
		}
		starts = append(starts, start)
		groups = append(groups, group)
	}

	return assembleWindowed(ctx, t, n.IndexColumn, indexCol.Type(), starts, groups, n.Aggs)
}

func (e *executor) executeGroupByRolling(ctx *frame.Context, n *plan.GroupByRolling) (*frame.Table, error) {
	span, ctx := ctx.Span("group_by_rolling")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	indexCol, err := t.Column(n.IndexColumn)
	if err != nil {
		return nil, err
	}
	ordinals, err := indexOrdinals(indexCol)
	if err != nil {
		return nil, err
	}

	// One trailing window per row over the assumed ascending index.
	indexValues := make([]int64, len(ordinals))
	groups := make([][]int, len(ordinals))
	for row, v := range ordinals {
		indexValues[row] = v
		var group []int
		for j, u := range ordinals {
			if u > v {
				break
			}
			if inWindow(u, v-n.Period, v, n.Closed) {
				group = append(group, j)
			}
		}
		groups[row] = group
	}

	return assembleWindowed(ctx, t, n.IndexColumn, indexCol.Type(), indexValues, groups, n.Aggs)
}

func inWindow(v, start, end int64, closed plan.ClosedWindow) bool {
	switch closed {
	case plan.ClosedRight:
		return v > start && v <= end
	case plan.ClosedBoth:
		return v >= start && v <= end
	case plan.ClosedNone:
		return v > start && v < end
	default:
		return v >= start && v < end
	}
}

// indexOrdinals converts the index column into int64 ordinals, datetimes as
// microseconds since the epoch. Nulls are not allowed in a window index.
func indexOrdinals(col *frame.Series) ([]int64, error) {
	out := make([]int64, col.Len())
	for i := range out {
		if col.IsNull(i) {
			return nil, frame.ErrCompute.New(
				"window index column " + col.Name() + " contains nulls")
		}
		if ts, ok := col.Value(i).(time.Time); ok {
			out[i] = ts.UnixMicro()
			continue
		}
		v, err := cast.ToInt64E(col.Value(i))
		if err != nil {
			return nil, frame.ErrInvalidType.New("window index: " + err.Error())
		}
		out[i] = v
	}
	return out, nil
}

func assembleWindowed(
	ctx *frame.Context,
	t *frame.Table,
	indexName string,
	indexType frame.Type,
	starts []int64,
	groups [][]int,
	aggs []frame.Expression,
) (*frame.Table, error) {
	indexValues := make([]interface{}, len(starts))
	for i, start := range starts {
		if indexType == frame.Datetime {
			indexValues[i] = time.UnixMicro(start).UTC()
			continue
		}
		v, err := indexType.Convert(start)
		if err != nil {
			return nil, err
		}
		indexValues[i] = v
	}

	cols := make([]*frame.Series, 0, len(aggs)+1)
	cols = append(cols, frame.NewSeries(indexName, indexType, indexValues))
	for _, agg := range aggs {
		s, err := evalAggregation(ctx, t, groups, agg)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s.WithName(agg.Name()))
	}
	return frame.NewTable(cols...)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func mustSchema(n frame.Node) frame.Schema {
	schema, _ := n.Schema()
	return schema
}
