package exec

import (
	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeGroupBy(ctx *frame.Context, n *plan.GroupBy) (*frame.Table, error) {
	span, ctx := ctx.Span("group_by")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}

	keyExprs, err := plan.ExpandExpressions(t.Schema(), n.Keys)
	if err != nil {
		return nil, err
	}
	keys := make([]*frame.Series, len(keyExprs))
	for i, k := range keyExprs {
		s, err := k.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		if s, err = broadcastTo(s, t.NumRows()); err != nil {
			return nil, err
		}
		keys[i] = s
	}

	groups, err := groupRows(keys, t.NumRows())
	if err != nil {
		return nil, err
	}

	cols := make([]*frame.Series, 0, len(keyExprs)+len(n.Aggs))
	for i, k := range keys {
		values := make([]interface{}, len(groups))
		for gi, group := range groups {
			values[gi] = k.Value(group[0])
		}
		cols = append(cols, frame.NewSeries(keyExprs[i].Name(), k.Type(), values))
	}
	for _, agg := range n.Aggs {
		s, err := evalAggregation(ctx, t, groups, agg)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s.WithName(agg.Name()))
	}
	return frame.NewTable(cols...)
}

// groupRows buckets row positions by equal key tuples, in first-occurrence
// order of the keys. Output order is therefore deterministic whether or not
// the plan asked for it.
func groupRows(keys []*frame.Series, rows int) ([][]int, error) {
	groupOf := make(map[uint64]int, rows)
	var groups [][]int

	// Single string keys dominate in practice and hash without reflection.
	if len(keys) == 1 && keys[0].Type() == frame.Utf8 {
		k := keys[0]
		for row := 0; row < rows; row++ {
			var h uint64
			if !k.IsNull(row) {
				h = xxhash.Sum64String(k.Value(row).(string)) | 1
			}
			gi, ok := groupOf[h]
			if !ok {
				gi = len(groups)
				groupOf[h] = gi
				groups = append(groups, nil)
			}
			groups[gi] = append(groups[gi], row)
		}
		return groups, nil
	}

	for row := 0; row < rows; row++ {
		cells := make([]interface{}, len(keys))
		for i, k := range keys {
			cells[i] = k.Value(row)
		}
		h, err := hashstructure.Hash(cells, nil)
		if err != nil {
			return nil, frame.ErrCompute.New(err.Error())
		}
		gi, ok := groupOf[h]
		if !ok {
			gi = len(groups)
			groupOf[h] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], row)
	}
	return groups, nil
}

// evalAggregation reduces each group to one cell. Aggregation expressions
// (possibly under an alias) use their grouped evaluation; any other
// expression containing an aggregation deeper down is evaluated per group
// over the group's rows and must come out as a single cell.
func evalAggregation(ctx *frame.Context, t *frame.Table, groups [][]int, expr frame.Expression) (*frame.Series, error) {
	if alias, ok := expr.(*expression.Alias); ok {
		s, err := evalAggregation(ctx, t, groups, alias.Child)
		if err != nil {
			return nil, err
		}
		return s.WithName(alias.Name()), nil
	}
	if agg, ok := expr.(frame.Aggregation); ok {
		return agg.EvalGroups(ctx, t, groups)
	}

	values := make([]interface{}, len(groups))
	var typ frame.Type = frame.Null
	for gi, group := range groups {
		sub := t.Take(group)
		s, err := expr.Eval(ctx, sub)
		if err != nil {
			return nil, err
		}
		if s.Len() != 1 {
			return nil, frame.ErrShape.New(
				"aggregation expression " + expr.String() + " did not reduce to one value per group")
		}
		values[gi] = s.Value(0)
		if typ, err = frame.Promote(typ, s.Type()); err != nil {
			return nil, err
		}
	}
	return frame.NewSeries(expr.Name(), typ, values), nil
}
