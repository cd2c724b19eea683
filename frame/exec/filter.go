package exec

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeFilter(ctx *frame.Context, n *plan.Filter) (*frame.Table, error) {
	span, ctx := ctx.Span("filter")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	return filterTable(ctx, t, n.Predicate)
}

// filterTable keeps the rows for which the predicate is true. Null predicate
// results drop the row, matching three-valued comparison semantics.
func filterTable(ctx *frame.Context, t *frame.Table, predicate frame.Expression) (*frame.Table, error) {
	mask, err := predicate.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	if mask, err = broadcastTo(mask, t.NumRows()); err != nil {
		return nil, err
	}
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < mask.Len(); i++ {
		if v, ok := mask.Value(i).(bool); ok && v {
			keep = append(keep, i)
		}
	}
	return t.Take(keep), nil
}
