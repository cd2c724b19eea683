package optimizer

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// pushdownSlices turns head-of-stream slices into scan row limits. A slice
// over the [offset, offset+len) window needs at most offset+len rows from
// its input, and that bound survives any row-wise, order-preserving,
// count-preserving operator on the way down. The slice node itself is
// dropped only when the limit provably replaces it: zero offset and a limit
// the subtree is known to honor exactly.
func pushdownSlices(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error) {
	span, _ := ctx.Span("pushdown_slices")
	defer span.Finish()

	return plan.TransformUp(node, func(n frame.Node) (frame.Node, error) {
		s, ok := n.(*plan.Slice)
		if !ok || s.Offset < 0 || s.Len < 0 {
			return n, nil
		}
		newChild, satisfied, err := pushLimit(s.Child, s.Offset+s.Len)
		if err != nil {
			return nil, err
		}
		if satisfied && s.Offset == 0 {
			return newChild, nil
		}
		return plan.NewSlice(s.Offset, s.Len, newChild), nil
	})
}

// pushLimit propagates "at most limit rows are consumed" down the subtree.
// It reports whether the rewritten subtree is guaranteed to produce exactly
// the first min(limit, available) rows, which lets the caller drop a
// zero-offset slice.
func pushLimit(node frame.Node, limit int64) (frame.Node, bool, error) {
	switch n := node.(type) {
	case *plan.Scan:
		if !n.Src.Capabilities().Limit {
			return n, false, nil
		}
		return n.WithRowLimit(limit), true, nil

	case *plan.Select:
		if hasAggregations(n.Exprs) {
			return n, false, nil
		}
		return pushLimitThrough(n, limit)

	case *plan.WithColumns:
		if hasAggregations(n.Exprs) {
			return n, false, nil
		}
		return pushLimitThrough(n, limit)

	case *plan.Rename:
		return pushLimitThrough(n, limit)

	case *plan.WithRowCount:
		// Numbering is assigned top of stream in input order, so the first
		// limit rows keep their numbers when the input is cut short.
		return pushLimitThrough(n, limit)

	case *plan.Slice:
		if n.Offset < 0 || n.Len < 0 {
			return n, false, nil
		}
		inner := n.Offset + n.Len
		if limit < n.Len {
			inner = n.Offset + limit
		}
		newChild, childSatisfied, err := pushLimit(n.Child, inner)
		if err != nil {
			return nil, false, err
		}
		ns := plan.NewSlice(n.Offset, n.Len, newChild)
		// The inner slice alone caps the row count at n.Len.
		return ns, n.Len <= limit || childSatisfied, nil

	case *plan.MapFunction:
		if !n.SlicePushdownSafe {
			return n, false, nil
		}
		newChild, _, err := pushLimit(n.Child, limit)
		if err != nil {
			return nil, false, err
		}
		nn, err := n.WithChildren(newChild)
		if err != nil {
			return nil, false, err
		}
		// The function may drop rows, so the bound is a hint only.
		return nn, false, nil

	case *plan.Union:
		inputs := make([]frame.Node, len(n.Inputs))
		for i, in := range n.Inputs {
			ni, _, err := pushLimit(in, limit)
			if err != nil {
				return nil, false, err
			}
			inputs[i] = ni
		}
		nu, err := plan.NewUnion(inputs, n.AllowParallel)
		if err != nil {
			return nil, false, err
		}
		return nu, false, nil
	}

	// Sorts, filters, joins and aggregations consume their whole input
	// before emitting the first row; the limit stops here.
	return node, false, nil
}

func pushLimitThrough(n frame.Node, limit int64) (frame.Node, bool, error) {
	newChild, satisfied, err := pushLimit(n.Children()[0], limit)
	if err != nil {
		return nil, false, err
	}
	nn, err := n.WithChildren(newChild)
	if err != nil {
		return nil, false, err
	}
	return nn, satisfied, nil
}

func hasAggregations(exprs []frame.Expression) bool {
	for _, e := range exprs {
		if expression.HasAggregation(e) {
			return true
		}
	}
	return false
}
