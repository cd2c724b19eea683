package exec

import (
	"sort"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeSort(ctx *frame.Context, n *plan.Sort) (*frame.Table, error) {
	span, ctx := ctx.Span("sort")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}

	keys := make([]*frame.Series, len(n.Fields))
	for i, f := range n.Fields {
		s, err := f.Column.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		if s, err = broadcastTo(s, t.NumRows()); err != nil {
			return nil, err
		}
		keys[i] = s
	}

	indices := make([]int, t.NumRows())
	for i := range indices {
		indices[i] = i
	}
	var sortErr error
	// Stable, so rows equal under every key keep their input order.
	sort.SliceStable(indices, func(x, y int) bool {
		for i, key := range keys {
			c, err := compareCells(key, indices[x], indices[y], n.Fields[i])
			if err != nil {
				sortErr = err
				return false
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return t.Take(indices), nil
}

// compareCells orders two cells of one sort key, honoring the field's
// direction and null placement. Nulls compare equal to each other.
func compareCells(key *frame.Series, x, y int, field plan.SortField) (int, error) {
	xNull, yNull := key.IsNull(x), key.IsNull(y)
	if xNull || yNull {
		switch {
		case xNull && yNull:
			return 0, nil
		case xNull:
			if field.NullsLast {
				return 1, nil
			}
			return -1, nil
		default:
			if field.NullsLast {
				return -1, nil
			}
			return 1, nil
		}
	}
	c, err := key.Type().Compare(key.Value(x), key.Value(y))
	if err != nil {
		return 0, err
	}
	if field.Descending {
		c = -c
	}
	return c, nil
}
