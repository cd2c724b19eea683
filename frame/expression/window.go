package expression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/mitchellh/hashstructure"
)

// Window evaluates an aggregation over partitions of the batch and
// broadcasts each partition's result back onto its rows, leaving the row
// count unchanged.
type Window struct {
	// Agg is the aggregation applied per partition.
	Agg frame.Expression
	// PartitionBy defines the partitions by equal values.
	PartitionBy []frame.Expression
	// OrderBy optionally orders rows within each partition before the
	// aggregation, which matters for first/last.
	OrderBy []frame.Expression
	// Descending flags each OrderBy key.
	Descending []bool
}

// NewWindow creates a new window expression.
func NewWindow(agg frame.Expression, partitionBy ...frame.Expression) *Window {
	return &Window{Agg: agg, PartitionBy: partitionBy}
}

// WithOrderBy returns a window ordering rows within partitions.
func (w *Window) WithOrderBy(orderBy []frame.Expression, descending []bool) *Window {
	nw := *w
	nw.OrderBy = orderBy
	nw.Descending = descending
	return &nw
}

// Name implements the Expression interface.
func (w *Window) Name() string { return w.Agg.Name() }

// Type implements the Expression interface.
func (w *Window) Type(schema frame.Schema) (frame.Type, error) {
	for _, p := range w.PartitionBy {
		if _, err := p.Type(schema); err != nil {
			return nil, err
		}
	}
	for _, o := range w.OrderBy {
		if _, err := o.Type(schema); err != nil {
			return nil, err
		}
	}
	return w.Agg.Type(schema)
}

// Eval implements the Expression interface.
func (w *Window) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	agg, ok := w.Agg.(frame.Aggregation)
	if !ok {
		return nil, frame.ErrAggregationOutsideGroupBy.New(w.Agg.Name())
	}

	keys := make([]*frame.Series, len(w.PartitionBy))
	for i, p := range w.PartitionBy {
		s, err := p.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		if s, err = broadcast(s, t.NumRows()); err != nil {
			return nil, err
		}
		keys[i] = s
	}

	// partitions in first-occurrence order
	groupOf := make(map[uint64]int)
	var groups [][]int
	rowGroup := make([]int, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
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
		rowGroup[row] = gi
	}

	if len(w.OrderBy) > 0 {
		if err := w.sortGroups(ctx, t, groups); err != nil {
			return nil, err
		}
	}

	perGroup, err := agg.EvalGroups(ctx, t, groups)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		values[row] = perGroup.Value(rowGroup[row])
	}
	return frame.NewSeries(w.Name(), perGroup.Type(), values), nil
}

func (w *Window) sortGroups(ctx *frame.Context, t *frame.Table, groups [][]int) error {
	orderCols := make([]*frame.Series, len(w.OrderBy))
	for i, o := range w.OrderBy {
		s, err := o.Eval(ctx, t)
		if err != nil {
			return err
		}
		if s, err = broadcast(s, t.NumRows()); err != nil {
			return err
		}
		orderCols[i] = s
	}
	var sortErr error
	for _, group := range groups {
		sort.SliceStable(group, func(x, y int) bool {
			for i, col := range orderCols {
				a, b := col.Value(group[x]), col.Value(group[y])
				if a == nil || b == nil {
					if a == b {
						continue
					}
					// nulls last
					return b == nil
				}
				cmp, err := col.Type().Compare(a, b)
				if err != nil {
					sortErr = err
					return false
				}
				if cmp == 0 {
					continue
				}
				if i < len(w.Descending) && w.Descending[i] {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	return sortErr
}

// Children implements the Expression interface.
func (w *Window) Children() []frame.Expression {
	children := []frame.Expression{w.Agg}
	children = append(children, w.PartitionBy...)
	children = append(children, w.OrderBy...)
	return children
}

// WithChildren implements the Expression interface.
func (w *Window) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	want := 1 + len(w.PartitionBy) + len(w.OrderBy)
	if len(children) != want {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(children), want)
	}
	nw := *w
	nw.Agg = children[0]
	nw.PartitionBy = children[1 : 1+len(w.PartitionBy)]
	nw.OrderBy = children[1+len(w.PartitionBy):]
	return &nw, nil
}

func (w *Window) String() string {
	parts := make([]string, len(w.PartitionBy))
	for i, p := range w.PartitionBy {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s over (%s)", w.Agg, strings.Join(parts, ", "))
}
