package exec

import (
	"github.com/mitchellh/hashstructure"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeJoin(ctx *frame.Context, n *plan.Join) (*frame.Table, error) {
	span, ctx := ctx.Span("join")
	defer span.Finish()

	left, right, err := e.executeSides(ctx, n.Left, n.Right, n.AllowParallel || n.ForceParallel)
	if err != nil {
		return nil, err
	}

	if n.How == plan.CrossJoin {
		return crossJoin(n, left, right)
	}

	leftKeys, err := evalKeys(ctx, left, n.LeftOn)
	if err != nil {
		return nil, err
	}
	rightKeys, err := evalKeys(ctx, right, n.RightOn)
	if err != nil {
		return nil, err
	}
	keyType := make([]frame.Type, len(leftKeys))
	for i := range leftKeys {
		if keyType[i], err = frame.Promote(leftKeys[i].Type(), rightKeys[i].Type()); err != nil {
			return nil, err
		}
	}

	// Hash the build side. Rows with a null in any key never match.
	buckets := make(map[uint64][]int, right.NumRows())
	for row := 0; row < right.NumRows(); row++ {
		h, null, err := hashKeyRow(rightKeys, keyType, row)
		if err != nil {
			return nil, err
		}
		if null {
			continue
		}
		buckets[h] = append(buckets[h], row)
	}

	switch n.How {
	case plan.SemiJoin, plan.AntiJoin:
		keepMatched := n.How == plan.SemiJoin
		var keep []int
		for row := 0; row < left.NumRows(); row++ {
			h, null, err := hashKeyRow(leftKeys, keyType, row)
			if err != nil {
				return nil, err
			}
			matched := !null && len(buckets[h]) > 0
			if matched == keepMatched {
				keep = append(keep, row)
			}
		}
		return left.Take(keep), nil
	}

	var leftIdx, rightIdx []int
	rightMatched := make([]bool, right.NumRows())
	for row := 0; row < left.NumRows(); row++ {
		h, null, err := hashKeyRow(leftKeys, keyType, row)
		if err != nil {
			return nil, err
		}
		matches := buckets[h]
		if null || len(matches) == 0 {
			if n.How == plan.LeftJoin || n.How == plan.OuterJoin {
				leftIdx = append(leftIdx, row)
				rightIdx = append(rightIdx, -1)
			}
			continue
		}
		for _, rrow := range matches {
			leftIdx = append(leftIdx, row)
			rightIdx = append(rightIdx, rrow)
			rightMatched[rrow] = true
		}
	}
	if n.How == plan.OuterJoin {
		for row := 0; row < right.NumRows(); row++ {
			if !rightMatched[row] {
				leftIdx = append(leftIdx, -1)
				rightIdx = append(rightIdx, row)
			}
		}
	}

	return assembleJoin(n, left, right, leftKeys, rightKeys, leftIdx, rightIdx)
}

func (e *executor) executeSides(ctx *frame.Context, left, right frame.Node, parallel bool) (*frame.Table, *frame.Table, error) {
	if !parallel {
		lt, err := e.execute(ctx, left)
		if err != nil {
			return nil, nil, err
		}
		rt, err := e.execute(ctx, right)
		if err != nil {
			return nil, nil, err
		}
		return lt, rt, nil
	}

	var lt, rt *frame.Table
	eg, egCtx := ctx.NewErrgroup()
	eg.Go(func() error {
		var err error
		lt, err = e.execute(egCtx, left)
		return err
	})
	eg.Go(func() error {
		var err error
		rt, err = e.execute(egCtx, right)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return lt, rt, nil
}

func evalKeys(ctx *frame.Context, t *frame.Table, exprs []frame.Expression) ([]*frame.Series, error) {
	keys := make([]*frame.Series, len(exprs))
	for i, expr := range exprs {
		s, err := expr.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		if s, err = broadcastTo(s, t.NumRows()); err != nil {
			return nil, err
		}
		keys[i] = s
	}
	return keys, nil
}

// hashKeyRow hashes one key tuple after widening the cells to the promoted
// key types, so int32 and int64 keys of equal value collide as they should.
func hashKeyRow(keys []*frame.Series, keyType []frame.Type, row int) (uint64, bool, error) {
	cells := make([]interface{}, len(keys))
	for i, k := range keys {
		if k.IsNull(row) {
			return 0, true, nil
		}
		cell, err := keyType[i].Convert(k.Value(row))
		if err != nil {
			return 0, false, frame.ErrCompute.New(err.Error())
		}
		cells[i] = cell
	}
	h, err := hashstructure.Hash(cells, nil)
	if err != nil {
		return 0, false, frame.ErrCompute.New(err.Error())
	}
	return h, false, nil
}

// assembleJoin builds the output batch from aligned row index lists, where
// -1 marks a missing side. Outer joins coalesce the key columns into the
// left key name, taking the right key value for right-only rows.
func assembleJoin(n *plan.Join, left, right *frame.Table, leftKeys, rightKeys []*frame.Series, leftIdx, rightIdx []int) (*frame.Table, error) {
	schema, err := n.Schema()
	if err != nil {
		return nil, err
	}
	leftSchema := left.Schema()

	// Left key column positions, for outer join coalescing.
	coalesce := make(map[int]int)
	if n.How == plan.OuterJoin {
		for ki, expr := range n.LeftOn {
			if pos := leftSchema.IndexOf(expr.Name()); pos >= 0 {
				coalesce[pos] = ki
			}
		}
	}

	cols := make([]*frame.Series, 0, len(schema))
	for pos, c := range leftSchema {
		outType, err := schema.ColumnType(c.Name)
		if err != nil {
			return nil, err
		}
		col, err := left.Column(c.Name)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(leftIdx))
		for out, li := range leftIdx {
			switch {
			case li >= 0:
				values[out] = col.Value(li)
			default:
				if ki, isKey := coalesce[pos]; isKey {
					values[out] = rightKeys[ki].Value(rightIdx[out])
				}
			}
			if values[out] != nil {
				if values[out], err = outType.Convert(values[out]); err != nil {
					return nil, err
				}
			}
		}
		cols = append(cols, frame.NewSeries(c.Name, outType, values))
	}

	dropped := rightKeyNames(n)
	for _, c := range right.Schema() {
		if _, drop := dropped[c.Name]; drop {
			continue
		}
		name := c.Name
		if leftSchema.Contains(name) {
			name += n.Suffix
		}
		col, err := right.Column(c.Name)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(rightIdx))
		for out, ri := range rightIdx {
			if ri >= 0 {
				values[out] = col.Value(ri)
			}
		}
		cols = append(cols, frame.NewSeries(name, c.Type, values))
	}
	return frame.NewTable(cols...)
}

func rightKeyNames(n *plan.Join) map[string]struct{} {
	keys := make(map[string]struct{}, len(n.RightOn))
	for _, e := range n.RightOn {
		if c, ok := e.(*expression.Column); ok {
			keys[c.Name()] = struct{}{}
		}
	}
	return keys
}

func crossJoin(n *plan.Join, left, right *frame.Table) (*frame.Table, error) {
	leftIdx := make([]int, 0, left.NumRows()*right.NumRows())
	rightIdx := make([]int, 0, left.NumRows()*right.NumRows())
	for l := 0; l < left.NumRows(); l++ {
		for r := 0; r < right.NumRows(); r++ {
			leftIdx = append(leftIdx, l)
			rightIdx = append(rightIdx, r)
		}
	}
	return assembleJoin(n, left, right, nil, nil, leftIdx, rightIdx)
}
