package exec

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeSlice(ctx *frame.Context, n *plan.Slice) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	offset := n.Offset
	if offset < 0 {
		offset += int64(t.NumRows())
		if offset < 0 {
			offset = 0
		}
	}
	length := n.Len
	if length < 0 {
		length = int64(t.NumRows()) - offset
	}
	return t.Slice(int(offset), int(length)), nil
}

func (e *executor) executeDistinct(ctx *frame.Context, n *plan.Distinct) (*frame.Table, error) {
	span, ctx := ctx.Span("distinct")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}

	subset := n.Subset
	if subset == nil {
		subset = t.Schema().Names()
	}
	hashes := make([]uint64, t.NumRows())
	counts := make(map[uint64]int, t.NumRows())
	lastOf := make(map[uint64]int, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		h, err := byHash(t, subset, row)
		if err != nil {
			return nil, err
		}
		hashes[row] = h
		counts[h]++
		lastOf[h] = row
	}

	var keep []int
	seen := make(map[uint64]struct{}, len(counts))
	for row := 0; row < t.NumRows(); row++ {
		h := hashes[row]
		switch n.Keep {
		case plan.KeepLast:
			if lastOf[h] == row {
				keep = append(keep, row)
			}
		case plan.KeepNone:
			if counts[h] == 1 {
				keep = append(keep, row)
			}
		default:
			if _, dup := seen[h]; !dup {
				seen[h] = struct{}{}
				keep = append(keep, row)
			}
		}
	}
	return t.Take(keep), nil
}

func (e *executor) executeDropNulls(ctx *frame.Context, n *plan.DropNulls) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	subset := n.Subset
	if subset == nil {
		subset = t.Schema().Names()
	}
	cols := make([]*frame.Series, len(subset))
	for i, name := range subset {
		if cols[i], err = t.Column(name); err != nil {
			return nil, err
		}
	}
	var keep []int
rows:
	for row := 0; row < t.NumRows(); row++ {
		for _, c := range cols {
			if c.IsNull(row) {
				continue rows
			}
		}
		keep = append(keep, row)
	}
	return t.Take(keep), nil
}

func (e *executor) executeUnion(ctx *frame.Context, n *plan.Union) (*frame.Table, error) {
	span, ctx := ctx.Span("union")
	defer span.Finish()

	tables := make([]*frame.Table, len(n.Inputs))
	if n.AllowParallel && len(n.Inputs) > 1 {
		eg, egCtx := ctx.NewErrgroup()
		for i, input := range n.Inputs {
			i, input := i, input
			eg.Go(func() error {
				var err error
				tables[i], err = e.execute(egCtx, input)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, input := range n.Inputs {
			t, err := e.execute(ctx, input)
			if err != nil {
				return nil, err
			}
			tables[i] = t
		}
	}

	out := tables[0]
	var err error
	for _, t := range tables[1:] {
		if out, err = out.VStack(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *executor) executeWithRowCount(ctx *frame.Context, n *plan.WithRowCount) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, t.NumRows())
	for i := range values {
		values[i] = n.Offset + int64(i)
	}
	cols := make([]*frame.Series, 0, t.NumColumns()+1)
	cols = append(cols, frame.NewSeries(n.ColName, frame.Int64, values))
	cols = append(cols, t.Columns()...)
	return frame.NewTable(cols...)
}

func (e *executor) executeRename(ctx *frame.Context, n *plan.Rename) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	cols := make([]*frame.Series, t.NumColumns())
	for i, c := range t.Columns() {
		if to, renamed := n.Mapping[c.Name()]; renamed {
			cols[i] = c.WithName(to)
		} else {
			cols[i] = c
		}
	}
	return frame.NewTable(cols...)
}

func (e *executor) executeMapFunction(ctx *frame.Context, n *plan.MapFunction) (*frame.Table, error) {
	span, ctx := ctx.Span("map_function")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	out, err := n.Fn(ctx, t)
	if err != nil {
		return nil, err
	}
	declared, err := n.Schema()
	if err != nil {
		return nil, err
	}
	if !out.Schema().Equals(declared) {
		return nil, frame.ErrSchema.New(
			"map function produced a batch not matching its declared schema")
	}
	return out, nil
}

func (e *executor) executeWithContext(ctx *frame.Context, n *plan.WithContext) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, t.NumColumns())
	for _, c := range t.Columns() {
		seen[c.Name()] = struct{}{}
	}
	out := t
	for _, contextNode := range n.Contexts {
		ct, err := e.execute(ctx, contextNode)
		if err != nil {
			return nil, err
		}
		for _, c := range ct.Columns() {
			if _, shadowed := seen[c.Name()]; shadowed {
				continue
			}
			seen[c.Name()] = struct{}{}
			aligned, err := broadcastTo(c, out.NumRows())
			if err != nil {
				return nil, err
			}
			if out, err = out.WithColumn(aligned); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
