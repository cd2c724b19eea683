package exec

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeSelect(ctx *frame.Context, n *plan.Select) (*frame.Table, error) {
	span, ctx := ctx.Span("select")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	exprs, err := plan.ExpandExpressions(t.Schema(), n.Exprs)
	if err != nil {
		return nil, err
	}

	cols := make([]*frame.Series, len(exprs))
	for i, expr := range exprs {
		s, err := expr.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		cols[i] = s.WithName(expr.Name())
	}
	return alignColumns(cols)
}

func (e *executor) executeWithColumns(ctx *frame.Context, n *plan.WithColumns) (*frame.Table, error) {
	span, ctx := ctx.Span("with_columns")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	exprs, err := plan.ExpandExpressions(t.Schema(), n.Exprs)
	if err != nil {
		return nil, err
	}

	out := t
	for _, expr := range exprs {
		s, err := expr.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		if s, err = broadcastTo(s, t.NumRows()); err != nil {
			return nil, err
		}
		if out, err = out.WithColumn(s.WithName(expr.Name())); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// alignColumns broadcasts length-1 columns to the common row count and
// builds the output batch. A global aggregation over every output keeps the
// one-row shape.
func alignColumns(cols []*frame.Series) (*frame.Table, error) {
	rows := 0
	for _, c := range cols {
		if c.Len() > rows {
			rows = c.Len()
		}
	}
	for i, c := range cols {
		aligned, err := broadcastTo(c, rows)
		if err != nil {
			return nil, err
		}
		cols[i] = aligned
	}
	return frame.NewTable(cols...)
}

// broadcastTo aligns a series to n rows, repeating length-1 series.
func broadcastTo(s *frame.Series, n int) (*frame.Series, error) {
	if s.Len() == n {
		return s, nil
	}
	if s.Len() == 1 {
		return s.Repeat(n), nil
	}
	return nil, frame.ErrShape.New(fmt.Sprintf(
		"series %q has %d rows, expected %d", s.Name(), s.Len(), n))
}
