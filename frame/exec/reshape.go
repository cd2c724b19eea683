package exec

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeExplode(ctx *frame.Context, n *plan.Explode) (*frame.Table, error) {
	span, ctx := ctx.Span("explode")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	exploded := make(map[string]*frame.Series, len(n.Columns))
	for _, name := range n.Columns {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		exploded[name] = col
	}

	// Element count per input row: list lengths must agree across exploded
	// columns, and a null or empty list still yields one (null) output row.
	counts := make([]int, t.NumRows())
	for row := range counts {
		counts[row] = 1
		assigned := false
		for name, col := range exploded {
			cells, ok := col.Value(row).([]interface{})
			if !ok || len(cells) == 0 {
				continue
			}
			if !assigned {
				counts[row] = len(cells)
				assigned = true
			} else if counts[row] != len(cells) {
				return nil, frame.ErrShape.New(fmt.Sprintf(
					"explode: column %q has %d elements in row %d, expected %d",
					name, len(cells), row, counts[row]))
			}
		}
	}

	var indices []int
	for row, count := range counts {
		for i := 0; i < count; i++ {
			indices = append(indices, row)
		}
	}

	cols := make([]*frame.Series, t.NumColumns())
	for i, col := range t.Columns() {
		listCol, isExploded := exploded[col.Name()]
		if !isExploded {
			cols[i] = col.Take(indices)
			continue
		}
		inner, _ := frame.ListInner(listCol.Type())
		values := make([]interface{}, 0, len(indices))
		for row, count := range counts {
			cells, ok := listCol.Value(row).([]interface{})
			if !ok || len(cells) == 0 {
				for j := 0; j < count; j++ {
					values = append(values, nil)
				}
				continue
			}
			values = append(values, cells...)
		}
		cols[i] = frame.NewSeries(col.Name(), inner, values)
	}
	return frame.NewTable(cols...)
}

func (e *executor) executeUnnest(ctx *frame.Context, n *plan.Unnest) (*frame.Table, error) {
	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	unnested := make(map[string]struct{}, len(n.Columns))
	for _, name := range n.Columns {
		unnested[name] = struct{}{}
	}

	var cols []*frame.Series
	for _, col := range t.Columns() {
		if _, ok := unnested[col.Name()]; !ok {
			cols = append(cols, col)
			continue
		}
		fields, ok := frame.StructFields(col.Type())
		if !ok {
			return nil, frame.ErrInvalidType.New(
				"unnest column " + col.Name() + " is not a struct column")
		}
		for _, field := range fields {
			values := make([]interface{}, col.Len())
			for row := 0; row < col.Len(); row++ {
				if cell, isStruct := col.Value(row).(map[string]interface{}); isStruct {
					values[row] = cell[field.Name]
				}
			}
			cols = append(cols, frame.NewSeries(field.Name, field.Type, values))
		}
	}
	return frame.NewTable(cols...)
}

func (e *executor) executeMelt(ctx *frame.Context, n *plan.Melt) (*frame.Table, error) {
	span, ctx := ctx.Span("melt")
	defer span.Finish()

	t, err := e.execute(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	valueVars := n.ResolvedValueVars(t.Schema())
	schema, err := n.Schema()
	if err != nil {
		return nil, err
	}
	valueType, err := schema.ColumnType(n.ValueName)
	if err != nil {
		return nil, err
	}

	rows := t.NumRows() * len(valueVars)
	cols := make([]*frame.Series, 0, len(n.IDVars)+2)
	for _, name := range n.IDVars {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, 0, rows)
		for range valueVars {
			values = append(values, col.Values()...)
		}
		cols = append(cols, frame.NewSeries(name, col.Type(), values))
	}

	variable := make([]interface{}, 0, rows)
	value := make([]interface{}, 0, rows)
	for _, name := range valueVars {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		for row := 0; row < t.NumRows(); row++ {
			variable = append(variable, name)
			cell, err := valueType.Convert(col.Value(row))
			if err != nil {
				return nil, err
			}
			value = append(value, cell)
		}
	}
	cols = append(cols,
		frame.NewSeries(n.VariableName, frame.Utf8, variable),
		frame.NewSeries(n.ValueName, valueType, value),
	)
	return frame.NewTable(cols...)
}
