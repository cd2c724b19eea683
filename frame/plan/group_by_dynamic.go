package plan

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

// ClosedWindow says which edges of a window include rows falling exactly on
// them.
type ClosedWindow byte

const (
	// ClosedLeft includes the lower edge only.
	ClosedLeft ClosedWindow = iota
	// ClosedRight includes the upper edge only.
	ClosedRight
	// ClosedBoth includes both edges.
	ClosedBoth
	// ClosedNone includes neither edge.
	ClosedNone
)

func (c ClosedWindow) String() string {
	switch c {
	case ClosedRight:
		return "right"
	case ClosedBoth:
		return "both"
	case ClosedNone:
		return "none"
	default:
		return "left"
	}
}

// GroupByDynamic groups rows into windows over a sorted numeric or datetime
// index column rather than by discrete key equality. Windows start every
// Every units, span Period units and may overlap. The index column must be
// sorted ascending; the caller is responsible for that.
type GroupByDynamic struct {
	UnaryNode
	IndexColumn string
	// Every is the stride between window starts, Period the window length
	// and Offset shifts the first window start. Units are the index units
	// (microseconds for datetime columns).
	Every  int64
	Period int64
	Offset int64
	Closed ClosedWindow
	Aggs   []frame.Expression
}

// NewGroupByDynamic creates a new dynamic window grouping. A Period of zero
// defaults to Every (non-overlapping windows).
func NewGroupByDynamic(indexColumn string, every, period, offset int64, closed ClosedWindow, aggs []frame.Expression, child frame.Node) (*GroupByDynamic, error) {
	if every <= 0 {
		return nil, frame.ErrInvalidType.New("group_by_dynamic: every must be positive")
	}
	if period == 0 {
		period = every
	}
	for _, a := range aggs {
		if !expression.HasAggregation(a) {
			return nil, frame.ErrAggregationOutsideGroupBy.New(a.Name())
		}
	}
	return &GroupByDynamic{
		UnaryNode:   UnaryNode{child},
		IndexColumn: indexColumn,
		Every:       every,
		Period:      period,
		Offset:      offset,
		Closed:      closed,
		Aggs:        aggs,
	}, nil
}

// Schema implements the Node interface: the window-start column under the
// index column's name, then the aggregation columns.
func (g *GroupByDynamic) Schema() (frame.Schema, error) {
	return windowedSchema(g.Child, g.IndexColumn, g.Aggs)
}

// WithChildren implements the Node interface.
func (g *GroupByDynamic) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	ng := *g
	ng.UnaryNode = UnaryNode{children[0]}
	return &ng, nil
}

// Expressions implements the Expressioner interface.
func (g *GroupByDynamic) Expressions() []frame.Expression { return g.Aggs }

// WithExpressions implements the Expressioner interface.
func (g *GroupByDynamic) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(g.Aggs) {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(exprs), len(g.Aggs))
	}
	ng := *g
	ng.Aggs = exprs
	return &ng, nil
}

func (g *GroupByDynamic) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("GroupByDynamic(index=%s, every=%d, period=%d, offset=%d, closed=%s, aggs=[%s])",
		g.IndexColumn, g.Every, g.Period, g.Offset, g.Closed, exprsString(g.Aggs))
	_ = p.WriteChildren(g.Child.String())
	return p.String()
}

// GroupByRolling groups each row with the trailing window of rows whose
// index lies within Period units before it. The index column must be sorted
// ascending.
type GroupByRolling struct {
	UnaryNode
	IndexColumn string
	Period      int64
	Closed      ClosedWindow
	Aggs        []frame.Expression
}

// NewGroupByRolling creates a new rolling window grouping.
func NewGroupByRolling(indexColumn string, period int64, closed ClosedWindow, aggs []frame.Expression, child frame.Node) (*GroupByRolling, error) {
	if period <= 0 {
		return nil, frame.ErrInvalidType.New("group_by_rolling: period must be positive")
	}
	for _, a := range aggs {
		if !expression.HasAggregation(a) {
			return nil, frame.ErrAggregationOutsideGroupBy.New(a.Name())
		}
	}
	return &GroupByRolling{
		UnaryNode:   UnaryNode{child},
		IndexColumn: indexColumn,
		Period:      period,
		Closed:      closed,
		Aggs:        aggs,
	}, nil
}

// Schema implements the Node interface: the index column, then the
// aggregation columns. Rolling keeps one output row per input row.
func (g *GroupByRolling) Schema() (frame.Schema, error) {
	return windowedSchema(g.Child, g.IndexColumn, g.Aggs)
}

// WithChildren implements the Node interface.
func (g *GroupByRolling) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	ng := *g
	ng.UnaryNode = UnaryNode{children[0]}
	return &ng, nil
}

// Expressions implements the Expressioner interface.
func (g *GroupByRolling) Expressions() []frame.Expression { return g.Aggs }

// WithExpressions implements the Expressioner interface.
func (g *GroupByRolling) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(g.Aggs) {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(exprs), len(g.Aggs))
	}
	ng := *g
	ng.Aggs = exprs
	return &ng, nil
}

func (g *GroupByRolling) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("GroupByRolling(index=%s, period=%d, closed=%s, aggs=[%s])",
		g.IndexColumn, g.Period, g.Closed, exprsString(g.Aggs))
	_ = p.WriteChildren(g.Child.String())
	return p.String()
}

func windowedSchema(child frame.Node, indexColumn string, aggs []frame.Expression) (frame.Schema, error) {
	childSchema, err := child.Schema()
	if err != nil {
		return nil, err
	}
	indexType, err := childSchema.ColumnType(indexColumn)
	if err != nil {
		return nil, err
	}
	if indexType != frame.Datetime && !frame.IsInteger(indexType) {
		return nil, frame.ErrInvalidType.New(
			"window index column must be an integer or datetime column")
	}
	cols := []*frame.Column{{Name: indexColumn, Type: indexType}}
	for _, a := range aggs {
		typ, err := a.Type(childSchema)
		if err != nil {
			return nil, err
		}
		cols = append(cols, &frame.Column{Name: a.Name(), Type: typ})
	}
	return frame.NewSchema(cols...)
}
