package plan

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

// GroupBy groups rows by equal key expression values and reduces each group
// with aggregation expressions. With MaintainOrder the groups come out in
// first-occurrence order of their keys, at the cost of order-preserving
// execution.
type GroupBy struct {
	UnaryNode
	Keys          []frame.Expression
	Aggs          []frame.Expression
	MaintainOrder bool
}

// NewGroupBy creates a new group-by node. Aggregation expressions must be
// aggregations (possibly aliased), and output names across keys and
// aggregations must be unique; both are construction-time errors, so a
// malformed group-by never reaches the optimizer.
func NewGroupBy(keys, aggs []frame.Expression, maintainOrder bool, child frame.Node) (*GroupBy, error) {
	seen := make(map[string]struct{}, len(keys)+len(aggs))
	for _, k := range keys {
		if _, dup := seen[k.Name()]; dup {
			return nil, frame.ErrDuplicateColumn.New(k.Name())
		}
		seen[k.Name()] = struct{}{}
	}
	for _, a := range aggs {
		if !expression.HasAggregation(a) {
			return nil, frame.ErrAggregationOutsideGroupBy.New(a.Name())
		}
		if _, dup := seen[a.Name()]; dup {
			return nil, frame.ErrDuplicateColumn.New(a.Name())
		}
		seen[a.Name()] = struct{}{}
	}
	return &GroupBy{UnaryNode{child}, keys, aggs, maintainOrder}, nil
}

// Schema implements the Node interface: key columns in key order, then
// aggregation columns in aggregation order. Wildcard and exclude keys expand
// against the child schema here, so grouping by every column resolves the
// same way a projection does.
func (g *GroupBy) Schema() (frame.Schema, error) {
	childSchema, err := g.Child.Schema()
	if err != nil {
		return nil, err
	}
	keys, err := ExpandExpressions(childSchema, g.Keys)
	if err != nil {
		return nil, err
	}
	cols := make([]*frame.Column, 0, len(keys)+len(g.Aggs))
	for _, k := range keys {
		typ, err := k.Type(childSchema)
		if err != nil {
			return nil, err
		}
		cols = append(cols, &frame.Column{Name: k.Name(), Type: typ})
	}
	for _, a := range g.Aggs {
		typ, err := a.Type(childSchema)
		if err != nil {
			return nil, err
		}
		cols = append(cols, &frame.Column{Name: a.Name(), Type: typ})
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (g *GroupBy) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	ng := *g
	ng.UnaryNode = UnaryNode{children[0]}
	return &ng, nil
}

// Expressions implements the Expressioner interface.
func (g *GroupBy) Expressions() []frame.Expression {
	exprs := make([]frame.Expression, 0, len(g.Keys)+len(g.Aggs))
	exprs = append(exprs, g.Keys...)
	exprs = append(exprs, g.Aggs...)
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (g *GroupBy) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(g.Keys)+len(g.Aggs) {
		return nil, frame.ErrInvalidChildrenNumber.New(g, len(exprs), len(g.Keys)+len(g.Aggs))
	}
	ng := *g
	ng.Keys = exprs[:len(g.Keys)]
	ng.Aggs = exprs[len(g.Keys):]
	return &ng, nil
}

func (g *GroupBy) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("GroupBy(keys=[%s], aggs=[%s])", exprsString(g.Keys), exprsString(g.Aggs))
	_ = p.WriteChildren(g.Child.String())
	return p.String()
}
