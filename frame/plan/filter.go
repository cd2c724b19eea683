package plan

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// Filter keeps the rows for which its predicate evaluates to true. Null
// predicate results drop the row.
type Filter struct {
	UnaryNode
	Predicate frame.Expression
}

// NewFilter creates a new filter node.
func NewFilter(predicate frame.Expression, child frame.Node) *Filter {
	return &Filter{UnaryNode{child}, predicate}
}

// Schema implements the Node interface. Filtering preserves the child
// schema; the predicate must resolve to a boolean.
func (f *Filter) Schema() (frame.Schema, error) {
	schema, err := f.Child.Schema()
	if err != nil {
		return nil, err
	}
	typ, err := f.Predicate.Type(schema)
	if err != nil {
		return nil, err
	}
	if typ != frame.Boolean && typ != frame.Null {
		return nil, frame.ErrInvalidType.New(fmt.Sprintf(
			"filter predicate must be boolean, got %s", typ.Name()))
	}
	return schema, nil
}

// WithChildren implements the Node interface.
func (f *Filter) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(f, len(children), 1)
	}
	return NewFilter(f.Predicate, children[0]), nil
}

// Expressions implements the Expressioner interface.
func (f *Filter) Expressions() []frame.Expression {
	return []frame.Expression{f.Predicate}
}

// WithExpressions implements the Expressioner interface.
func (f *Filter) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(f, len(exprs), 1)
	}
	return NewFilter(exprs[0], f.Child), nil
}

func (f *Filter) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Filter(%s)", f.Predicate)
	_ = p.WriteChildren(f.Child.String())
	return p.String()
}
