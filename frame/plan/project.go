package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Select materializes exactly the given expression outputs, in order.
// Wildcard and exclude placeholders expand against the child schema at
// resolution time.
type Select struct {
	UnaryNode
	Exprs []frame.Expression
}

// NewSelect creates a new projection node.
func NewSelect(exprs []frame.Expression, child frame.Node) *Select {
	return &Select{UnaryNode{child}, exprs}
}

// Schema implements the Node interface.
func (s *Select) Schema() (frame.Schema, error) {
	childSchema, err := s.Child.Schema()
	if err != nil {
		return nil, err
	}
	expanded, err := ExpandExpressions(childSchema, s.Exprs)
	if err != nil {
		return nil, err
	}
	return resolveOutputs(childSchema, expanded)
}

// WithChildren implements the Node interface.
func (s *Select) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(children), 1)
	}
	return NewSelect(s.Exprs, children[0]), nil
}

// Expressions implements the Expressioner interface.
func (s *Select) Expressions() []frame.Expression { return s.Exprs }

// WithExpressions implements the Expressioner interface.
func (s *Select) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(s.Exprs) {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(exprs), len(s.Exprs))
	}
	return NewSelect(exprs, s.Child), nil
}

func (s *Select) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Select(%s)", exprsString(s.Exprs))
	_ = p.WriteChildren(s.Child.String())
	return p.String()
}

// WithColumns keeps every input column and adds the given expression
// outputs, replacing input columns of the same name in place.
type WithColumns struct {
	UnaryNode
	Exprs []frame.Expression
}

// NewWithColumns creates a new with-columns node.
func NewWithColumns(exprs []frame.Expression, child frame.Node) *WithColumns {
	return &WithColumns{UnaryNode{child}, exprs}
}

// Schema implements the Node interface.
func (w *WithColumns) Schema() (frame.Schema, error) {
	childSchema, err := w.Child.Schema()
	if err != nil {
		return nil, err
	}
	expanded, err := ExpandExpressions(childSchema, w.Exprs)
	if err != nil {
		return nil, err
	}

	cols := make([]*frame.Column, len(childSchema))
	copy(cols, childSchema)
	seen := make(map[string]struct{})
	for _, e := range expanded {
		typ, err := e.Type(childSchema)
		if err != nil {
			return nil, err
		}
		name := e.Name()
		if _, dup := seen[name]; dup {
			return nil, frame.ErrDuplicateColumn.New(name)
		}
		seen[name] = struct{}{}
		replaced := false
		for i, c := range cols {
			if c.Name == name {
				cols[i] = &frame.Column{Name: name, Type: typ}
				replaced = true
				break
			}
		}
		if !replaced {
			cols = append(cols, &frame.Column{Name: name, Type: typ})
		}
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (w *WithColumns) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(children), 1)
	}
	return NewWithColumns(w.Exprs, children[0]), nil
}

// Expressions implements the Expressioner interface.
func (w *WithColumns) Expressions() []frame.Expression { return w.Exprs }

// WithExpressions implements the Expressioner interface.
func (w *WithColumns) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(w.Exprs) {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(exprs), len(w.Exprs))
	}
	return NewWithColumns(exprs, w.Child), nil
}

func (w *WithColumns) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("WithColumns(%s)", exprsString(w.Exprs))
	_ = p.WriteChildren(w.Child.String())
	return p.String()
}

func exprsString(exprs []frame.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
