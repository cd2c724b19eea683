package plan

import (
	"fmt"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// SortField is one key of a sort: the expression to order by, the direction
// and where nulls go.
type SortField struct {
	Column     frame.Expression
	Descending bool
	NullsLast  bool
}

func (f SortField) String() string {
	dir := "asc"
	if f.Descending {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", f.Column, dir)
}

// Sort orders the rows of its child by the given fields. The sort is stable.
type Sort struct {
	UnaryNode
	Fields []SortField
}

// NewSort creates a new sort node.
func NewSort(fields []SortField, child frame.Node) *Sort {
	return &Sort{UnaryNode{child}, fields}
}

// Schema implements the Node interface.
func (s *Sort) Schema() (frame.Schema, error) {
	schema, err := s.Child.Schema()
	if err != nil {
		return nil, err
	}
	for _, f := range s.Fields {
		if _, err := f.Column.Type(schema); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// WithChildren implements the Node interface.
func (s *Sort) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(children), 1)
	}
	return NewSort(s.Fields, children[0]), nil
}

// Expressions implements the Expressioner interface.
func (s *Sort) Expressions() []frame.Expression {
	exprs := make([]frame.Expression, len(s.Fields))
	for i, f := range s.Fields {
		exprs[i] = f.Column
	}
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (s *Sort) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(s.Fields) {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(exprs), len(s.Fields))
	}
	fields := make([]SortField, len(s.Fields))
	copy(fields, s.Fields)
	for i := range fields {
		fields[i].Column = exprs[i]
	}
	return NewSort(fields, s.Child), nil
}

func (s *Sort) String() string {
	p := frame.NewTreePrinter()
	fields := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = f.String()
	}
	_ = p.WriteNode("Sort(%s)", strings.Join(fields, ", "))
	_ = p.WriteChildren(s.Child.String())
	return p.String()
}
