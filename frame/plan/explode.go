package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Explode expands list cells of the given columns into one row per element,
// repeating the other columns. Multiple exploded columns must have equal
// list lengths per row. An empty or null list produces one row with a null.
type Explode struct {
	UnaryNode
	Columns []string
}

// NewExplode creates a new explode node.
func NewExplode(columns []string, child frame.Node) *Explode {
	return &Explode{UnaryNode{child}, columns}
}

// Schema implements the Node interface: exploded columns lose one list
// level, the rest stay unchanged.
func (e *Explode) Schema() (frame.Schema, error) {
	childSchema, err := e.Child.Schema()
	if err != nil {
		return nil, err
	}
	exploded := make(map[string]struct{}, len(e.Columns))
	for _, name := range e.Columns {
		typ, err := childSchema.ColumnType(name)
		if err != nil {
			return nil, err
		}
		if !frame.IsList(typ) {
			return nil, frame.ErrInvalidType.New(
				"explode column " + name + " is not a list column")
		}
		exploded[name] = struct{}{}
	}

	cols := make([]*frame.Column, len(childSchema))
	for i, c := range childSchema {
		if _, ok := exploded[c.Name]; ok {
			inner, _ := frame.ListInner(c.Type)
			cols[i] = &frame.Column{Name: c.Name, Type: inner}
		} else {
			cols[i] = c
		}
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (e *Explode) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	return NewExplode(e.Columns, children[0]), nil
}

func (e *Explode) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Explode(%s)", strings.Join(e.Columns, ", "))
	_ = p.WriteChildren(e.Child.String())
	return p.String()
}
