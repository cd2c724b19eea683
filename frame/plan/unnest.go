package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Unnest replaces struct columns with one column per struct field, keeping
// the field order of the struct type.
type Unnest struct {
	UnaryNode
	Columns []string
}

// NewUnnest creates a new unnest node.
func NewUnnest(columns []string, child frame.Node) *Unnest {
	return &Unnest{UnaryNode{child}, columns}
}

// Schema implements the Node interface.
func (u *Unnest) Schema() (frame.Schema, error) {
	childSchema, err := u.Child.Schema()
	if err != nil {
		return nil, err
	}
	unnested := make(map[string][]*frame.Column, len(u.Columns))
	for _, name := range u.Columns {
		typ, err := childSchema.ColumnType(name)
		if err != nil {
			return nil, err
		}
		fields, ok := frame.StructFields(typ)
		if !ok {
			return nil, frame.ErrInvalidType.New(
				"unnest column " + name + " is not a struct column")
		}
		unnested[name] = fields
	}

	var cols []*frame.Column
	for _, c := range childSchema {
		fields, ok := unnested[c.Name]
		if !ok {
			cols = append(cols, c)
			continue
		}
		cols = append(cols, fields...)
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (u *Unnest) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(u, len(children), 1)
	}
	return NewUnnest(u.Columns, children[0]), nil
}

func (u *Unnest) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Unnest(%s)", strings.Join(u.Columns, ", "))
	_ = p.WriteChildren(u.Child.String())
	return p.String()
}
