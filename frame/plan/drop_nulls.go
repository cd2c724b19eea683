package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// DropNulls drops rows containing a null in any of the subset columns, or
// in any column at all when the subset is nil.
type DropNulls struct {
	UnaryNode
	Subset []string
}

// NewDropNulls creates a new drop-nulls node.
func NewDropNulls(subset []string, child frame.Node) *DropNulls {
	return &DropNulls{UnaryNode{child}, subset}
}

// Schema implements the Node interface.
func (d *DropNulls) Schema() (frame.Schema, error) {
	schema, err := d.Child.Schema()
	if err != nil {
		return nil, err
	}
	for _, name := range d.Subset {
		if !schema.Contains(name) {
			return nil, frame.ErrColumnNotFound.New(name)
		}
	}
	return schema, nil
}

// WithChildren implements the Node interface.
func (d *DropNulls) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}
	return NewDropNulls(d.Subset, children[0]), nil
}

func (d *DropNulls) String() string {
	p := frame.NewTreePrinter()
	if d.Subset == nil {
		_ = p.WriteNode("DropNulls")
	} else {
		_ = p.WriteNode("DropNulls(subset=[%s])", strings.Join(d.Subset, ", "))
	}
	_ = p.WriteChildren(d.Child.String())
	return p.String()
}
