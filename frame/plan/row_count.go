package plan

import "github.com/framelab/go-frame-engine/frame"

// WithRowCount prepends a column numbering the rows from Offset.
type WithRowCount struct {
	UnaryNode
	ColName string
	Offset  int64
}

// NewWithRowCount creates a new row count node.
func NewWithRowCount(name string, offset int64, child frame.Node) *WithRowCount {
	if name == "" {
		name = "row_nr"
	}
	return &WithRowCount{UnaryNode{child}, name, offset}
}

// Schema implements the Node interface.
func (w *WithRowCount) Schema() (frame.Schema, error) {
	childSchema, err := w.Child.Schema()
	if err != nil {
		return nil, err
	}
	if childSchema.Contains(w.ColName) {
		return nil, frame.ErrDuplicateColumn.New(w.ColName)
	}
	cols := make([]*frame.Column, 0, len(childSchema)+1)
	cols = append(cols, &frame.Column{Name: w.ColName, Type: frame.Int64})
	cols = append(cols, childSchema...)
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (w *WithRowCount) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(children), 1)
	}
	return NewWithRowCount(w.ColName, w.Offset, children[0]), nil
}

func (w *WithRowCount) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("WithRowCount(%s, offset=%d)", w.ColName, w.Offset)
	_ = p.WriteChildren(w.Child.String())
	return p.String()
}
