package plan

import "github.com/framelab/go-frame-engine/frame"

// Slice keeps the [Offset, Offset+Len) window of its child's rows. A
// negative Offset counts from the end; a negative Len means "until the
// end". Out-of-range windows clamp instead of erroring.
type Slice struct {
	UnaryNode
	Offset int64
	Len    int64
}

// NewSlice creates a new slice node.
func NewSlice(offset, length int64, child frame.Node) *Slice {
	return &Slice{UnaryNode{child}, offset, length}
}

// NewLimit creates a slice keeping the first n rows.
func NewLimit(n int64, child frame.Node) *Slice {
	return NewSlice(0, n, child)
}

// Schema implements the Node interface.
func (s *Slice) Schema() (frame.Schema, error) {
	return s.Child.Schema()
}

// WithChildren implements the Node interface.
func (s *Slice) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(s, len(children), 1)
	}
	return NewSlice(s.Offset, s.Len, children[0]), nil
}

func (s *Slice) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Slice(offset=%d, len=%d)", s.Offset, s.Len)
	_ = p.WriteChildren(s.Child.String())
	return p.String()
}
