package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// KeepPolicy selects which of several equal rows survives a Distinct.
type KeepPolicy byte

const (
	// KeepFirst keeps the first occurrence.
	KeepFirst KeepPolicy = iota
	// KeepLast keeps the last occurrence.
	KeepLast
	// KeepNone drops every row that has a duplicate.
	KeepNone
)

func (k KeepPolicy) String() string {
	switch k {
	case KeepLast:
		return "last"
	case KeepNone:
		return "none"
	default:
		return "first"
	}
}

// Distinct drops duplicate rows, comparing the subset columns (or every
// column when the subset is nil). Kept rows come out in input order.
type Distinct struct {
	UnaryNode
	// Subset, if non-nil, is the set of columns rows are compared on.
	Subset []string
	Keep   KeepPolicy
	// MaintainOrder guarantees first-occurrence output order, forcing
	// order-preserving execution.
	MaintainOrder bool
}

// NewDistinct creates a new distinct node.
func NewDistinct(subset []string, keep KeepPolicy, maintainOrder bool, child frame.Node) *Distinct {
	return &Distinct{UnaryNode{child}, subset, keep, maintainOrder}
}

// Schema implements the Node interface.
func (d *Distinct) Schema() (frame.Schema, error) {
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
func (d *Distinct) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}
	return NewDistinct(d.Subset, d.Keep, d.MaintainOrder, children[0]), nil
}

func (d *Distinct) String() string {
	p := frame.NewTreePrinter()
	if d.Subset == nil {
		_ = p.WriteNode("Distinct(keep=%s)", d.Keep)
	} else {
		_ = p.WriteNode("Distinct(subset=[%s], keep=%s)", strings.Join(d.Subset, ", "), d.Keep)
	}
	_ = p.WriteChildren(d.Child.String())
	return p.String()
}
