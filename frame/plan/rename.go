package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Rename maps existing column names to new ones, leaving positions and
// types unchanged.
type Rename struct {
	UnaryNode
	Mapping map[string]string
}

// NewRename creates a new rename node.
func NewRename(mapping map[string]string, child frame.Node) *Rename {
	return &Rename{UnaryNode{child}, mapping}
}

// Inverse returns the new-name to old-name mapping, used by pushdown passes
// to translate column references across the rename.
func (r *Rename) Inverse() map[string]string {
	inv := make(map[string]string, len(r.Mapping))
	for old, new_ := range r.Mapping {
		inv[new_] = old
	}
	return inv
}

// Schema implements the Node interface.
func (r *Rename) Schema() (frame.Schema, error) {
	childSchema, err := r.Child.Schema()
	if err != nil {
		return nil, err
	}
	for old := range r.Mapping {
		if !childSchema.Contains(old) {
			return nil, frame.ErrColumnNotFound.New(old)
		}
	}
	cols := make([]*frame.Column, len(childSchema))
	for i, c := range childSchema {
		name := c.Name
		if new_, ok := r.Mapping[name]; ok {
			name = new_
		}
		cols[i] = &frame.Column{Name: name, Type: c.Type}
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (r *Rename) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(r, len(children), 1)
	}
	return NewRename(r.Mapping, children[0]), nil
}

func (r *Rename) String() string {
	pairs := make([]string, 0, len(r.Mapping))
	for old, new_ := range r.Mapping {
		pairs = append(pairs, fmt.Sprintf("%s -> %s", old, new_))
	}
	sort.Strings(pairs)
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Rename(%s)", strings.Join(pairs, ", "))
	_ = p.WriteChildren(r.Child.String())
	return p.String()
}
