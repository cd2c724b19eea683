package plan

import "github.com/framelab/go-frame-engine/frame"

// WithContext makes the columns of extra plans visible to expressions over
// the child. Context columns whose names collide with the child's are
// shadowed by the child's.
type WithContext struct {
	Child    frame.Node
	Contexts []frame.Node
}

// NewWithContext creates a new context node.
func NewWithContext(child frame.Node, contexts ...frame.Node) *WithContext {
	return &WithContext{Child: child, Contexts: contexts}
}

// Schema implements the Node interface: the child's columns followed by the
// non-colliding context columns in context order.
func (w *WithContext) Schema() (frame.Schema, error) {
	childSchema, err := w.Child.Schema()
	if err != nil {
		return nil, err
	}
	cols := make([]*frame.Column, 0, len(childSchema))
	cols = append(cols, childSchema...)
	seen := make(map[string]struct{}, len(childSchema))
	for _, c := range childSchema {
		seen[c.Name] = struct{}{}
	}
	for _, ctx := range w.Contexts {
		ctxSchema, err := ctx.Schema()
		if err != nil {
			return nil, err
		}
		for _, c := range ctxSchema {
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			cols = append(cols, c)
		}
	}
	return frame.NewSchema(cols...)
}

// Children implements the Node interface. The child comes first, then the
// context plans.
func (w *WithContext) Children() []frame.Node {
	children := make([]frame.Node, 0, len(w.Contexts)+1)
	children = append(children, w.Child)
	children = append(children, w.Contexts...)
	return children
}

// WithChildren implements the Node interface.
func (w *WithContext) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != len(w.Contexts)+1 {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(children), len(w.Contexts)+1)
	}
	return NewWithContext(children[0], children[1:]...), nil
}

func (w *WithContext) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("WithContext")
	children := make([]string, 0, len(w.Contexts)+1)
	children = append(children, w.Child.String())
	for _, ctx := range w.Contexts {
		children = append(children, ctx.String())
	}
	_ = p.WriteChildren(children...)
	return p.String()
}
