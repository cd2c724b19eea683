package plan

import "github.com/framelab/go-frame-engine/frame"

// TableFn is an opaque caller-supplied table transform.
type TableFn func(ctx *frame.Context, t *frame.Table) (*frame.Table, error)

// SchemaFn declares how an opaque transform changes the schema. A nil
// SchemaFn means the schema passes through unchanged.
type SchemaFn func(frame.Schema) (frame.Schema, error)

// MapFunction applies an opaque user function to the whole batch. Being
// opaque it defeats pushdown by default; the caller asserts safety through
// the capability flags rather than the engine inferring it. The executor
// checks the produced batch against the declared schema and fails with a
// schema error on mismatch.
type MapFunction struct {
	UnaryNode
	Fn       TableFn
	SchemaFn SchemaFn
	// PredicatePushdownSafe asserts that filtering before the function is
	// equivalent to filtering after it.
	PredicatePushdownSafe bool
	// ProjectionPushdownSafe asserts the function only needs the columns
	// its consumers need.
	ProjectionPushdownSafe bool
	// SlicePushdownSafe asserts the function is row-wise and
	// order-preserving, so slicing may move below it.
	SlicePushdownSafe bool
	// Desc names the function in plan output.
	Desc string
}

// NewMapFunction creates a new opaque map node with all pushdown disabled.
func NewMapFunction(desc string, fn TableFn, schemaFn SchemaFn, child frame.Node) *MapFunction {
	return &MapFunction{
		UnaryNode: UnaryNode{child},
		Fn:        fn,
		SchemaFn:  schemaFn,
		Desc:      desc,
	}
}

// Schema implements the Node interface.
func (m *MapFunction) Schema() (frame.Schema, error) {
	childSchema, err := m.Child.Schema()
	if err != nil {
		return nil, err
	}
	if m.SchemaFn == nil {
		return childSchema, nil
	}
	return m.SchemaFn(childSchema)
}

// WithChildren implements the Node interface.
func (m *MapFunction) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(m, len(children), 1)
	}
	nm := *m
	nm.UnaryNode = UnaryNode{children[0]}
	return &nm, nil
}

func (m *MapFunction) String() string {
	p := frame.NewTreePrinter()
	desc := m.Desc
	if desc == "" {
		desc = "opaque"
	}
	_ = p.WriteNode("MapFunction(%s)", desc)
	_ = p.WriteChildren(m.Child.String())
	return p.String()
}
