package plan

import "github.com/framelab/go-frame-engine/frame"

// Union concatenates the rows of its inputs in input order. Column names
// must match in order across inputs; column types are widened to their
// promoted type.
type Union struct {
	Inputs []frame.Node
	// AllowParallel materializes inputs concurrently.
	AllowParallel bool
}

// NewUnion creates a new union node.
func NewUnion(inputs []frame.Node, allowParallel bool) (*Union, error) {
	if len(inputs) == 0 {
		return nil, frame.ErrInvalidType.New("union of zero inputs")
	}
	return &Union{Inputs: inputs, AllowParallel: allowParallel}, nil
}

// Schema implements the Node interface.
func (u *Union) Schema() (frame.Schema, error) {
	schema, err := u.Inputs[0].Schema()
	if err != nil {
		return nil, err
	}
	cols := make([]*frame.Column, len(schema))
	copy(cols, schema)
	for _, input := range u.Inputs[1:] {
		other, err := input.Schema()
		if err != nil {
			return nil, err
		}
		if len(other) != len(cols) {
			return nil, frame.ErrSchema.New("union inputs have different column counts")
		}
		for i := range cols {
			if cols[i].Name != other[i].Name {
				return nil, frame.ErrSchema.New(
					"union inputs disagree on column " + cols[i].Name)
			}
			typ, err := frame.Promote(cols[i].Type, other[i].Type)
			if err != nil {
				return nil, err
			}
			cols[i] = &frame.Column{Name: cols[i].Name, Type: typ}
		}
	}
	return frame.NewSchema(cols...)
}

// Children implements the Node interface.
func (u *Union) Children() []frame.Node { return u.Inputs }

// WithChildren implements the Node interface.
func (u *Union) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != len(u.Inputs) {
		return nil, frame.ErrInvalidChildrenNumber.New(u, len(children), len(u.Inputs))
	}
	return &Union{Inputs: children, AllowParallel: u.AllowParallel}, nil
}

func (u *Union) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Union")
	children := make([]string, len(u.Inputs))
	for i, in := range u.Inputs {
		children[i] = in.String()
	}
	_ = p.WriteChildren(children...)
	return p.String()
}
