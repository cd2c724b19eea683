package plan

import (
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Melt unpivots value columns into (variable, value) row pairs, repeating
// the id columns. The value column carries the promoted type of all value
// columns.
type Melt struct {
	UnaryNode
	IDVars    []string
	ValueVars []string
	// VariableName and ValueName name the two produced columns; they
	// default to "variable" and "value".
	VariableName string
	ValueName    string
}

// NewMelt creates a new melt node. An empty ValueVars list means "every
// column not in IDVars", resolved against the child schema.
func NewMelt(idVars, valueVars []string, child frame.Node) *Melt {
	return &Melt{
		UnaryNode:    UnaryNode{child},
		IDVars:       idVars,
		ValueVars:    valueVars,
		VariableName: "variable",
		ValueName:    "value",
	}
}

// ResolvedValueVars returns the effective value columns under the child
// schema.
func (m *Melt) ResolvedValueVars(childSchema frame.Schema) []string {
	if len(m.ValueVars) > 0 {
		return m.ValueVars
	}
	ids := make(map[string]struct{}, len(m.IDVars))
	for _, name := range m.IDVars {
		ids[name] = struct{}{}
	}
	var out []string
	for _, c := range childSchema {
		if _, isID := ids[c.Name]; !isID {
			out = append(out, c.Name)
		}
	}
	return out
}

// Schema implements the Node interface: id columns, then the variable and
// value columns.
func (m *Melt) Schema() (frame.Schema, error) {
	childSchema, err := m.Child.Schema()
	if err != nil {
		return nil, err
	}

	cols := make([]*frame.Column, 0, len(m.IDVars)+2)
	for _, name := range m.IDVars {
		typ, err := childSchema.ColumnType(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, &frame.Column{Name: name, Type: typ})
	}

	valueType := frame.Null
	for _, name := range m.ResolvedValueVars(childSchema) {
		typ, err := childSchema.ColumnType(name)
		if err != nil {
			return nil, err
		}
		if valueType, err = frame.Promote(valueType, typ); err != nil {
			return nil, err
		}
	}
	cols = append(cols,
		&frame.Column{Name: m.VariableName, Type: frame.Utf8},
		&frame.Column{Name: m.ValueName, Type: valueType},
	)
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (m *Melt) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(m, len(children), 1)
	}
	nm := *m
	nm.UnaryNode = UnaryNode{children[0]}
	return &nm, nil
}

func (m *Melt) String() string {
	p := frame.NewTreePrinter()
	_ = p.WriteNode("Melt(id=[%s], value=[%s])",
		strings.Join(m.IDVars, ", "), strings.Join(m.ValueVars, ", "))
	_ = p.WriteChildren(m.Child.String())
	return p.String()
}
