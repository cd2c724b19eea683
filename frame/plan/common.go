package plan

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

// UnaryNode is a plan node with one child.
type UnaryNode struct {
	Child frame.Node
}

// Children implements the Node interface.
func (n UnaryNode) Children() []frame.Node {
	return []frame.Node{n.Child}
}

// BinaryNode is a plan node with two children.
type BinaryNode struct {
	Left  frame.Node
	Right frame.Node
}

// Children implements the Node interface.
func (n BinaryNode) Children() []frame.Node {
	return []frame.Node{n.Left, n.Right}
}

// ExpandExpressions replaces wildcard/exclude placeholders with the concrete
// column references they stand for under the given schema. The expansion
// happens at the point a placeholder meets the schema, never earlier.
func ExpandExpressions(schema frame.Schema, exprs []frame.Expression) ([]frame.Expression, error) {
	expanded := make([]frame.Expression, 0, len(exprs))
	for _, e := range exprs {
		if ex, ok := e.(frame.Expander); ok {
			concrete, err := ex.Expand(schema)
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, concrete...)
			continue
		}
		expanded = append(expanded, e)
	}
	return expanded, nil
}

// resolveOutputs resolves expressions into schema columns, checking for
// duplicate output names.
func resolveOutputs(schema frame.Schema, exprs []frame.Expression) (frame.Schema, error) {
	cols := make([]*frame.Column, len(exprs))
	for i, e := range exprs {
		typ, err := e.Type(schema)
		if err != nil {
			return nil, err
		}
		cols[i] = &frame.Column{Name: e.Name(), Type: typ}
	}
	return frame.NewSchema(cols...)
}

// columnsOf returns the concrete column names the given expressions expand
// to under a schema, deduplicated, in first-reference order.
func columnsOf(schema frame.Schema, exprs []frame.Expression) ([]string, error) {
	expanded, err := ExpandExpressions(schema, exprs)
	if err != nil {
		return nil, err
	}
	var names []string
	seen := make(map[string]struct{})
	for _, e := range expanded {
		for _, name := range expression.Columns(e) {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names, nil
}
