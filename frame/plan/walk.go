package plan

import "github.com/framelab/go-frame-engine/frame"

// Visitor visits nodes in the plan.
type Visitor interface {
	// Visit method is invoked for each node encountered by Walk. If the
	// result Visitor is not nil, Walk visits each of the children of the
	// node with that visitor.
	Visit(node frame.Node) Visitor
}

// Walk traverses the plan tree in depth-first order.
func Walk(v Visitor, node frame.Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range node.Children() {
		Walk(v, child)
	}
}

type inspector func(frame.Node) bool

func (f inspector) Visit(node frame.Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the plan in depth-first order; if f returns false for a
// node, its children are not visited.
func Inspect(node frame.Node, f func(frame.Node) bool) {
	Walk(inspector(f), node)
}

// TransformUp applies f to the plan tree bottom-up, rebuilding parents whose
// children changed. The input tree is never mutated; unmodified subtrees are
// shared structurally between input and output.
func TransformUp(node frame.Node, f func(frame.Node) (frame.Node, error)) (frame.Node, error) {
	children := node.Children()
	if len(children) > 0 {
		newChildren := make([]frame.Node, len(children))
		for i, c := range children {
			nc, err := TransformUp(c, f)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		var err error
		node, err = node.WithChildren(newChildren...)
		if err != nil {
			return nil, err
		}
	}
	return f(node)
}

// TransformExpressionsUpWithSchema applies f bottom-up to every expression
// of every Expressioner node, passing the node's input schema alongside.
func TransformExpressionsUpWithSchema(
	node frame.Node,
	f func(schema frame.Schema, e frame.Expression) (frame.Expression, error),
) (frame.Node, error) {
	return TransformUp(node, func(n frame.Node) (frame.Node, error) {
		en, ok := n.(frame.Expressioner)
		if !ok {
			return n, nil
		}
		schema, err := inputSchema(n)
		if err != nil {
			return nil, err
		}
		exprs := en.Expressions()
		newExprs := make([]frame.Expression, len(exprs))
		for i, e := range exprs {
			ne, err := expressionTransformUp(e, schema, f)
			if err != nil {
				return nil, err
			}
			newExprs[i] = ne
		}
		return en.WithExpressions(newExprs...)
	})
}

func expressionTransformUp(
	e frame.Expression,
	schema frame.Schema,
	f func(frame.Schema, frame.Expression) (frame.Expression, error),
) (frame.Expression, error) {
	children := e.Children()
	if len(children) > 0 {
		newChildren := make([]frame.Expression, len(children))
		for i, c := range children {
			nc, err := expressionTransformUp(c, schema, f)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		var err error
		e, err = e.WithChildren(newChildren...)
		if err != nil {
			return nil, err
		}
	}
	return f(schema, e)
}

// inputSchema resolves the schema expressions of a node are resolved
// against: the first child's schema, or an empty schema for leaves.
func inputSchema(n frame.Node) (frame.Schema, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, nil
	}
	return children[0].Schema()
}
