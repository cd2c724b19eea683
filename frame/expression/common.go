package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// UnaryExpression is an expression with one child.
type UnaryExpression struct {
	Child frame.Expression
}

// Children implements the Expression interface.
func (e UnaryExpression) Children() []frame.Expression {
	return []frame.Expression{e.Child}
}

// BinaryExpression is an expression with two children.
type BinaryExpression struct {
	Left  frame.Expression
	Right frame.Expression
}

// Children implements the Expression interface.
func (e BinaryExpression) Children() []frame.Expression {
	return []frame.Expression{e.Left, e.Right}
}

// TransformUp applies f to the expression tree bottom-up, rebuilding parents
// whose children changed. The input tree is never mutated.
func TransformUp(
	e frame.Expression,
	f func(frame.Expression) (frame.Expression, error),
) (frame.Expression, error) {
	children := e.Children()
	if len(children) > 0 {
		newChildren := make([]frame.Expression, len(children))
		for i, c := range children {
			nc, err := TransformUp(c, f)
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
	return f(e)
}

// Inspect walks the expression tree in pre-order. If f returns false for a
// node, its children are not visited.
func Inspect(e frame.Expression, f func(frame.Expression) bool) {
	if !f(e) {
		return
	}
	for _, c := range e.Children() {
		Inspect(c, f)
	}
}

// Columns returns the names of all columns referenced anywhere in the
// expression tree, deduplicated, in first-reference order.
func Columns(e frame.Expression) []string {
	var names []string
	seen := make(map[string]struct{})
	Inspect(e, func(e frame.Expression) bool {
		if c, ok := e.(*Column); ok {
			if _, dup := seen[c.Name()]; !dup {
				seen[c.Name()] = struct{}{}
				names = append(names, c.Name())
			}
		}
		return true
	})
	return names
}

// HasAggregation reports whether the expression tree contains an
// aggregation.
func HasAggregation(e frame.Expression) bool {
	var found bool
	Inspect(e, func(e frame.Expression) bool {
		if _, ok := e.(frame.Aggregation); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// broadcast aligns a series to n rows: length-1 series repeat, length-n pass
// through, anything else is a shape error.
func broadcast(s *frame.Series, n int) (*frame.Series, error) {
	if s.Len() == n {
		return s, nil
	}
	if s.Len() == 1 {
		return s.Repeat(n), nil
	}
	return nil, frame.ErrShape.New(fmt.Sprintf(
		"series %q has %d rows, expected %d", s.Name(), s.Len(), n))
}
