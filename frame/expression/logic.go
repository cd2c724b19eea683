package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// And is a boolean conjunction with Kleene null semantics: false wins over
// null, null wins over true.
type And struct {
	BinaryExpression
}

// NewAnd creates a new And expression.
func NewAnd(left, right frame.Expression) *And {
	return &And{BinaryExpression{left, right}}
}

// JoinAnd folds the given expressions into a right-deep chain of Ands.
// It returns nil for no expressions and the expression itself for one.
func JoinAnd(exprs ...frame.Expression) frame.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return NewAnd(exprs[0], JoinAnd(exprs[1:]...))
	}
}

// SplitAnd returns the conjuncts of a chain of Ands.
func SplitAnd(e frame.Expression) []frame.Expression {
	if and, ok := e.(*And); ok {
		return append(SplitAnd(and.Left), SplitAnd(and.Right)...)
	}
	return []frame.Expression{e}
}

// Name implements the Expression interface.
func (a *And) Name() string { return a.Left.Name() }

// Type implements the Expression interface.
func (a *And) Type(schema frame.Schema) (frame.Type, error) {
	return booleanOperandTypes(schema, a.Left, a.Right)
}

// Eval implements the Expression interface.
func (a *And) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	left, right, _, err := evalOperands(ctx, a.Left, a.Right, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, left.Len())
	for i := range values {
		lv, lnull := boolCell(left, i)
		rv, rnull := boolCell(right, i)
		switch {
		case !lnull && !lv, !rnull && !rv:
			values[i] = false
		case lnull || rnull:
			// stays null
		default:
			values[i] = true
		}
	}
	return frame.NewSeries(a.Name(), frame.Boolean, values), nil
}

// WithChildren implements the Expression interface.
func (a *And) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(a, len(children), 2)
	}
	return NewAnd(children[0], children[1]), nil
}

func (a *And) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }

// Or is a boolean disjunction with Kleene null semantics.
type Or struct {
	BinaryExpression
}

// NewOr creates a new Or expression.
func NewOr(left, right frame.Expression) *Or {
	return &Or{BinaryExpression{left, right}}
}

// Name implements the Expression interface.
func (o *Or) Name() string { return o.Left.Name() }

// Type implements the Expression interface.
func (o *Or) Type(schema frame.Schema) (frame.Type, error) {
	return booleanOperandTypes(schema, o.Left, o.Right)
}

// Eval implements the Expression interface.
func (o *Or) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	left, right, _, err := evalOperands(ctx, o.Left, o.Right, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, left.Len())
	for i := range values {
		lv, lnull := boolCell(left, i)
		rv, rnull := boolCell(right, i)
		switch {
		case !lnull && lv, !rnull && rv:
			values[i] = true
		case lnull || rnull:
			// stays null
		default:
			values[i] = false
		}
	}
	return frame.NewSeries(o.Name(), frame.Boolean, values), nil
}

// WithChildren implements the Expression interface.
func (o *Or) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(o, len(children), 2)
	}
	return NewOr(children[0], children[1]), nil
}

func (o *Or) String() string { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }

// Not negates a boolean expression; null stays null.
type Not struct {
	UnaryExpression
}

// NewNot creates a new Not expression.
func NewNot(child frame.Expression) *Not {
	return &Not{UnaryExpression{child}}
}

// Name implements the Expression interface.
func (n *Not) Name() string { return n.Child.Name() }

// Type implements the Expression interface.
func (n *Not) Type(schema frame.Schema) (frame.Type, error) {
	typ, err := n.Child.Type(schema)
	if err != nil {
		return nil, err
	}
	if typ != frame.Boolean && typ != frame.Null {
		return nil, frame.ErrInvalidType.New(fmt.Sprintf(
			"NOT is not defined on %s", typ.Name()))
	}
	return frame.Boolean, nil
}

// Eval implements the Expression interface.
func (n *Not) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	child, err := n.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, child.Len())
	for i := range values {
		v, null := boolCell(child, i)
		if null {
			continue
		}
		values[i] = !v
	}
	return frame.NewSeries(n.Name(), frame.Boolean, values), nil
}

// WithChildren implements the Expression interface.
func (n *Not) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(n, len(children), 1)
	}
	return NewNot(children[0]), nil
}

func (n *Not) String() string { return fmt.Sprintf("(NOT %s)", n.Child) }

func booleanOperandTypes(schema frame.Schema, left, right frame.Expression) (frame.Type, error) {
	for _, e := range []frame.Expression{left, right} {
		typ, err := e.Type(schema)
		if err != nil {
			return nil, err
		}
		if typ != frame.Boolean && typ != frame.Null {
			return nil, frame.ErrInvalidType.New(fmt.Sprintf(
				"boolean operator is not defined on %s", typ.Name()))
		}
	}
	return frame.Boolean, nil
}

func boolCell(s *frame.Series, i int) (value, null bool) {
	if s.IsNull(i) {
		return false, true
	}
	v, ok := s.Value(i).(bool)
	if !ok {
		return false, true
	}
	return v, false
}
