package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// IsNull evaluates to true for null cells.
type IsNull struct {
	UnaryExpression
}

// NewIsNull creates a new IsNull expression.
func NewIsNull(child frame.Expression) *IsNull {
	return &IsNull{UnaryExpression{child}}
}

// NewIsNotNull creates the negation of IsNull.
func NewIsNotNull(child frame.Expression) frame.Expression {
	return NewNot(NewIsNull(child))
}

// Name implements the Expression interface.
func (e *IsNull) Name() string { return e.Child.Name() }

// Type implements the Expression interface.
func (e *IsNull) Type(schema frame.Schema) (frame.Type, error) {
	if _, err := e.Child.Type(schema); err != nil {
		return nil, err
	}
	return frame.Boolean, nil
}

// Eval implements the Expression interface.
func (e *IsNull) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	child, err := e.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, child.Len())
	for i := range values {
		values[i] = child.IsNull(i)
	}
	return frame.NewSeries(e.Name(), frame.Boolean, values), nil
}

// WithChildren implements the Expression interface.
func (e *IsNull) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	return NewIsNull(children[0]), nil
}

func (e *IsNull) String() string { return fmt.Sprintf("%s IS NULL", e.Child) }
