package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// Cast converts the cells of its operand to a target type. Unconvertible
// cells abort the query with a compute error; nulls stay null.
type Cast struct {
	UnaryExpression
	typ frame.Type
}

// NewCast creates a new Cast to the target type.
func NewCast(child frame.Expression, typ frame.Type) *Cast {
	return &Cast{UnaryExpression{child}, typ}
}

// TargetType returns the type the operand is cast to.
func (c *Cast) TargetType() frame.Type { return c.typ }

// Name implements the Expression interface.
func (c *Cast) Name() string { return c.Child.Name() }

// Type implements the Expression interface.
func (c *Cast) Type(schema frame.Schema) (frame.Type, error) {
	if _, err := c.Child.Type(schema); err != nil {
		return nil, err
	}
	return c.typ, nil
}

// Eval implements the Expression interface.
func (c *Cast) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	child, err := c.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, child.Len())
	for i := range values {
		v, err := c.typ.Convert(child.Value(i))
		if err != nil {
			return nil, frame.ErrCompute.New(fmt.Sprintf(
				"cannot cast %v to %s", child.Value(i), c.typ.Name()))
		}
		values[i] = v
	}
	return frame.NewSeries(c.Name(), c.typ, values), nil
}

// WithChildren implements the Expression interface.
func (c *Cast) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(c, len(children), 1)
	}
	return NewCast(children[0], c.typ), nil
}

func (c *Cast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", c.Child, c.typ.Name())
}
