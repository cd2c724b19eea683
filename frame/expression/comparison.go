package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// Comparison expressions: ==, !=, <, <=, > and >=. Operands are widened
// following the promotion lattice; a comparison against null is null, not
// false.
type Comparison struct {
	BinaryExpression
	Op string
}

// NewComparison creates a comparison expression with the given operator.
func NewComparison(op string, left, right frame.Expression) *Comparison {
	return &Comparison{BinaryExpression{left, right}, op}
}

// NewEquals creates an equality comparison.
func NewEquals(left, right frame.Expression) *Comparison { return NewComparison("==", left, right) }

// NewNotEquals creates an inequality comparison.
func NewNotEquals(left, right frame.Expression) *Comparison {
	return NewComparison("!=", left, right)
}

// NewLessThan creates a < comparison.
func NewLessThan(left, right frame.Expression) *Comparison { return NewComparison("<", left, right) }

// NewLessThanOrEqual creates a <= comparison.
func NewLessThanOrEqual(left, right frame.Expression) *Comparison {
	return NewComparison("<=", left, right)
}

// NewGreaterThan creates a > comparison.
func NewGreaterThan(left, right frame.Expression) *Comparison {
	return NewComparison(">", left, right)
}

// NewGreaterThanOrEqual creates a >= comparison.
func NewGreaterThanOrEqual(left, right frame.Expression) *Comparison {
	return NewComparison(">=", left, right)
}

// Name implements the Expression interface.
func (c *Comparison) Name() string { return c.Left.Name() }

// Type implements the Expression interface.
func (c *Comparison) Type(schema frame.Schema) (frame.Type, error) {
	lt, err := c.Left.Type(schema)
	if err != nil {
		return nil, err
	}
	rt, err := c.Right.Type(schema)
	if err != nil {
		return nil, err
	}
	if _, err := frame.Promote(lt, rt); err != nil {
		return nil, err
	}
	return frame.Boolean, nil
}

// Eval implements the Expression interface.
func (c *Comparison) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	left, right, typ, err := evalOperands(ctx, c.Left, c.Right, t)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, left.Len())
	for i := range values {
		if left.IsNull(i) || right.IsNull(i) {
			continue
		}
		cmp, err := typ.Compare(left.Value(i), right.Value(i))
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case "==":
			values[i] = cmp == 0
		case "!=":
			values[i] = cmp != 0
		case "<":
			values[i] = cmp < 0
		case "<=":
			values[i] = cmp <= 0
		case ">":
			values[i] = cmp > 0
		case ">=":
			values[i] = cmp >= 0
		default:
			return nil, frame.ErrCompute.New(fmt.Sprintf("unknown comparison %q", c.Op))
		}
	}
	return frame.NewSeries(c.Name(), frame.Boolean, values), nil
}

// WithChildren implements the Expression interface.
func (c *Comparison) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(c, len(children), 2)
	}
	return NewComparison(c.Op, children[0], children[1]), nil
}

func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}
