package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/spf13/cast"
)

// Arithmetic expressions: +, -, *, / and %. Operands are widened following
// the numeric promotion lattice; division always produces float64. Division
// and modulo by zero yield null.
type Arithmetic struct {
	BinaryExpression
	Op string
}

// NewArithmetic creates an arithmetic expression with the given operator.
func NewArithmetic(op string, left, right frame.Expression) *Arithmetic {
	return &Arithmetic{BinaryExpression{left, right}, op}
}

// NewPlus creates an addition expression.
func NewPlus(left, right frame.Expression) *Arithmetic { return NewArithmetic("+", left, right) }

// NewMinus creates a subtraction expression.
func NewMinus(left, right frame.Expression) *Arithmetic { return NewArithmetic("-", left, right) }

// NewMult creates a multiplication expression.
func NewMult(left, right frame.Expression) *Arithmetic { return NewArithmetic("*", left, right) }

// NewDiv creates a division expression.
func NewDiv(left, right frame.Expression) *Arithmetic { return NewArithmetic("/", left, right) }

// NewMod creates a modulo expression.
func NewMod(left, right frame.Expression) *Arithmetic { return NewArithmetic("%", left, right) }

// Name implements the Expression interface. Arithmetic keeps the name of its
// left operand, the way a column keeps its name through `a + 1`.
func (a *Arithmetic) Name() string { return a.Left.Name() }

// Type implements the Expression interface.
func (a *Arithmetic) Type(schema frame.Schema) (frame.Type, error) {
	lt, err := a.Left.Type(schema)
	if err != nil {
		return nil, err
	}
	rt, err := a.Right.Type(schema)
	if err != nil {
		return nil, err
	}
	typ, err := frame.Promote(lt, rt)
	if err != nil {
		return nil, err
	}
	if typ != frame.Null && !frame.IsNumeric(typ) {
		return nil, frame.ErrInvalidType.New(fmt.Sprintf(
			"arithmetic %s is not defined on %s", a.Op, typ.Name()))
	}
	switch a.Op {
	case "/":
		return frame.Float64, nil
	case "%":
		if typ != frame.Null && !frame.IsInteger(typ) {
			return nil, frame.ErrInvalidType.New(fmt.Sprintf(
				"modulo is not defined on %s", typ.Name()))
		}
		return typ, nil
	}
	return typ, nil
}

// Eval implements the Expression interface.
func (a *Arithmetic) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	left, right, typ, err := evalOperands(ctx, a.Left, a.Right, t)
	if err != nil {
		return nil, err
	}
	outType, err := a.Type(t.Schema())
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, left.Len())
	for i := range values {
		if left.IsNull(i) || right.IsNull(i) {
			continue
		}
		v, err := a.compute(typ, left.Value(i), right.Value(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return frame.NewSeries(a.Name(), outType, values), nil
}

func (a *Arithmetic) compute(typ frame.Type, lv, rv interface{}) (interface{}, error) {
	if a.Op == "/" || frame.IsFloat(typ) {
		lf, err := cast.ToFloat64E(lv)
		if err != nil {
			return nil, frame.ErrCompute.New(err.Error())
		}
		rf, err := cast.ToFloat64E(rv)
		if err != nil {
			return nil, frame.ErrCompute.New(err.Error())
		}
		switch a.Op {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			if rf == 0 {
				return nil, nil
			}
			return lf / rf, nil
		}
		return nil, frame.ErrCompute.New(fmt.Sprintf("unknown operator %q", a.Op))
	}

	li, err := cast.ToInt64E(lv)
	if err != nil {
		return nil, frame.ErrCompute.New(err.Error())
	}
	ri, err := cast.ToInt64E(rv)
	if err != nil {
		return nil, frame.ErrCompute.New(err.Error())
	}
	var out int64
	switch a.Op {
	case "+":
		out = li + ri
	case "-":
		out = li - ri
	case "*":
		out = li * ri
	case "%":
		if ri == 0 {
			return nil, nil
		}
		out = li % ri
	default:
		return nil, frame.ErrCompute.New(fmt.Sprintf("unknown operator %q", a.Op))
	}
	if typ == frame.Int32 {
		return int32(out), nil
	}
	return out, nil
}

// WithChildren implements the Expression interface.
func (a *Arithmetic) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(a, len(children), 2)
	}
	return NewArithmetic(a.Op, children[0], children[1]), nil
}

func (a *Arithmetic) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Left, a.Op, a.Right)
}

// UnaryMinus negates a numeric expression.
type UnaryMinus struct {
	UnaryExpression
}

// NewUnaryMinus creates a new negation expression.
func NewUnaryMinus(child frame.Expression) *UnaryMinus {
	return &UnaryMinus{UnaryExpression{child}}
}

// Name implements the Expression interface.
func (e *UnaryMinus) Name() string { return e.Child.Name() }

// Type implements the Expression interface.
func (e *UnaryMinus) Type(schema frame.Schema) (frame.Type, error) {
	typ, err := e.Child.Type(schema)
	if err != nil {
		return nil, err
	}
	if typ != frame.Null && !frame.IsNumeric(typ) {
		return nil, frame.ErrInvalidType.New(fmt.Sprintf(
			"negation is not defined on %s", typ.Name()))
	}
	return typ, nil
}

// Eval implements the Expression interface.
func (e *UnaryMinus) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	child, err := e.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, child.Len())
	for i := range values {
		if child.IsNull(i) {
			continue
		}
		switch v := child.Value(i).(type) {
		case int32:
			values[i] = -v
		case int64:
			values[i] = -v
		case float64:
			values[i] = -v
		default:
			return nil, frame.ErrCompute.New(fmt.Sprintf("cannot negate %T", v))
		}
	}
	return frame.NewSeries(e.Name(), child.Type(), values), nil
}

// WithChildren implements the Expression interface.
func (e *UnaryMinus) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	return NewUnaryMinus(children[0]), nil
}

func (e *UnaryMinus) String() string { return fmt.Sprintf("(-%s)", e.Child) }

// evalOperands evaluates both sides of a binary expression, broadcasts them
// to a common length and converts the cells to the promoted type.
func evalOperands(
	ctx *frame.Context,
	le, re frame.Expression,
	t *frame.Table,
) (*frame.Series, *frame.Series, frame.Type, error) {
	left, err := le.Eval(ctx, t)
	if err != nil {
		return nil, nil, nil, err
	}
	right, err := re.Eval(ctx, t)
	if err != nil {
		return nil, nil, nil, err
	}

	n := left.Len()
	if right.Len() > n {
		n = right.Len()
	}
	if left, err = broadcast(left, n); err != nil {
		return nil, nil, nil, err
	}
	if right, err = broadcast(right, n); err != nil {
		return nil, nil, nil, err
	}

	typ, err := frame.Promote(left.Type(), right.Type())
	if err != nil {
		return nil, nil, nil, err
	}
	return left, right, typ, nil
}
