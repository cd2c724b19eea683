package optimizer

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// coerceTypes makes implicit operand widening explicit: wherever a binary
// expression mixes types, the narrower side is wrapped in a cast to the
// promoted type. Division operands are cast to float64 since division always
// produces float64. After this rule every binary expression sees operands of
// one type, so later folding and execution need no per-cell conversion logic.
func coerceTypes(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error) {
	span, _ := ctx.Span("coerce_types")
	defer span.Finish()

	return plan.TransformExpressionsUpWithSchema(node,
		func(schema frame.Schema, e frame.Expression) (frame.Expression, error) {
			switch e := e.(type) {
			case *expression.Arithmetic:
				target, err := arithmeticTarget(schema, e)
				if err != nil {
					return nil, err
				}
				return coerceOperands(schema, e, target)
			case *expression.Comparison:
				lt, err := e.Left.Type(schema)
				if err != nil {
					return nil, err
				}
				rt, err := e.Right.Type(schema)
				if err != nil {
					return nil, err
				}
				target, err := frame.Promote(lt, rt)
				if err != nil {
					return nil, err
				}
				return coerceOperands(schema, e, target)
			default:
				return e, nil
			}
		})
}

func arithmeticTarget(schema frame.Schema, a *expression.Arithmetic) (frame.Type, error) {
	if a.Op == "/" {
		return frame.Float64, nil
	}
	lt, err := a.Left.Type(schema)
	if err != nil {
		return nil, err
	}
	rt, err := a.Right.Type(schema)
	if err != nil {
		return nil, err
	}
	return frame.Promote(lt, rt)
}

// coerceOperands wraps the operands whose type differs from target in a
// cast. Null-typed operands stay uncast; a cell-less null column carries no
// values to convert.
func coerceOperands(schema frame.Schema, e frame.Expression, target frame.Type) (frame.Expression, error) {
	if target == frame.Null {
		return e, nil
	}
	children := e.Children()
	coerced := make([]frame.Expression, len(children))
	changed := false
	for i, c := range children {
		typ, err := c.Type(schema)
		if err != nil {
			return nil, err
		}
		if typ == target || typ == frame.Null {
			coerced[i] = c
			continue
		}
		coerced[i] = expression.NewCast(c, target)
		changed = true
	}
	if !changed {
		return e, nil
	}
	return e.WithChildren(coerced...)
}
