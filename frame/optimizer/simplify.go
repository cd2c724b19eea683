package optimizer

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// simplifyExpressions folds constant subexpressions and removes operations
// that cannot change their input: double negation, casts to the type the
// operand already has, and boolean operators with a literal side. Rewrites
// preserve the output name of every expression so node schemas stay stable.
func simplifyExpressions(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error) {
	span, ctx := ctx.Span("simplify_expressions")
	defer span.Finish()

	return plan.TransformExpressionsUpWithSchema(node,
		func(schema frame.Schema, e frame.Expression) (frame.Expression, error) {
			simplified, err := simplify(ctx, schema, e)
			if err != nil {
				return nil, err
			}
			if simplified == e {
				return e, nil
			}
			if simplified.Name() != e.Name() {
				return expression.NewAlias(e.Name(), simplified), nil
			}
			return simplified, nil
		})
}

func simplify(ctx *frame.Context, schema frame.Schema, e frame.Expression) (frame.Expression, error) {
	switch e := e.(type) {
	case *expression.Not:
		if inner, ok := e.Child.(*expression.Not); ok {
			return inner.Child, nil
		}
	case *expression.Cast:
		typ, err := e.Child.Type(schema)
		if err != nil {
			return nil, err
		}
		if typ == e.TargetType() {
			return e.Child, nil
		}
	case *expression.And:
		if lit, ok := literalBool(e.Left); ok {
			if lit {
				return e.Right, nil
			}
			return expression.NewLiteral(false, frame.Boolean), nil
		}
		if lit, ok := literalBool(e.Right); ok {
			if lit {
				return e.Left, nil
			}
			return expression.NewLiteral(false, frame.Boolean), nil
		}
	case *expression.Or:
		if lit, ok := literalBool(e.Left); ok {
			if lit {
				return expression.NewLiteral(true, frame.Boolean), nil
			}
			return e.Right, nil
		}
		if lit, ok := literalBool(e.Right); ok {
			if lit {
				return expression.NewLiteral(true, frame.Boolean), nil
			}
			return e.Left, nil
		}
	}
	if foldable(e) && literalChildren(e) {
		return fold(ctx, e)
	}
	return e, nil
}

// foldable reports whether evaluating the expression over literal operands
// at plan time gives the value execution would give for every row.
func foldable(e frame.Expression) bool {
	switch e.(type) {
	case *expression.Arithmetic, *expression.Comparison, *expression.UnaryMinus,
		*expression.Not, *expression.IsNull, *expression.Cast:
		return true
	}
	return false
}

func literalChildren(e frame.Expression) bool {
	for _, c := range e.Children() {
		if _, ok := c.(*expression.Literal); !ok {
			return false
		}
	}
	return true
}

// fold evaluates a constant expression against a zero-column batch and
// replaces it with the resulting literal.
func fold(ctx *frame.Context, e frame.Expression) (frame.Expression, error) {
	s, err := e.Eval(ctx, frame.EmptyTable(nil))
	if err != nil {
		return nil, err
	}
	if s.Len() != 1 {
		return e, nil
	}
	return expression.NewLiteral(s.Value(0), s.Type()), nil
}

func literalBool(e frame.Expression) (value, ok bool) {
	lit, isLit := e.(*expression.Literal)
	if !isLit {
		return false, false
	}
	b, isBool := lit.Value().(bool)
	return b, isBool
}
