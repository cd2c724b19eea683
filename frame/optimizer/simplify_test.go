package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func simplifyFilter(t *testing.T, predicate frame.Expression) frame.Expression {
	t.Helper()
	node := plan.NewFilter(predicate, userScan(t))
	simplified, err := simplifyExpressions(frame.NewEmptyContext(), NewDefault(), node)
	require.NoError(t, err)
	return simplified.(*plan.Filter).Predicate
}

func TestSimplifyDoubleNegation(t *testing.T) {
	require := require.New(t)

	pred := simplifyFilter(t, expression.NewNot(expression.NewNot(expression.NewColumn("flag"))))
	c, ok := pred.(*expression.Column)
	require.True(ok)
	require.Equal("flag", c.Name())
}

func TestSimplifyLiteralConjunctions(t *testing.T) {
	require := require.New(t)

	gt := expression.NewGreaterThan(expression.NewColumn("age"), expression.Lit(18))

	pred := simplifyFilter(t, expression.NewAnd(gt, expression.Lit(true)))
	_, ok := pred.(*expression.Comparison)
	require.True(ok)

	// shortcuts to a literal keep the original output name via an alias
	pred = simplifyFilter(t, expression.NewAnd(gt, expression.Lit(false)))
	alias, ok := pred.(*expression.Alias)
	require.True(ok)
	require.Equal("age", alias.Name())
	lit, ok := alias.Child.(*expression.Literal)
	require.True(ok)
	require.Equal(false, lit.Value())

	pred = simplifyFilter(t, expression.NewOr(gt, expression.Lit(false)))
	_, ok = pred.(*expression.Comparison)
	require.True(ok)

	pred = simplifyFilter(t, expression.NewOr(gt, expression.Lit(true)))
	alias, ok = pred.(*expression.Alias)
	require.True(ok)
	lit, ok = alias.Child.(*expression.Literal)
	require.True(ok)
	require.Equal(true, lit.Value())
}

func TestSimplifyFoldsConstants(t *testing.T) {
	require := require.New(t)

	pred := simplifyFilter(t, expression.NewGreaterThan(
		expression.NewColumn("age"),
		expression.NewPlus(expression.Lit(10), expression.Lit(8)),
	))

	cmp, ok := pred.(*expression.Comparison)
	require.True(ok)
	lit, ok := cmp.Right.(*expression.Literal)
	require.True(ok)
	require.Equal(int64(18), lit.Value())
}

func TestSimplifyRemovesRedundantCast(t *testing.T) {
	require := require.New(t)

	pred := simplifyFilter(t, expression.NewGreaterThan(
		expression.NewCast(expression.NewColumn("age"), frame.Int64),
		expression.Lit(18),
	))

	cmp, ok := pred.(*expression.Comparison)
	require.True(ok)
	_, ok = cmp.Left.(*expression.Column)
	require.True(ok)
}

func TestSimplifyKeepsUsefulCast(t *testing.T) {
	require := require.New(t)

	pred := simplifyFilter(t, expression.NewEquals(
		expression.NewCast(expression.NewColumn("age"), frame.Utf8),
		expression.Lit("20"),
	))

	cmp, ok := pred.(*expression.Comparison)
	require.True(ok)
	_, ok = cmp.Left.(*expression.Cast)
	require.True(ok)
}

func TestSimplifyPreservesOutputName(t *testing.T) {
	require := require.New(t)
	ctx := frame.NewEmptyContext()

	// folding must not change the column name the projection produces
	node := plan.NewSelect([]frame.Expression{
		expression.NewAlias("threshold", expression.NewMult(expression.Lit(3), expression.Lit(4))),
	}, userScan(t))

	simplified, err := simplifyExpressions(ctx, NewDefault(), node)
	require.NoError(err)

	before, err := node.Schema()
	require.NoError(err)
	after, err := simplified.Schema()
	require.NoError(err)
	require.True(before.Equals(after))
}
