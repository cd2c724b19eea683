package frameengine

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// Col references a column by name.
func Col(name string) *expression.Column { return expression.NewColumn(name) }

// Lit is a constant value, with the type inferred from the Go value.
func Lit(value interface{}) *expression.Literal { return expression.Lit(value) }

// All stands for every column of the current schema.
func All() *expression.Wildcard { return expression.NewWildcard() }

// Exclude stands for every column but the named ones.
func Exclude(names ...string) *expression.Exclude { return expression.NewExclude(names...) }

// As renames the output column of an expression.
func As(name string, e frame.Expression) *expression.Alias {
	return expression.NewAlias(name, e)
}

// Asc sorts ascending by the expression, nulls first.
func Asc(e frame.Expression) plan.SortField {
	return plan.SortField{Column: e}
}

// Desc sorts descending by the expression, nulls first.
func Desc(e frame.Expression) plan.SortField {
	return plan.SortField{Column: e, Descending: true}
}

// Sum sums the non-null values.
func Sum(e frame.Expression) *expression.Aggregate { return expression.NewSum(e) }

// Min takes the minimum non-null value.
func Min(e frame.Expression) *expression.Aggregate { return expression.NewMin(e) }

// Max takes the maximum non-null value.
func Max(e frame.Expression) *expression.Aggregate { return expression.NewMax(e) }

// Mean averages the non-null values.
func Mean(e frame.Expression) *expression.Aggregate { return expression.NewMean(e) }

// Count counts rows, nulls included.
func Count(e frame.Expression) *expression.Aggregate { return expression.NewCount(e) }

// First takes the first value of the group.
func First(e frame.Expression) *expression.Aggregate { return expression.NewFirst(e) }

// Last takes the last value of the group.
func Last(e frame.Expression) *expression.Aggregate { return expression.NewLast(e) }

// NUnique counts the distinct non-null values.
func NUnique(e frame.Expression) *expression.Aggregate { return expression.NewNUnique(e) }

// Std is the sample standard deviation of the non-null values.
func Std(e frame.Expression) *expression.Aggregate { return expression.NewStd(e) }

// Var is the sample variance of the non-null values.
func Var(e frame.Expression) *expression.Aggregate { return expression.NewVar(e) }

// Over evaluates an aggregation per partition and broadcasts the result
// back onto the partition's rows.
func Over(agg frame.Expression, partitionBy ...frame.Expression) *expression.Window {
	return expression.NewWindow(agg, partitionBy...)
}
