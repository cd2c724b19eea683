package frame

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrColumnNotFound is returned when an expression references a column
	// that is not present in the resolved schema.
	ErrColumnNotFound = errors.NewKind("column %q could not be found in schema")

	// ErrDuplicateColumn is returned when a node would produce two columns
	// with the same name.
	ErrDuplicateColumn = errors.NewKind("duplicate column name %q")

	// ErrSchema is returned when a materialized batch does not match the
	// schema the resolver predicted for it.
	ErrSchema = errors.NewKind("schema mismatch: %s")

	// ErrCompute is returned for operator-level failures during execution:
	// unsupported casts, type mismatches, user function errors.
	ErrCompute = errors.NewKind("compute error: %s")

	// ErrShape is returned when operand row counts must align and don't.
	ErrShape = errors.NewKind("shape mismatch: %s")

	// ErrNoData is returned when a strict operation has no defined result on
	// empty input, e.g. var/std over zero values.
	ErrNoData = errors.NewKind("no data: %s")

	// ErrInvalidType is thrown when there is an unexpected type at some part
	// of the plan or expression tree.
	ErrInvalidType = errors.NewKind("invalid type: %s")

	// ErrInvalidChildrenNumber is returned when the WithChildren method of a
	// node or expression is called with an invalid number of arguments.
	ErrInvalidChildrenNumber = errors.NewKind("%T: invalid children number, got %d, expected %d")

	// ErrAggregationOutsideGroupBy is returned when an aggregation expression
	// is used somewhere other than a group-by or a global aggregation
	// projection.
	ErrAggregationOutsideGroupBy = errors.NewKind("aggregation %q is only valid inside a group by or aggregation context")
)
