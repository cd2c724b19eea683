package frame

import "fmt"

// Nameable is something with a name.
type Nameable interface {
	Name() string
}

// Node is a node of the logical plan tree. Nodes are immutable: rewrites
// replace nodes via WithChildren, structurally sharing unmodified subtrees.
type Node interface {
	fmt.Stringer
	// Schema resolves the node's output schema bottom-up from its children's
	// schemas and its own parameters. Resolution is pure and idempotent.
	Schema() (Schema, error)
	// Children returns the child plan nodes.
	Children() []Node
	// WithChildren returns a copy of the node with the given children.
	WithChildren(children ...Node) (Node, error)
}

// Expression is a node of an expression tree. Given an input schema it
// resolves to exactly one output name and type; given a materialized batch
// it evaluates to one column. Expressions are immutable and freely shared
// across plan nodes.
type Expression interface {
	fmt.Stringer
	// Name returns the output column name of the expression.
	Name() string
	// Type resolves the output type of the expression against an input
	// schema, validating every column reference in the subtree.
	Type(schema Schema) (Type, error)
	// Eval evaluates the expression against a batch, producing one column.
	// Length-1 results are broadcast by consumers where row alignment
	// requires it.
	Eval(ctx *Context, t *Table) (*Series, error)
	// Children returns the child expressions.
	Children() []Expression
	// WithChildren returns a copy of the expression with the given children.
	WithChildren(children ...Expression) (Expression, error)
}

// Expander is implemented by placeholder expressions (wildcard, exclude)
// that stand for zero or more columns and only take concrete form when they
// meet a schema.
type Expander interface {
	Expression
	// Expand returns the concrete expressions this placeholder stands for
	// under the given schema.
	Expand(schema Schema) ([]Expression, error)
}

// Aggregation is implemented by expressions that reduce groups of rows to
// one value per group. Eval on the whole batch performs a global (one group)
// aggregation.
type Aggregation interface {
	Expression
	// EvalGroups evaluates the aggregation once per group, where each group
	// is a set of row positions of the batch. The result has one cell per
	// group, in group order.
	EvalGroups(ctx *Context, t *Table, groups [][]int) (*Series, error)
}

// Expressioner is a node that holds expressions the optimizer may rewrite.
type Expressioner interface {
	Node
	// Expressions returns the list of expressions contained in the node.
	Expressions() []Expression
	// WithExpressions returns a copy of the node with the given expressions.
	WithExpressions(exprs ...Expression) (Node, error)
}

// ScanRequest carries the pushdown hints handed to a source when a scan node
// is materialized.
type ScanRequest struct {
	// Projection, if non-nil, lists the columns to materialize, in source
	// schema order.
	Projection []string
	// Predicate, if non-nil, is a boolean expression the source may use to
	// filter rows early. Sources apply it best-effort; the executor applies
	// it again only when the source did not declare predicate support.
	Predicate Expression
	// Limit, if non-negative, allows the source to stop after producing this
	// many rows.
	Limit int64
}

// SourceCapabilities declares which scan hints a source honors. The
// optimizer only attaches hints a source declares; the executor compensates
// for the rest above the scan.
type SourceCapabilities struct {
	Predicate  bool
	Projection bool
	Limit      bool
}

// Source is a connector producing the initial columnar batches of a plan.
type Source interface {
	Nameable
	// Schema returns the source schema without materializing data.
	Schema() (Schema, error)
	// Capabilities returns the scan hints the source supports.
	Capabilities() SourceCapabilities
	// Scan materializes the source into one batch, honoring the supported
	// hints of the request.
	Scan(ctx *Context, req *ScanRequest) (*Table, error)
}
