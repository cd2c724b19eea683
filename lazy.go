// Package frameengine is a lazy query engine over tabular batches. Frames
// are built by chaining transformations, which only record a logical plan;
// nothing touches a source until the frame is collected, at which point the
// plan is optimized and executed.
package frameengine

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/source"
)

// LazyFrame is a logical plan under construction. Frames are immutable:
// every transformation returns a new frame sharing the plan built so far.
//
// Construction errors stick to the frame and surface on Collect, so chains
// do not need an error check per step.
type LazyFrame struct {
	node frame.Node
	err  error
}

// Scan creates a frame reading from the given source.
func Scan(src frame.Source) *LazyFrame {
	return &LazyFrame{node: plan.NewScan(src)}
}

// ScanFile creates a frame reading from a file, with the format chosen by
// the file extension.
func ScanFile(path string) *LazyFrame {
	src, err := source.Open(path)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return Scan(src)
}

// ScanCSV creates a frame reading a CSV file.
func ScanCSV(path string) *LazyFrame {
	src, err := source.NewCSV(path)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return Scan(src)
}

// ScanJSONL creates a frame reading a line-delimited JSON file.
func ScanJSONL(path string) *LazyFrame {
	src, err := source.NewJSONL(path)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return Scan(src)
}

// ScanParquet creates a frame reading a parquet file.
func ScanParquet(path string) *LazyFrame {
	src, err := source.NewParquet(path)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return Scan(src)
}

// ScanAvro creates a frame reading an avro object container file.
func ScanAvro(path string) *LazyFrame {
	src, err := source.NewAvro(path)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return Scan(src)
}

// FromTable creates a frame over an in-memory table.
func FromTable(name string, t *frame.Table) *LazyFrame {
	return Scan(source.NewMemory(name, t))
}

// FromPlan wraps an existing logical plan in a frame.
func FromPlan(node frame.Node) *LazyFrame {
	return &LazyFrame{node: node}
}

// Err returns the first construction error of the chain, if any.
func (f *LazyFrame) Err() error { return f.err }

// Plan returns the logical plan built so far.
func (f *LazyFrame) Plan() frame.Node { return f.node }

// Schema resolves the output schema of the frame without executing it.
func (f *LazyFrame) Schema() (frame.Schema, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.node.Schema()
}

func (f *LazyFrame) derive(node frame.Node) *LazyFrame {
	if f.err != nil {
		return f
	}
	return &LazyFrame{node: node}
}

func (f *LazyFrame) deriveErr(node frame.Node, err error) *LazyFrame {
	if f.err != nil {
		return f
	}
	if err != nil {
		return &LazyFrame{err: err}
	}
	return &LazyFrame{node: node}
}

// Select projects the frame onto the given expressions. Wildcard and
// exclude placeholders expand against the input schema.
func (f *LazyFrame) Select(exprs ...frame.Expression) *LazyFrame {
	return f.derive(plan.NewSelect(exprs, f.node))
}

// WithColumns adds or redefines columns, keeping all existing ones.
func (f *LazyFrame) WithColumns(exprs ...frame.Expression) *LazyFrame {
	return f.derive(plan.NewWithColumns(exprs, f.node))
}

// WithColumn adds or redefines one column.
func (f *LazyFrame) WithColumn(expr frame.Expression) *LazyFrame {
	return f.WithColumns(expr)
}

// Filter keeps the rows the predicate evaluates to true for. Null
// predicate values drop the row.
func (f *LazyFrame) Filter(predicate frame.Expression) *LazyFrame {
	return f.derive(plan.NewFilter(predicate, f.node))
}

// Sort orders the rows by the given fields. The sort is stable.
func (f *LazyFrame) Sort(fields ...plan.SortField) *LazyFrame {
	return f.derive(plan.NewSort(fields, f.node))
}

// SortBy orders the rows ascending by the given expressions.
func (f *LazyFrame) SortBy(exprs ...frame.Expression) *LazyFrame {
	fields := make([]plan.SortField, len(exprs))
	for i, e := range exprs {
		fields[i] = plan.SortField{Column: e}
	}
	return f.Sort(fields...)
}

// Limit keeps the first n rows.
func (f *LazyFrame) Limit(n int64) *LazyFrame {
	return f.derive(plan.NewLimit(n, f.node))
}

// Head keeps the first n rows.
func (f *LazyFrame) Head(n int64) *LazyFrame { return f.Limit(n) }

// Tail keeps the last n rows.
func (f *LazyFrame) Tail(n int64) *LazyFrame {
	return f.derive(plan.NewSlice(-n, n, f.node))
}

// Slice keeps a window of rows. A negative offset counts from the end, a
// negative length means the rest of the frame.
func (f *LazyFrame) Slice(offset, length int64) *LazyFrame {
	return f.derive(plan.NewSlice(offset, length, f.node))
}

// Distinct drops duplicate rows, keeping the first occurrence.
func (f *LazyFrame) Distinct() *LazyFrame {
	return f.Unique(nil, plan.KeepFirst)
}

// Unique drops duplicate rows, comparing the subset columns (all columns
// when subset is nil) under the given keep policy.
func (f *LazyFrame) Unique(subset []string, keep plan.KeepPolicy) *LazyFrame {
	return f.derive(plan.NewDistinct(subset, keep, true, f.node))
}

// DropNulls drops rows with a null in any of the subset columns, or in any
// column when subset is nil.
func (f *LazyFrame) DropNulls(subset ...string) *LazyFrame {
	return f.derive(plan.NewDropNulls(subset, f.node))
}

// Drop removes the named columns.
func (f *LazyFrame) Drop(names ...string) *LazyFrame {
	return f.Select(expression.NewExclude(names...))
}

// Rename renames columns following the old-name to new-name mapping.
func (f *LazyFrame) Rename(mapping map[string]string) *LazyFrame {
	return f.derive(plan.NewRename(mapping, f.node))
}

// Explode expands list columns into one row per element. A null or empty
// list yields a single null row.
func (f *LazyFrame) Explode(columns ...string) *LazyFrame {
	return f.derive(plan.NewExplode(columns, f.node))
}

// Unnest flattens struct columns into one column per field.
func (f *LazyFrame) Unnest(columns ...string) *LazyFrame {
	return f.derive(plan.NewUnnest(columns, f.node))
}

// Melt unpivots value columns into (variable, value) row pairs. An empty
// valueVars list means every column not in idVars.
func (f *LazyFrame) Melt(idVars, valueVars []string) *LazyFrame {
	return f.derive(plan.NewMelt(idVars, valueVars, f.node))
}

// WithRowCount prepends a row index column starting at offset. An empty
// name defaults to "row_nr".
func (f *LazyFrame) WithRowCount(name string, offset int64) *LazyFrame {
	return f.derive(plan.NewWithRowCount(name, offset, f.node))
}

// Cache marks this point of the plan to be materialized at most once per
// collect, however many plan branches consume it.
func (f *LazyFrame) Cache() *LazyFrame {
	return f.derive(plan.NewCache(f.node))
}

// MapOptions assert which optimizations are safe to move across a user map
// function. The zero value blocks them all.
type MapOptions struct {
	// PredicatePushdownSafe asserts the function commutes with row filters.
	PredicatePushdownSafe bool
	// ProjectionPushdownSafe asserts the function works on any column
	// subset.
	ProjectionPushdownSafe bool
	// SlicePushdownSafe asserts the function keeps row count and order.
	SlicePushdownSafe bool
}

// Map applies an opaque batch-to-batch function. The schema function
// declares the output schema; nil declares it unchanged. The engine trusts
// the options, it cannot verify them.
func (f *LazyFrame) Map(desc string, fn plan.TableFn, schemaFn plan.SchemaFn, opts MapOptions) *LazyFrame {
	if f.err != nil {
		return f
	}
	m := plan.NewMapFunction(desc, fn, schemaFn, f.node)
	m.PredicatePushdownSafe = opts.PredicatePushdownSafe
	m.ProjectionPushdownSafe = opts.ProjectionPushdownSafe
	m.SlicePushdownSafe = opts.SlicePushdownSafe
	return &LazyFrame{node: m}
}

// WithContext makes the columns of the other frames available to later
// expressions on this frame. Context columns broadcast to this frame's row
// count; names already present win.
func (f *LazyFrame) WithContext(others ...*LazyFrame) *LazyFrame {
	if f.err != nil {
		return f
	}
	contexts := make([]frame.Node, len(others))
	for i, o := range others {
		if o.err != nil {
			return &LazyFrame{err: o.err}
		}
		contexts[i] = o.node
	}
	return &LazyFrame{node: plan.NewWithContext(f.node, contexts...)}
}

// JoinOptions configure a join. On is a shorthand for equal key column
// names on both sides; LeftOn/RightOn take arbitrary key expressions.
type JoinOptions struct {
	On      []string
	LeftOn  []frame.Expression
	RightOn []frame.Expression
	How     plan.JoinType
	// Suffix is appended to colliding right column names; it defaults to
	// "_right".
	Suffix string
	// AllowParallel materializes both sides concurrently.
	AllowParallel bool
	// ForceParallel does so even for trivially small sides.
	ForceParallel bool
}

// Join joins this frame with another on equal key values.
func (f *LazyFrame) Join(other *LazyFrame, opts JoinOptions) *LazyFrame {
	if f.err != nil {
		return f
	}
	if other.err != nil {
		return &LazyFrame{err: other.err}
	}
	leftOn, rightOn := opts.LeftOn, opts.RightOn
	for _, name := range opts.On {
		leftOn = append(leftOn, expression.NewColumn(name))
		rightOn = append(rightOn, expression.NewColumn(name))
	}
	join, err := plan.NewJoin(f.node, other.node, leftOn, rightOn, opts.How, opts.Suffix)
	if err != nil {
		return &LazyFrame{err: err}
	}
	join.AllowParallel = opts.AllowParallel
	join.ForceParallel = opts.ForceParallel
	return &LazyFrame{node: join}
}

// CrossJoin is the cartesian product of both frames.
func (f *LazyFrame) CrossJoin(other *LazyFrame) *LazyFrame {
	return f.Join(other, JoinOptions{How: plan.CrossJoin})
}

// AsofJoinOptions configure an asof join. On is a shorthand for the same
// key column name on both sides, By for the same grouping columns.
type AsofJoinOptions struct {
	On      string
	LeftOn  string
	RightOn string
	By      []string
	LeftBy  []string
	RightBy []string
	// Strategy defaults to backward: the last right row at or before the
	// left key.
	Strategy plan.AsofStrategy
	// Tolerance, when positive, is the maximum key distance of a match, in
	// key units (microseconds for datetime keys).
	Tolerance float64
	Suffix    string
}

// AsofJoin matches each left row to the nearest right row by key order.
// Both sides must already be sorted ascending by their key column.
func (f *LazyFrame) AsofJoin(other *LazyFrame, opts AsofJoinOptions) *LazyFrame {
	if f.err != nil {
		return f
	}
	if other.err != nil {
		return &LazyFrame{err: other.err}
	}
	leftOn, rightOn := opts.LeftOn, opts.RightOn
	if opts.On != "" {
		leftOn, rightOn = opts.On, opts.On
	}
	join, err := plan.NewAsofJoin(f.node, other.node, leftOn, rightOn, opts.Strategy, opts.Suffix)
	if err != nil {
		return &LazyFrame{err: err}
	}
	leftBy, rightBy := opts.LeftBy, opts.RightBy
	if len(opts.By) > 0 {
		leftBy, rightBy = opts.By, opts.By
	}
	if len(leftBy) > 0 {
		if join, err = join.WithBy(leftBy, rightBy); err != nil {
			return &LazyFrame{err: err}
		}
	}
	if opts.Tolerance > 0 {
		join = join.WithTolerance(opts.Tolerance)
	}
	return &LazyFrame{node: join}
}

// Concat stacks the frames vertically. Schemas must match exactly; inputs
// may materialize concurrently.
func Concat(frames ...*LazyFrame) *LazyFrame {
	inputs := make([]frame.Node, len(frames))
	for i, f := range frames {
		if f.err != nil {
			return &LazyFrame{err: f.err}
		}
		inputs[i] = f.node
	}
	union, err := plan.NewUnion(inputs, true)
	if err != nil {
		return &LazyFrame{err: err}
	}
	return &LazyFrame{node: union}
}
