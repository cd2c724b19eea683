package frameengine

import (
	"context"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/exec"
	"github.com/framelab/go-frame-engine/frame/optimizer"
	"github.com/framelab/go-frame-engine/frame/plan"
	"github.com/framelab/go-frame-engine/frame/serde"
)

// CollectOptions configure plan optimization and execution.
type CollectOptions struct {
	// Optimizer toggles individual optimizer rules off.
	Optimizer optimizer.Flags
	// NoOptimization disables the pushdown rules wholesale.
	NoOptimization bool
	// FetchRows, when positive, limits every scan of the plan to that many
	// rows. It bounds the work of a dry run, not the exact output size.
	FetchRows int64
	// Verbose logs the plan before and after each optimizer rule.
	Verbose bool
}

// Collect optimizes and executes the plan, returning the materialized
// table.
func (f *LazyFrame) Collect(ctx context.Context) (*frame.Table, error) {
	return f.CollectWith(ctx, CollectOptions{})
}

// CollectWith is Collect under explicit options.
func (f *LazyFrame) CollectWith(ctx context.Context, opts CollectOptions) (*frame.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	fctx := frameContext(ctx)

	flags := opts.Optimizer
	if opts.NoOptimization {
		flags = optimizer.NoOptimization()
	}
	opt := optimizer.New(flags)
	if opts.Verbose {
		opt.Verbose = true
	}
	optimized, err := opt.Optimize(fctx, f.node)
	if err != nil {
		return nil, err
	}

	execOpts := exec.Options{FetchRows: -1}
	if opts.FetchRows > 0 {
		execOpts.FetchRows = opts.FetchRows
	}
	return exec.Materialize(fctx, optimized, &execOpts)
}

// Fetch collects the frame with every scan limited to n rows, for cheap
// inspection of a pipeline over a fraction of its input. Operations such as
// filters or joins can still shrink or grow the output, so fewer or more
// than n rows may come back.
func (f *LazyFrame) Fetch(ctx context.Context, n int64) (*frame.Table, error) {
	return f.CollectWith(ctx, CollectOptions{FetchRows: n})
}

// DescribePlan renders the logical plan as built, without optimization.
func (f *LazyFrame) DescribePlan() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.node.String(), nil
}

// DescribeOptimizedPlan renders the plan as the default optimizer pipeline
// would execute it.
func (f *LazyFrame) DescribeOptimizedPlan() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	optimized, err := optimizer.NewDefault().Optimize(frame.NewEmptyContext(), f.node)
	if err != nil {
		return "", err
	}
	return optimized.String(), nil
}

// ToDot renders the logical plan in graphviz dot format.
func (f *LazyFrame) ToDot() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return plan.ToDot(f.node), nil
}

// Serialize encodes the logical plan to its JSON interchange form. Plans
// holding opaque Go functions refuse to serialize.
func (f *LazyFrame) Serialize() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return serde.Marshal(f.node)
}

// Deserialize decodes a frame from its JSON interchange form, resolving
// scans against the sources registry by name.
func Deserialize(data []byte, sources map[string]frame.Source) (*LazyFrame, error) {
	node, err := serde.Unmarshal(data, sources)
	if err != nil {
		return nil, err
	}
	return FromPlan(node), nil
}

func frameContext(ctx context.Context) *frame.Context {
	if fctx, ok := ctx.(*frame.Context); ok {
		return fctx
	}
	return frame.NewContext(ctx)
}
