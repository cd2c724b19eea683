// Package exec materializes logical plans into batches.
//
// Execution is batch-columnar: every operator consumes fully materialized
// tables from its children and produces one table. Plans are executed after
// optimization, so the executor trusts node invariants the optimizer and the
// plan constructors already enforced, and compensates for scan hints a
// source did not honor itself.
package exec

import (
	"fmt"
	"sync"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// Options configure one materialization run.
type Options struct {
	// FetchRows, when non-negative, caps every scan of the plan at this many
	// rows. Operators above the scans run unchanged, so the result is a
	// cheap preview, not a prefix of the full result.
	FetchRows int64
}

// Materialize executes the plan and returns its result batch.
func Materialize(ctx *frame.Context, node frame.Node, opts *Options) (*frame.Table, error) {
	span, ctx := ctx.Span("materialize")
	defer span.Finish()

	if opts != nil && opts.FetchRows >= 0 {
		fetched, err := plan.TransformUp(node, func(n frame.Node) (frame.Node, error) {
			if s, ok := n.(*plan.Scan); ok {
				return s.WithRowLimit(opts.FetchRows), nil
			}
			return n, nil
		})
		if err != nil {
			return nil, err
		}
		node = fetched
	}

	e := &executor{caches: make(map[string]*cacheEntry)}
	return e.execute(ctx, node)
}

type cacheEntry struct {
	once  sync.Once
	table *frame.Table
	err   error
}

// executor holds the per-run state: one-time published cache results shared
// by every consumer of the same cache node.
type executor struct {
	mu     sync.Mutex
	caches map[string]*cacheEntry
}

func (e *executor) execute(ctx *frame.Context, node frame.Node) (*frame.Table, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch n := node.(type) {
	case *plan.Scan:
		return e.executeScan(ctx, n)
	case *plan.Filter:
		return e.executeFilter(ctx, n)
	case *plan.Select:
		return e.executeSelect(ctx, n)
	case *plan.WithColumns:
		return e.executeWithColumns(ctx, n)
	case *plan.Join:
		return e.executeJoin(ctx, n)
	case *plan.AsofJoin:
		return e.executeAsofJoin(ctx, n)
	case *plan.GroupBy:
		return e.executeGroupBy(ctx, n)
	case *plan.GroupByDynamic:
		return e.executeGroupByDynamic(ctx, n)
	case *plan.GroupByRolling:
		return e.executeGroupByRolling(ctx, n)
	case *plan.Sort:
		return e.executeSort(ctx, n)
	case *plan.Slice:
		return e.executeSlice(ctx, n)
	case *plan.Distinct:
		return e.executeDistinct(ctx, n)
	case *plan.DropNulls:
		return e.executeDropNulls(ctx, n)
	case *plan.Explode:
		return e.executeExplode(ctx, n)
	case *plan.Unnest:
		return e.executeUnnest(ctx, n)
	case *plan.Melt:
		return e.executeMelt(ctx, n)
	case *plan.Union:
		return e.executeUnion(ctx, n)
	case *plan.WithRowCount:
		return e.executeWithRowCount(ctx, n)
	case *plan.Rename:
		return e.executeRename(ctx, n)
	case *plan.MapFunction:
		return e.executeMapFunction(ctx, n)
	case *plan.Cache:
		return e.executeCache(ctx, n)
	case *plan.WithContext:
		return e.executeWithContext(ctx, n)
	}
	return nil, frame.ErrCompute.New(fmt.Sprintf("no executor for node %T", node))
}

func (e *executor) executeCache(ctx *frame.Context, n *plan.Cache) (*frame.Table, error) {
	e.mu.Lock()
	entry, ok := e.caches[n.Id]
	if !ok {
		entry = &cacheEntry{}
		e.caches[n.Id] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		entry.table, entry.err = e.execute(ctx, n.Child)
	})
	return entry.table, entry.err
}
