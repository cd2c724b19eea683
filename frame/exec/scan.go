package exec

import (
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func scanTag(n *plan.Scan) []opentracing.StartSpanOption {
	return []opentracing.StartSpanOption{
		opentracing.Tag{Key: "source", Value: n.Src.Name()},
	}
}

// executeScan asks the source for a batch and compensates above it for every
// hint the source does not support, so a scan node always honors its hints
// exactly regardless of connector capabilities.
func (e *executor) executeScan(ctx *frame.Context, n *plan.Scan) (*frame.Table, error) {
	span, ctx := ctx.Span("scan", scanTag(n)...)
	defer span.Finish()

	req := &frame.ScanRequest{
		Projection: n.Projection,
		Predicate:  n.Predicate,
		Limit:      n.RowLimit,
	}
	t, err := n.Src.Scan(ctx, req)
	if err != nil {
		return nil, err
	}

	caps := n.Src.Capabilities()
	if !caps.Predicate && n.Predicate != nil {
		if t, err = filterTable(ctx, t, n.Predicate); err != nil {
			return nil, err
		}
	}
	if !caps.Projection && n.Projection != nil {
		if t, err = t.Select(n.Projection); err != nil {
			return nil, err
		}
	}
	if !caps.Limit && n.RowLimit >= 0 && int64(t.NumRows()) > n.RowLimit {
		t = t.Slice(0, int(n.RowLimit))
	}
	return t, nil
}
