package frameengine

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// GroupedFrame is a frame grouped by key expressions, waiting for its
// aggregations.
type GroupedFrame struct {
	frame         *LazyFrame
	keys          []frame.Expression
	maintainOrder bool
}

// GroupBy groups the frame by equal values of the key expressions. Groups
// come out in first-occurrence order unless MaintainOrder(false) releases
// that guarantee.
func (f *LazyFrame) GroupBy(keys ...frame.Expression) *GroupedFrame {
	return &GroupedFrame{frame: f, keys: keys, maintainOrder: true}
}

// MaintainOrder sets whether groups must come out in first-occurrence order
// of their keys. Releasing it lets the engine pick any group order.
func (g *GroupedFrame) MaintainOrder(maintain bool) *GroupedFrame {
	ng := *g
	ng.maintainOrder = maintain
	return &ng
}

// Agg computes the aggregations per group, producing one row per group.
// Every expression must contain an aggregation.
func (g *GroupedFrame) Agg(aggs ...frame.Expression) *LazyFrame {
	if g.frame.err != nil {
		return g.frame
	}
	return g.frame.deriveErr(plan.NewGroupBy(g.keys, aggs, g.maintainOrder, g.frame.node))
}

// DynamicGroupedFrame is a frame grouped into periodic windows over a
// sorted index column.
type DynamicGroupedFrame struct {
	frame  *LazyFrame
	index  string
	every  int64
	period int64
	offset int64
	closed plan.ClosedWindow
}

// GroupByDynamic groups the frame into windows starting every `every` index
// units. Windows span `every` units unless Period is set, and include their
// lower edge unless Closed is set. The index column must be sorted
// ascending; datetime indexes count in microseconds.
func (f *LazyFrame) GroupByDynamic(index string, every int64) *DynamicGroupedFrame {
	return &DynamicGroupedFrame{frame: f, index: index, every: every}
}

// Period sets the window length, allowing overlapping windows.
func (g *DynamicGroupedFrame) Period(period int64) *DynamicGroupedFrame {
	ng := *g
	ng.period = period
	return &ng
}

// Offset shifts every window start.
func (g *DynamicGroupedFrame) Offset(offset int64) *DynamicGroupedFrame {
	ng := *g
	ng.offset = offset
	return &ng
}

// Closed sets which window edges include rows falling exactly on them.
func (g *DynamicGroupedFrame) Closed(closed plan.ClosedWindow) *DynamicGroupedFrame {
	ng := *g
	ng.closed = closed
	return &ng
}

// Agg computes the aggregations per window. Empty windows are omitted; the
// output carries the window start under the index column's name.
func (g *DynamicGroupedFrame) Agg(aggs ...frame.Expression) *LazyFrame {
	if g.frame.err != nil {
		return g.frame
	}
	return g.frame.deriveErr(plan.NewGroupByDynamic(
		g.index, g.every, g.period, g.offset, g.closed, aggs, g.frame.node))
}

// RollingGroupedFrame is a frame grouped into one trailing window per row
// over a sorted index column.
type RollingGroupedFrame struct {
	frame  *LazyFrame
	index  string
	period int64
	closed plan.ClosedWindow
}

// GroupByRolling groups each row with the rows whose index falls within
// `period` units before it, the row itself included. The index column must
// be sorted ascending; datetime indexes count in microseconds.
func (f *LazyFrame) GroupByRolling(index string, period int64) *RollingGroupedFrame {
	// Trailing windows include their upper edge so every row belongs to its
	// own window.
	return &RollingGroupedFrame{frame: f, index: index, period: period, closed: plan.ClosedRight}
}

// Closed sets which window edges include rows falling exactly on them.
func (g *RollingGroupedFrame) Closed(closed plan.ClosedWindow) *RollingGroupedFrame {
	ng := *g
	ng.closed = closed
	return &ng
}

// Agg computes the aggregations per window, keeping one row per input row.
func (g *RollingGroupedFrame) Agg(aggs ...frame.Expression) *LazyFrame {
	if g.frame.err != nil {
		return g.frame
	}
	return g.frame.deriveErr(plan.NewGroupByRolling(
		g.index, g.period, g.closed, aggs, g.frame.node))
}
