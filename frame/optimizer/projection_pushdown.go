package optimizer

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// pushdownProjections computes, top-down, the set of columns each subtree
// actually has to produce and attaches a projection hint to scans whose
// source supports it. The rule only narrows scans, it never inserts plan
// nodes, so a plan with no prunable scan comes back unchanged.
//
// A nil required set means "every column"; nodes that hide their input from
// their output (caches, unions, opaque maps) reset the set to nil below them.
func pushdownProjections(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error) {
	span, _ := ctx.Span("pushdown_projections")
	defer span.Finish()

	return pruneColumns(node, nil)
}

type colSet map[string]struct{}

func (s colSet) add(names ...string) colSet {
	if s == nil {
		s = make(colSet)
	}
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

func (s colSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s colSet) clone() colSet {
	if s == nil {
		return nil
	}
	ns := make(colSet, len(s))
	for name := range s {
		ns[name] = struct{}{}
	}
	return ns
}

func pruneColumns(node frame.Node, required colSet) (frame.Node, error) {
	switch n := node.(type) {
	case *plan.Scan:
		return pruneScan(n, required)

	case *plan.Filter:
		childReq := required.clone()
		if childReq != nil {
			childReq = childReq.add(expression.Columns(n.Predicate)...)
		}
		return pruneUnary(n, childReq)

	case *plan.Select:
		return pruneUnary(n, exprRequirements(n.Exprs))

	case *plan.WithColumns:
		childReq, err := withColumnsRequirements(n, required)
		if err != nil {
			return nil, err
		}
		return pruneUnary(n, childReq)

	case *plan.GroupBy:
		return pruneUnary(n, exprRequirements(n.Expressions()))

	case *plan.GroupByDynamic:
		childReq := exprRequirements(n.Aggs)
		if childReq != nil {
			childReq = childReq.add(n.IndexColumn)
		}
		return pruneUnary(n, childReq)

	case *plan.GroupByRolling:
		childReq := exprRequirements(n.Aggs)
		if childReq != nil {
			childReq = childReq.add(n.IndexColumn)
		}
		return pruneUnary(n, childReq)

	case *plan.Join:
		return pruneJoin(n, required)

	case *plan.AsofJoin:
		return pruneAsofJoin(n, required)

	case *plan.Sort:
		childReq := required.clone()
		if childReq != nil {
			for _, f := range n.Fields {
				childReq = childReq.add(expression.Columns(f.Column)...)
			}
		}
		return pruneUnary(n, childReq)

	case *plan.Distinct:
		if n.Subset == nil {
			// Whole-row comparison needs every column.
			return pruneUnary(n, nil)
		}
		childReq := required.clone()
		if childReq != nil {
			childReq = childReq.add(n.Subset...)
		}
		return pruneUnary(n, childReq)

	case *plan.DropNulls:
		if n.Subset == nil {
			return pruneUnary(n, nil)
		}
		childReq := required.clone()
		if childReq != nil {
			childReq = childReq.add(n.Subset...)
		}
		return pruneUnary(n, childReq)

	case *plan.Slice:
		return pruneUnary(n, required)

	case *plan.Rename:
		childReq := colSet(nil)
		if required != nil {
			inv := n.Inverse()
			childReq = make(colSet, len(required))
			for name := range required {
				if old, renamed := inv[name]; renamed {
					childReq = childReq.add(old)
				} else {
					childReq = childReq.add(name)
				}
			}
		}
		return pruneUnary(n, childReq)

	case *plan.WithRowCount:
		childReq := required.clone()
		if childReq != nil {
			delete(childReq, n.ColName)
		}
		return pruneUnary(n, childReq)

	case *plan.Melt:
		childSchema, err := n.Child.Schema()
		if err != nil {
			return nil, err
		}
		childReq := colSet{}.add(n.IDVars...)
		childReq = childReq.add(n.ResolvedValueVars(childSchema)...)
		return pruneUnary(n, childReq)

	case *plan.Explode:
		childReq := required.clone()
		if childReq != nil {
			childReq = childReq.add(n.Columns...)
		}
		return pruneUnary(n, childReq)

	case *plan.MapFunction:
		if n.ProjectionPushdownSafe && n.SchemaFn == nil {
			return pruneUnary(n, required)
		}
		return pruneUnary(n, nil)
	}

	// Caches feed other consumers, union inputs must agree column for
	// column, and the remaining nodes have no cheap column mapping; below
	// them everything is required.
	return pruneChildren(node, nil)
}

func pruneScan(n *plan.Scan, required colSet) (frame.Node, error) {
	if required == nil || !n.Src.Capabilities().Projection {
		return n, nil
	}
	srcSchema, err := n.Src.Schema()
	if err != nil {
		return nil, err
	}
	// A scan-level predicate evaluates against the materialized columns, so
	// its inputs stay in the projection.
	if n.Predicate != nil {
		required = required.clone().add(expression.Columns(n.Predicate)...)
	}
	var names []string
	for _, c := range srcSchema {
		if required.has(c.Name) {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 || len(names) == len(srcSchema) {
		return n, nil
	}
	return n.WithProjection(names), nil
}

func pruneUnary(n frame.Node, childReq colSet) (frame.Node, error) {
	child, err := pruneColumns(n.Children()[0], childReq)
	if err != nil {
		return nil, err
	}
	return n.WithChildren(child)
}

func pruneChildren(n frame.Node, childReq colSet) (frame.Node, error) {
	children := n.Children()
	if len(children) == 0 {
		return n, nil
	}
	newChildren := make([]frame.Node, len(children))
	for i, c := range children {
		nc, err := pruneColumns(c, childReq)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	return n.WithChildren(newChildren...)
}

// exprRequirements collects the columns a list of expressions reads from the
// child. A wildcard or exclude placeholder makes everything required.
func exprRequirements(exprs []frame.Expression) colSet {
	req := colSet{}
	for _, e := range exprs {
		if _, ok := e.(frame.Expander); ok {
			return nil
		}
		req = req.add(expression.Columns(e)...)
	}
	return req
}

func withColumnsRequirements(n *plan.WithColumns, required colSet) (colSet, error) {
	if required == nil {
		return nil, nil
	}
	childSchema, err := n.Child.Schema()
	if err != nil {
		return nil, err
	}
	expanded, err := plan.ExpandExpressions(childSchema, n.Exprs)
	if err != nil {
		return nil, err
	}
	defined := colSet{}
	req := colSet{}
	for _, e := range expanded {
		defined = defined.add(e.Name())
		req = req.add(expression.Columns(e)...)
	}
	// Passthrough columns the parent wants, minus the ones this node
	// (re)defines itself.
	for _, c := range childSchema {
		if required.has(c.Name) && !defined.has(c.Name) {
			req = req.add(c.Name)
		}
	}
	return req, nil
}

func pruneJoin(n *plan.Join, required colSet) (frame.Node, error) {
	if required == nil {
		return pruneChildren(n, nil)
	}
	leftSchema, err := n.Left.Schema()
	if err != nil {
		return nil, err
	}
	rightSchema, err := n.Right.Schema()
	if err != nil {
		return nil, err
	}

	leftReq := colSet{}
	for _, c := range leftSchema {
		if required.has(c.Name) {
			leftReq = leftReq.add(c.Name)
		}
	}
	for _, e := range n.LeftOn {
		leftReq = leftReq.add(expression.Columns(e)...)
	}

	rightReq := colSet{}
	for _, e := range n.RightOn {
		rightReq = rightReq.add(expression.Columns(e)...)
	}
	if n.How != plan.SemiJoin && n.How != plan.AntiJoin {
		for _, c := range rightSchema {
			out := c.Name
			if leftSchema.Contains(out) {
				out += n.Suffix
			}
			if required.has(out) || required.has(c.Name) {
				rightReq = rightReq.add(c.Name)
			}
		}
	}

	left, err := pruneColumns(n.Left, leftReq)
	if err != nil {
		return nil, err
	}
	right, err := pruneColumns(n.Right, rightReq)
	if err != nil {
		return nil, err
	}
	return n.WithChildren(left, right)
}

func pruneAsofJoin(n *plan.AsofJoin, required colSet) (frame.Node, error) {
	if required == nil {
		return pruneChildren(n, nil)
	}
	leftSchema, err := n.Left.Schema()
	if err != nil {
		return nil, err
	}
	rightSchema, err := n.Right.Schema()
	if err != nil {
		return nil, err
	}

	leftReq := colSet{}.add(n.LeftOn).add(n.LeftBy...)
	for _, c := range leftSchema {
		if required.has(c.Name) {
			leftReq = leftReq.add(c.Name)
		}
	}

	rightReq := colSet{}.add(n.RightOn).add(n.RightBy...)
	for _, c := range rightSchema {
		out := c.Name
		if leftSchema.Contains(out) {
			out += n.Suffix
		}
		if required.has(out) || required.has(c.Name) {
			rightReq = rightReq.add(c.Name)
		}
	}

	left, err := pruneColumns(n.Left, leftReq)
	if err != nil {
		return nil, err
	}
	right, err := pruneColumns(n.Right, rightReq)
	if err != nil {
		return nil, err
	}
	return n.WithChildren(left, right)
}
