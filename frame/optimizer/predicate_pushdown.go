package optimizer

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

// pushdownPredicates moves filters as close to the scans as possible.
// Predicates are split at conjunctions so independent conditions travel
// independently; a conjunct moves through a node only when filtering before
// that node provably keeps the same rows as filtering after it. Conjuncts
// reaching a scan whose source declares predicate support become scan-level
// predicates; everything else settles as a filter directly above the node
// that blocked it.
func pushdownPredicates(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error) {
	span, _ := ctx.Span("pushdown_predicates")
	defer span.Finish()

	return plan.TransformUp(node, func(n frame.Node) (frame.Node, error) {
		f, ok := n.(*plan.Filter)
		if !ok {
			return n, nil
		}
		return pushFilter(f.Predicate, f.Child)
	})
}

// pushFilter pushes the conjuncts of a predicate into the subtree, wrapping
// whatever could not descend back into a filter on top.
func pushFilter(predicate frame.Expression, child frame.Node) (frame.Node, error) {
	conjuncts := expression.SplitAnd(predicate)
	newChild, remaining, err := pushConjuncts(child, conjuncts)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return newChild, nil
	}
	return plan.NewFilter(expression.JoinAnd(remaining...), newChild), nil
}

// pushAll pushes conjuncts into the subtree and settles blocked ones as a
// filter at the top of it, so the caller never gets leftovers back.
func pushAll(child frame.Node, conjuncts []frame.Expression) (frame.Node, error) {
	if len(conjuncts) == 0 {
		return child, nil
	}
	return pushFilter(expression.JoinAnd(conjuncts...), child)
}

// pushConjuncts pushes each conjunct as deep into the subtree as the node
// semantics allow, returning the rewritten subtree and the conjuncts that
// must stay above it.
func pushConjuncts(node frame.Node, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	switch n := node.(type) {
	case *plan.Scan:
		return pushIntoScan(n, conjuncts)

	case *plan.Filter:
		// Merge adjacent filters into one conjunct set.
		merged := append(expression.SplitAnd(n.Predicate), conjuncts...)
		return pushConjuncts(n.Child, merged)

	case *plan.Select:
		return pushThroughSelect(n, conjuncts)

	case *plan.WithColumns:
		return pushThroughWithColumns(n, conjuncts)

	case *plan.Rename:
		// Below the rename the predicate speaks in the old names; blocked
		// conjuncts settle under the rename already translated, which is
		// equivalent to filtering above it.
		translated := make([]frame.Expression, len(conjuncts))
		for i, c := range conjuncts {
			tc, err := renameColumns(c, n.Inverse())
			if err != nil {
				return nil, nil, err
			}
			translated[i] = tc
		}
		newChild, err := pushAll(n.Child, translated)
		if err != nil {
			return nil, nil, err
		}
		return plan.NewRename(n.Mapping, newChild), nil, nil

	case *plan.Sort:
		return pushThroughUnary(n, conjuncts)

	case *plan.DropNulls:
		return pushThroughUnary(n, conjuncts)

	case *plan.Distinct:
		return pushThroughDistinct(n, conjuncts)

	case *plan.Join:
		return pushIntoJoin(n, conjuncts)

	case *plan.AsofJoin:
		return pushIntoAsofJoin(n, conjuncts)

	case *plan.Union:
		inputs := make([]frame.Node, len(n.Inputs))
		for i, in := range n.Inputs {
			ni, err := pushAll(in, conjuncts)
			if err != nil {
				return nil, nil, err
			}
			inputs[i] = ni
		}
		nu, err := plan.NewUnion(inputs, n.AllowParallel)
		if err != nil {
			return nil, nil, err
		}
		return nu, nil, nil

	case *plan.MapFunction:
		if !n.PredicatePushdownSafe {
			return node, conjuncts, nil
		}
		childSchema, err := n.Child.Schema()
		if err != nil {
			return nil, nil, err
		}
		pushable, blocked := splitByColumns(conjuncts, schemaNames(childSchema))
		newChild, err := pushAll(n.Child, pushable)
		if err != nil {
			return nil, nil, err
		}
		nn, err := n.WithChildren(newChild)
		if err != nil {
			return nil, nil, err
		}
		return nn, blocked, nil
	}

	// Slices, caches, group bys, reshaping nodes and row counting all change
	// which rows exist or what they mean; filters stay above them.
	return node, conjuncts, nil
}

func pushIntoScan(n *plan.Scan, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	if !n.Src.Capabilities().Predicate {
		return n, conjuncts, nil
	}
	var pushable, blocked []frame.Expression
	for _, c := range conjuncts {
		if expression.HasAggregation(c) {
			blocked = append(blocked, c)
			continue
		}
		pushable = append(pushable, c)
	}
	if len(pushable) == 0 {
		return n, blocked, nil
	}
	if n.Predicate != nil {
		pushable = append([]frame.Expression{n.Predicate}, pushable...)
	}
	return n.WithPredicate(expression.JoinAnd(pushable...)), blocked, nil
}

// pushThroughSelect crosses conjuncts whose columns all come through the
// projection as bare columns, possibly renamed by an alias. Conjuncts
// touching computed outputs stay above.
func pushThroughSelect(n *plan.Select, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	childSchema, err := n.Child.Schema()
	if err != nil {
		return nil, nil, err
	}
	expanded, err := plan.ExpandExpressions(childSchema, n.Exprs)
	if err != nil {
		return nil, nil, err
	}

	// Output name to underlying child column, for passthrough outputs only.
	passthrough := make(map[string]string)
	for _, e := range expanded {
		switch e := e.(type) {
		case *expression.Column:
			passthrough[e.Name()] = e.Name()
		case *expression.Alias:
			if c, ok := e.Child.(*expression.Column); ok {
				passthrough[e.Name()] = c.Name()
			}
		}
	}

	var pushable, blocked []frame.Expression
	for _, c := range conjuncts {
		translatable := true
		for _, name := range expression.Columns(c) {
			if _, ok := passthrough[name]; !ok {
				translatable = false
				break
			}
		}
		if !translatable {
			blocked = append(blocked, c)
			continue
		}
		tc, err := renameColumns(c, passthrough)
		if err != nil {
			return nil, nil, err
		}
		pushable = append(pushable, tc)
	}

	newChild, err := pushAll(n.Child, pushable)
	if err != nil {
		return nil, nil, err
	}
	return plan.NewSelect(n.Exprs, newChild), blocked, nil
}

// pushThroughWithColumns crosses conjuncts that do not touch any column the
// node defines or redefines.
func pushThroughWithColumns(n *plan.WithColumns, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	childSchema, err := n.Child.Schema()
	if err != nil {
		return nil, nil, err
	}
	expanded, err := plan.ExpandExpressions(childSchema, n.Exprs)
	if err != nil {
		return nil, nil, err
	}
	defined := make(map[string]struct{}, len(expanded))
	for _, e := range expanded {
		defined[e.Name()] = struct{}{}
	}

	var pushable, blocked []frame.Expression
	for _, c := range conjuncts {
		crosses := true
		for _, name := range expression.Columns(c) {
			if _, redefined := defined[name]; redefined {
				crosses = false
				break
			}
		}
		if crosses {
			pushable = append(pushable, c)
		} else {
			blocked = append(blocked, c)
		}
	}

	newChild, err := pushAll(n.Child, pushable)
	if err != nil {
		return nil, nil, err
	}
	return plan.NewWithColumns(n.Exprs, newChild), blocked, nil
}

// pushThroughUnary crosses every conjunct through a node that neither adds,
// removes nor renames columns and keeps a one-to-one row mapping with its
// input, such as a sort.
func pushThroughUnary(n frame.Node, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	children := n.Children()
	newChild, err := pushAll(children[0], conjuncts)
	if err != nil {
		return nil, nil, err
	}
	nn, err := n.WithChildren(newChild)
	if err != nil {
		return nil, nil, err
	}
	return nn, nil, nil
}

// pushThroughDistinct crosses conjuncts that only reference the columns rows
// are deduplicated on. Those are equal across the duplicates of a row, so
// filtering cannot change which occurrence survives. With a nil subset rows
// are compared whole and every conjunct crosses.
func pushThroughDistinct(n *plan.Distinct, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	if n.Subset == nil {
		return pushThroughUnary(n, conjuncts)
	}
	subset := make(map[string]struct{}, len(n.Subset))
	for _, name := range n.Subset {
		subset[name] = struct{}{}
	}
	pushable, blocked := splitByColumns(conjuncts, subset)
	newChild, err := pushAll(n.Child, pushable)
	if err != nil {
		return nil, nil, err
	}
	return plan.NewDistinct(n.Subset, n.Keep, n.MaintainOrder, newChild), blocked, nil
}

// pushIntoJoin sends conjuncts into the join side whose columns they
// reference, where the join type allows it. Outer joins null-fill both
// sides, so nothing may move below them.
func pushIntoJoin(n *plan.Join, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	if n.How == plan.OuterJoin {
		return n, conjuncts, nil
	}
	leftSchema, err := n.Left.Schema()
	if err != nil {
		return nil, nil, err
	}
	rightSchema, err := n.Right.Schema()
	if err != nil {
		return nil, nil, err
	}
	leftNames := schemaNames(leftSchema)
	rightNames := schemaNames(rightSchema)

	// A conjunct goes right only when every column it uses reached the
	// output from the right side under its original name.
	rightOK := n.How == plan.InnerJoin || n.How == plan.CrossJoin
	rightVisible := make(map[string]struct{}, len(rightNames))
	for name := range rightNames {
		if _, shadowed := leftNames[name]; !shadowed {
			rightVisible[name] = struct{}{}
		}
	}

	var leftConjs, rightConjs, blocked []frame.Expression
	for _, c := range conjuncts {
		cols := expression.Columns(c)
		if allIn(cols, leftNames) {
			leftConjs = append(leftConjs, c)
		} else if rightOK && allIn(cols, rightVisible) {
			rightConjs = append(rightConjs, c)
		} else {
			blocked = append(blocked, c)
		}
	}

	newLeft, err := pushAll(n.Left, leftConjs)
	if err != nil {
		return nil, nil, err
	}
	newRight, err := pushAll(n.Right, rightConjs)
	if err != nil {
		return nil, nil, err
	}
	nn, err := n.WithChildren(newLeft, newRight)
	if err != nil {
		return nil, nil, err
	}
	return nn, blocked, nil
}

// pushIntoAsofJoin sends left-only conjuncts into the left side. Each left
// row produces exactly one output row, so a filter on left columns selects
// the same rows on either side of the join. Right-side filters would change
// which rows are candidates for nearest-match and stay above.
func pushIntoAsofJoin(n *plan.AsofJoin, conjuncts []frame.Expression) (frame.Node, []frame.Expression, error) {
	leftSchema, err := n.Left.Schema()
	if err != nil {
		return nil, nil, err
	}
	pushable, blocked := splitByColumns(conjuncts, schemaNames(leftSchema))
	newLeft, err := pushAll(n.Left, pushable)
	if err != nil {
		return nil, nil, err
	}
	nn, err := n.WithChildren(newLeft, n.Right)
	if err != nil {
		return nil, nil, err
	}
	return nn, blocked, nil
}

// renameColumns rewrites every column reference in the expression through
// the mapping. Columns missing from the mapping keep their name.
func renameColumns(e frame.Expression, mapping map[string]string) (frame.Expression, error) {
	return expression.TransformUp(e, func(e frame.Expression) (frame.Expression, error) {
		c, ok := e.(*expression.Column)
		if !ok {
			return e, nil
		}
		if to, mapped := mapping[c.Name()]; mapped && to != c.Name() {
			return expression.NewColumn(to), nil
		}
		return e, nil
	})
}

func schemaNames(schema frame.Schema) map[string]struct{} {
	names := make(map[string]struct{}, len(schema))
	for _, c := range schema {
		names[c.Name] = struct{}{}
	}
	return names
}

func allIn(cols []string, set map[string]struct{}) bool {
	for _, name := range cols {
		if _, ok := set[name]; !ok {
			return false
		}
	}
	return true
}

func splitByColumns(conjuncts []frame.Expression, allowed map[string]struct{}) (pushable, blocked []frame.Expression) {
	for _, c := range conjuncts {
		if allIn(expression.Columns(c), allowed) {
			pushable = append(pushable, c)
		} else {
			blocked = append(blocked, c)
		}
	}
	return pushable, blocked
}
