package serde

import (
	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func decodeNode(p *planJSON, sources map[string]frame.Source) (frame.Node, error) {
	switch p.Kind {
	case "scan":
		src, ok := sources[p.Source]
		if !ok {
			return nil, ErrSourceNotFound.New(p.Source)
		}
		scan := plan.NewScan(src)
		if p.Projection != nil {
			scan = scan.WithProjection(p.Projection)
		}
		if p.Predicate != nil {
			pred, err := decodeExpr(p.Predicate)
			if err != nil {
				return nil, err
			}
			scan = scan.WithPredicate(pred)
		}
		if p.RowLimit != nil {
			scan = scan.WithRowLimit(*p.RowLimit)
		}
		return scan, nil

	case "filter":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		pred, err := decodeExpr(p.Predicate)
		if err != nil {
			return nil, err
		}
		return plan.NewFilter(pred, child), nil

	case "select":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		exprs, err := decodeExprs(p.Exprs)
		if err != nil {
			return nil, err
		}
		return plan.NewSelect(exprs, child), nil

	case "with_columns":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		exprs, err := decodeExprs(p.Exprs)
		if err != nil {
			return nil, err
		}
		return plan.NewWithColumns(exprs, child), nil

	case "group_by":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		keys, err := decodeExprs(p.Keys)
		if err != nil {
			return nil, err
		}
		aggs, err := decodeExprs(p.Aggs)
		if err != nil {
			return nil, err
		}
		return plan.NewGroupBy(keys, aggs, p.MaintainOrder, child)

	case "group_by_dynamic":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		aggs, err := decodeExprs(p.Aggs)
		if err != nil {
			return nil, err
		}
		closed, err := closedFromString(p.Closed)
		if err != nil {
			return nil, err
		}
		return plan.NewGroupByDynamic(
			p.IndexColumn, i64(p.Every), i64(p.Period), i64(p.Offset), closed, aggs, child)

	case "group_by_rolling":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		aggs, err := decodeExprs(p.Aggs)
		if err != nil {
			return nil, err
		}
		closed, err := closedFromString(p.Closed)
		if err != nil {
			return nil, err
		}
		return plan.NewGroupByRolling(p.IndexColumn, i64(p.Period), closed, aggs, child)

	case "join":
		left, err := decodeNode(p.Left, sources)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(p.Right, sources)
		if err != nil {
			return nil, err
		}
		leftOn, err := decodeExprs(p.LeftOn)
		if err != nil {
			return nil, err
		}
		rightOn, err := decodeExprs(p.RightOn)
		if err != nil {
			return nil, err
		}
		how, err := plan.JoinTypeFromString(p.How)
		if err != nil {
			return nil, err
		}
		join, err := plan.NewJoin(left, right, leftOn, rightOn, how, p.Suffix)
		if err != nil {
			return nil, err
		}
		join.AllowParallel = p.AllowParallel
		join.ForceParallel = p.ForceParallel
		return join, nil

	case "asof_join":
		left, err := decodeNode(p.Left, sources)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(p.Right, sources)
		if err != nil {
			return nil, err
		}
		strategy, err := asofStrategyFromString(p.Strategy)
		if err != nil {
			return nil, err
		}
		join, err := plan.NewAsofJoin(left, right, p.LeftOnColumn, p.RightOnColumn, strategy, p.Suffix)
		if err != nil {
			return nil, err
		}
		if len(p.LeftBy) > 0 {
			if join, err = join.WithBy(p.LeftBy, p.RightBy); err != nil {
				return nil, err
			}
		}
		if p.Tolerance > 0 {
			join = join.WithTolerance(p.Tolerance)
		}
		return join, nil

	case "sort":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		fields := make([]plan.SortField, len(p.Fields))
		for i, f := range p.Fields {
			col, err := decodeExpr(f.Column)
			if err != nil {
				return nil, err
			}
			fields[i] = plan.SortField{
				Column:     col,
				Descending: f.Descending,
				NullsLast:  f.NullsLast,
			}
		}
		return plan.NewSort(fields, child), nil

	case "slice":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		length := int64(-1)
		if p.Len != nil {
			length = *p.Len
		}
		return plan.NewSlice(i64(p.Offset), length, child), nil

	case "distinct":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		keep, err := keepFromString(p.Keep)
		if err != nil {
			return nil, err
		}
		return plan.NewDistinct(p.Subset, keep, p.MaintainOrder, child), nil

	case "drop_nulls":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		return plan.NewDropNulls(p.Subset, child), nil

	case "explode":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		return plan.NewExplode(p.Columns, child), nil

	case "unnest":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		return plan.NewUnnest(p.Columns, child), nil

	case "melt":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		melt := plan.NewMelt(p.IDVars, p.ValueVars, child)
		if p.VariableName != "" {
			melt.VariableName = p.VariableName
		}
		if p.ValueName != "" {
			melt.ValueName = p.ValueName
		}
		return melt, nil

	case "union":
		inputs := make([]frame.Node, len(p.Inputs))
		for i, in := range p.Inputs {
			node, err := decodeNode(in, sources)
			if err != nil {
				return nil, err
			}
			inputs[i] = node
		}
		return plan.NewUnion(inputs, p.AllowParallel)

	case "rename":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		return plan.NewRename(p.Mapping, child), nil

	case "with_row_count":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		return plan.NewWithRowCount(p.Name, i64(p.Offset), child), nil

	case "cache":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		// The identity is preserved so caches shared across serialized
		// plans still publish once.
		return &plan.Cache{UnaryNode: plan.UnaryNode{Child: child}, Id: p.Id}, nil

	case "with_context":
		child, err := decodeNode(p.Input, sources)
		if err != nil {
			return nil, err
		}
		contexts := make([]frame.Node, len(p.Contexts))
		for i, c := range p.Contexts {
			if contexts[i], err = decodeNode(c, sources); err != nil {
				return nil, err
			}
		}
		return plan.NewWithContext(child, contexts...), nil

	default:
		return nil, ErrUnknownKind.New("node", p.Kind)
	}
}

func decodeExprs(exprs []*exprJSON) ([]frame.Expression, error) {
	out := make([]frame.Expression, len(exprs))
	for i, e := range exprs {
		expr, err := decodeExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}

func decodeExpr(p *exprJSON) (frame.Expression, error) {
	switch p.Kind {
	case "column":
		return expression.NewColumn(p.Name), nil

	case "literal":
		typ, err := frame.TypeFromName(p.Type)
		if err != nil {
			return nil, err
		}
		value, err := typ.Convert(p.Value)
		if err != nil {
			return nil, err
		}
		return expression.NewLiteral(value, typ), nil

	case "alias":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		return expression.NewAlias(p.Name, input), nil

	case "arithmetic":
		left, right, err := decodePair(p)
		if err != nil {
			return nil, err
		}
		return expression.NewArithmetic(p.Op, left, right), nil

	case "unary_minus":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		return expression.NewUnaryMinus(input), nil

	case "comparison":
		left, right, err := decodePair(p)
		if err != nil {
			return nil, err
		}
		return expression.NewComparison(p.Op, left, right), nil

	case "and":
		left, right, err := decodePair(p)
		if err != nil {
			return nil, err
		}
		return expression.NewAnd(left, right), nil

	case "or":
		left, right, err := decodePair(p)
		if err != nil {
			return nil, err
		}
		return expression.NewOr(left, right), nil

	case "not":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		return expression.NewNot(input), nil

	case "is_null":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		return expression.NewIsNull(input), nil

	case "cast":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		typ, err := frame.TypeFromName(p.Type)
		if err != nil {
			return nil, err
		}
		return expression.NewCast(input, typ), nil

	case "agg":
		input, err := decodeExpr(p.Input)
		if err != nil {
			return nil, err
		}
		kind, err := expression.AggKindFromString(p.Agg)
		if err != nil {
			return nil, err
		}
		return expression.NewAggregate(kind, input), nil

	case "window":
		agg, err := decodeExpr(p.AggExpr)
		if err != nil {
			return nil, err
		}
		partitionBy, err := decodeExprs(p.PartitionBy)
		if err != nil {
			return nil, err
		}
		window := expression.NewWindow(agg, partitionBy...)
		if len(p.OrderBy) > 0 {
			orderBy, err := decodeExprs(p.OrderBy)
			if err != nil {
				return nil, err
			}
			window = window.WithOrderBy(orderBy, p.Descending)
		}
		return window, nil

	case "wildcard":
		return expression.NewWildcard(), nil

	case "exclude":
		return expression.NewExclude(p.Exclude...), nil

	default:
		return nil, ErrUnknownKind.New("expression", p.Kind)
	}
}

func decodePair(p *exprJSON) (frame.Expression, frame.Expression, error) {
	left, err := decodeExpr(p.Left)
	if err != nil {
		return nil, nil, err
	}
	right, err := decodeExpr(p.Right)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func closedFromString(s string) (plan.ClosedWindow, error) {
	switch s {
	case "left", "":
		return plan.ClosedLeft, nil
	case "right":
		return plan.ClosedRight, nil
	case "both":
		return plan.ClosedBoth, nil
	case "none":
		return plan.ClosedNone, nil
	}
	return 0, ErrUnknownKind.New("closed window", s)
}

func keepFromString(s string) (plan.KeepPolicy, error) {
	switch s {
	case "first", "":
		return plan.KeepFirst, nil
	case "last":
		return plan.KeepLast, nil
	case "none":
		return plan.KeepNone, nil
	}
	return 0, ErrUnknownKind.New("keep policy", s)
}

func asofStrategyFromString(s string) (plan.AsofStrategy, error) {
	switch s {
	case "backward", "":
		return plan.AsofBackward, nil
	case "forward":
		return plan.AsofForward, nil
	}
	return 0, ErrUnknownKind.New("asof strategy", s)
}

func i64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
