package serde

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func encodeNode(node frame.Node) (*planJSON, error) {
	switch n := node.(type) {
	case *plan.Scan:
		p := &planJSON{
			Kind:       "scan",
			Source:     n.Src.Name(),
			Projection: n.Projection,
		}
		if n.Predicate != nil {
			pred, err := encodeExpr(n.Predicate)
			if err != nil {
				return nil, err
			}
			p.Predicate = pred
		}
		if n.RowLimit >= 0 {
			p.RowLimit = ptr(n.RowLimit)
		}
		return p, nil

	case *plan.Filter:
		pred, err := encodeExpr(n.Predicate)
		if err != nil {
			return nil, err
		}
		return encodeUnary("filter", n.Child, &planJSON{Predicate: pred})

	case *plan.Select:
		exprs, err := encodeExprs(n.Exprs)
		if err != nil {
			return nil, err
		}
		return encodeUnary("select", n.Child, &planJSON{Exprs: exprs})

	case *plan.WithColumns:
		exprs, err := encodeExprs(n.Exprs)
		if err != nil {
			return nil, err
		}
		return encodeUnary("with_columns", n.Child, &planJSON{Exprs: exprs})

	case *plan.GroupBy:
		keys, err := encodeExprs(n.Keys)
		if err != nil {
			return nil, err
		}
		aggs, err := encodeExprs(n.Aggs)
		if err != nil {
			return nil, err
		}
		return encodeUnary("group_by", n.Child, &planJSON{
			Keys:          keys,
			Aggs:          aggs,
			MaintainOrder: n.MaintainOrder,
		})

	case *plan.GroupByDynamic:
		aggs, err := encodeExprs(n.Aggs)
		if err != nil {
			return nil, err
		}
		return encodeUnary("group_by_dynamic", n.Child, &planJSON{
			IndexColumn: n.IndexColumn,
			Every:       ptr(n.Every),
			Period:      ptr(n.Period),
			Offset:      ptr(n.Offset),
			Closed:      n.Closed.String(),
			Aggs:        aggs,
		})

	case *plan.GroupByRolling:
		aggs, err := encodeExprs(n.Aggs)
		if err != nil {
			return nil, err
		}
		return encodeUnary("group_by_rolling", n.Child, &planJSON{
			IndexColumn: n.IndexColumn,
			Period:      ptr(n.Period),
			Closed:      n.Closed.String(),
			Aggs:        aggs,
		})

	case *plan.Join:
		left, err := encodeNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(n.Right)
		if err != nil {
			return nil, err
		}
		leftOn, err := encodeExprs(n.LeftOn)
		if err != nil {
			return nil, err
		}
		rightOn, err := encodeExprs(n.RightOn)
		if err != nil {
			return nil, err
		}
		return &planJSON{
			Kind:          "join",
			Left:          left,
			Right:         right,
			LeftOn:        leftOn,
			RightOn:       rightOn,
			How:           n.How.String(),
			Suffix:        n.Suffix,
			AllowParallel: n.AllowParallel,
			ForceParallel: n.ForceParallel,
		}, nil

	case *plan.AsofJoin:
		left, err := encodeNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(n.Right)
		if err != nil {
			return nil, err
		}
		return &planJSON{
			Kind:          "asof_join",
			Left:          left,
			Right:         right,
			LeftOnColumn:  n.LeftOn,
			RightOnColumn: n.RightOn,
			LeftBy:        n.LeftBy,
			RightBy:       n.RightBy,
			Strategy:      n.Strategy.String(),
			Tolerance:     n.Tolerance,
			Suffix:        n.Suffix,
		}, nil

	case *plan.Sort:
		fields := make([]*sortFieldJSON, len(n.Fields))
		for i, f := range n.Fields {
			col, err := encodeExpr(f.Column)
			if err != nil {
				return nil, err
			}
			fields[i] = &sortFieldJSON{
				Column:     col,
				Descending: f.Descending,
				NullsLast:  f.NullsLast,
			}
		}
		return encodeUnary("sort", n.Child, &planJSON{Fields: fields})

	case *plan.Slice:
		return encodeUnary("slice", n.Child, &planJSON{
			Offset: ptr(n.Offset),
			Len:    ptr(n.Len),
		})

	case *plan.Distinct:
		return encodeUnary("distinct", n.Child, &planJSON{
			Subset:        n.Subset,
			Keep:          n.Keep.String(),
			MaintainOrder: n.MaintainOrder,
		})

	case *plan.DropNulls:
		return encodeUnary("drop_nulls", n.Child, &planJSON{Subset: n.Subset})

	case *plan.Explode:
		return encodeUnary("explode", n.Child, &planJSON{Columns: n.Columns})

	case *plan.Unnest:
		return encodeUnary("unnest", n.Child, &planJSON{Columns: n.Columns})

	case *plan.Melt:
		return encodeUnary("melt", n.Child, &planJSON{
			IDVars:       n.IDVars,
			ValueVars:    n.ValueVars,
			VariableName: n.VariableName,
			ValueName:    n.ValueName,
		})

	case *plan.Union:
		inputs := make([]*planJSON, len(n.Inputs))
		for i, in := range n.Inputs {
			p, err := encodeNode(in)
			if err != nil {
				return nil, err
			}
			inputs[i] = p
		}
		return &planJSON{
			Kind:          "union",
			Inputs:        inputs,
			AllowParallel: n.AllowParallel,
		}, nil

	case *plan.Rename:
		return encodeUnary("rename", n.Child, &planJSON{Mapping: n.Mapping})

	case *plan.WithRowCount:
		return encodeUnary("with_row_count", n.Child, &planJSON{
			Name:   n.ColName,
			Offset: ptr(n.Offset),
		})

	case *plan.Cache:
		return encodeUnary("cache", n.Child, &planJSON{Id: n.Id})

	case *plan.WithContext:
		contexts := make([]*planJSON, len(n.Contexts))
		for i, c := range n.Contexts {
			p, err := encodeNode(c)
			if err != nil {
				return nil, err
			}
			contexts[i] = p
		}
		return encodeUnary("with_context", n.Child, &planJSON{Contexts: contexts})

	case *plan.MapFunction:
		return nil, ErrNotSerializable.New(fmt.Sprintf(
			"map function %q holds an opaque Go function", n.Desc))

	default:
		return nil, ErrNotSerializable.New(fmt.Sprintf("unsupported node %T", node))
	}
}

func encodeUnary(kind string, child frame.Node, p *planJSON) (*planJSON, error) {
	input, err := encodeNode(child)
	if err != nil {
		return nil, err
	}
	p.Kind = kind
	p.Input = input
	return p, nil
}

func encodeExprs(exprs []frame.Expression) ([]*exprJSON, error) {
	out := make([]*exprJSON, len(exprs))
	for i, e := range exprs {
		p, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func encodeExpr(expr frame.Expression) (*exprJSON, error) {
	switch e := expr.(type) {
	case *expression.Column:
		return &exprJSON{Kind: "column", Name: e.Name()}, nil

	case *expression.Literal:
		return &exprJSON{
			Kind:  "literal",
			Type:  e.LiteralType().Name(),
			Value: e.Value(),
		}, nil

	case *expression.Alias:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "alias", Name: e.Name(), Input: input}, nil

	case *expression.Arithmetic:
		left, right, err := encodePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "arithmetic", Op: e.Op, Left: left, Right: right}, nil

	case *expression.UnaryMinus:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "unary_minus", Input: input}, nil

	case *expression.Comparison:
		left, right, err := encodePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "comparison", Op: e.Op, Left: left, Right: right}, nil

	case *expression.And:
		left, right, err := encodePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "and", Left: left, Right: right}, nil

	case *expression.Or:
		left, right, err := encodePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "or", Left: left, Right: right}, nil

	case *expression.Not:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "not", Input: input}, nil

	case *expression.IsNull:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "is_null", Input: input}, nil

	case *expression.Cast:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "cast", Type: e.TargetType().Name(), Input: input}, nil

	case *expression.Aggregate:
		input, err := encodeExpr(e.Child)
		if err != nil {
			return nil, err
		}
		return &exprJSON{Kind: "agg", Agg: e.Kind.String(), Input: input}, nil

	case *expression.Window:
		agg, err := encodeExpr(e.Agg)
		if err != nil {
			return nil, err
		}
		partitionBy, err := encodeExprs(e.PartitionBy)
		if err != nil {
			return nil, err
		}
		orderBy, err := encodeExprs(e.OrderBy)
		if err != nil {
			return nil, err
		}
		return &exprJSON{
			Kind:        "window",
			AggExpr:     agg,
			PartitionBy: partitionBy,
			OrderBy:     orderBy,
			Descending:  e.Descending,
		}, nil

	case *expression.Wildcard:
		return &exprJSON{Kind: "wildcard"}, nil

	case *expression.Exclude:
		return &exprJSON{Kind: "exclude", Exclude: e.Excluded()}, nil

	case *expression.Function:
		return nil, ErrNotSerializable.New(fmt.Sprintf(
			"function %q holds an opaque Go function", e.Name()))

	default:
		return nil, ErrNotSerializable.New(fmt.Sprintf("unsupported expression %T", expr))
	}
}

func encodePair(left, right frame.Expression) (*exprJSON, *exprJSON, error) {
	l, err := encodeExpr(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := encodeExpr(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}
