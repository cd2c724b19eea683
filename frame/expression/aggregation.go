package expression

import (
	"fmt"
	"math"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/mitchellh/hashstructure"
	"github.com/spf13/cast"
)

// AggKind enumerates the aggregation operations.
type AggKind byte

const (
	// SumAgg sums the non-null cells of the group; an empty group sums to 0.
	SumAgg AggKind = iota
	// MinAgg takes the minimum non-null cell.
	MinAgg
	// MaxAgg takes the maximum non-null cell.
	MaxAgg
	// MeanAgg averages the non-null cells.
	MeanAgg
	// CountAgg counts the rows of the group, nulls included.
	CountAgg
	// FirstAgg takes the first cell of the group.
	FirstAgg
	// LastAgg takes the last cell of the group.
	LastAgg
	// NUniqueAgg counts the distinct non-null cells.
	NUniqueAgg
	// StdAgg is the sample standard deviation. It is strict: a group with no
	// non-null cells has no defined result.
	StdAgg
	// VarAgg is the sample variance, strict like StdAgg.
	VarAgg
)

func (k AggKind) String() string {
	switch k {
	case SumAgg:
		return "sum"
	case MinAgg:
		return "min"
	case MaxAgg:
		return "max"
	case MeanAgg:
		return "mean"
	case CountAgg:
		return "count"
	case FirstAgg:
		return "first"
	case LastAgg:
		return "last"
	case NUniqueAgg:
		return "n_unique"
	case StdAgg:
		return "std"
	case VarAgg:
		return "var"
	default:
		return "invalid AggKind"
	}
}

// AggKindFromString is the inverse of AggKind.String, used by the plan
// interchange format.
func AggKindFromString(s string) (AggKind, error) {
	for k := SumAgg; k <= VarAgg; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, frame.ErrInvalidType.New(fmt.Sprintf("unknown aggregation %q", s))
}

// Aggregate reduces its operand to one value per group. Outside a group-by
// it evaluates as a global aggregation over the whole batch, producing a
// length-1 series.
type Aggregate struct {
	UnaryExpression
	Kind AggKind
}

var _ frame.Aggregation = (*Aggregate)(nil)

// NewAggregate creates an aggregation of the given kind.
func NewAggregate(kind AggKind, child frame.Expression) *Aggregate {
	return &Aggregate{UnaryExpression{child}, kind}
}

// NewSum creates a sum aggregation.
func NewSum(child frame.Expression) *Aggregate { return NewAggregate(SumAgg, child) }

// NewMin creates a min aggregation.
func NewMin(child frame.Expression) *Aggregate { return NewAggregate(MinAgg, child) }

// NewMax creates a max aggregation.
func NewMax(child frame.Expression) *Aggregate { return NewAggregate(MaxAgg, child) }

// NewMean creates a mean aggregation.
func NewMean(child frame.Expression) *Aggregate { return NewAggregate(MeanAgg, child) }

// NewCount creates a count aggregation.
func NewCount(child frame.Expression) *Aggregate { return NewAggregate(CountAgg, child) }

// NewFirst creates a first aggregation.
func NewFirst(child frame.Expression) *Aggregate { return NewAggregate(FirstAgg, child) }

// NewLast creates a last aggregation.
func NewLast(child frame.Expression) *Aggregate { return NewAggregate(LastAgg, child) }

// NewNUnique creates a distinct-count aggregation.
func NewNUnique(child frame.Expression) *Aggregate { return NewAggregate(NUniqueAgg, child) }

// NewStd creates a sample standard deviation aggregation.
func NewStd(child frame.Expression) *Aggregate { return NewAggregate(StdAgg, child) }

// NewVar creates a sample variance aggregation.
func NewVar(child frame.Expression) *Aggregate { return NewAggregate(VarAgg, child) }

// Name implements the Expression interface. The default output name derives
// from the operation, e.g. sum over column x is "sum_x".
func (a *Aggregate) Name() string {
	return fmt.Sprintf("%s_%s", a.Kind, a.Child.Name())
}

// Type implements the Expression interface.
func (a *Aggregate) Type(schema frame.Schema) (frame.Type, error) {
	childType, err := a.Child.Type(schema)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case CountAgg, NUniqueAgg:
		return frame.Int64, nil
	case MinAgg, MaxAgg, FirstAgg, LastAgg:
		return childType, nil
	case MeanAgg, StdAgg, VarAgg:
		if childType != frame.Null && !frame.IsNumeric(childType) {
			return nil, frame.ErrInvalidType.New(fmt.Sprintf(
				"%s is not defined on %s", a.Kind, childType.Name()))
		}
		return frame.Float64, nil
	case SumAgg:
		switch {
		case childType == frame.Null:
			return frame.Null, nil
		case frame.IsInteger(childType):
			return frame.Int64, nil
		case frame.IsFloat(childType):
			return frame.Float64, nil
		case childType == frame.Boolean:
			return frame.Int64, nil
		default:
			return nil, frame.ErrInvalidType.New(fmt.Sprintf(
				"sum is not defined on %s", childType.Name()))
		}
	}
	return nil, frame.ErrInvalidType.New(fmt.Sprintf("unknown aggregation %d", a.Kind))
}

// Eval implements the Expression interface: a global aggregation over the
// whole batch.
func (a *Aggregate) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	all := make([]int, t.NumRows())
	for i := range all {
		all[i] = i
	}
	return a.EvalGroups(ctx, t, [][]int{all})
}

// EvalGroups implements the Aggregation interface.
func (a *Aggregate) EvalGroups(ctx *frame.Context, t *frame.Table, groups [][]int) (*frame.Series, error) {
	operand, err := a.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	outType, err := a.Type(t.Schema())
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(groups))
	for gi, group := range groups {
		v, err := a.aggregate(operand, group, outType)
		if err != nil {
			return nil, err
		}
		values[gi] = v
	}
	return frame.NewSeries(a.Name(), outType, values), nil
}

func (a *Aggregate) aggregate(operand *frame.Series, group []int, outType frame.Type) (interface{}, error) {
	switch a.Kind {
	case CountAgg:
		return int64(len(group)), nil

	case FirstAgg:
		if len(group) == 0 {
			return nil, nil
		}
		return operand.Value(group[0]), nil

	case LastAgg:
		if len(group) == 0 {
			return nil, nil
		}
		return operand.Value(group[len(group)-1]), nil

	case NUniqueAgg:
		seen := make(map[uint64]struct{})
		for _, i := range group {
			if operand.IsNull(i) {
				continue
			}
			h, err := hashstructure.Hash(operand.Value(i), nil)
			if err != nil {
				return nil, frame.ErrCompute.New(err.Error())
			}
			seen[h] = struct{}{}
		}
		return int64(len(seen)), nil

	case MinAgg, MaxAgg:
		var best interface{}
		for _, i := range group {
			if operand.IsNull(i) {
				continue
			}
			v := operand.Value(i)
			if best == nil {
				best = v
				continue
			}
			cmp, err := operand.Type().Compare(v, best)
			if err != nil {
				return nil, err
			}
			if (a.Kind == MinAgg && cmp < 0) || (a.Kind == MaxAgg && cmp > 0) {
				best = v
			}
		}
		return best, nil

	case SumAgg:
		if outType == frame.Null {
			return nil, nil
		}
		if frame.IsFloat(outType) {
			var sum float64
			for _, i := range group {
				if operand.IsNull(i) {
					continue
				}
				f, err := cast.ToFloat64E(operand.Value(i))
				if err != nil {
					return nil, frame.ErrCompute.New(err.Error())
				}
				sum += f
			}
			return sum, nil
		}
		var sum int64
		for _, i := range group {
			if operand.IsNull(i) {
				continue
			}
			n, err := cast.ToInt64E(operand.Value(i))
			if err != nil {
				return nil, frame.ErrCompute.New(err.Error())
			}
			sum += n
		}
		return sum, nil

	case MeanAgg, StdAgg, VarAgg:
		var sum float64
		var n int
		for _, i := range group {
			if operand.IsNull(i) {
				continue
			}
			f, err := cast.ToFloat64E(operand.Value(i))
			if err != nil {
				return nil, frame.ErrCompute.New(err.Error())
			}
			sum += f
			n++
		}
		if a.Kind == MeanAgg {
			if n == 0 {
				return nil, nil
			}
			return sum / float64(n), nil
		}
		if n == 0 {
			return nil, frame.ErrNoData.New(fmt.Sprintf(
				"%s over empty input", a.Kind))
		}
		if n == 1 {
			return nil, nil
		}
		mean := sum / float64(n)
		var acc float64
		for _, i := range group {
			if operand.IsNull(i) {
				continue
			}
			f, _ := cast.ToFloat64E(operand.Value(i))
			acc += (f - mean) * (f - mean)
		}
		variance := acc / float64(n-1)
		if a.Kind == VarAgg {
			return variance, nil
		}
		return math.Sqrt(variance), nil
	}
	return nil, frame.ErrCompute.New(fmt.Sprintf("unknown aggregation %d", a.Kind))
}

// WithChildren implements the Expression interface.
func (a *Aggregate) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(a, len(children), 1)
	}
	return NewAggregate(a.Kind, children[0]), nil
}

func (a *Aggregate) String() string {
	return fmt.Sprintf("%s(%s)", a.Kind, a.Child)
}
