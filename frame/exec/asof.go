package exec

import (
	"math"
	"time"

	"github.com/mitchellh/hashstructure"
	"github.com/spf13/cast"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/plan"
)

func (e *executor) executeAsofJoin(ctx *frame.Context, n *plan.AsofJoin) (*frame.Table, error) {
	span, ctx := ctx.Span("asof_join")
	defer span.Finish()

	left, right, err := e.executeSides(ctx, n.Left, n.Right, false)
	if err != nil {
		return nil, err
	}

	leftKey, err := asofKeys(left, n.LeftOn)
	if err != nil {
		return nil, err
	}
	rightKey, err := asofKeys(right, n.RightOn)
	if err != nil {
		return nil, err
	}

	// Right rows per by-group, in input order. Input order is the assumed
	// key order; unsorted input gives wrong matches, not errors.
	rightGroups := map[uint64][]int{0: nil}
	grouped := len(n.LeftBy) > 0
	if grouped {
		rightGroups = make(map[uint64][]int)
	}
	for row := 0; row < right.NumRows(); row++ {
		if math.IsNaN(rightKey[row]) {
			continue
		}
		h := uint64(0)
		if grouped {
			if h, err = byHash(right, n.RightBy, row); err != nil {
				return nil, err
			}
		}
		rightGroups[h] = append(rightGroups[h], row)
	}

	match := make([]int, left.NumRows())
	for row := 0; row < left.NumRows(); row++ {
		match[row] = -1
		k := leftKey[row]
		if math.IsNaN(k) {
			continue
		}
		h := uint64(0)
		if grouped {
			if h, err = byHash(left, n.LeftBy, row); err != nil {
				return nil, err
			}
		}
		candidates := rightGroups[h]
		m := findAsofMatch(k, candidates, rightKey, n.Strategy)
		if m >= 0 && n.Tolerance > 0 && math.Abs(k-rightKey[m]) > n.Tolerance {
			m = -1
		}
		match[row] = m
	}

	return assembleAsof(n, left, right, match)
}

// asofKeys converts the key column into float64 ordinals, using NaN for
// nulls. Datetimes become microseconds since the epoch so tolerances are
// expressed in microseconds for time keys.
func asofKeys(t *frame.Table, name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	keys := make([]float64, col.Len())
	for i := range keys {
		if col.IsNull(i) {
			keys[i] = math.NaN()
			continue
		}
		if ts, ok := col.Value(i).(time.Time); ok {
			keys[i] = float64(ts.UnixMicro())
			continue
		}
		f, err := cast.ToFloat64E(col.Value(i))
		if err != nil {
			return nil, frame.ErrInvalidType.New("asof join key: " + err.Error())
		}
		keys[i] = f
	}
	return keys, nil
}

// findAsofMatch returns the candidate matching k under the strategy:
// backward takes the last candidate with key <= k, forward the first with
// key >= k. Candidates are assumed sorted ascending by key, so equal keys
// tie-break to an exact match under both strategies.
func findAsofMatch(k float64, candidates []int, rightKey []float64, strategy plan.AsofStrategy) int {
	if strategy == plan.AsofForward {
		for _, row := range candidates {
			if rightKey[row] >= k {
				return row
			}
		}
		return -1
	}
	m := -1
	for _, row := range candidates {
		if rightKey[row] > k {
			break
		}
		m = row
	}
	return m
}

func byHash(t *frame.Table, by []string, row int) (uint64, error) {
	cells := make([]interface{}, len(by))
	for i, name := range by {
		col, err := t.Column(name)
		if err != nil {
			return 0, err
		}
		cells[i] = col.Value(row)
	}
	h, err := hashstructure.Hash(cells, nil)
	if err != nil {
		return 0, frame.ErrCompute.New(err.Error())
	}
	return h, nil
}

func assembleAsof(n *plan.AsofJoin, left, right *frame.Table, match []int) (*frame.Table, error) {
	leftSchema := left.Schema()
	dropped := map[string]struct{}{n.RightOn: {}}
	for _, name := range n.RightBy {
		dropped[name] = struct{}{}
	}

	cols := make([]*frame.Series, 0, left.NumColumns()+right.NumColumns())
	cols = append(cols, left.Columns()...)
	for _, c := range right.Schema() {
		if _, drop := dropped[c.Name]; drop {
			continue
		}
		name := c.Name
		if leftSchema.Contains(name) {
			name += n.Suffix
		}
		col, err := right.Column(c.Name)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(match))
		for out, ri := range match {
			if ri >= 0 {
				values[out] = col.Value(ri)
			}
		}
		cols = append(cols, frame.NewSeries(name, c.Type, values))
	}
	return frame.NewTable(cols...)
}
