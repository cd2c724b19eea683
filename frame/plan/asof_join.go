package plan

import (
	"fmt"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// AsofStrategy selects which right row an asof join matches.
type AsofStrategy byte

const (
	// AsofBackward matches the last right row whose key is <= the left key.
	AsofBackward AsofStrategy = iota
	// AsofForward matches the first right row whose key is >= the left key.
	AsofForward
)

func (s AsofStrategy) String() string {
	if s == AsofForward {
		return "forward"
	}
	return "backward"
}

// AsofJoin matches each left row to the nearest right row by key ordering
// rather than exact equality. Both inputs must already be sorted ascending
// by their key column; the engine does not validate this, and unsorted input
// yields incorrect matches without crashing.
type AsofJoin struct {
	BinaryNode
	LeftOn  string
	RightOn string
	// LeftBy/RightBy optionally restrict matching to rows with equal values
	// in these columns.
	LeftBy   []string
	RightBy  []string
	Strategy AsofStrategy
	// Tolerance, when positive, rejects matches whose absolute key distance
	// exceeds it, leaving the match null.
	Tolerance float64
	Suffix    string
}

// NewAsofJoin creates a new asof join node.
func NewAsofJoin(left, right frame.Node, leftOn, rightOn string, strategy AsofStrategy, suffix string) (*AsofJoin, error) {
	if leftOn == "" || rightOn == "" {
		return nil, frame.ErrInvalidType.New("asof join requires a key column on both sides")
	}
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}
	return &AsofJoin{
		BinaryNode: BinaryNode{Left: left, Right: right},
		LeftOn:     leftOn,
		RightOn:    rightOn,
		Strategy:   strategy,
		Suffix:     suffix,
	}, nil
}

// WithBy returns a copy matching only within groups of equal by-column
// values.
func (j *AsofJoin) WithBy(leftBy, rightBy []string) (*AsofJoin, error) {
	if len(leftBy) != len(rightBy) {
		return nil, frame.ErrShape.New(fmt.Sprintf(
			"asof join got %d left by-columns and %d right by-columns", len(leftBy), len(rightBy)))
	}
	nj := *j
	nj.LeftBy = leftBy
	nj.RightBy = rightBy
	return &nj, nil
}

// WithTolerance returns a copy rejecting matches farther than the given key
// distance.
func (j *AsofJoin) WithTolerance(tolerance float64) *AsofJoin {
	nj := *j
	nj.Tolerance = tolerance
	return &nj
}

// Schema implements the Node interface: left columns, then right columns
// minus the right key and by-columns, suffixed on collision.
func (j *AsofJoin) Schema() (frame.Schema, error) {
	leftSchema, err := j.Left.Schema()
	if err != nil {
		return nil, err
	}
	rightSchema, err := j.Right.Schema()
	if err != nil {
		return nil, err
	}

	lt, err := leftSchema.ColumnType(j.LeftOn)
	if err != nil {
		return nil, err
	}
	rt, err := rightSchema.ColumnType(j.RightOn)
	if err != nil {
		return nil, err
	}
	if _, err := frame.Promote(lt, rt); err != nil {
		return nil, err
	}
	for i := range j.LeftBy {
		if !leftSchema.Contains(j.LeftBy[i]) {
			return nil, frame.ErrColumnNotFound.New(j.LeftBy[i])
		}
		if !rightSchema.Contains(j.RightBy[i]) {
			return nil, frame.ErrColumnNotFound.New(j.RightBy[i])
		}
	}

	dropped := map[string]struct{}{j.RightOn: {}}
	for _, name := range j.RightBy {
		dropped[name] = struct{}{}
	}
	cols := make([]*frame.Column, 0, len(leftSchema)+len(rightSchema))
	cols = append(cols, leftSchema...)
	for _, c := range rightSchema {
		if _, drop := dropped[c.Name]; drop {
			continue
		}
		name := c.Name
		if leftSchema.Contains(name) {
			name += j.Suffix
		}
		cols = append(cols, &frame.Column{Name: name, Type: c.Type})
	}
	return frame.NewSchema(cols...)
}

// WithChildren implements the Node interface.
func (j *AsofJoin) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(j, len(children), 2)
	}
	nj := *j
	nj.BinaryNode = BinaryNode{Left: children[0], Right: children[1]}
	return &nj, nil
}

func (j *AsofJoin) String() string {
	p := frame.NewTreePrinter()
	desc := fmt.Sprintf("AsofJoin(%s, left_on=%s, right_on=%s", j.Strategy, j.LeftOn, j.RightOn)
	if len(j.LeftBy) > 0 {
		desc += fmt.Sprintf(", by=[%s]", strings.Join(j.LeftBy, ", "))
	}
	if j.Tolerance > 0 {
		desc += fmt.Sprintf(", tolerance=%v", j.Tolerance)
	}
	_ = p.WriteNode(desc + ")")
	_ = p.WriteChildren(j.Left.String(), j.Right.String())
	return p.String()
}
