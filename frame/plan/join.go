package plan

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
	"github.com/framelab/go-frame-engine/frame/expression"
)

// DefaultJoinSuffix is appended to right-side column names colliding with
// left-side names.
const DefaultJoinSuffix = "_right"

// JoinType is the kind of join.
type JoinType byte

const (
	// InnerJoin keeps rows with matches on both sides.
	InnerJoin JoinType = iota
	// LeftJoin keeps every left row, null-filling right columns.
	LeftJoin
	// OuterJoin keeps every row of both sides. Key columns are coalesced
	// into the left key name.
	OuterJoin
	// CrossJoin is the cartesian product; it has no keys.
	CrossJoin
	// SemiJoin keeps left rows with at least one match, left columns only.
	SemiJoin
	// AntiJoin keeps left rows with no match, left columns only.
	AntiJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case OuterJoin:
		return "outer"
	case CrossJoin:
		return "cross"
	case SemiJoin:
		return "semi"
	case AntiJoin:
		return "anti"
	default:
		return "invalid JoinType"
	}
}

// JoinTypeFromString is the inverse of JoinType.String.
func JoinTypeFromString(s string) (JoinType, error) {
	for t := InnerJoin; t <= AntiJoin; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, frame.ErrInvalidType.New(fmt.Sprintf("unknown join type %q", s))
}

// Join matches rows of two plans on equal key expression values.
type Join struct {
	BinaryNode
	LeftOn  []frame.Expression
	RightOn []frame.Expression
	How     JoinType
	// Suffix is appended to colliding right-side column names.
	Suffix string
	// AllowParallel materializes both sides concurrently.
	AllowParallel bool
	// ForceParallel materializes both sides concurrently even when the
	// executor would rather not.
	ForceParallel bool
}

// NewJoin creates a join of the given type. Key lists must have equal
// length; cross joins take no keys.
func NewJoin(left, right frame.Node, leftOn, rightOn []frame.Expression, how JoinType, suffix string) (*Join, error) {
	if how == CrossJoin {
		if len(leftOn) != 0 || len(rightOn) != 0 {
			return nil, frame.ErrInvalidType.New("cross join takes no keys")
		}
	} else if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, frame.ErrShape.New(fmt.Sprintf(
			"join got %d left keys and %d right keys", len(leftOn), len(rightOn)))
	}
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}
	return &Join{
		BinaryNode: BinaryNode{Left: left, Right: right},
		LeftOn:     leftOn,
		RightOn:    rightOn,
		How:        how,
		Suffix:     suffix,
	}, nil
}

// Schema implements the Node interface: left columns, then right columns
// minus the right-side join keys, with the suffix appended to right names
// colliding with left names. Semi and anti joins keep left columns only.
func (j *Join) Schema() (frame.Schema, error) {
	leftSchema, err := j.Left.Schema()
	if err != nil {
		return nil, err
	}
	rightSchema, err := j.Right.Schema()
	if err != nil {
		return nil, err
	}

	for i := range j.LeftOn {
		lt, err := j.LeftOn[i].Type(leftSchema)
		if err != nil {
			return nil, err
		}
		rt, err := j.RightOn[i].Type(rightSchema)
		if err != nil {
			return nil, err
		}
		if _, err := frame.Promote(lt, rt); err != nil {
			return nil, err
		}
	}

	if j.How == SemiJoin || j.How == AntiJoin {
		return leftSchema, nil
	}

	cols := make([]*frame.Column, 0, len(leftSchema)+len(rightSchema))
	cols = append(cols, leftSchema...)
	rightKeys := j.rightKeyColumns()
	for _, c := range rightSchema {
		if _, isKey := rightKeys[c.Name]; isKey {
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

// rightKeyColumns returns the right-side key names that are plain column
// references and therefore dropped from the output schema.
func (j *Join) rightKeyColumns() map[string]struct{} {
	keys := make(map[string]struct{}, len(j.RightOn))
	for _, e := range j.RightOn {
		if c, ok := e.(*expression.Column); ok {
			keys[c.Name()] = struct{}{}
		}
	}
	return keys
}

// WithChildren implements the Node interface.
func (j *Join) WithChildren(children ...frame.Node) (frame.Node, error) {
	if len(children) != 2 {
		return nil, frame.ErrInvalidChildrenNumber.New(j, len(children), 2)
	}
	nj := *j
	nj.BinaryNode = BinaryNode{Left: children[0], Right: children[1]}
	return &nj, nil
}

// Expressions implements the Expressioner interface.
func (j *Join) Expressions() []frame.Expression {
	exprs := make([]frame.Expression, 0, len(j.LeftOn)+len(j.RightOn))
	exprs = append(exprs, j.LeftOn...)
	exprs = append(exprs, j.RightOn...)
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (j *Join) WithExpressions(exprs ...frame.Expression) (frame.Node, error) {
	if len(exprs) != len(j.LeftOn)+len(j.RightOn) {
		return nil, frame.ErrInvalidChildrenNumber.New(j, len(exprs), len(j.LeftOn)+len(j.RightOn))
	}
	nj := *j
	nj.LeftOn = exprs[:len(j.LeftOn)]
	nj.RightOn = exprs[len(j.LeftOn):]
	return &nj, nil
}

func (j *Join) String() string {
	p := frame.NewTreePrinter()
	if j.How == CrossJoin {
		_ = p.WriteNode("CrossJoin")
	} else {
		_ = p.WriteNode("Join(%s, left_on=[%s], right_on=[%s])",
			j.How, exprsString(j.LeftOn), exprsString(j.RightOn))
	}
	_ = p.WriteChildren(j.Left.String(), j.Right.String())
	return p.String()
}
