package expression

import (
	"fmt"
	"time"

	"github.com/framelab/go-frame-engine/frame"
)

// Literal is a constant value. It evaluates to a length-1 series that
// consumers broadcast to the row count of the batch.
type Literal struct {
	value interface{}
	typ   frame.Type
}

// NewLiteral creates a new literal of the given type. The value must already
// be in the Go representation of the type.
func NewLiteral(value interface{}, typ frame.Type) *Literal {
	return &Literal{value: value, typ: typ}
}

// Lit creates a literal inferring the type from the Go value.
func Lit(value interface{}) *Literal {
	switch v := value.(type) {
	case nil:
		return NewLiteral(nil, frame.Null)
	case bool:
		return NewLiteral(v, frame.Boolean)
	case int:
		return NewLiteral(int64(v), frame.Int64)
	case int32:
		return NewLiteral(v, frame.Int32)
	case int64:
		return NewLiteral(v, frame.Int64)
	case float64:
		return NewLiteral(v, frame.Float64)
	case string:
		return NewLiteral(v, frame.Utf8)
	case time.Time:
		return NewLiteral(v, frame.Datetime)
	default:
		return NewLiteral(v, frame.Utf8)
	}
}

// Value returns the literal value.
func (l *Literal) Value() interface{} { return l.value }

// Name implements the Expression interface.
func (l *Literal) Name() string { return "literal" }

// Type implements the Expression interface.
func (l *Literal) Type(schema frame.Schema) (frame.Type, error) {
	return l.typ, nil
}

// LiteralType returns the type without needing a schema.
func (l *Literal) LiteralType() frame.Type { return l.typ }

// Eval implements the Expression interface.
func (l *Literal) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	return frame.NewSeries(l.Name(), l.typ, []interface{}{l.value}), nil
}

// Children implements the Expression interface.
func (l *Literal) Children() []frame.Expression { return nil }

// WithChildren implements the Expression interface.
func (l *Literal) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 0 {
		return nil, frame.ErrInvalidChildrenNumber.New(l, len(children), 0)
	}
	return l, nil
}

func (l *Literal) String() string {
	if l.value == nil {
		return "null"
	}
	if l.typ == frame.Utf8 {
		return fmt.Sprintf("%q", l.value)
	}
	return fmt.Sprintf("%v", l.value)
}
