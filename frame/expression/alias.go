package expression

import (
	"fmt"

	"github.com/framelab/go-frame-engine/frame"
)

// Alias renames the output column of an expression.
type Alias struct {
	UnaryExpression
	name string
}

// NewAlias returns a new Alias for the given expression.
func NewAlias(name string, expr frame.Expression) *Alias {
	return &Alias{UnaryExpression{expr}, name}
}

// Name implements the Expression interface.
func (e *Alias) Name() string { return e.name }

// Type implements the Expression interface.
func (e *Alias) Type(schema frame.Schema) (frame.Type, error) {
	return e.Child.Type(schema)
}

// Eval implements the Expression interface.
func (e *Alias) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	s, err := e.Child.Eval(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.WithName(e.name), nil
}

// WithChildren implements the Expression interface.
func (e *Alias) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 1 {
		return nil, frame.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	return NewAlias(e.name, children[0]), nil
}

func (e *Alias) String() string {
	return fmt.Sprintf("%s as %s", e.Child, e.name)
}
