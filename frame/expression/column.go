package expression

import "github.com/framelab/go-frame-engine/frame"

// Column is a reference to a column of the input batch by exact name.
type Column struct {
	name string
}

// NewColumn creates a new column reference.
func NewColumn(name string) *Column {
	return &Column{name: name}
}

// Name implements the Expression interface.
func (c *Column) Name() string { return c.name }

// Type implements the Expression interface.
func (c *Column) Type(schema frame.Schema) (frame.Type, error) {
	return schema.ColumnType(c.name)
}

// Eval implements the Expression interface.
func (c *Column) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	return t.Column(c.name)
}

// Children implements the Expression interface.
func (c *Column) Children() []frame.Expression { return nil }

// WithChildren implements the Expression interface.
func (c *Column) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 0 {
		return nil, frame.ErrInvalidChildrenNumber.New(c, len(children), 0)
	}
	return c, nil
}

func (c *Column) String() string { return c.name }
