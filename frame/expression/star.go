package expression

import (
	"fmt"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// Wildcard stands for all columns of the current schema. It is a
// placeholder: it expands to concrete column references at the point it
// meets a schema, which makes it positionally unstable across schema changes
// on purpose.
type Wildcard struct{}

var _ frame.Expander = (*Wildcard)(nil)

// NewWildcard returns a new Wildcard expression.
func NewWildcard() *Wildcard {
	return new(Wildcard)
}

// Expand implements the Expander interface.
func (Wildcard) Expand(schema frame.Schema) ([]frame.Expression, error) {
	exprs := make([]frame.Expression, len(schema))
	for i, c := range schema {
		exprs[i] = NewColumn(c.Name)
	}
	return exprs, nil
}

// Name implements the Expression interface.
func (Wildcard) Name() string { return "*" }

// Type implements the Expression interface. A wildcard has no type of its
// own; reaching one here means it sits somewhere expansion cannot replace
// it, which is a resolution error.
func (Wildcard) Type(schema frame.Schema) (frame.Type, error) {
	return nil, frame.ErrSchema.New("wildcard is only valid as a top-level projection or group key")
}

// Eval implements the Expression interface.
func (Wildcard) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	return nil, frame.ErrSchema.New("wildcard is only valid as a top-level projection or group key")
}

// Children implements the Expression interface.
func (Wildcard) Children() []frame.Expression { return nil }

// WithChildren implements the Expression interface.
func (w *Wildcard) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 0 {
		return nil, frame.ErrInvalidChildrenNumber.New(w, len(children), 0)
	}
	return w, nil
}

func (Wildcard) String() string { return "*" }

// Exclude stands for all columns of the current schema except the named
// ones. Like Wildcard it only takes concrete form against a schema.
type Exclude struct {
	names []string
}

var _ frame.Expander = (*Exclude)(nil)

// NewExclude returns a placeholder for every column but the given names.
func NewExclude(names ...string) *Exclude {
	return &Exclude{names: names}
}

// Excluded returns the excluded column names.
func (e *Exclude) Excluded() []string { return e.names }

// Expand implements the Expander interface. Excluding a column the schema
// does not have is a resolution error, not a silent no-op.
func (e *Exclude) Expand(schema frame.Schema) ([]frame.Expression, error) {
	excluded := make(map[string]struct{}, len(e.names))
	for _, name := range e.names {
		if !schema.Contains(name) {
			return nil, frame.ErrColumnNotFound.New(name)
		}
		excluded[name] = struct{}{}
	}
	var exprs []frame.Expression
	for _, c := range schema {
		if _, drop := excluded[c.Name]; !drop {
			exprs = append(exprs, NewColumn(c.Name))
		}
	}
	return exprs, nil
}

// Name implements the Expression interface.
func (e *Exclude) Name() string { return e.String() }

// Type implements the Expression interface. Same rule as Wildcard: an
// exclude that survives expansion is a resolution error, not a typed value.
func (e *Exclude) Type(schema frame.Schema) (frame.Type, error) {
	return nil, frame.ErrSchema.New("exclude is only valid as a top-level projection or group key")
}

// Eval implements the Expression interface.
func (e *Exclude) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	return nil, frame.ErrSchema.New("exclude is only valid as a top-level projection or group key")
}

// Children implements the Expression interface.
func (e *Exclude) Children() []frame.Expression { return nil }

// WithChildren implements the Expression interface.
func (e *Exclude) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != 0 {
		return nil, frame.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}

func (e *Exclude) String() string {
	return fmt.Sprintf("* except (%s)", strings.Join(e.names, ", "))
}
