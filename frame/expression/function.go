package expression

import (
	"fmt"
	"strings"

	"github.com/framelab/go-frame-engine/frame"
)

// ScalarFn is a caller-supplied vectorized function over evaluated operand
// columns, already broadcast to a common length.
type ScalarFn func(ctx *frame.Context, args []*frame.Series) (*frame.Series, error)

// TypeRule derives the output type of a function from its operand types.
type TypeRule func(argTypes []frame.Type) (frame.Type, error)

// FixedType is a TypeRule that always returns the given type.
func FixedType(typ frame.Type) TypeRule {
	return func([]frame.Type) (frame.Type, error) { return typ, nil }
}

// Function is an opaque user function over zero or more operand columns.
// Being opaque, it defeats constant folding; its output type is declared
// through the type rule rather than inferred.
type Function struct {
	name string
	args []frame.Expression
	fn   ScalarFn
	rule TypeRule
}

// NewFunction creates a new user function expression.
func NewFunction(name string, fn ScalarFn, rule TypeRule, args ...frame.Expression) *Function {
	return &Function{name: name, args: args, fn: fn, rule: rule}
}

// Name implements the Expression interface.
func (f *Function) Name() string { return f.name }

// Type implements the Expression interface.
func (f *Function) Type(schema frame.Schema) (frame.Type, error) {
	argTypes := make([]frame.Type, len(f.args))
	for i, a := range f.args {
		typ, err := a.Type(schema)
		if err != nil {
			return nil, err
		}
		argTypes[i] = typ
	}
	return f.rule(argTypes)
}

// Eval implements the Expression interface.
func (f *Function) Eval(ctx *frame.Context, t *frame.Table) (*frame.Series, error) {
	args := make([]*frame.Series, len(f.args))
	for i, a := range f.args {
		s, err := a.Eval(ctx, t)
		if err != nil {
			return nil, err
		}
		args[i] = s
	}
	for i, s := range args {
		var err error
		if args[i], err = broadcast(s, t.NumRows()); err != nil {
			return nil, err
		}
	}
	out, err := f.fn(ctx, args)
	if err != nil {
		return nil, frame.ErrCompute.New(fmt.Sprintf("function %s: %s", f.name, err))
	}
	return out.WithName(f.name), nil
}

// Children implements the Expression interface.
func (f *Function) Children() []frame.Expression { return f.args }

// WithChildren implements the Expression interface.
func (f *Function) WithChildren(children ...frame.Expression) (frame.Expression, error) {
	if len(children) != len(f.args) {
		return nil, frame.ErrInvalidChildrenNumber.New(f, len(children), len(f.args))
	}
	return NewFunction(f.name, f.fn, f.rule, children...), nil
}

func (f *Function) String() string {
	args := make([]string, len(f.args))
	for i, a := range f.args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(args, ", "))
}
