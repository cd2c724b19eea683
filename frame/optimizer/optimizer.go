// Package optimizer rewrites logical plans into cheaper equivalent plans.
//
// The optimizer runs a fixed pipeline of rules, each exactly once:
// type coercion, expression simplification, predicate pushdown, projection
// pushdown and slice pushdown. Every rule preserves the plan's output schema
// and row semantics; flags toggle individual rules off for debugging and for
// unoptimized plan inspection.
package optimizer

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/framelab/go-frame-engine/frame"
)

const debugOptimizerKey = "DEBUG_OPTIMIZER"

// Flags selects which rules run. The zero value runs everything.
type Flags struct {
	NoTypeCoercion       bool
	NoSimplifyExpression bool
	NoPredicatePushdown  bool
	NoProjectionPushdown bool
	NoSlicePushdown      bool
}

// NoOptimization disables the pushdown rules, keeping only the rewrites
// needed for correct evaluation.
func NoOptimization() Flags {
	return Flags{
		NoPredicatePushdown:  true,
		NoProjectionPushdown: true,
		NoSlicePushdown:      true,
	}
}

// Rule is a transformation of the plan tree.
type Rule struct {
	// Name of the rule, for tracing and debug output.
	Name string
	// Apply transforms the plan.
	Apply func(ctx *frame.Context, opt *Optimizer, node frame.Node) (frame.Node, error)
}

// Optimizer applies the rule pipeline to logical plans.
type Optimizer struct {
	flags Flags
	rules []Rule
	// Verbose prints the plan before and after each rule.
	Verbose bool
}

// NewDefault creates an optimizer with the default rule pipeline and all
// rules enabled.
func NewDefault() *Optimizer {
	return New(Flags{})
}

// New creates an optimizer running the default pipeline filtered by flags.
func New(flags Flags) *Optimizer {
	var rules []Rule
	add := func(disabled bool, r Rule) {
		if !disabled {
			rules = append(rules, r)
		}
	}
	add(flags.NoTypeCoercion, Rule{"type_coercion", coerceTypes})
	add(flags.NoSimplifyExpression, Rule{"simplify_expression", simplifyExpressions})
	add(flags.NoPredicatePushdown, Rule{"predicate_pushdown", pushdownPredicates})
	add(flags.NoProjectionPushdown, Rule{"projection_pushdown", pushdownProjections})
	add(flags.NoSlicePushdown, Rule{"slice_pushdown", pushdownSlices})
	return &Optimizer{
		flags:   flags,
		rules:   rules,
		Verbose: os.Getenv(debugOptimizerKey) != "",
	}
}

// Flags returns the flags the optimizer was built with.
func (o *Optimizer) Flags() Flags { return o.flags }

// Log returns a logger for the optimizer rules. It is a noop unless the
// optimizer is in verbose mode.
func (o *Optimizer) Log() *logrus.Entry {
	log := logrus.New()
	if !o.Verbose {
		log.SetLevel(logrus.PanicLevel)
	} else {
		log.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(log)
}

// Optimize resolves the plan's schema and applies every enabled rule once,
// in pipeline order. The input plan is never mutated.
func (o *Optimizer) Optimize(ctx *frame.Context, node frame.Node) (frame.Node, error) {
	span, ctx := ctx.Span("optimize")
	defer span.Finish()

	// Schema resolution validates every column reference and expression type
	// before any rewrite looks at the tree.
	if _, err := node.Schema(); err != nil {
		return nil, err
	}

	log := o.Log()
	for _, rule := range o.rules {
		span, ruleCtx := ctx.Span("optimize." + rule.Name)
		log.Debugf("applying rule %s on plan:\n%s", rule.Name, node)
		next, err := rule.Apply(ruleCtx, o, node)
		span.Finish()
		if err != nil {
			return nil, err
		}
		node = next
		log.Debugf("plan after rule %s:\n%s", rule.Name, node)
	}
	return node, nil
}
