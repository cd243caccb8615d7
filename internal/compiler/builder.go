package compiler

import (
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
)

// RuleContext is everything a builder reads while compiling one rule.
// Builders never modify it; Fields is the only shared mutable state and is
// safe for concurrent use.
type RuleContext struct {
	Rule         string
	Declarations *DeclarationTable
	Fields       *FieldRegistry
	Reactivity   ReactivityPolicy
	Types        map[ir.Type]TypeInfo
}

// ExpressionBuilder compiles parse results into constraint descriptors.
type ExpressionBuilder interface {
	// BuildExpressionWithIndexing compiles an atomic or composite condition
	// into one descriptor, with index and reactivity metadata attached.
	BuildExpressionWithIndexing(r ir.ParseResult) (ir.Constraint, error)

	// BuildBinding compiles an atomic whose result is exposed as a new
	// declaration.
	BuildBinding(a *ir.Atomic) (*ir.BindConstraint, error)
}

// BuilderKind selects an ExpressionBuilder implementation.
type BuilderKind string

const (
	// BuilderFlow emits D.expr/D.and/D.or/D.bind calls and passes the
	// pattern binding as the leading argument.
	BuilderFlow BuilderKind = "flow"

	// BuilderPattern emits chained expr/and/or/bind calls on a pattern; the
	// pattern itself stays implicit.
	BuilderPattern BuilderKind = "pattern"
)

// ParseBuilderKind validates s. The empty string selects BuilderFlow.
func ParseBuilderKind(s string) (BuilderKind, error) {
	switch k := BuilderKind(s); k {
	case "":
		return BuilderFlow, nil
	case BuilderFlow, BuilderPattern:
		return k, nil
	}
	return "", fmt.Errorf("unknown builder %q (want flow or pattern)", s)
}

// NewExpressionBuilder returns the builder for kind over ctx.
func NewExpressionBuilder(kind BuilderKind, ctx *RuleContext) (ExpressionBuilder, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	switch kind {
	case BuilderFlow, "":
		return &FlowBuilder{ctx: ctx}, nil
	case BuilderPattern:
		return &PatternBuilder{ctx: ctx}, nil
	}
	return nil, fmt.Errorf("unknown builder %q", kind)
}

func (c *RuleContext) check() error {
	if c == nil {
		return fmt.Errorf("nil rule context")
	}
	if c.Fields == nil {
		return fmt.Errorf("rule %q: rule context has no field registry", c.Rule)
	}
	return nil
}

// callSet names the DSL calls a strategy emits.
type callSet struct {
	expr, and, or, bind string
}

var (
	flowCalls    = callSet{expr: "D.expr", and: "D.and", or: "D.or", bind: "D.bind"}
	patternCalls = callSet{expr: "expr", and: "and", or: "or", bind: "bind"}
)

// strategy is the shared compilation logic. The two builders differ only in
// call names and in whether the pattern binding is an explicit argument.
type strategy struct {
	ctx            *RuleContext
	calls          callSet
	leadingBinding bool
}

// FlowBuilder compiles constraints for the flow DSL.
type FlowBuilder struct {
	ctx *RuleContext
}

// NewFlowBuilder returns a flow builder over ctx.
func NewFlowBuilder(ctx *RuleContext) *FlowBuilder {
	return &FlowBuilder{ctx: ctx}
}

func (b *FlowBuilder) strategy() strategy {
	return strategy{ctx: b.ctx, calls: flowCalls, leadingBinding: true}
}

// BuildExpressionWithIndexing implements ExpressionBuilder.
func (b *FlowBuilder) BuildExpressionWithIndexing(r ir.ParseResult) (ir.Constraint, error) {
	if err := b.ctx.check(); err != nil {
		return nil, err
	}
	return b.strategy().build(r, "")
}

// BuildBinding implements ExpressionBuilder.
func (b *FlowBuilder) BuildBinding(a *ir.Atomic) (*ir.BindConstraint, error) {
	if err := b.ctx.check(); err != nil {
		return nil, err
	}
	return b.strategy().buildBinding(a, "")
}

// PatternBuilder compiles constraints for the pattern DSL.
type PatternBuilder struct {
	ctx *RuleContext
}

// NewPatternBuilder returns a pattern builder over ctx.
func NewPatternBuilder(ctx *RuleContext) *PatternBuilder {
	return &PatternBuilder{ctx: ctx}
}

func (b *PatternBuilder) strategy() strategy {
	return strategy{ctx: b.ctx, calls: patternCalls}
}

// BuildExpressionWithIndexing implements ExpressionBuilder.
func (b *PatternBuilder) BuildExpressionWithIndexing(r ir.ParseResult) (ir.Constraint, error) {
	if err := b.ctx.check(); err != nil {
		return nil, err
	}
	return b.strategy().build(r, "")
}

// BuildBinding implements ExpressionBuilder.
func (b *PatternBuilder) BuildBinding(a *ir.Atomic) (*ir.BindConstraint, error) {
	if err := b.ctx.check(); err != nil {
		return nil, err
	}
	return b.strategy().buildBinding(a, "")
}
