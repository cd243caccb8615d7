package rulebase

import (
	"fmt"
	"strings"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
)

// CompiledPattern holds the descriptors for one pattern, in source order.
type CompiledPattern struct {
	Type        ir.Type
	Binding     string
	Constraints []ir.Constraint
	Bindings    []*ir.BindConstraint
}

// CompiledRule is the compiled form of one rule.
type CompiledRule struct {
	Name     string
	Patterns []CompiledPattern
}

// RuleFailure records why a rule was not compiled.
type RuleFailure struct {
	Rule string
	Err  error
}

// Result is the outcome of one build session. Rules and Failures are in rule
// name order; a rule appears in exactly one of them.
type Result struct {
	SessionID  string
	Builder    compiler.BuilderKind
	Reactivity compiler.ReactivityPolicy
	Rules      []CompiledRule
	Failures   []RuleFailure
	Fields     []compiler.FieldEntry
}

// OK reports whether every rule compiled.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Rule returns the compiled rule named name, or false.
func (r *Result) Rule(name string) (CompiledRule, bool) {
	for _, cr := range r.Rules {
		if cr.Name == name {
			return cr, true
		}
	}
	return CompiledRule{}, false
}

// Render writes the rule as DSL text: one line per pattern header and one
// indented line per descriptor, constraints before bindings.
func (cr CompiledRule) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s\n", cr.Name)
	for i, p := range cr.Patterns {
		fmt.Fprintf(&b, "  pattern %d %s", i, p.Type)
		if p.Binding != "" {
			fmt.Fprintf(&b, " %s", p.Binding)
		}
		b.WriteByte('\n')
		for _, c := range p.Constraints {
			fmt.Fprintf(&b, "    %s\n", ir.Render(c))
		}
		for _, c := range p.Bindings {
			fmt.Fprintf(&b, "    %s\n", ir.Render(c))
		}
	}
	return b.String()
}
