package ruledef

import (
	"cuelang.org/go/cue/token"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
)

// RuleBase is a loaded rule base: the pattern types it references and its
// rules, in name order.
type RuleBase struct {
	Types map[ir.Type]compiler.TypeInfo
	Rules []Rule
}

// Rule is one named rule.
type Rule struct {
	Name         string
	Declarations []ir.Declaration
	Patterns     []Pattern
	Pos          token.Pos
}

// Pattern matches facts of one type. Constraints are compiled as filters and
// Bindings as declarations exposed to later patterns.
type Pattern struct {
	Type        ir.Type
	Binding     string
	Constraints []ir.ParseResult
	Bindings    []*ir.Atomic
}

// Rule returns the rule named name, or false.
func (rb *RuleBase) Rule(name string) (Rule, bool) {
	if rb == nil {
		return Rule{}, false
	}
	for _, r := range rb.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
