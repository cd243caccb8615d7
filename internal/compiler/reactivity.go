package compiler

import (
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
)

// ReactivityPolicy decides which pattern types support property reactivity.
type ReactivityPolicy string

const (
	// ReactivityAlways treats every pattern type as property reactive unless
	// the type opts out with ClassReactive.
	ReactivityAlways ReactivityPolicy = "always"

	// ReactivityAllowed treats only types marked PropertyReactive as reactive.
	ReactivityAllowed ReactivityPolicy = "allowed"

	// ReactivityDisabled never emits react-on sets.
	ReactivityDisabled ReactivityPolicy = "disabled"
)

// ParseReactivityPolicy validates s. The empty string selects ReactivityAllowed.
func ParseReactivityPolicy(s string) (ReactivityPolicy, error) {
	switch p := ReactivityPolicy(s); p {
	case "":
		return ReactivityAllowed, nil
	case ReactivityAlways, ReactivityAllowed, ReactivityDisabled:
		return p, nil
	}
	return "", fmt.Errorf("unknown property reactivity policy %q (want always, allowed or disabled)", s)
}

// TypeInfo describes a pattern type known to the rule base.
type TypeInfo struct {
	PropertyReactive bool
	ClassReactive    bool
	Fields           map[string]ir.Type
}

// IsPropertyReactive reports whether constraints on t may carry a react-on set.
func (c *RuleContext) IsPropertyReactive(t ir.Type) bool {
	info, known := c.Types[t]
	switch c.Reactivity {
	case ReactivityAlways:
		return !known || !info.ClassReactive
	case ReactivityDisabled:
		return false
	default:
		return known && info.PropertyReactive
	}
}

// reactivity computes the react-on and watch sets for a constraint on
// patternType. React-on is dropped unless the type is property reactive;
// watch is always passed through, including "!field" and "*" entries.
func (c *RuleContext) reactivity(patternType ir.Type, reactOn, watch []string) ([]string, []string) {
	var react []string
	if len(reactOn) > 0 && c.IsPropertyReactive(patternType) {
		react = dedupe(reactOn)
	}
	return react, dedupe(watch)
}

// dedupe copies names keeping the first occurrence of each.
func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
