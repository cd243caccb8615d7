package compiler

import (
	"slices"

	"github.com/roach88/rulecc/internal/ir"
)

// usedDeclarations returns the declarations the constraint binds, in order.
// A pattern-binding unification binds the pattern itself, so its binding is
// prepended when the parser did not record it.
func usedDeclarations(a *ir.Atomic) []string {
	if !a.PatternBindingUnification || a.PatternBinding == "" || slices.Contains(a.UsedDeclarations, a.PatternBinding) {
		return a.UsedDeclarations
	}
	return append([]string{a.PatternBinding}, a.UsedDeclarations...)
}

// unificationIndex builds the index of a unification: both sides must be the
// same object, so the key is an EQUAL on whichever side reads the current
// fact, with no static field and no right-hand narrowing.
func (c *RuleContext) unificationIndex(a *ir.Atomic, pos string) (*ir.IndexDescriptor, error) {
	if a.Left == nil || a.Right == nil || a.Left.Expr == nil || a.Right.Expr == nil {
		return nil, c.unsupported(pos, "unification constraint without both operands")
	}
	side := extractorSide(a.Left, a.Right)
	return &ir.IndexDescriptor{
		KeyType:        indexKeyType(a.Left, a.Right),
		ConstraintType: ir.ConstraintEqual,
		PatternType:    a.PatternType,
		FieldID:        ir.UnboundFieldID,
		Extractor:      thisExtractor(side.Expr),
	}, nil
}

// bindingTarget is the declaration a binding exposes: the unification
// variable when there is one, the expression binding otherwise.
func bindingTarget(a *ir.Atomic) string {
	if a.HasUnificationVariable() {
		return a.UnificationVariable
	}
	return a.ExprBinding
}
