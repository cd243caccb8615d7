package compiler

import (
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
)

// buildIndexedBy selects the index for a, or returns nil when the constraint
// is evaluated without one.
//
// Priority:
//  1. unification is always indexed (see unificationIndex)
//  2. no operand pair, unknown comparison or no field on the left: none
//  3. an alpha constraint whose right side is not a literal: none
//  4. otherwise index on the left field, narrowed by the coerced literal
//     (alpha) or by the other pattern's declaration (beta)
func (c *RuleContext) buildIndexedBy(a *ir.Atomic, pos string) (*ir.IndexDescriptor, error) {
	if a.Unification {
		return c.unificationIndex(a, pos)
	}
	if !hasIndex(a) {
		return nil, nil
	}
	// Only a declaration other than the pattern binding makes a constraint
	// beta. One that reads the pattern binding alone still tests a single
	// fact, so it gets a literal index or none.
	beta := a.IsBeta()
	if !beta && !ir.IsLiteral(a.Right.Expr) {
		return nil, nil
	}

	idx := &ir.IndexDescriptor{
		KeyType:        indexKeyType(a.Left, a.Right),
		ConstraintType: a.ConstraintType,
		PatternType:    a.PatternType,
		FieldName:      a.Left.FieldName,
		FieldID:        c.Fields.FieldID(a.PatternType, a.Left.FieldName),
		Extractor:      thisExtractor(extractorSide(a.Left, a.Right).Expr),
	}

	if !beta {
		lit := a.Right.Expr.(ir.Literal)
		v, err := CoerceLiteral(lit, a.Left.Type)
		if err != nil {
			return nil, c.mismatch(pos, "", err)
		}
		idx.Narrow = ir.LiteralNarrowing{Value: v, Type: a.Left.Type}
		return idx, nil
	}

	narrow, err := c.declarationNarrowing(a, idx.KeyType, pos)
	if err != nil {
		return nil, err
	}
	idx.Narrow = narrow
	return idx, nil
}

// hasIndex reports whether a has the shape an index needs.
func hasIndex(a *ir.Atomic) bool {
	if a.Left == nil || a.Right == nil || a.Left.Expr == nil || a.Right.Expr == nil {
		return false
	}
	if a.ConstraintType == "" || a.ConstraintType == ir.ConstraintUnknown {
		return false
	}
	return a.Left.FieldName != ""
}

// declarationNarrowing reads the right-hand value from the other pattern.
// The declaration is the first used one (other than the pattern binding)
// that the non-extractor operand mentions.
func (c *RuleContext) declarationNarrowing(a *ir.Atomic, keyType ir.Type, pos string) (ir.DeclarationNarrowing, error) {
	other := a.Right
	if extractorSide(a.Left, a.Right) == a.Right {
		other = a.Left
	}

	var name string
	for _, d := range a.UsedDeclarations {
		if d == a.PatternBinding {
			continue
		}
		if name == "" {
			name = d
		}
		if ir.References(other.Expr, d) {
			name = d
			break
		}
	}

	decl, ok := c.Declarations.Resolve(name)
	if !ok {
		return ir.DeclarationNarrowing{}, c.unresolved(pos, name)
	}

	coerceTo, err := CoerceDeclaration(other.Type, keyType)
	if err != nil {
		return ir.DeclarationNarrowing{}, c.mismatch(pos, decl.Name, fmt.Errorf("declaration %s: %w", decl.Name, err))
	}
	return ir.DeclarationNarrowing{
		Declaration: decl.Name,
		Type:        other.Type,
		Extractor:   ir.Lambda{Params: []string{decl.Name}, Body: other.Expr},
		CoerceTo:    coerceTo,
	}, nil
}

// extractorSide picks the operand that reads the current fact: left when it
// mentions _this, right otherwise.
func extractorSide(left, right *ir.TypedExpression) *ir.TypedExpression {
	if left.Expr != nil && ir.References(left.Expr, ir.ThisName) {
		return left
	}
	return right
}

// indexKeyType is the left type, falling back to the right type when the
// left is untyped.
func indexKeyType(left, right *ir.TypedExpression) ir.Type {
	if left.Type == ir.TypeObject && right.Type != "" {
		return right.Type
	}
	return left.Type
}

func thisExtractor(body ir.Expression) ir.Lambda {
	return ir.Lambda{Params: []string{ir.ThisName}, Body: body}
}
