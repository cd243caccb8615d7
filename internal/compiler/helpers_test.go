package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rulecc/internal/ir"
)

const person ir.Type = "Person"

func personTypes(reactive bool) map[ir.Type]TypeInfo {
	return map[ir.Type]TypeInfo{
		person: {
			PropertyReactive: reactive,
			Fields: map[string]ir.Type{
				"age":  ir.TypeInt,
				"name": ir.TypeString,
			},
		},
	}
}

// newContext builds a rule context over Person with $p, $q and $a declared.
func newContext(t *testing.T, reactive bool) *RuleContext {
	t.Helper()
	decls, err := NewDeclarationTable(
		ir.Declaration{Name: "$p", Type: person, Pattern: 0},
		ir.Declaration{Name: "$q", Type: person, Pattern: 1},
		ir.Declaration{Name: "$a", Type: ir.TypeInt, Pattern: 0},
	)
	require.NoError(t, err)
	return &RuleContext{
		Rule:         "adults",
		Declarations: decls,
		Fields:       NewFieldRegistry(),
		Reactivity:   ReactivityAllowed,
		Types:        personTypes(reactive),
	}
}

func intLit(text string) ir.Literal {
	return ir.Literal{Kind: ir.LitInt, Text: text}
}

func strLit(text string) ir.Literal {
	return ir.Literal{Kind: ir.LitString, Text: text}
}

func field(name string, t ir.Type) *ir.TypedExpression {
	return &ir.TypedExpression{Type: t, Expr: ir.Field(name), FieldName: name}
}

func operand(e ir.Expression, t ir.Type) *ir.TypedExpression {
	return &ir.TypedExpression{Type: t, Expr: e}
}

func declField(decl, name string) ir.FieldAccess {
	return ir.FieldAccess{Scope: ir.Name{Name: decl}, Field: name}
}

// compare builds "_this.<field> <op> <right>" on Person bound to $p.
func compare(fieldName string, ft ir.Type, ct ir.ConstraintType, right ir.Expression, rt ir.Type) *ir.Atomic {
	return &ir.Atomic{
		PatternBinding: "$p",
		Left:           field(fieldName, ft),
		Right:          operand(right, rt),
		Expr:           ir.Binary{Op: ct.Symbol(), Left: ir.Field(fieldName), Right: right},
		ConstraintType: ct,
		PatternType:    person,
	}
}

// ageOver is the canonical "_this.age > n" alpha constraint.
func ageOver(n string) *ir.Atomic {
	return compare("age", ir.TypeInt, ir.ConstraintGreater, intLit(n), ir.TypeInt)
}

// ageOverQ is the beta constraint "_this.age > $q.age".
func ageOverQ() *ir.Atomic {
	a := compare("age", ir.TypeInt, ir.ConstraintGreater, declField("$q", "age"), ir.TypeInt)
	a.UsedDeclarations = []string{"$q"}
	return a
}

func flow(t *testing.T, ctx *RuleContext) ExpressionBuilder {
	t.Helper()
	b, err := NewExpressionBuilder(BuilderFlow, ctx)
	require.NoError(t, err)
	return b
}

func mustExpr(t *testing.T, c ir.Constraint) *ir.ExprConstraint {
	t.Helper()
	e, ok := c.(*ir.ExprConstraint)
	require.True(t, ok, "expected *ir.ExprConstraint, got %T", c)
	return e
}
