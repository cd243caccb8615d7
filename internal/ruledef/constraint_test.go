package ruledef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulecc/internal/ir"
)

func firstCondition(t *testing.T, r Rule, pattern int) ir.ParseResult {
	t.Helper()
	require.Greater(t, len(r.Patterns), pattern)
	require.NotEmpty(t, r.Patterns[pattern].Constraints)
	return r.Patterns[pattern].Constraints[0]
}

func firstAtomic(t *testing.T, r Rule, pattern int) *ir.Atomic {
	t.Helper()
	c := firstCondition(t, r, pattern)
	a, ok := c.(*ir.Atomic)
	require.True(t, ok, "expected *ir.Atomic, got %T", c)
	return a
}

func TestAtomicDerivedFields(t *testing.T) {
	r := loadOne(t, `
rule: "adults": patterns: [{
	type:    "Person"
	binding: "$p"
	constraints: [{
		id:    "GT_AGE"
		left:  {field: "age"}
		op:    "GREATER"
		right: {expr: {lit: 30}}
	}]
}]
`)
	assert.Equal(t, []ir.Declaration{{Name: "$p", Type: person, Pattern: 0}}, r.Declarations)

	a := firstAtomic(t, r, 0)
	thirty := ir.Literal{Kind: ir.LitInt, Text: "30"}
	assert.Equal(t, "GT_AGE", a.ExprID)
	assert.Equal(t, "$p", a.PatternBinding)
	assert.Equal(t, person, a.PatternType)
	assert.Equal(t, &ir.TypedExpression{Type: ir.TypeInt, Expr: ir.Field("age"), FieldName: "age"}, a.Left)
	assert.Equal(t, &ir.TypedExpression{Type: ir.TypeInt, Expr: thirty}, a.Right)
	assert.Equal(t, ir.ConstraintGreater, a.ConstraintType)
	assert.Equal(t, ir.Binary{Op: ">", Left: ir.Field("age"), Right: thirty}, a.Expr)
	assert.Empty(t, a.UsedDeclarations)
	assert.Empty(t, a.UsedDeclarationsOnLeft)
	assert.Equal(t, []string{"age"}, a.ReactOnProperties)
	assert.Nil(t, a.RightLiteral)
	assert.False(t, a.IsBeta())
}

func TestAtomicBeta(t *testing.T) {
	r := loadOne(t, `
rule: "older": patterns: [{
	type:    "Person"
	binding: "$q"
}, {
	type:    "Person"
	binding: "$p"
	constraints: [{
		left:  {field: "age"}
		op:    "GREATER_THAN"
		right: {expr: {field: "age", of: "$q"}}
	}]
}]
`)
	a := firstAtomic(t, r, 1)
	qAge := ir.FieldAccess{Scope: ir.Name{Name: "$q"}, Field: "age"}
	assert.Equal(t, &ir.TypedExpression{Type: ir.TypeInt, Expr: qAge}, a.Right)
	assert.Equal(t, []string{"$q"}, a.UsedDeclarations)
	assert.Equal(t, []string{"age"}, a.ReactOnProperties, "fields of other declarations are not reactive")
	assert.True(t, a.IsBeta())
}

func TestAtomicUndeclaredName(t *testing.T) {
	r := loadOne(t, `
rule: "stray": patterns: [{
	type:    "Person"
	binding: "$p"
	constraints: [{
		left:  {field: "age"}
		op:    "GREATER_THAN"
		right: {expr: {field: "age", of: "$x"}}
	}]
}]
`)
	a := firstAtomic(t, r, 0)
	assert.Equal(t, []string{"$x"}, a.UsedDeclarations, "undeclared names are kept for the compiler to reject")
	assert.Empty(t, a.UsedDeclarationsOnLeft)
	assert.True(t, a.IsBeta())
	assert.Equal(t, []ir.Declaration{{Name: "$p", Type: person, Pattern: 0}}, r.Declarations)
}

func TestAtomicExplicitFields(t *testing.T) {
	r := loadOne(t, `
rule: "explicit": patterns: [{
	type:    "Person"
	binding: "$p"
	constraints: [{
		left:  {type: "long", expr: {call: "getTime", on: {field: "born"}}}
		op:    "UNKNOWN"
		test: {call: "after", args: [{field: "born"}, {name: "$p"}]}
		temporal:            true
		unification:         true
		binding_unification: true
		skip_this:           true
		uses: ["$p"]
		uses_on_left: []
		react_on: ["born", "born"]
		watch: ["*", "!name"]
		right_literal: 5
		bind:            "$b"
		unification_var: "$u"
	}]
}]
`)
	a := firstAtomic(t, r, 0)
	assert.Equal(t, ir.TypeLong, a.Left.Type)
	assert.Empty(t, a.Left.FieldName)
	assert.Nil(t, a.Right)
	assert.Equal(t, ir.ConstraintUnknown, a.ConstraintType)
	assert.Equal(t, ir.MethodCall{Method: "after", Args: []ir.Expression{ir.Field("born"), ir.Name{Name: "$p"}}}, a.Expr)
	assert.True(t, a.Temporal)
	assert.True(t, a.Unification)
	assert.True(t, a.PatternBindingUnification)
	assert.True(t, a.SkipThisAsParam)
	assert.Equal(t, []string{"$p"}, a.UsedDeclarations)
	assert.Empty(t, a.UsedDeclarationsOnLeft)
	assert.Equal(t, []string{"born", "born"}, a.ReactOnProperties, "duplicates are left to the compiler")
	assert.Equal(t, []string{"*", "!name"}, a.WatchedProperties)
	require.NotNil(t, a.RightLiteral)
	assert.Equal(t, "5", *a.RightLiteral)
	assert.Equal(t, "$b", a.ExprBinding)
	assert.Equal(t, "$u", a.UnificationVariable)
}

func TestComposite(t *testing.T) {
	r := loadOne(t, `
rule: "mixed": patterns: [{
	type:    "Person"
	binding: "$p"
	constraints: [{
		"and": [{
			id: "c1", left: {field: "age"}, op: "GE", right: {expr: {lit: 18}}
		}, {
			"or": [{
				id: "c2", left: {field: "name"}, op: "EQ", right: {expr: {lit: "Mark"}}
			}, {
				id: "c3", left: {field: "age"}, op: "LESS", right: {expr: {lit: 65}}
			}]
		}]
	}]
}]
`)
	root, ok := firstCondition(t, r, 0).(*ir.Composite)
	require.True(t, ok)
	assert.Equal(t, ir.OpAnd, root.Operator())
	require.Equal(t, 2, root.Len())

	children := root.Children()
	assert.Equal(t, "c1", children[0].(*ir.Atomic).ExprID)

	inner, ok := children[1].(*ir.Composite)
	require.True(t, ok)
	assert.Equal(t, ir.OpOr, inner.Operator())
	leaves := inner.Children()
	assert.Equal(t, "c2", leaves[0].(*ir.Atomic).ExprID)
	assert.Equal(t, ir.TypeString, leaves[0].(*ir.Atomic).Right.Type)
	assert.Equal(t, "c3", leaves[1].(*ir.Atomic).ExprID)
}

func TestCompositeEmpty(t *testing.T) {
	le := loadErr(t, `
rule: "empty": patterns: [{
	type: "Person"
	constraints: [{"or": []}]
}]
`)
	assert.Equal(t, ErrCodeInvalidConstraint, le.Code)
	assert.ErrorIs(t, le, ir.ErrEmptyComposite)
}

func TestBindings(t *testing.T) {
	r := loadOne(t, `
rule: "binds": patterns: [{
	type:    "Person"
	binding: "$p"
	bindings: [{name: "$a", expr: {field: "age"}}]
}, {
	type: "Person"
	bindings: [{
		name:     "$diff"
		type:     "int"
		expr:     {op: "-", left: {field: "age"}, right: {name: "$a"}}
		watch:    ["name"]
	}]
}]
`)
	assert.Equal(t, []ir.Declaration{
		{Name: "$p", Type: person, Pattern: 0},
		{Name: "$diff", Type: ir.TypeInt, Pattern: 1},
		{Name: "$a", Type: ir.TypeInt, Pattern: 0},
	}, r.Declarations)

	require.Len(t, r.Patterns[0].Bindings, 1)
	b := r.Patterns[0].Bindings[0]
	assert.Equal(t, "$a", b.ExprBinding)
	assert.Equal(t, "$p", b.PatternBinding)
	assert.Equal(t, ir.Field("age"), b.Expr)
	assert.Equal(t, &ir.TypedExpression{Type: ir.TypeInt, Expr: ir.Field("age"), FieldName: "age"}, b.Left)
	assert.Equal(t, []string{"age"}, b.ReactOnProperties)

	d := r.Patterns[1].Bindings[0]
	assert.Equal(t, ir.TypeInt, d.Left.Type)
	assert.Equal(t, []string{"$a"}, d.UsedDeclarations)
	assert.Equal(t, []string{"$a"}, d.UsedDeclarationsOnLeft)
	assert.Equal(t, []string{"name"}, d.WatchedProperties)
}

func TestLiteralKinds(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want ir.Expression
		typ  ir.Type
	}{
		{"int", `{lit: 30}`, ir.Literal{Kind: ir.LitInt, Text: "30"}, ir.TypeInt},
		{"double", `{lit: 3.5}`, ir.Literal{Kind: ir.LitDouble, Text: "3.5"}, ir.TypeDouble},
		{"long", `{lit: 30, kind: "long"}`, ir.Literal{Kind: ir.LitLong, Text: "30"}, ir.TypeLong},
		{"decimal", `{lit: "1.10", kind: "decimal"}`, ir.Literal{Kind: ir.LitDecimal, Text: "1.10"}, ir.TypeDecimal},
		{"string", `{lit: "Mark"}`, ir.Literal{Kind: ir.LitString, Text: "Mark"}, ir.TypeString},
		{"char", `{lit: "M", kind: "char"}`, ir.Literal{Kind: ir.LitChar, Text: "M"}, ir.TypeChar},
		{"boolean", `{lit: true}`, ir.Literal{Kind: ir.LitBoolean, Text: "true"}, ir.TypeBoolean},
		{"null", `{lit: null}`, ir.Literal{Kind: ir.LitNull, Text: "null"}, ir.TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := loadOne(t, `
rule: "lit": patterns: [{
	type: "Person"
	constraints: [{left: {expr: `+tt.expr+`}, test: {name: "x"}}]
}]
`)
			a := firstAtomic(t, r, 0)
			assert.Equal(t, tt.want, a.Left.Expr)
			assert.Equal(t, tt.typ, a.Left.Type)
		})
	}
}

func TestExpressionNodes(t *testing.T) {
	r := loadOne(t, `
rule: "nodes": patterns: [{
	type:    "Person"
	binding: "$p"
	constraints: [{
		test: {
			op: "&&"
			left: {not: {call: "isEmpty", on: {field: "name", of: "$p"}}}
			right: {op: ">", left: {neg: {field: "age"}}, right: "$p"}
		}
	}]
}]
`)
	a := firstAtomic(t, r, 0)
	want := ir.Binary{
		Op: "&&",
		Left: ir.Unary{Op: "!", Operand: ir.MethodCall{
			Scope:  ir.FieldAccess{Scope: ir.Name{Name: "$p"}, Field: "name"},
			Method: "isEmpty",
		}},
		Right: ir.Binary{Op: ">", Left: ir.Unary{Op: "-", Operand: ir.Field("age")}, Right: ir.Name{Name: "$p"}},
	}
	assert.Equal(t, want, a.Expr)
	assert.Equal(t, []string{"$p"}, a.UsedDeclarations)
	assert.Equal(t, []string{"name", "age"}, a.ReactOnProperties)
	assert.Nil(t, a.Left)
}

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		code       string
		contains   string
	}{
		{"unknown op", `{left: {field: "age"}, op: "BETWEEN", right: {expr: {lit: 1}}}`, ErrCodeInvalidConstraint, "BETWEEN"},
		{"no test", `{left: {field: "age"}}`, ErrCodeInvalidConstraint, "needs a test"},
		{"no symbol", `{left: {field: "age"}, op: "RANGE", right: {expr: {lit: 1}}}`, ErrCodeInvalidConstraint, "needs a test"},
		{"empty operand", `{left: {type: "int"}, test: {name: "x"}}`, ErrCodeInvalidConstraint, "left operand needs field or expr"},
		{"unknown node", `{test: {bogus: 1}}`, ErrCodeInvalidExpression, "unrecognized expression node"},
		{"bad kind", `{test: {lit: 1, kind: "complex"}}`, ErrCodeInvalidExpression, "complex"},
		{"half binary", `{test: {op: ">", left: "a"}}`, ErrCodeInvalidExpression, "needs op, left and right"},
		{"not a struct", `{test: 5}`, ErrCodeInvalidExpression, "must be a struct"},
		{"bad literal", `{test: {name: "x"}, right_literal: [1]}`, ErrCodeInvalidConstraint, "right_literal"},
		{"bad uses", `{test: {name: "x"}, uses: "x"}`, ErrCodeInvalidConstraint, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := loadErr(t, `
rule: "bad": patterns: [{
	type: "Person"
	constraints: [`+tt.constraint+`]
}]
`)
			assert.Equal(t, tt.code, le.Code)
			assert.Equal(t, "bad", le.Rule)
			assert.Contains(t, le.Message, tt.contains)
		})
	}
}

func TestRuleErrors(t *testing.T) {
	tests := []struct {
		name string
		rule string
		code string
	}{
		{"no patterns", `{}`, ErrCodeInvalidRule},
		{"pattern without type", `{patterns: [{binding: "$p"}]}`, ErrCodeInvalidRule},
		{"declaration without name", `{declarations: [{type: "int"}], patterns: [{type: "Person"}]}`, ErrCodeInvalidDeclaration},
		{"declaration without type", `{declarations: [{name: "$x"}], patterns: [{type: "Person"}]}`, ErrCodeInvalidDeclaration},
		{"duplicate declaration", `{declarations: [{name: "$x", type: "int"}, {name: "$x", type: "long"}], patterns: [{type: "Person"}]}`, ErrCodeInvalidDeclaration},
		{"binding without name", `{patterns: [{type: "Person", bindings: [{expr: {field: "age"}}]}]}`, ErrCodeInvalidRule},
		{"binding without expr", `{patterns: [{type: "Person", bindings: [{name: "$a"}]}]}`, ErrCodeInvalidRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := loadErr(t, `rule: "bad": `+tt.rule)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestExplicitDeclarationWins(t *testing.T) {
	r := loadOne(t, `
rule: "decl": {
	declarations: [{name: "$p", type: "Employee", pattern: 0}]
	patterns: [{type: "Person", binding: "$p"}]
}
`)
	assert.Equal(t, []ir.Declaration{{Name: "$p", Type: "Employee", Pattern: 0}}, r.Declarations)
}
