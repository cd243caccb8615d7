package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulecc/internal/ir"
)

func ageBinding() *ir.Atomic {
	return &ir.Atomic{
		PatternBinding: "$p",
		Left:           field("age", ir.TypeInt),
		Expr:           ir.Field("age"),
		ExprBinding:    "$a",
		PatternType:    person,
	}
}

func TestBindingFlow(t *testing.T) {
	ctx := newContext(t, false)

	b, err := flow(t, ctx).BuildBinding(ageBinding())
	require.NoError(t, err)

	assert.Equal(t, "D.bind", b.Call)
	assert.Equal(t, ir.VarArg{Name: "$a", Type: ir.TypeInt}, b.Target)
	assert.Equal(t, []ir.Argument{
		ir.VarArg{Name: "$p", Type: person},
		ir.PredicateArg{Lambda: ir.Lambda{Params: []string{"_this"}, Body: ir.Field("age")}},
	}, b.Args)
}

func TestBindingPatternKeepsPatternImplicit(t *testing.T) {
	ctx := newContext(t, false)
	builder, err := NewExpressionBuilder(BuilderPattern, ctx)
	require.NoError(t, err)

	b, err := builder.BuildBinding(ageBinding())
	require.NoError(t, err)

	assert.Equal(t, "bind", b.Call)
	require.Len(t, b.Args, 1)
	assert.IsType(t, ir.PredicateArg{}, b.Args[0])
}

func TestBindingLeftDeclarations(t *testing.T) {
	ctx := newContext(t, false)

	a := ageBinding()
	a.Expr = ir.Binary{Op: "-", Left: ir.Field("age"), Right: declField("$q", "age")}
	a.UsedDeclarationsOnLeft = []string{"$p", "$q"}

	b, err := flow(t, ctx).BuildBinding(a)
	require.NoError(t, err)

	assert.Equal(t, []ir.Argument{
		ir.VarArg{Name: "$p", Type: person},
		ir.VarArg{Name: "$p", Type: person},
		ir.VarArg{Name: "$q", Type: person},
		ir.PredicateArg{Lambda: ir.Lambda{Params: []string{"_this", "$p", "$q"}, Body: a.Expr}},
	}, b.Args)
}

func TestBindingPatternBindingOnLeft(t *testing.T) {
	a := ageBinding()
	a.Expr = declField("$p", "age")
	a.UsedDeclarationsOnLeft = []string{"$p"}

	f, err := flow(t, newContext(t, false)).BuildBinding(a)
	require.NoError(t, err)
	assert.Equal(t, []ir.Argument{
		ir.VarArg{Name: "$p", Type: person},
		ir.VarArg{Name: "$p", Type: person},
		ir.PredicateArg{Lambda: ir.Lambda{Params: []string{"_this", "$p"}, Body: a.Expr}},
	}, f.Args)
	assert.Equal(t, "D.bind(var_$a).as(var_$p, var_$p, (_this, $p) -> $p.age)", ir.Render(f))

	builder, err := NewExpressionBuilder(BuilderPattern, newContext(t, false))
	require.NoError(t, err)
	p, err := builder.BuildBinding(a)
	require.NoError(t, err)
	assert.Equal(t, []ir.Argument{
		ir.VarArg{Name: "$p", Type: person},
		ir.PredicateArg{Lambda: ir.Lambda{Params: []string{"_this", "$p"}, Body: a.Expr}},
	}, p.Args)
}

func TestBindingUnificationVariableWins(t *testing.T) {
	ctx := newContext(t, false)

	a := ageBinding()
	a.ExprBinding = "$ignored"
	a.UnificationVariable = "$a"

	b, err := flow(t, ctx).BuildBinding(a)
	require.NoError(t, err)
	assert.Equal(t, "$a", b.Target.Name)
}

func TestBindingReactivity(t *testing.T) {
	a := ageBinding()
	a.ReactOnProperties = []string{"age"}
	a.WatchedProperties = []string{"name"}

	off, err := flow(t, newContext(t, false)).BuildBinding(a)
	require.NoError(t, err)
	assert.Empty(t, off.ReactOn)
	assert.Equal(t, []string{"name"}, off.Watch)

	on, err := flow(t, newContext(t, true)).BuildBinding(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, on.ReactOn)
	assert.Equal(t, []string{"name"}, on.Watch)
}

func TestBindingErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *ir.Atomic)
		check  func(error) bool
	}{
		{"no target", func(a *ir.Atomic) { a.ExprBinding = "" }, IsUnsupportedNode},
		{"no expression", func(a *ir.Atomic) { a.Expr = nil }, IsUnsupportedNode},
		{"undeclared target", func(a *ir.Atomic) { a.ExprBinding = "$nope" }, IsUnresolvedDeclaration},
		{"undeclared left", func(a *ir.Atomic) { a.UsedDeclarationsOnLeft = []string{"$nope"} }, IsUnresolvedDeclaration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ageBinding()
			tt.mutate(a)
			b, err := flow(t, newContext(t, false)).BuildBinding(a)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	_, err := flow(t, newContext(t, false)).BuildBinding(nil)
	assert.True(t, IsUnsupportedNode(err))
}
