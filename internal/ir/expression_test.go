package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpressionString(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{"name", Name{Name: "$p"}, "$p"},
		{"int literal", Literal{Kind: LitInt, Text: "30"}, "30"},
		{"string literal", Literal{Kind: LitString, Text: `say "hi"`}, `"say \"hi\""`},
		{"char literal", Literal{Kind: LitChar, Text: "x"}, "'x'"},
		{"null literal", Literal{Kind: LitNull}, "null"},
		{"field", Field("age"), "_this.age"},
		{"method on scope", MethodCall{Scope: Name{Name: "$p"}, Method: "isAdult"}, "$p.isAdult()"},
		{"free function", MethodCall{Method: "max", Args: []Expression{Field("a"), Literal{Kind: LitInt, Text: "1"}}}, "max(_this.a, 1)"},
		{"binary", Binary{Op: "&&", Left: Name{Name: "a"}, Right: Name{Name: "b"}}, "a && b"},
		{"unary", Unary{Op: "!", Operand: Field("active")}, "!_this.active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestReferences(t *testing.T) {
	e := Binary{
		Op:    ">",
		Left:  Field("age"),
		Right: MethodCall{Scope: Name{Name: "$q"}, Method: "limit", Args: []Expression{Name{Name: "$r"}}},
	}

	assert.True(t, References(e, ThisName))
	assert.True(t, References(e, "$q"))
	assert.True(t, References(e, "$r"))
	assert.False(t, References(e, "age"), "field names are not identifiers")
	assert.False(t, References(nil, ThisName))
}

func TestInspectOrderAndPruning(t *testing.T) {
	e := Binary{Op: "+", Left: Unary{Op: "-", Operand: Name{Name: "a"}}, Right: Name{Name: "b"}}

	var visited []string
	Inspect(e, func(n Expression) bool {
		visited = append(visited, n.String())
		_, isUnary := n.(Unary)
		return !isUnary
	})
	assert.Equal(t, []string{"-a + b", "-a", "b"}, visited)
}

func TestNameAndLiteralPredicates(t *testing.T) {
	assert.True(t, IsName(This()))
	assert.False(t, IsName(Field("age")))
	assert.True(t, IsLiteral(Literal{Kind: LitInt, Text: "1"}))
	assert.False(t, IsLiteral(Name{Name: "x"}))
}
