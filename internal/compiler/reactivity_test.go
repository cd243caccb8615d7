package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulecc/internal/ir"
)

func TestReactivityGating(t *testing.T) {
	a := ageOver("30")
	a.ReactOnProperties = []string{"age"}
	a.WatchedProperties = []string{"age"}

	off, err := flow(t, newContext(t, false)).BuildExpressionWithIndexing(a)
	require.NoError(t, err)
	assert.Empty(t, mustExpr(t, off).ReactOn)
	assert.Equal(t, []string{"age"}, mustExpr(t, off).Watch)

	on, err := flow(t, newContext(t, true)).BuildExpressionWithIndexing(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, mustExpr(t, on).ReactOn)
	assert.Equal(t, []string{"age"}, mustExpr(t, on).Watch)
}

func TestWatchPassThrough(t *testing.T) {
	a := ageOver("30")
	a.WatchedProperties = []string{"*", "!name", "*"}

	ctx := newContext(t, false)
	ctx.Reactivity = ReactivityDisabled

	c, err := flow(t, ctx).BuildExpressionWithIndexing(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"*", "!name"}, mustExpr(t, c).Watch)
}

func TestIsPropertyReactive(t *testing.T) {
	types := map[ir.Type]TypeInfo{
		"Marked":   {PropertyReactive: true},
		"Plain":    {},
		"ClassOff": {ClassReactive: true},
	}

	tests := []struct {
		policy ReactivityPolicy
		typ    ir.Type
		want   bool
	}{
		{ReactivityAllowed, "Marked", true},
		{ReactivityAllowed, "Plain", false},
		{ReactivityAllowed, "Unknown", false},
		{ReactivityAlways, "Marked", true},
		{ReactivityAlways, "Plain", true},
		{ReactivityAlways, "Unknown", true},
		{ReactivityAlways, "ClassOff", false},
		{ReactivityDisabled, "Marked", false},
		{ReactivityDisabled, "Unknown", false},
		{"", "Marked", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+string(tt.typ), func(t *testing.T) {
			ctx := &RuleContext{Reactivity: tt.policy, Types: types}
			assert.Equal(t, tt.want, ctx.IsPropertyReactive(tt.typ))
		})
	}
}

func TestParseReactivityPolicy(t *testing.T) {
	p, err := ParseReactivityPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ReactivityAllowed, p)

	p, err = ParseReactivityPolicy("always")
	require.NoError(t, err)
	assert.Equal(t, ReactivityAlways, p)

	_, err = ParseReactivityPolicy("sometimes")
	assert.Error(t, err)
}

func TestReactOnIsCopied(t *testing.T) {
	a := ageOver("30")
	a.ReactOnProperties = []string{"age"}

	c, err := flow(t, newContext(t, true)).BuildExpressionWithIndexing(a)
	require.NoError(t, err)

	mustExpr(t, c).ReactOn[0] = "changed"
	assert.Equal(t, []string{"age"}, a.ReactOnProperties)
}
