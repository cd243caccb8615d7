package compiler

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulecc/internal/ir"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestParseBuilderKind(t *testing.T) {
	k, err := ParseBuilderKind("")
	require.NoError(t, err)
	assert.Equal(t, BuilderFlow, k)

	k, err = ParseBuilderKind("pattern")
	require.NoError(t, err)
	assert.Equal(t, BuilderPattern, k)

	_, err = ParseBuilderKind("executable-model")
	assert.Error(t, err)
}

func TestNewExpressionBuilder(t *testing.T) {
	ctx := newContext(t, false)

	b, err := NewExpressionBuilder(BuilderFlow, ctx)
	require.NoError(t, err)
	assert.IsType(t, &FlowBuilder{}, b)

	b, err = NewExpressionBuilder(BuilderPattern, ctx)
	require.NoError(t, err)
	assert.IsType(t, &PatternBuilder{}, b)

	_, err = NewExpressionBuilder("nope", ctx)
	assert.Error(t, err)

	_, err = NewExpressionBuilder(BuilderFlow, nil)
	assert.Error(t, err)

	_, err = NewExpressionBuilder(BuilderFlow, &RuleContext{Rule: "r"})
	assert.Error(t, err, "a context needs a field registry")

	_, err = NewFlowBuilder(&RuleContext{Rule: "r"}).BuildExpressionWithIndexing(ageOver("1"))
	assert.Error(t, err)
}

func TestStrategiesShareSemantics(t *testing.T) {
	flowC, err := NewFlowBuilder(newContext(t, false)).BuildExpressionWithIndexing(ageOver("30"))
	require.NoError(t, err)
	patC, err := NewPatternBuilder(newContext(t, false)).BuildExpressionWithIndexing(ageOver("30"))
	require.NoError(t, err)

	f, p := mustExpr(t, flowC), mustExpr(t, patC)
	assert.Equal(t, "D.expr", f.Call)
	assert.Equal(t, "expr", p.Call)
	assert.Equal(t, f.Index, p.Index)
	assert.Equal(t, f.Args[1:], p.Args, "pattern strategy drops only the leading binding")
}

func TestRenderGolden(t *testing.T) {
	beta := ageOverQ()

	gtAge := ageOver("30")
	gtAge.ExprID = "GT_AGE"

	composite := ir.MustComposite(ir.OpAnd,
		ageOver("30"),
		ir.MustComposite(ir.OpOr,
			compare("name", ir.TypeString, ir.ConstraintEqual, strLit("Mark"), ir.TypeString),
			compare("age", ir.TypeInt, ir.ConstraintLess, intLit("65"), ir.TypeInt),
		),
	)

	reactive := ageOver("30")
	reactive.ReactOnProperties = []string{"age"}
	reactive.WatchedProperties = []string{"name"}

	binding := ageBinding()
	binding.ReactOnProperties = []string{"age"}

	tests := []struct {
		name  string
		kind  BuilderKind
		input ir.ParseResult
	}{
		{"flow_end_to_end", BuilderFlow, ageOver("30")},
		{"pattern_end_to_end", BuilderPattern, ageOver("30")},
		{"flow_expr_id", BuilderFlow, gtAge},
		{"flow_beta", BuilderFlow, beta},
		{"flow_composite", BuilderFlow, composite},
		{"pattern_composite", BuilderPattern, composite},
		{"flow_reactive", BuilderFlow, reactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewExpressionBuilder(tt.kind, newContext(t, true))
			require.NoError(t, err)
			c, err := b.BuildExpressionWithIndexing(tt.input)
			require.NoError(t, err)
			newGoldie(t).Assert(t, tt.name, []byte(ir.Render(c)))
		})
	}

	t.Run("flow_binding", func(t *testing.T) {
		c, err := flow(t, newContext(t, true)).BuildBinding(binding)
		require.NoError(t, err)
		newGoldie(t).Assert(t, "flow_binding", []byte(ir.Render(c)))
	})
}

func TestCanonicalGolden(t *testing.T) {
	c, err := flow(t, newContext(t, false)).BuildExpressionWithIndexing(ageOver("30"))
	require.NoError(t, err)

	canonical, err := ir.CanonicalConstraint(c)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "flow_end_to_end_canonical", canonical)
}

// Rules compiled in parallel against one registry must produce the same
// descriptors they produce sequentially, once field ids are fixed.
func TestConcurrentCompilationDeterminism(t *testing.T) {
	fields := NewFieldRegistry()
	decls, err := NewDeclarationTable(
		ir.Declaration{Name: "$p", Type: person},
		ir.Declaration{Name: "$q", Type: person},
	)
	require.NoError(t, err)

	inputs := []func() ir.ParseResult{
		func() ir.ParseResult { return ageOver("30") },
		func() ir.ParseResult { return ageOverQ() },
		func() ir.ParseResult {
			return compare("name", ir.TypeString, ir.ConstraintEqual, strLit("Mark"), ir.TypeString)
		},
	}

	const rules = 64
	out := make([][]byte, rules)
	var wg sync.WaitGroup
	for i := 0; i < rules; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := &RuleContext{Rule: fmt.Sprintf("r%d", i), Declarations: decls, Fields: fields}
			c, err := NewFlowBuilder(ctx).BuildExpressionWithIndexing(inputs[i%len(inputs)]())
			if !assert.NoError(t, err) {
				return
			}
			b, err := ir.CanonicalConstraint(c)
			if assert.NoError(t, err) {
				out[i] = b
			}
		}(i)
	}
	wg.Wait()

	for i := len(inputs); i < rules; i++ {
		assert.Equal(t, out[i%len(inputs)], out[i], "rule r%d", i)
	}
	assert.Equal(t, 2, fields.Len(), "age and name registered once each")
}
