package compiler

import "github.com/roach88/rulecc/internal/ir"

// buildSingle compiles one atomic constraint: arguments, then index, then
// reactivity.
func (s strategy) buildSingle(a *ir.Atomic, pos string) (*ir.ExprConstraint, error) {
	if a.Expr == nil {
		return nil, s.ctx.unsupported(pos, "atomic constraint has no expression")
	}

	args, err := s.buildArguments(a, pos)
	if err != nil {
		return nil, err
	}

	idx, err := s.ctx.buildIndexedBy(a, pos)
	if err != nil {
		return nil, err
	}

	reactOn, watch := s.ctx.reactivity(a.PatternType, a.ReactOnProperties, a.WatchedProperties)
	return &ir.ExprConstraint{
		Call:    s.calls.expr,
		ID:      a.ExprID,
		Args:    args,
		Index:   idx,
		ReactOn: reactOn,
		Watch:   watch,
	}, nil
}

// buildArguments lays out the argument list in the order the matching
// network binds it:
//
//	[pattern binding] [deferred left] declarations... [right literal | deferred right] predicate
func (s strategy) buildArguments(a *ir.Atomic, pos string) ([]ir.Argument, error) {
	var args []ir.Argument

	if s.leadingBinding && a.PatternBinding != "" && !a.PatternBindingUnification {
		v, err := s.ctx.resolveVar(pos, a.PatternBinding)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if a.Temporal && a.Left != nil && !ir.IsName(a.Left.Expr) {
		args = append(args, ir.NewDeferredArg(a.Left.Expr))
	}

	params := []string{s.currentFactParam(a)}
	for _, name := range usedDeclarations(a) {
		if a.SkipThisAsParam && name == a.PatternBinding {
			continue
		}
		v, err := s.ctx.resolveVar(pos, name)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		params = append(params, v.Name)
	}

	if a.RightLiteral != nil {
		args = append(args, ir.LiteralArg{Text: *a.RightLiteral})
	} else if a.Temporal && a.Right != nil && !ir.IsName(a.Right.Expr) {
		args = append(args, ir.NewDeferredArg(a.Right.Expr))
	}

	args = append(args, ir.PredicateArg{Lambda: ir.Lambda{Params: params, Body: a.Expr}})
	return args, nil
}

// currentFactParam is the predicate parameter standing for the tested fact.
// With SkipThisAsParam the expression names the fact by its pattern binding.
func (s strategy) currentFactParam(a *ir.Atomic) string {
	if a.SkipThisAsParam && a.PatternBinding != "" {
		return a.PatternBinding
	}
	return ir.ThisName
}
