package compiler

import "github.com/roach88/rulecc/internal/ir"

// buildBinding emits bind(target).as(args...) for an atomic whose result is
// exposed as a new declaration. The as-arguments are the pattern binding
// (flow only), each declaration used on the left, then the expression.
// A left declaration is passed even when it is the pattern binding, so the
// expression never refers to a name its lambda does not bind.
func (s strategy) buildBinding(a *ir.Atomic, pos string) (*ir.BindConstraint, error) {
	if a == nil {
		return nil, s.ctx.unsupported(pos, "nil atomic parse result")
	}
	if a.Expr == nil {
		return nil, s.ctx.unsupported(pos, "binding has no expression")
	}
	name := bindingTarget(a)
	if name == "" {
		return nil, s.ctx.unsupported(pos, "binding has neither expression binding nor unification variable")
	}
	target, err := s.ctx.resolveVar(pos, name)
	if err != nil {
		return nil, err
	}

	var args []ir.Argument
	if s.leadingBinding && a.PatternBinding != "" {
		v, err := s.ctx.resolveVar(pos, a.PatternBinding)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	params := []string{s.currentFactParam(a)}
	for _, d := range a.UsedDeclarationsOnLeft {
		v, err := s.ctx.resolveVar(pos, d)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		params = append(params, v.Name)
	}
	args = append(args, ir.PredicateArg{Lambda: ir.Lambda{Params: params, Body: a.Expr}})

	reactOn, watch := s.ctx.reactivity(a.PatternType, a.ReactOnProperties, a.WatchedProperties)
	return &ir.BindConstraint{
		Call:    s.calls.bind,
		Target:  target,
		Args:    args,
		ReactOn: reactOn,
		Watch:   watch,
	}, nil
}
