package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/rulecc/internal/ir"
)

// build compiles r depth-first, left to right. pos is the dotted path of r
// inside the condition tree.
func (s strategy) build(r ir.ParseResult, pos string) (ir.Constraint, error) {
	switch n := r.(type) {
	case *ir.Atomic:
		if n == nil {
			return nil, s.ctx.unsupported(pos, "nil atomic parse result")
		}
		c, err := s.buildSingle(n, pos)
		if err != nil {
			return nil, err
		}
		return c, nil
	case *ir.Composite:
		if n == nil {
			return nil, s.ctx.malformed(pos, "nil composite parse result")
		}
		c, err := s.buildComposite(n, pos)
		if err != nil {
			return nil, err
		}
		return c, nil
	case nil:
		return nil, s.ctx.unsupported(pos, "missing parse result")
	default:
		return nil, s.ctx.unsupported(pos, fmt.Sprintf("unsupported parse result %T", r))
	}
}

func (s strategy) buildComposite(c *ir.Composite, pos string) (*ir.CompositeConstraint, error) {
	var call string
	switch c.Operator() {
	case ir.OpAnd:
		call = s.calls.and
	case ir.OpOr:
		call = s.calls.or
	default:
		return nil, s.ctx.malformed(pos, fmt.Sprintf("unknown boolean operator %q", c.Operator()))
	}
	if c.Len() == 0 {
		return nil, s.ctx.malformed(pos, fmt.Sprintf("%s composite has no children", c.Operator()))
	}

	children := c.Children()
	out := make([]ir.Constraint, 0, len(children))
	for i, child := range children {
		compiled, err := s.build(child, childPosition(pos, i))
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return &ir.CompositeConstraint{
		Call:     call,
		Operator: c.Operator(),
		Children: out,
	}, nil
}

func childPosition(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}
