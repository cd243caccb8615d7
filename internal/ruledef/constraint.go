package ruledef

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/rulecc/internal/ir"
)

// parseCondition reads an atomic constraint or an {and}/{or} composite.
func (r *ruleReader) parseCondition(h patternHead, v cue.Value) (ir.ParseResult, error) {
	for _, op := range []struct {
		field string
		op    ir.BooleanOperator
	}{{"and", ir.OpAnd}, {"or", ir.OpOr}} {
		if !lookup(v, op.field).Exists() {
			continue
		}
		childVals, err := optList(v, op.field)
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
		}
		children := make([]ir.ParseResult, 0, len(childVals))
		for _, cv := range childVals {
			c, err := r.parseCondition(h, cv)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		comp, err := ir.NewComposite(op.op, children...)
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
		}
		return comp, nil
	}
	a, err := r.parseAtomic(h, v)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ruleReader) parseAtomic(h patternHead, v cue.Value) (*ir.Atomic, error) {
	a := &ir.Atomic{
		PatternBinding: h.binding,
		PatternType:    h.typ,
	}

	var err error
	if a.ExprID, err = optString(v, "id"); err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if a.Left, err = r.parseOperand(h, v, "left"); err != nil {
		return nil, err
	}
	if a.Right, err = r.parseOperand(h, v, "right"); err != nil {
		return nil, err
	}

	a.ConstraintType = ir.ConstraintUnknown
	op, err := optString(v, "op")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if op != "" {
		if a.ConstraintType, err = ir.ParseConstraintType(op); err != nil {
			return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
		}
	}

	if tv := lookup(v, "test"); tv.Exists() {
		if a.Expr, err = r.parseExpr(tv); err != nil {
			return nil, err
		}
	} else {
		sym := a.ConstraintType.Symbol()
		if sym == "" || a.Left == nil || a.Right == nil {
			return nil, r.errorf(ErrCodeInvalidConstraint, v, "constraint needs a test, or op with left and right operands")
		}
		a.Expr = ir.Binary{Op: sym, Left: a.Left.Expr, Right: a.Right.Expr}
	}

	flags := []struct {
		path string
		dst  *bool
	}{
		{"temporal", &a.Temporal},
		{"unification", &a.Unification},
		{"binding_unification", &a.PatternBindingUnification},
		{"skip_this", &a.SkipThisAsParam},
	}
	for _, f := range flags {
		if *f.dst, err = optBool(v, f.path); err != nil {
			return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
		}
	}

	uses, ok, err := optStrings(v, "uses")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if !ok {
		uses = r.usedDeclarations(a.Expr)
	}
	a.UsedDeclarations = uses

	onLeft, ok, err := optStrings(v, "uses_on_left")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if !ok && a.Left != nil {
		onLeft = r.usedDeclarations(a.Left.Expr)
	}
	a.UsedDeclarationsOnLeft = onLeft

	if a.ReactOnProperties, err = r.reactOn(h, v, a.Expr); err != nil {
		return nil, err
	}
	if a.WatchedProperties, _, err = optStrings(v, "watch"); err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}

	if lv := lookup(v, "right_literal"); lv.Exists() {
		text, err := literalText(lv)
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
		}
		a.RightLiteral = &text
	}

	if a.ExprBinding, err = optString(v, "bind"); err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if a.UnificationVariable, err = optString(v, "unification_var"); err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	return a, nil
}

// parseBinding reads a pattern binding {name, expr, ...} as an atomic whose
// result is exposed as the declaration name.
func (r *ruleReader) parseBinding(h patternHead, v cue.Value) (*ir.Atomic, error) {
	a := &ir.Atomic{
		PatternBinding: h.binding,
		PatternType:    h.typ,
	}

	var err error
	if a.ExprBinding, err = optString(v, "name"); err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	if a.UnificationVariable, err = optString(v, "unification_var"); err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	if a.ExprBinding == "" && a.UnificationVariable == "" {
		return nil, r.errorf(ErrCodeInvalidRule, v, "binding has no name")
	}

	ev := lookup(v, "expr")
	if !ev.Exists() {
		return nil, r.errorf(ErrCodeInvalidRule, v, "binding %s has no expression", a.ExprBinding)
	}
	if a.Expr, err = r.parseExpr(ev); err != nil {
		return nil, err
	}

	declared, err := optString(v, "type")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	a.Left = &ir.TypedExpression{Expr: a.Expr, FieldName: thisField(a.Expr)}
	a.Left.Type = r.operandType(h, ir.Type(declared), a.Left)
	if target := bindingName(a); target != "" {
		r.imply(ir.Declaration{Name: target, Type: a.Left.Type, Pattern: h.index})
	}

	uses, ok, err := optStrings(v, "uses")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	if !ok {
		uses = r.usedDeclarations(a.Expr)
	}
	a.UsedDeclarations = uses
	a.UsedDeclarationsOnLeft = uses

	if a.ReactOnProperties, err = r.reactOn(h, v, a.Expr); err != nil {
		return nil, err
	}
	if a.WatchedProperties, _, err = optStrings(v, "watch"); err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	return a, nil
}

func bindingName(a *ir.Atomic) string {
	if a.HasUnificationVariable() {
		return a.UnificationVariable
	}
	return a.ExprBinding
}

// parseOperand reads {type?, field?, expr?} at path. It returns nil when the
// operand is absent.
func (r *ruleReader) parseOperand(h patternHead, v cue.Value, path string) (*ir.TypedExpression, error) {
	ov := lookup(v, path)
	if !ov.Exists() {
		return nil, nil
	}

	te := &ir.TypedExpression{}
	field, err := optString(ov, "field")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, ov, err)
	}
	if ev := lookup(ov, "expr"); ev.Exists() {
		if te.Expr, err = r.parseExpr(ev); err != nil {
			return nil, err
		}
	} else if field != "" {
		te.Expr = ir.Field(field)
	}
	if te.Expr == nil {
		return nil, r.errorf(ErrCodeInvalidConstraint, ov, "%s operand needs field or expr", path)
	}

	te.FieldName = field
	if te.FieldName == "" {
		te.FieldName = thisField(te.Expr)
	}

	declared, err := optString(ov, "type")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, ov, err)
	}
	te.Type = r.operandType(h, ir.Type(declared), te)
	return te, nil
}

// operandType resolves the static type of an operand: the declared type,
// then the pattern's field map, then the literal kind, then the type of a
// declaration or one of its fields. Anything else is object.
func (r *ruleReader) operandType(h patternHead, declared ir.Type, te *ir.TypedExpression) ir.Type {
	if declared != "" {
		return declared
	}
	if te.FieldName != "" {
		if t, ok := r.types[h.typ].Fields[te.FieldName]; ok {
			return t
		}
	}
	switch e := te.Expr.(type) {
	case ir.Literal:
		return literalType(e.Kind)
	case ir.Name:
		if d, ok := r.decls[e.Name]; ok {
			return d.Type
		}
	case ir.FieldAccess:
		if scope, ok := e.Scope.(ir.Name); ok {
			owner := h.typ
			if scope.Name != ir.ThisName {
				d, known := r.decls[scope.Name]
				if !known {
					break
				}
				owner = d.Type
			}
			if t, ok := r.types[owner].Fields[e.Field]; ok {
				return t
			}
		}
	}
	return ir.TypeObject
}

// usedDeclarations lists the names e references other than the current
// fact, first seen first. Names nothing declares are kept so the compiler
// reports them as unresolved.
func (r *ruleReader) usedDeclarations(e ir.Expression) []string {
	var out []string
	seen := map[string]bool{}
	ir.Inspect(e, func(n ir.Expression) bool {
		id, ok := n.(ir.Name)
		if !ok || id.Name == ir.ThisName || seen[id.Name] {
			return true
		}
		seen[id.Name] = true
		out = append(out, id.Name)
		return true
	})
	return out
}

// reactOn returns the explicit react_on list, or the fields e reads from the
// current fact or the pattern binding.
func (r *ruleReader) reactOn(h patternHead, v cue.Value, e ir.Expression) ([]string, error) {
	explicit, ok, err := optStrings(v, "react_on")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	if ok {
		return explicit, nil
	}

	var out []string
	seen := map[string]bool{}
	ir.Inspect(e, func(n ir.Expression) bool {
		fa, ok := n.(ir.FieldAccess)
		if !ok {
			return true
		}
		if scope, ok := fa.Scope.(ir.Name); ok && (scope.Name == ir.ThisName || (h.binding != "" && scope.Name == h.binding)) {
			if !seen[fa.Field] {
				seen[fa.Field] = true
				out = append(out, fa.Field)
			}
		}
		return true
	})
	return out, nil
}

// thisField returns f when e is _this.f.
func thisField(e ir.Expression) string {
	fa, ok := e.(ir.FieldAccess)
	if !ok {
		return ""
	}
	if scope, ok := fa.Scope.(ir.Name); ok && scope.Name == ir.ThisName {
		return fa.Field
	}
	return ""
}

// literalText renders a right_literal value: strings verbatim, numbers and
// booleans in their JSON spelling.
func literalText(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind, cue.FloatKind, cue.BoolKind:
		b, err := v.MarshalJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("right_literal must be a string, number or bool, got %s", v.Kind())
}
