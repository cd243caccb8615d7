package ruledef

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/rulecc/internal/ir"
)

var literalKinds = map[ir.LiteralKind]bool{
	ir.LitInt:     true,
	ir.LitLong:    true,
	ir.LitDouble:  true,
	ir.LitDecimal: true,
	ir.LitString:  true,
	ir.LitChar:    true,
	ir.LitBoolean: true,
	ir.LitNull:    true,
}

// parseExpr reads one expression node. A bare CUE string is shorthand for
// {name: "..."}.
func (r *ruleReader) parseExpr(v cue.Value) (ir.Expression, error) {
	if v.Kind() == cue.StringKind {
		s, _ := v.String()
		if s == "" {
			return nil, r.errorf(ErrCodeInvalidExpression, v, "empty name")
		}
		return ir.Name{Name: s}, nil
	}
	if v.Kind() != cue.StructKind {
		return nil, r.errorf(ErrCodeInvalidExpression, v, "expression must be a struct or a name, got %s", v.Kind())
	}

	has := func(f string) bool { return lookup(v, f).Exists() }
	sub := func(f string) (ir.Expression, error) { return r.parseExpr(lookup(v, f)) }

	switch {
	case has("name"):
		name, err := optString(v, "name")
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		if name == "" {
			return nil, r.errorf(ErrCodeInvalidExpression, v, "empty name")
		}
		return ir.Name{Name: name}, nil

	case has("lit"):
		return r.parseLiteral(v)

	case has("field"):
		f, err := optString(v, "field")
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		if f == "" {
			return nil, r.errorf(ErrCodeInvalidExpression, v, "empty field name")
		}
		var scope ir.Expression = ir.This()
		if has("of") {
			if scope, err = sub("of"); err != nil {
				return nil, err
			}
		}
		return ir.FieldAccess{Scope: scope, Field: f}, nil

	case has("call"):
		m, err := optString(v, "call")
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		if m == "" {
			return nil, r.errorf(ErrCodeInvalidExpression, v, "empty method name")
		}
		call := ir.MethodCall{Method: m}
		if has("on") {
			if call.Scope, err = sub("on"); err != nil {
				return nil, err
			}
		}
		argVals, err := optList(v, "args")
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		for _, av := range argVals {
			a, err := r.parseExpr(av)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
		}
		return call, nil

	case has("op"):
		op, err := optString(v, "op")
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		if op == "" || !has("left") || !has("right") {
			return nil, r.errorf(ErrCodeInvalidExpression, v, "binary expression needs op, left and right")
		}
		left, err := sub("left")
		if err != nil {
			return nil, err
		}
		right, err := sub("right")
		if err != nil {
			return nil, err
		}
		return ir.Binary{Op: op, Left: left, Right: right}, nil

	case has("not"):
		operand, err := sub("not")
		if err != nil {
			return nil, err
		}
		return ir.Unary{Op: "!", Operand: operand}, nil

	case has("neg"):
		operand, err := sub("neg")
		if err != nil {
			return nil, err
		}
		return ir.Unary{Op: "-", Operand: operand}, nil
	}
	return nil, r.errorf(ErrCodeInvalidExpression, v, "unrecognized expression node")
}

// parseLiteral reads {lit, kind?}. Without an explicit kind the CUE kind of
// lit decides: integers are int, other numbers double.
func (r *ruleReader) parseLiteral(v cue.Value) (ir.Expression, error) {
	lv := lookup(v, "lit")
	kind, err := optString(v, "kind")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidExpression, v, err)
	}
	if kind != "" && !literalKinds[ir.LiteralKind(kind)] {
		return nil, r.errorf(ErrCodeInvalidExpression, v, "unknown literal kind %q", kind)
	}

	var lit ir.Literal
	switch lv.Kind() {
	case cue.StringKind:
		s, _ := lv.String()
		lit = ir.Literal{Kind: ir.LitString, Text: s}
	case cue.BoolKind:
		b, _ := lv.Bool()
		lit = ir.Literal{Kind: ir.LitBoolean, Text: fmt.Sprint(b)}
	case cue.NullKind:
		lit = ir.Literal{Kind: ir.LitNull, Text: "null"}
	case cue.IntKind, cue.FloatKind:
		text, err := lv.MarshalJSON()
		if err != nil {
			return nil, r.wrap(ErrCodeInvalidExpression, v, err)
		}
		lit = ir.Literal{Kind: ir.LitInt, Text: string(text)}
		if lv.Kind() == cue.FloatKind {
			lit.Kind = ir.LitDouble
		}
	default:
		return nil, r.errorf(ErrCodeInvalidExpression, v, "literal must be concrete, got %s", lv.IncompleteKind())
	}

	if kind != "" {
		lit.Kind = ir.LiteralKind(kind)
	}
	return lit, nil
}

// literalType is the static type of a literal of kind k.
func literalType(k ir.LiteralKind) ir.Type {
	switch k {
	case ir.LitInt:
		return ir.TypeInt
	case ir.LitLong:
		return ir.TypeLong
	case ir.LitDouble:
		return ir.TypeDouble
	case ir.LitDecimal:
		return ir.TypeDecimal
	case ir.LitString:
		return ir.TypeString
	case ir.LitChar:
		return ir.TypeChar
	case ir.LitBoolean:
		return ir.TypeBoolean
	}
	return ir.TypeObject
}
