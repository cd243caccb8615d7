package compiler

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/rulecc/internal/ir"
)

// numericSuffixes are the type suffixes a numeric literal may carry
// (30L, 1.5d, 2f, 10B, 10I).
const numericSuffixes = "lLdDfFBI"

// CoerceLiteral converts lit to a value of type to.
//
// Numbers are handled exactly: an integral target accepts any numeric literal
// whose value is whole and fits the target's range, a fractional target
// accepts any numeric literal and yields an IRDecimal. null is accepted only
// by reference types. Anything else is a type mismatch.
func CoerceLiteral(lit ir.Literal, to ir.Type) (ir.IRValue, error) {
	switch lit.Kind {
	case ir.LitNull:
		if to.IsPrimitive() {
			return nil, fmt.Errorf("null cannot be coerced to primitive %s", to)
		}
		return ir.IRNull{}, nil
	case ir.LitInt, ir.LitLong, ir.LitDouble, ir.LitDecimal:
		return coerceNumber(lit, to)
	case ir.LitString, ir.LitChar:
		return coerceText(lit, to)
	case ir.LitBoolean:
		if to != ir.TypeBoolean && to != ir.TypeObject {
			return nil, fmt.Errorf("boolean literal %s cannot be coerced to %s", lit.Text, to)
		}
		switch lit.Text {
		case "true":
			return ir.IRBool(true), nil
		case "false":
			return ir.IRBool(false), nil
		}
		return nil, fmt.Errorf("invalid boolean literal %q", lit.Text)
	}
	return nil, fmt.Errorf("unknown literal kind %q", lit.Kind)
}

func coerceNumber(lit ir.Literal, to ir.Type) (ir.IRValue, error) {
	text := strings.TrimRight(lit.Text, numericSuffixes)
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric literal %q: %w", lit.Text, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("numeric literal %q is not finite", lit.Text)
	}

	switch {
	case to.IsIntegral():
		var whole apd.Decimal
		whole.Reduce(d)
		if whole.Exponent < 0 && !whole.IsZero() {
			return nil, fmt.Errorf("literal %s is not a whole number, cannot be coerced to %s", lit.Text, to)
		}
		if to == ir.TypeBigInteger {
			return ir.ParseDecimal(text)
		}
		n, err := whole.Int64()
		if err != nil {
			return nil, fmt.Errorf("literal %s overflows %s", lit.Text, to)
		}
		lo, hi := integralRange(to)
		if n < lo || n > hi {
			return nil, fmt.Errorf("literal %s overflows %s", lit.Text, to)
		}
		return ir.IRInt(n), nil
	case to.IsFloating():
		return ir.ParseDecimal(text)
	case to == ir.TypeObject:
		if lit.Kind == ir.LitInt || lit.Kind == ir.LitLong {
			n, err := d.Int64()
			if err == nil {
				return ir.IRInt(n), nil
			}
		}
		return ir.ParseDecimal(text)
	}
	return nil, fmt.Errorf("numeric literal %s cannot be coerced to %s", lit.Text, to)
}

func integralRange(t ir.Type) (int64, int64) {
	switch t {
	case ir.TypeByte:
		return math.MinInt8, math.MaxInt8
	case ir.TypeShort:
		return math.MinInt16, math.MaxInt16
	case ir.TypeInt:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func coerceText(lit ir.Literal, to ir.Type) (ir.IRValue, error) {
	switch to {
	case ir.TypeString, ir.TypeObject:
		return ir.IRString(lit.Text), nil
	case ir.TypeChar:
		if utf8.RuneCountInString(lit.Text) != 1 {
			return nil, fmt.Errorf("literal %s is not a single character", lit)
		}
		return ir.IRString(lit.Text), nil
	}
	return nil, fmt.Errorf("%s literal %s cannot be coerced to %s", lit.Kind, lit, to)
}

// CoerceDeclaration decides how a declaration value of type from is converted
// to the index key type to. It returns "" when no conversion is needed and the
// target type when the matching network must convert.
func CoerceDeclaration(from, to ir.Type) (ir.Type, error) {
	switch {
	case from == to, from == ir.TypeObject, to == ir.TypeObject:
		return "", nil
	case from.IsNumeric() && to.IsNumeric():
		return to, nil
	case from == ir.TypeChar && to == ir.TypeString:
		return to, nil
	}
	return "", fmt.Errorf("%s cannot be coerced to %s", from, to)
}
