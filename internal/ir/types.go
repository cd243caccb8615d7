package ir

import "fmt"

// Type is the nominal static type of an operand, declaration or pattern.
// Built-in scalar types use the lower-case names below; every other value
// names a pattern type (a fact class).
type Type string

// Built-in types.
const (
	TypeInt        Type = "int"
	TypeLong       Type = "long"
	TypeShort      Type = "short"
	TypeByte       Type = "byte"
	TypeDouble     Type = "double"
	TypeFloat      Type = "float"
	TypeDecimal    Type = "decimal"
	TypeBigInteger Type = "biginteger"
	TypeString     Type = "string"
	TypeChar       Type = "char"
	TypeBoolean    Type = "boolean"
	TypeObject     Type = "object"
)

// IsIntegral reports whether t holds whole numbers only.
func (t Type) IsIntegral() bool {
	switch t {
	case TypeInt, TypeLong, TypeShort, TypeByte, TypeBigInteger:
		return true
	}
	return false
}

// IsFloating reports whether t holds fractional numbers.
func (t Type) IsFloating() bool {
	switch t {
	case TypeDouble, TypeFloat, TypeDecimal:
		return true
	}
	return false
}

// IsNumeric reports whether t is any numeric type.
func (t Type) IsNumeric() bool {
	return t.IsIntegral() || t.IsFloating()
}

// IsPrimitive reports whether t cannot hold null.
// decimal, biginteger, string and pattern types are references.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeInt, TypeLong, TypeShort, TypeByte, TypeDouble, TypeFloat, TypeChar, TypeBoolean:
		return true
	}
	return false
}

// IsBuiltin reports whether t is one of the built-in types.
func (t Type) IsBuiltin() bool {
	return t.IsNumeric() || t == TypeString || t == TypeChar || t == TypeBoolean || t == TypeObject
}

// String returns the type name.
func (t Type) String() string {
	return string(t)
}

// Declaration is a named, typed variable bound from a pattern earlier in the
// same rule.
type Declaration struct {
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	Pattern int    `json:"pattern"` // index of the pattern the value is drawn from
}

// ConstraintType is the decoded comparison kind of an atomic constraint.
type ConstraintType string

// Constraint types understood by the matching network's indexes.
const (
	ConstraintEqual       ConstraintType = "EQUAL"
	ConstraintNotEqual    ConstraintType = "NOT_EQUAL"
	ConstraintGreater     ConstraintType = "GREATER_THAN"
	ConstraintGreaterOrEq ConstraintType = "GREATER_OR_EQUAL"
	ConstraintLess        ConstraintType = "LESS_THAN"
	ConstraintLessOrEq    ConstraintType = "LESS_OR_EQUAL"
	ConstraintRange       ConstraintType = "RANGE"
	ConstraintUnknown     ConstraintType = "UNKNOWN"
)

// ValidConstraintTypes lists every accepted ConstraintType.
var ValidConstraintTypes = map[ConstraintType]bool{
	ConstraintEqual:       true,
	ConstraintNotEqual:    true,
	ConstraintGreater:     true,
	ConstraintGreaterOrEq: true,
	ConstraintLess:        true,
	ConstraintLessOrEq:    true,
	ConstraintRange:       true,
	ConstraintUnknown:     true,
}

// ParseConstraintType accepts both the canonical names and the short aliases
// (GREATER, LESS, GE, LE, EQ, NE) used in rule-base files.
func ParseConstraintType(s string) (ConstraintType, error) {
	switch s {
	case "GREATER":
		return ConstraintGreater, nil
	case "LESS":
		return ConstraintLess, nil
	case "GE":
		return ConstraintGreaterOrEq, nil
	case "LE":
		return ConstraintLessOrEq, nil
	case "EQ":
		return ConstraintEqual, nil
	case "NE":
		return ConstraintNotEqual, nil
	}
	ct := ConstraintType(s)
	if !ValidConstraintTypes[ct] {
		return ConstraintUnknown, fmt.Errorf("unknown constraint type %q", s)
	}
	return ct, nil
}

// Symbol returns the binary operator spelling of ct, or "" when ct has none.
func (ct ConstraintType) Symbol() string {
	switch ct {
	case ConstraintEqual:
		return "=="
	case ConstraintNotEqual:
		return "!="
	case ConstraintGreater:
		return ">"
	case ConstraintGreaterOrEq:
		return ">="
	case ConstraintLess:
		return "<"
	case ConstraintLessOrEq:
		return "<="
	}
	return ""
}

// BooleanOperator joins the children of a Composite.
type BooleanOperator string

// Boolean operators.
const (
	OpAnd BooleanOperator = "AND"
	OpOr  BooleanOperator = "OR"
)

// UnboundFieldID marks an index whose key has no static field, as produced
// for unification.
const UnboundFieldID = -1

// ThisName is the implicit current-fact placeholder inside expressions.
const ThisName = "_this"
