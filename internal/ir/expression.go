package ir

import (
	"strconv"
	"strings"
)

// Expression is a node of a type-checked source expression.
//
// This is a sealed interface - only types in this package implement it.
// Node types:
//   - Name: a bare identifier (declaration or the _this placeholder)
//   - Literal: a constant with its lexical kind
//   - FieldAccess: scope.field
//   - MethodCall: scope.method(args) or method(args)
//   - Binary: left op right
//   - Unary: op operand
type Expression interface {
	exprNode()
	String() string
}

// LiteralKind is the lexical kind of a Literal.
type LiteralKind string

// Literal kinds.
const (
	LitInt     LiteralKind = "int"
	LitLong    LiteralKind = "long"
	LitDouble  LiteralKind = "double"
	LitDecimal LiteralKind = "decimal"
	LitString  LiteralKind = "string"
	LitChar    LiteralKind = "char"
	LitBoolean LiteralKind = "boolean"
	LitNull    LiteralKind = "null"
)

// Name is a bare identifier.
type Name struct {
	Name string
}

func (Name) exprNode() {}

func (n Name) String() string { return n.Name }

// Literal is a constant. Text holds the unquoted lexical value.
type Literal struct {
	Kind LiteralKind
	Text string
}

func (Literal) exprNode() {}

func (l Literal) String() string {
	switch l.Kind {
	case LitString:
		return strconv.Quote(l.Text)
	case LitChar:
		return "'" + l.Text + "'"
	case LitNull:
		return "null"
	}
	return l.Text
}

// FieldAccess reads a field from Scope.
type FieldAccess struct {
	Scope Expression
	Field string
}

func (FieldAccess) exprNode() {}

func (f FieldAccess) String() string {
	return f.Scope.String() + "." + f.Field
}

// MethodCall invokes Method on Scope, or a free function when Scope is nil.
type MethodCall struct {
	Scope  Expression
	Method string
	Args   []Expression
}

func (MethodCall) exprNode() {}

func (m MethodCall) String() string {
	var b strings.Builder
	if m.Scope != nil {
		b.WriteString(m.Scope.String())
		b.WriteByte('.')
	}
	b.WriteString(m.Method)
	b.WriteByte('(')
	for i, a := range m.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Binary is a binary operation such as >, ==, && or +.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

func (Binary) exprNode() {}

func (b Binary) String() string {
	return b.Left.String() + " " + b.Op + " " + b.Right.String()
}

// Unary is a prefix operation such as ! or -.
type Unary struct {
	Op      string
	Operand Expression
}

func (Unary) exprNode() {}

func (u Unary) String() string {
	return u.Op + u.Operand.String()
}

// References reports whether name occurs as a bare identifier anywhere in e.
func References(e Expression, name string) bool {
	found := false
	Inspect(e, func(n Expression) bool {
		if id, ok := n.(Name); ok && id.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// Inspect walks e depth-first, left to right, calling fn for each node.
// Children are skipped when fn returns false.
func Inspect(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case FieldAccess:
		Inspect(n.Scope, fn)
	case MethodCall:
		Inspect(n.Scope, fn)
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case Binary:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case Unary:
		Inspect(n.Operand, fn)
	}
}

// IsName reports whether e is a bare identifier.
func IsName(e Expression) bool {
	_, ok := e.(Name)
	return ok
}

// IsLiteral reports whether e is a constant.
func IsLiteral(e Expression) bool {
	_, ok := e.(Literal)
	return ok
}

// This returns the current-fact placeholder.
func This() Name {
	return Name{Name: ThisName}
}

// Field returns _this.field.
func Field(field string) FieldAccess {
	return FieldAccess{Scope: This(), Field: field}
}
