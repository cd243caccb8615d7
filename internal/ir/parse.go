package ir

import "errors"

// ErrEmptyComposite is returned by NewComposite when no children are given.
var ErrEmptyComposite = errors.New("composite parse result has no children")

// ParseResult is a typed condition tree for one rule constraint.
//
// This is a sealed interface - only *Atomic and *Composite implement it.
// Consumers switch exhaustively:
//
//	switch r := result.(type) {
//	case *ir.Atomic:
//	    // one boolean test
//	case *ir.Composite:
//	    // AND/OR over ordered children
//	}
type ParseResult interface {
	parseResult() // Marker method - seals interface to this package
}

// TypedExpression is an operand with a known static type.
// FieldName is set when the operand reads a declared field of the pattern
// and is used for index-key identity.
type TypedExpression struct {
	Type      Type
	Expr      Expression
	FieldName string
}

// Atomic is one boolean test.
type Atomic struct {
	// ExprID optionally names the constraint for node sharing diagnostics.
	ExprID string

	// PatternBinding is the variable the owning pattern is bound to, if any.
	PatternBinding string

	Left  *TypedExpression
	Right *TypedExpression

	// Expr is the compiled boolean test.
	Expr Expression

	Temporal                  bool
	Unification               bool
	PatternBindingUnification bool

	// UsedDeclarations lists declarations referenced by Expr, in the order
	// they were first encountered. The order is semantic.
	UsedDeclarations       []string
	UsedDeclarationsOnLeft []string

	ReactOnProperties []string
	WatchedProperties []string

	ConstraintType ConstraintType

	// RightLiteral is the literal text passed as a trailing argument
	// (temporal parameters, "in" lists). Nil when absent.
	RightLiteral *string

	ExprBinding         string
	UnificationVariable string

	SkipThisAsParam bool

	PatternType Type
}

func (*Atomic) parseResult() {}

// HasUnificationVariable reports whether the binding should use the
// unification variable instead of ExprBinding.
func (a *Atomic) HasUnificationVariable() bool {
	return a.UnificationVariable != ""
}

// IsBeta reports whether the constraint references a declaration bound by
// another pattern.
func (a *Atomic) IsBeta() bool {
	for _, d := range a.UsedDeclarations {
		if d != a.PatternBinding {
			return true
		}
	}
	return false
}

// Composite joins ordered children under one boolean operator.
// Build it with NewComposite; the operator and children are fixed afterwards.
type Composite struct {
	operator BooleanOperator
	children []ParseResult
}

func (*Composite) parseResult() {}

// NewComposite builds a Composite. It fails with ErrEmptyComposite when no
// children are supplied.
func NewComposite(op BooleanOperator, children ...ParseResult) (*Composite, error) {
	if len(children) == 0 {
		return nil, ErrEmptyComposite
	}
	cs := make([]ParseResult, len(children))
	copy(cs, children)
	return &Composite{operator: op, children: cs}, nil
}

// MustComposite is like NewComposite but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustComposite(op BooleanOperator, children ...ParseResult) *Composite {
	c, err := NewComposite(op, children...)
	if err != nil {
		panic(err)
	}
	return c
}

// Operator returns the boolean operator.
func (c *Composite) Operator() BooleanOperator {
	return c.operator
}

// Children returns a copy of the ordered children.
func (c *Composite) Children() []ParseResult {
	cs := make([]ParseResult, len(c.children))
	copy(cs, c.children)
	return cs
}

// Len returns the number of children. A zero-value Composite has none.
func (c *Composite) Len() int {
	return len(c.children)
}
