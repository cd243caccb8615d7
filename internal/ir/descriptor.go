package ir

import "strings"

// Constraint is a compiled constraint descriptor.
//
// This is a sealed interface - only types in this package implement it.
// Constraint types:
//   - ExprConstraint: one filter with optional index and reactivity metadata
//   - CompositeConstraint: AND/OR over ordered child descriptors
//   - BindConstraint: exposes an expression result as a new declaration
type Constraint interface {
	constraintNode() // Marker method - seals interface to this package
}

// Argument is one entry of a descriptor's ordered argument list.
//
// This is a sealed interface. Argument types:
//   - VarArg: a resolved declaration
//   - LiteralArg: literal text passed through unchanged
//   - DeferredArg: an operand evaluated later, at match time
//   - PredicateArg: the boolean test lambda
type Argument interface {
	argumentNode()
}

// VarArg references a declaration.
type VarArg struct {
	Name string
	Type Type
}

func (VarArg) argumentNode() {}

// LiteralArg passes literal text.
type LiteralArg struct {
	Text string
}

func (LiteralArg) argumentNode() {}

// DeferredArg wraps an operand in a zero-argument closure. Captures lists the
// free names the closure closes over (the current fact and declarations);
// the matching network evaluates Body only when a candidate fact is tested.
type DeferredArg struct {
	Body     Expression
	Captures []string
}

func (DeferredArg) argumentNode() {}

// NewDeferredArg captures the free names of body in first-seen order.
func NewDeferredArg(body Expression) DeferredArg {
	var captures []string
	seen := map[string]bool{}
	Inspect(body, func(n Expression) bool {
		if id, ok := n.(Name); ok && !seen[id.Name] {
			seen[id.Name] = true
			captures = append(captures, id.Name)
		}
		return true
	})
	return DeferredArg{Body: body, Captures: captures}
}

// PredicateArg carries the boolean test.
type PredicateArg struct {
	Lambda Lambda
}

func (PredicateArg) argumentNode() {}

// Lambda is a pure function of its parameters.
type Lambda struct {
	Params []string
	Body   Expression
}

// String renders "(a, b) -> body".
func (l Lambda) String() string {
	return "(" + strings.Join(l.Params, ", ") + ") -> " + l.Body.String()
}

// IndexDescriptor lets the matching network bucket facts on a field value
// instead of evaluating the full predicate.
//
// FieldID is only meaningful within the session that assigned it; PatternType
// and FieldName name the same field in a form that holds across sessions.
type IndexDescriptor struct {
	KeyType        Type
	ConstraintType ConstraintType
	PatternType    Type
	FieldName      string // empty for unification indexes
	FieldID        int
	Extractor      Lambda
	Narrow         Narrowing // nil when there is no right-hand narrowing
}

// Narrowing is the right-hand operand of an index.
//
// This is a sealed interface. Narrowing types:
//   - LiteralNarrowing: a constant coerced to the key type (alpha index)
//   - DeclarationNarrowing: a value read from another pattern (beta index)
type Narrowing interface {
	narrowingNode()
}

// LiteralNarrowing is a constant already coerced to Type.
type LiteralNarrowing struct {
	Value IRValue
	Type  Type
}

func (LiteralNarrowing) narrowingNode() {}

// DeclarationNarrowing reads the right-hand value from Declaration.
// CoerceTo is set when the extracted value must be converted to the key type.
type DeclarationNarrowing struct {
	Declaration string
	Type        Type
	Extractor   Lambda
	CoerceTo    Type
}

func (DeclarationNarrowing) narrowingNode() {}

// ExprConstraint is one compiled atomic constraint.
type ExprConstraint struct {
	Call    string // DSL call that builds it, e.g. "D.expr" or "expr"
	ID      string
	Args    []Argument
	Index   *IndexDescriptor
	ReactOn []string
	Watch   []string
}

func (*ExprConstraint) constraintNode() {}

// Predicate returns the trailing boolean test, or false when missing.
func (c *ExprConstraint) Predicate() (Lambda, bool) {
	if len(c.Args) == 0 {
		return Lambda{}, false
	}
	p, ok := c.Args[len(c.Args)-1].(PredicateArg)
	return p.Lambda, ok
}

// CompositeConstraint joins children in source order.
type CompositeConstraint struct {
	Call     string // "D.and", "D.or", "and", "or"
	Operator BooleanOperator
	Children []Constraint
}

func (*CompositeConstraint) constraintNode() {}

// BindConstraint exposes an expression result as a new declaration.
// Target is the declaration bound; Args follow in order: the pattern binding,
// each left-hand declaration, then the predicate.
type BindConstraint struct {
	Call    string // "D.bind" or "bind"
	Target  VarArg
	Args    []Argument
	ReactOn []string
	Watch   []string
}

func (*BindConstraint) constraintNode() {}
