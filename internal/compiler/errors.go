package compiler

import (
	"errors"
	"fmt"
)

// Compile error codes (E200-E299)
const (
	ErrUnresolvedDeclaration = "E201" // used declaration has no table entry
	ErrTypeMismatch          = "E202" // index narrowing cannot be coerced to the key type
	ErrMalformedComposite    = "E203" // composite with zero children or unknown operator
	ErrUnsupportedNode       = "E204" // parse result variant the compiler does not handle
)

// CompileError reports why one rule failed to compile.
//
// A rule that fails produces no descriptor at all; the error carries enough
// context to point the user at the offending constraint:
//   - Rule: the rule being compiled
//   - Position: dotted child path inside the condition tree ("" is the root,
//     "1.0" is the first child of the second child)
//   - Declaration: the declaration involved, when there is one
type CompileError struct {
	Code        string
	Rule        string
	Position    string
	Declaration string
	Message     string
	Err         error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Rule != "" && e.Position != "":
		return fmt.Sprintf("[%s] rule %q at %s: %s", e.Code, e.Rule, e.Position, msg)
	case e.Rule != "":
		return fmt.Sprintf("[%s] rule %q: %s", e.Code, e.Rule, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsUnresolvedDeclaration reports whether err is an E201 compile error.
// Uses errors.As to handle wrapped errors.
func IsUnresolvedDeclaration(err error) bool {
	return hasCode(err, ErrUnresolvedDeclaration)
}

// IsTypeMismatch reports whether err is an E202 compile error.
func IsTypeMismatch(err error) bool {
	return hasCode(err, ErrTypeMismatch)
}

// IsMalformedComposite reports whether err is an E203 compile error.
func IsMalformedComposite(err error) bool {
	return hasCode(err, ErrMalformedComposite)
}

// IsUnsupportedNode reports whether err is an E204 compile error.
func IsUnsupportedNode(err error) bool {
	return hasCode(err, ErrUnsupportedNode)
}

func hasCode(err error, code string) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func (c *RuleContext) unresolved(pos, name string) *CompileError {
	return &CompileError{
		Code:        ErrUnresolvedDeclaration,
		Rule:        c.Rule,
		Position:    pos,
		Declaration: name,
		Message:     fmt.Sprintf("unresolved declaration %s", name),
	}
}

func (c *RuleContext) mismatch(pos, decl string, err error) *CompileError {
	return &CompileError{
		Code:        ErrTypeMismatch,
		Rule:        c.Rule,
		Position:    pos,
		Declaration: decl,
		Message:     "index narrowing type mismatch",
		Err:         err,
	}
}

func (c *RuleContext) malformed(pos, msg string) *CompileError {
	return &CompileError{
		Code:     ErrMalformedComposite,
		Rule:     c.Rule,
		Position: pos,
		Message:  msg,
	}
}

func (c *RuleContext) unsupported(pos, msg string) *CompileError {
	return &CompileError{
		Code:     ErrUnsupportedNode,
		Rule:     c.Rule,
		Position: pos,
		Message:  msg,
	}
}
