package ruledef

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeInvalidType        = "E301" // Invalid pattern type definition
	ErrCodeInvalidRule        = "E302" // Invalid rule shape
	ErrCodeInvalidDeclaration = "E303" // Invalid declaration
	ErrCodeInvalidConstraint  = "E304" // Invalid constraint or composite
	ErrCodeInvalidExpression  = "E305" // Invalid expression node
)

// LoadError represents an error that occurred while reading a rule base.
type LoadError struct {
	Code    string
	Rule    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Rule != "" {
		msg = fmt.Sprintf("rule %q: %s", e.Rule, msg)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, code string) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Err: err}
	}

	// Return first error with position info
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), Err: err}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
