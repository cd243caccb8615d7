package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *CompileError
		want string
	}{
		{
			name: "rule and position",
			err:  &CompileError{Code: ErrUnresolvedDeclaration, Rule: "adults", Position: "1.0", Message: "unresolved declaration $x"},
			want: `[E201] rule "adults" at 1.0: unresolved declaration $x`,
		},
		{
			name: "rule only",
			err:  &CompileError{Code: ErrMalformedComposite, Rule: "adults", Message: "AND composite has no children"},
			want: `[E203] rule "adults": AND composite has no children`,
		},
		{
			name: "no context",
			err:  &CompileError{Code: ErrUnsupportedNode, Message: "missing parse result"},
			want: `[E204] missing parse result`,
		},
		{
			name: "with cause",
			err:  &CompileError{Code: ErrTypeMismatch, Rule: "r", Message: "index narrowing type mismatch", Err: errors.New("string cannot be coerced to int")},
			want: `[E202] rule "r": index narrowing type mismatch: string cannot be coerced to int`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCompileErrorHelpersUnwrap(t *testing.T) {
	cause := errors.New("boom")
	base := &CompileError{Code: ErrTypeMismatch, Err: cause}
	wrapped := fmt.Errorf("rule adults: %w", base)

	assert.True(t, IsTypeMismatch(wrapped))
	assert.False(t, IsUnresolvedDeclaration(wrapped))
	assert.False(t, IsMalformedComposite(wrapped))
	assert.False(t, IsUnsupportedNode(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.False(t, IsTypeMismatch(errors.New("plain")))
	assert.False(t, IsTypeMismatch(nil))
}
