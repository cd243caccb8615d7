package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rulecc/internal/rulebase"
	"github.com/roach88/rulecc/internal/ruledef"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// buildTestResult compiles the shared people rule base in a session with a
// fixed id.
func buildTestResult(t *testing.T, sessionID string) *rulebase.Result {
	t.Helper()
	rb, errs := ruledef.Load(filepath.Join("..", "..", "testdata", "rules"), ruledef.LoadModeFailFast)
	if len(errs) > 0 {
		t.Fatalf("Load() failed: %v", errs)
	}
	res, err := rulebase.New(rulebase.WithIDGenerator(rulebase.NewFixedGenerator(sessionID))).
		Build(context.Background(), rb)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return res
}

// buildSourceResult compiles the rule base in src in a session with a fixed id.
func buildSourceResult(t *testing.T, sessionID, src string) *rulebase.Result {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	if err := v.Err(); err != nil {
		t.Fatalf("CompileString() failed: %v", err)
	}
	rb, errs := ruledef.LoadValue(v, ruledef.LoadModeFailFast)
	if len(errs) > 0 {
		t.Fatalf("LoadValue() failed: %v", errs)
	}
	res, err := rulebase.New(rulebase.WithIDGenerator(rulebase.NewFixedGenerator(sessionID))).
		Build(context.Background(), rb)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return res
}

// withFailure appends a rule failure to res.
func withFailure(res *rulebase.Result, rule, msg string) *rulebase.Result {
	res.Failures = append(res.Failures, rulebase.RuleFailure{Rule: rule, Err: errors.New(msg)})
	return res
}
