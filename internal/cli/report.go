package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
	"github.com/roach88/rulecc/internal/rulebase"
	"github.com/roach88/rulecc/internal/ruledef"
)

// BuildReport is the JSON form of a build session.
type BuildReport struct {
	SessionID  string                `json:"session_id"`
	Builder    string                `json:"builder"`
	Reactivity string                `json:"reactivity"`
	Rules      []RuleReport          `json:"rules"`
	Failures   []FailureReport       `json:"failures,omitempty"`
	Fields     []compiler.FieldEntry `json:"fields"`
}

// RuleReport is one compiled rule.
type RuleReport struct {
	Name     string          `json:"name"`
	Patterns []PatternReport `json:"patterns"`
}

// PatternReport holds the descriptors of one pattern.
type PatternReport struct {
	Type        ir.Type            `json:"type"`
	Binding     string             `json:"binding,omitempty"`
	Constraints []DescriptorReport `json:"constraints"`
	Bindings    []DescriptorReport `json:"bindings,omitempty"`
}

// DescriptorReport carries a descriptor as canonical JSON next to its DSL text.
type DescriptorReport struct {
	Rendered   string          `json:"rendered"`
	Hash       string          `json:"hash"`
	Descriptor json.RawMessage `json:"descriptor"`
}

// FailureReport is a rule that did not compile.
type FailureReport struct {
	Rule    string `json:"rule"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newBuildReport converts a build result to its report form.
func newBuildReport(res *rulebase.Result) (*BuildReport, error) {
	report := &BuildReport{
		SessionID:  res.SessionID,
		Builder:    string(res.Builder),
		Reactivity: string(res.Reactivity),
		Rules:      make([]RuleReport, 0, len(res.Rules)),
		Fields:     res.Fields,
	}

	for _, cr := range res.Rules {
		rr := RuleReport{Name: cr.Name}
		for _, p := range cr.Patterns {
			pr := PatternReport{Type: p.Type, Binding: p.Binding, Constraints: []DescriptorReport{}}
			for _, c := range p.Constraints {
				d, err := newDescriptorReport(c)
				if err != nil {
					return nil, fmt.Errorf("rule %q: %w", cr.Name, err)
				}
				pr.Constraints = append(pr.Constraints, d)
			}
			for _, c := range p.Bindings {
				d, err := newDescriptorReport(c)
				if err != nil {
					return nil, fmt.Errorf("rule %q: %w", cr.Name, err)
				}
				pr.Bindings = append(pr.Bindings, d)
			}
			rr.Patterns = append(rr.Patterns, pr)
		}
		report.Rules = append(report.Rules, rr)
	}

	for _, f := range res.Failures {
		code, message := parseCompileError(f.Err)
		report.Failures = append(report.Failures, FailureReport{Rule: f.Rule, Code: code, Message: message})
	}
	return report, nil
}

func newDescriptorReport(c ir.Constraint) (DescriptorReport, error) {
	canonical, err := ir.CanonicalConstraint(c)
	if err != nil {
		return DescriptorReport{}, err
	}
	hash, err := ir.DescriptorHash(c)
	if err != nil {
		return DescriptorReport{}, err
	}
	return DescriptorReport{Rendered: ir.Render(c), Hash: hash, Descriptor: canonical}, nil
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		// Keep the pattern and constraint position added while building.
		return compileErr.Code, err.Error()
	}
	var loadErr *ruledef.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ruledef.ErrCodeGeneric, err.Error()
}

// writeReportToFile writes the build report to a file as indented JSON.
func writeReportToFile(report *BuildReport, filename string) error {
	// Indented for readability; canonical JSON is used only inside descriptors.
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
