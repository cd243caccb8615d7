package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rulecc/internal/rulebase"
	"github.com/roach88/rulecc/internal/ruledef"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Rules  int               `json:"rules"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one load or compile problem.
type ValidationError struct {
	Code    string `json:"code"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Check rules load and compile without storing anything",
		Long: `Check CUE rule definitions without storing or writing output.

Loads every rule, collecting all load errors, then compiles the rules that
loaded. Faster feedback than compile during rule development.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a YAML config file")

	return cmd
}

func runValidate(opts *ValidateOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts.Config, "", "", 0)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfigFailed, err.Error())
	}

	rb, loadErrs := ruledef.Load(rulesDir, ruledef.LoadModeCollectAll)
	if rb == nil {
		// Directory level problem: nothing to validate.
		code, message := parseCompileError(loadErrs[0])
		return outputCommandError(formatter, code, message)
	}

	validationErrors := loadValidationErrors(loadErrs)

	sessionOpts, err := cfg.SessionOptions()
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfigFailed, err.Error())
	}
	res, err := rulebase.New(sessionOpts...).Build(commandContext(cmd), rb)
	if err != nil {
		return outputCommandError(formatter, ruledef.ErrCodeGeneric, err.Error())
	}
	for _, cr := range res.Rules {
		formatter.VerboseLog("Rule valid: %s", cr.Name)
	}
	for _, f := range res.Failures {
		code, message := parseCompileError(f.Err)
		validationErrors = append(validationErrors, ValidationError{Code: code, Rule: f.Rule, Message: message})
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(res.Rules), validationErrors)
	}
	return outputValidateSuccess(formatter, len(res.Rules))
}

func loadValidationErrors(errs []error) []ValidationError {
	var out []ValidationError
	for _, err := range errs {
		code, message := parseCompileError(err)
		ve := ValidationError{Code: code, Message: message}
		var loadErr *ruledef.LoadError
		if errors.As(err, &loadErr) {
			ve.Rule = loadErr.Rule
			if loadErr.Pos.IsValid() {
				ve.Line = loadErr.Pos.Line()
			}
		}
		out = append(out, ve)
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, rules int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Rules: rules})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d rule(s) valid\n", rules)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, rules int, errs []ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Rules:  rules,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		if err.Rule != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Rule, err.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateRulesDir checks every rule in a directory loads and compiles with
// the default configuration. This is a helper function for external callers.
func ValidateRulesDir(rulesDir string) ([]ValidationError, error) {
	rb, loadErrs := ruledef.Load(rulesDir, ruledef.LoadModeCollectAll)
	if rb == nil {
		return nil, loadErrs[0]
	}
	errs := loadValidationErrors(loadErrs)

	res, err := rulebase.New().Build(context.Background(), rb)
	if err != nil {
		return nil, err
	}
	for _, f := range res.Failures {
		code, message := parseCompileError(f.Err)
		errs = append(errs, ValidationError{Code: code, Rule: f.Rule, Message: message})
	}
	return errs, nil
}
