package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rulecc/internal/config"
	"github.com/roach88/rulecc/internal/rulebase"
	"github.com/roach88/rulecc/internal/ruledef"
	"github.com/roach88/rulecc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Config     string // config file path
	Database   string // store path, overrides store.path
	Output     string // report file path
	Builder    string
	Reactivity string
	Workers    int

	// IDGenerator allows overriding the session id generator (for testing).
	// If nil, the session draws a UUIDv7.
	IDGenerator rulebase.IDGenerator
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return newCompileCommand(&CompileOptions{RootOptions: rootOpts})
}

func newCompileCommand(opts *CompileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <rules-dir>",
		Short: "Compile CUE rules to constraint descriptors",
		Long: `Compile CUE rule definitions to indexed constraint descriptors.

Every rule is compiled independently in one build session. A rule that fails
is reported and skipped; the others still compile. With --db the session is
stored in SQLite for later inspection with "rulecc show".

Example:
  rulecc compile ./rules
  rulecc compile ./rules --builder pattern --db ./rules.db -o build.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the build report as JSON to this file")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the session in this SQLite database")
	cmd.Flags().StringVar(&opts.Builder, "builder", "", "expression builder (flow|pattern)")
	cmd.Flags().StringVar(&opts.Reactivity, "reactivity", "", "property reactivity (always|allowed|disabled)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "rules compiled in parallel")

	return cmd
}

func runCompile(opts *CompileOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts.Config, opts.Builder, opts.Reactivity, opts.Workers)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfigFailed, err.Error())
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}

	res, loadErrs, err := buildRules(commandContext(cmd), cfg, rulesDir, opts.IDGenerator)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}
	if err != nil {
		return outputCommandError(formatter, ruledef.ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Compiled %d rule(s) in session %s", len(res.Rules), res.SessionID)

	if cfg.Store.Path != "" {
		if err := storeSession(commandContext(cmd), cfg.Store.Path, res); err != nil {
			return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		formatter.VerboseLog("Stored session %s in %s", res.SessionID, cfg.Store.Path)
	}

	report, err := newBuildReport(res)
	if err != nil {
		return outputCommandError(formatter, ruledef.ErrCodeGeneric, err.Error())
	}

	if opts.Output != "" {
		if err := writeReportToFile(report, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if err := outputCompileResult(formatter, res, report, cfg.Store.Path, opts.Output); err != nil {
		return err
	}
	if !res.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rule(s) failed to compile", len(res.Failures)))
	}
	return nil
}

// resolveConfig loads the config file, when given, and applies flag overrides.
func resolveConfig(path, builder, reactivity string, workers int) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if builder != "" {
		cfg.Builder = builder
	}
	if reactivity != "" {
		cfg.PropertyReactivity = reactivity
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildRules loads the rule base in dir and compiles it in a new session.
// Load errors are returned separately from session errors.
func buildRules(ctx context.Context, cfg *config.Config, dir string, ids rulebase.IDGenerator) (*rulebase.Result, []error, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, nil, err
	}
	rb, loadErrs := ruledef.Load(dir, mode)
	if len(loadErrs) > 0 {
		return nil, loadErrs, nil
	}

	sessionOpts, err := cfg.SessionOptions()
	if err != nil {
		return nil, nil, err
	}
	if ids != nil {
		sessionOpts = append(sessionOpts, rulebase.WithIDGenerator(ids))
	}
	res, err := rulebase.New(sessionOpts...).Build(ctx, rb)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

// storeSession writes res to the SQLite store at path, creating it if needed.
func storeSession(ctx context.Context, path string, res *rulebase.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()
	return st.WriteSession(ctx, res)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outputCompileResult outputs the compiled rules and any rule failures.
func outputCompileResult(formatter *OutputFormatter, res *rulebase.Result, report *BuildReport, dbPath, outputFile string) error {
	if formatter.Format == "json" {
		if res.OK() {
			return formatter.Success(report)
		}
		first := report.Failures[0]
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   report,
			Error: &CLIError{
				Code:    first.Code,
				Message: fmt.Sprintf("%d rule(s) failed to compile", len(report.Failures)),
			},
		})
	}

	// Human-readable text output
	total := len(res.Rules) + len(res.Failures)
	if res.OK() {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule(s) in session %s\n\n", total, res.SessionID)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Compiled %d of %d rule(s) in session %s\n\n", len(res.Rules), total, res.SessionID)
	}

	for _, cr := range res.Rules {
		fmt.Fprint(formatter.Writer, cr.Render())
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Failures:")
		for _, f := range report.Failures {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", f.Rule, f.Message)
		}
	}

	if dbPath != "" || outputFile != "" {
		fmt.Fprintln(formatter.Writer)
	}
	if dbPath != "" {
		fmt.Fprintf(formatter.Writer, "Stored session %s in %s\n", res.SessionID, dbPath)
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote build report to %s\n", outputFile)
	}

	return nil
}

// outputCommandError outputs a single command-level error.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputLoadErrors outputs rule definition load errors.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("loading rules failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Loading rules failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *ruledef.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		if loadErr != nil && loadErr.Rule != "" {
			message = fmt.Sprintf("rule %q: %s", loadErr.Rule, message)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("loading rules failed with %d error(s)", len(errs)))
}
