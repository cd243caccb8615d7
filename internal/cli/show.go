package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rulecc/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Session  string // optional - defaults to the latest session
	List     bool
	IndexKey string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored build sessions",
		Long: `Show build sessions stored by "rulecc compile --db".

Without flags the latest session is printed the way compile prints it.

Examples:
  rulecc show --db ./rules.db
  rulecc show --db ./rules.db --session 0190a6c4-...
  rulecc show --db ./rules.db --list
  rulecc show --db ./rules.db --index-key 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to show")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list all sessions")
	cmd.Flags().StringVar(&opts.IndexKey, "index-key", "", "list descriptors sharing this index key across sessions")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create an empty store.
	if _, err := os.Stat(opts.Database); err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err))
	}
	defer st.Close()

	switch {
	case opts.List:
		return showSessionList(ctx, st, formatter)
	case opts.IndexKey != "":
		return showIndexKey(ctx, st, formatter, opts.IndexKey)
	}
	return showSession(ctx, st, formatter, opts.Session)
}

func showSessionList(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(formatter.Writer, "No sessions stored")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(formatter.Writer, "%d  %s  builder=%s reactivity=%s compiler=%s\n",
			s.Seq, s.ID, s.Builder, s.Reactivity, s.CompilerVersion)
	}
	return nil
}

func showSession(ctx context.Context, st *store.Store, formatter *OutputFormatter, id string) error {
	if id == "" {
		latest, err := st.LatestSessionID(ctx)
		if errors.Is(err, store.ErrSessionNotFound) {
			return outputCommandError(formatter, ErrCodeNotFound, "no sessions stored")
		}
		if err != nil {
			return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		id = latest
	}

	sess, err := st.ReadSession(ctx, id)
	if errors.Is(err, store.ErrSessionNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("session not found: %s", id))
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(sess)
	}
	fmt.Fprint(formatter.Writer, renderSession(sess))
	return nil
}

// renderSession prints a stored session in the same layout compile uses for
// its rules.
func renderSession(sess *store.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s (builder %s, reactivity %s, compiler %s, ir %s)\n\n",
		sess.ID, sess.Builder, sess.Reactivity, sess.CompilerVersion, sess.IRVersion)

	type patternKey struct {
		rule    string
		pattern int
	}
	descriptors := make(map[patternKey][]store.DescriptorRecord)
	for _, d := range sess.Descriptors {
		k := patternKey{d.Rule, d.Pattern}
		descriptors[k] = append(descriptors[k], d)
	}

	rule := ""
	for _, p := range sess.Patterns {
		if p.Rule != rule || p.Pattern == 0 {
			rule = p.Rule
			fmt.Fprintf(&b, "rule %s\n", rule)
		}
		fmt.Fprintf(&b, "  pattern %d %s", p.Pattern, p.PatternType)
		if p.Binding != "" {
			fmt.Fprintf(&b, " %s", p.Binding)
		}
		b.WriteByte('\n')
		for _, d := range descriptors[patternKey{p.Rule, p.Pattern}] {
			fmt.Fprintf(&b, "    %s\n", d.Rendered)
		}
	}

	if len(sess.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range sess.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Rule, f.Error)
		}
	}

	if len(sess.Fields) > 0 {
		b.WriteString("\nFields:\n")
		for _, f := range sess.Fields {
			fmt.Fprintf(&b, "  %d %s.%s\n", f.ID, f.PatternType, f.Field)
		}
	}
	return b.String()
}

func showIndexKey(ctx context.Context, st *store.Store, formatter *OutputFormatter, key string) error {
	descriptors, err := st.FindByIndexKey(ctx, key)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(descriptors)
	}

	if len(descriptors) == 0 {
		fmt.Fprintf(formatter.Writer, "No descriptors with index key %s\n", key)
		return nil
	}
	for _, d := range descriptors {
		fmt.Fprintf(formatter.Writer, "%s pattern %d: %s\n", d.Rule, d.Pattern, d.Rendered)
	}
	return nil
}
