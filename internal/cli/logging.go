package cli

import (
	"io"
	"log/slog"
)

// configureLogging installs the default slog handler for a command run.
// Build progress is logged at info; per-rule detail at debug.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
