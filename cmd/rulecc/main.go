// Command rulecc compiles CUE rule definitions into constraint descriptors.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/rulecc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own errors; only usage errors reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
