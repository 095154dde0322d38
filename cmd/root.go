// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for nlsql. It implements
// the subcommands for signing in, selecting a dataset, asking questions,
// training and schema analysis using the Cobra CLI framework, and renders
// streamed server events in the terminal.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/logging"
)

var (
	serverFlag  string
	datasetFlag string
	verboseFlag bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nlsql",
	Short: "Ask questions about your data in plain language",
	Long: `nlsql is a terminal client for the NL-to-SQL workbench server. It streams
generated SQL, result tables, charts and explanations as the server produces them,
and drives training and QA generation for the active dataset.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// reportedError marks an error the user has already seen in the session view.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Execute runs the CLI application. Ctrl-C cancels the running session.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		name := ""
		if c, _, ferr := rootCmd.Find(os.Args[1:]); ferr == nil && c != rootCmd {
			name = c.Name()
		}
		pterm.Error.WithWriter(os.Stderr).Println(logging.PresentError(name, err))
	}
	stop()
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Workbench server URL (overrides config and NLSQL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&datasetFlag, "dataset", "", "Dataset id for this invocation (overrides the active dataset)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose debug output")
}
