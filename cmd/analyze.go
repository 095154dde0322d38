// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/view"
)

var analyzeOut string

// analyzeCmd asks the server to describe the active dataset's schema.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the active dataset's schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		if err := a.requireDataset(); err != nil {
			return err
		}

		term := view.NewTerminal()
		defer term.Close()
		s, err := a.runSession(cmd, stream.ChannelAnalyze, "analyze schema", a.api.AnalyzeSchema(), stream.NewDispatcher(term))
		if err != nil {
			return err
		}
		term.Close()

		if analyzeOut != "" {
			if err := os.WriteFile(analyzeOut, []byte(s.Analysis()), 0o644); err != nil {
				return err
			}
			pterm.Success.Printfln("Analysis saved to %s", analyzeOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Save the analysis markdown to `FILE`")
}
