// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/view"
)

var (
	generateQAOut   string
	generateQATrain bool
)

// generateQACmd derives question/SQL pairs from a file of SQL statements.
var generateQACmd = &cobra.Command{
	Use:   "generate-qa <file.sql>",
	Short: "Generate question/SQL pairs from a SQL file",
	Long: `The generate-qa command uploads a file of SQL statements and streams back a
natural-language question for each one. The pairs can be saved with --out, and
sent straight to training with --train.`,
	Args: cobra.ExactArgs(1),
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

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)

		term := view.NewTerminal()
		defer term.Close()
		s, err := a.runSession(cmd, stream.ChannelGenerateQA, name, a.api.GenerateQA(name, data), stream.NewDispatcher(term))
		if err != nil {
			return err
		}
		term.Close()

		pairs := s.QAPairs()
		pterm.Success.Printfln("Generated %d pairs", len(pairs))
		if generateQAOut != "" {
			b, err := json.MarshalIndent(pairs, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(generateQAOut, append(b, '\n'), 0o644); err != nil {
				return err
			}
			pterm.Success.Printfln("Pairs saved to %s", generateQAOut)
		}

		if generateQATrain && len(pairs) > 0 {
			req := backend.TrainRequest{QAPairs: make([]backend.QAPair, 0, len(pairs))}
			for _, p := range pairs {
				req.QAPairs = append(req.QAPairs, backend.QAPair{Question: p.Question, SQL: p.SQL})
			}
			if _, err := a.runSession(cmd, stream.ChannelTrain, "train", a.api.Train(req), stream.NewDispatcher(term)); err != nil {
				return err
			}
			term.Close()
			pterm.Success.Println("Training finished")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateQACmd)
	generateQACmd.Flags().StringVar(&generateQAOut, "out", "", "Write the pairs as JSON to `FILE`")
	generateQACmd.Flags().BoolVar(&generateQATrain, "train", false, "Train on the generated pairs")
}
