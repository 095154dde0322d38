// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/sqlexec"
	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/view"
)

var (
	trainDDL     string
	trainDoc     string
	trainQA      string
	trainFromDB  bool
	trainSchema  string
	trainAnalyze bool
)

// trainCmd sends DDL, documentation and example pairs for the active dataset.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the active dataset on DDL, documentation and QA pairs",
	Long: `The train command uploads training material for the active dataset and streams
the server's progress. Material can come from files (--ddl, --doc, --qa) or, with
--from-db, DDL is exported from your own database's information_schema.

The --qa file is a JSON array of {"question": ..., "sql": ...} objects, as written
by 'nlsql generate-qa --out'.`,
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

		req, err := a.trainRequest(cmd)
		if err != nil {
			return err
		}
		if strings.TrimSpace(req.DDL) == "" && strings.TrimSpace(req.Doc) == "" && len(req.QAPairs) == 0 {
			return errors.New("nothing to train: pass --ddl, --doc, --qa or --from-db")
		}
		a.log.Debugf("train: ddl %d bytes, doc %d bytes, %d pairs", len(req.DDL), len(req.Doc), len(req.QAPairs))

		term := view.NewTerminal()
		defer term.Close()
		if _, err := a.runSession(cmd, stream.ChannelTrain, "train", a.api.Train(req), stream.NewDispatcher(term)); err != nil {
			return err
		}
		term.Close()
		pterm.Success.Println("Training finished")

		if trainAnalyze {
			_, err := a.runSession(cmd, stream.ChannelAnalyze, "analyze schema", a.api.AnalyzeSchema(), stream.NewDispatcher(term))
			return err
		}
		return nil
	},
}

func (a *app) trainRequest(cmd *cobra.Command) (backend.TrainRequest, error) {
	var req backend.TrainRequest
	if trainDDL != "" {
		b, err := os.ReadFile(trainDDL)
		if err != nil {
			return req, err
		}
		req.DDL = string(b)
	}
	if trainFromDB {
		pool, err := a.connectDB(cmd.Context())
		if err != nil {
			return req, err
		}
		defer pool.Close()
		ddl, err := sqlexec.NewSchemaInspector(pool).DDL(cmd.Context(), trainSchema)
		if err != nil {
			return req, fmt.Errorf("export schema: %w", err)
		}
		if ddl == "" {
			pterm.Warning.Printfln("No tables found in schema %q", trainSchema)
		}
		req.DDL = strings.TrimSpace(req.DDL + "\n\n" + ddl)
	}
	if trainDoc != "" {
		b, err := os.ReadFile(trainDoc)
		if err != nil {
			return req, err
		}
		req.Doc = string(b)
	}
	if trainQA != "" {
		pairs, err := readQAPairs(trainQA)
		if err != nil {
			return req, err
		}
		req.QAPairs = pairs
	}
	return req, nil
}

// readQAPairs loads a JSON array of pairs, skipping entries missing either half.
func readQAPairs(path string) ([]backend.QAPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []backend.QAPair
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pairs := raw[:0]
	for _, p := range raw {
		if strings.TrimSpace(p.Question) != "" && strings.TrimSpace(p.SQL) != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainDDL, "ddl", "", "DDL `FILE` to train on")
	trainCmd.Flags().StringVar(&trainDoc, "doc", "", "Documentation `FILE` to train on")
	trainCmd.Flags().StringVar(&trainQA, "qa", "", "JSON `FILE` of question/SQL pairs")
	trainCmd.Flags().BoolVar(&trainFromDB, "from-db", false, "Export DDL from the connected database")
	trainCmd.Flags().StringVar(&trainSchema, "schema", "public", "Schema to export with --from-db")
	trainCmd.Flags().BoolVar(&trainAnalyze, "analyze", false, "Run schema analysis after training")
}
