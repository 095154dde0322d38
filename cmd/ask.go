// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/httperrors"
	"nlsql/cli/internal/sqlexec"
	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/view"
)

var (
	askExec  bool
	askLimit int
	askCSV   string
	askJSON  bool
	askChart string
)

// askOutput is the --json document.
type askOutput struct {
	SessionID string        `json:"session_id"`
	Question  string        `json:"question"`
	SQL       string        `json:"sql"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	View      view.Snapshot `json:"view"`
	Local     *localResult  `json:"local_result,omitempty"`
}

type localResult struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated"`
}

// askCmd streams generated SQL, results, charts and explanations for a question.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the active dataset",
	Long: `The ask command sends a natural-language question to the server and renders the
answer as it streams: reasoning steps, the generated SQL, the result table, a chart
summary, an explanation and suggested follow-up questions.

With --exec the final SQL is also run against your own database (see 'nlsql connect')
inside a read-only transaction.`,
	Args: cobra.MinimumNArgs(1),
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
		question := strings.TrimSpace(strings.Join(args, " "))

		var (
			rec  *view.Recorder
			term *view.Terminal
			sink stream.Sink
		)
		if askJSON {
			rec = view.NewRecorder()
			sink = rec
		} else {
			term = view.NewTerminal()
			term.ChartFile = askChart
			defer term.Close()
			sink = term
		}

		s, runErr := a.runSession(cmd, stream.ChannelAsk, question, a.api.Ask(question), stream.NewDispatcher(sink))
		if term != nil {
			term.Close()
		}

		var out *askOutput
		if rec != nil {
			out = &askOutput{
				SessionID: s.ID,
				Question:  question,
				SQL:       s.SQL(),
				Status:    string(s.Phase()),
				View:      rec.Snapshot(stream.ChannelAsk),
			}
			if runErr != nil {
				out.Error = runErr.Error()
			}
		}

		if runErr == nil {
			if askCSV != "" {
				if err := a.downloadCSV(cmd.Context()); err != nil {
					return err
				}
			}
			if askExec {
				res, err := a.execLocal(cmd.Context(), s.SQL())
				if err != nil {
					return err
				}
				if res != nil {
					if out != nil {
						out.Local = &localResult{Columns: res.Columns, Rows: res.Rows, Truncated: res.Truncated}
					} else {
						pterm.DefaultSection.Println("Local result")
						sink.RenderTable(stream.ChannelAsk, res.Rows, res.Columns)
						if res.Truncated {
							pterm.Info.Printfln("Stopped after %d rows (--limit)", len(res.Rows))
						}
					}
				}
			}
		}

		if out != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		return runErr
	},
}

// downloadCSV saves the server's last result to --csv.
func (a *app) downloadCSV(ctx context.Context) error {
	data, err := a.api.DownloadCSV(ctx)
	if err != nil {
		return reportedError{httperrors.FormatNetworkError(err, "CSV download", a.cfg.ServerURL)}
	}
	if err := os.WriteFile(askCSV, data, 0o644); err != nil {
		return err
	}
	if !askJSON {
		pterm.Success.Printfln("Result saved to %s", askCSV)
	}
	return nil
}

// execLocal runs sql against the configured database. A nil result means
// there was nothing to run.
func (a *app) execLocal(ctx context.Context, sql string) (*sqlexec.Result, error) {
	if strings.TrimSpace(sql) == "" {
		pterm.Warning.Println("The server returned no SQL to run.")
		return nil, nil
	}
	pool, err := a.connectDB(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	limit := askLimit
	if limit <= 0 {
		limit = a.cfg.Exec.RowLimit
	}
	res, err := sqlexec.New(pool).Query(ctx, sql, limit)
	if err != nil {
		pterm.DefaultBox.WithTitle(pterm.Red("Local SQL error")).WithPadding(1).Println(err.Error())
		return nil, reportedError{err}
	}
	return &res, nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askExec, "exec", false, "Run the final SQL against your own database")
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "Row limit for --exec (default from config)")
	askCmd.Flags().StringVar(&askCSV, "csv", "", "Save the server's result as CSV to `FILE`")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the captured answer as JSON instead of the live view")
	askCmd.Flags().StringVar(&askChart, "chart", "", "Save the chart spec as JSON to `FILE`")
}
