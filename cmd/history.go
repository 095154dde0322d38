// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/history"
)

var (
	historyLimit int
	historyClear bool
)

// historyCmd lists recent sessions recorded on this machine.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent questions and their final SQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, st, err := openHistoryFor(cmd)
		if err != nil || st == nil {
			return err
		}
		defer st.Close()

		if historyClear {
			n, err := st.Clear(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Removed %d entries", n)
			return nil
		}

		entries, err := st.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			pterm.Info.Println("No history yet. Ask something with: nlsql ask \"...\"")
			return nil
		}
		data := pterm.TableData{{"ID", "When", "Channel", "Status", "Prompt"}}
		for _, e := range entries {
			data = append(data, []string{
				shortID(e.ID),
				e.StartedAt.Local().Format("01-02 15:04"),
				e.Channel,
				e.Status,
				truncate(e.Prompt, 60),
			})
		}
		a.log.Debugf("history: %d entries", len(entries))
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry (an id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openHistoryFor(cmd)
		if err != nil || st == nil {
			return err
		}
		defer st.Close()

		e, err := st.Get(cmd.Context(), strings.TrimSpace(args[0]))
		if errors.Is(err, history.ErrNotFound) {
			pterm.Warning.Printfln("No history entry matches %q", args[0])
			return reportedError{err}
		}
		if err != nil {
			return err
		}
		data := [][]string{
			{"ID", e.ID},
			{"Channel", e.Channel},
			{"Status", e.Status},
			{"Started", e.StartedAt.Local().Format("2006-01-02 15:04:05")},
			{"Duration", e.FinishedAt.Sub(e.StartedAt).Round(10 * time.Millisecond).String()},
			{"Prompt", e.Prompt},
		}
		if e.Error != "" {
			data = append(data, []string{"Error", e.Error})
		}
		if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
			return err
		}
		if e.SQL != "" {
			pterm.DefaultBox.WithTitle("SQL").WithPadding(1).Println(e.SQL)
		}
		return nil
	},
}

// openHistoryFor returns a nil store, after telling the user, when history is disabled.
func openHistoryFor(cmd *cobra.Command) (*app, *history.Store, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !a.cfg.History.Enabled {
		pterm.Info.Println("History is disabled in the config (history.enabled: false).")
		return a, nil, nil
	}
	st := a.openHistory()
	if st == nil {
		return a, nil, errors.New("history store is unavailable; run with --verbose for details")
	}
	return a, st, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to list")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Remove every entry")
}
