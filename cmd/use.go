// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/config"
	"nlsql/cli/internal/httperrors"
)

// useCmd activates a dataset on the server and remembers it locally.
var useCmd = &cobra.Command{
	Use:   "use <dataset-id>",
	Short: "Select the dataset later commands operate on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		id := strings.TrimSpace(args[0])

		ds, err := a.api.ActivateDataset(cmd.Context(), id)
		if err != nil {
			return reportedError{httperrors.FormatNetworkError(err, "Activate dataset", a.cfg.ServerURL)}
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.ActiveDataset = id
		if err := config.Save(cfg); err != nil {
			return err
		}

		pterm.Success.Printfln("Dataset %s is now active", id)
		if ds.Message != "" {
			pterm.Info.Println(ds.Message)
		}
		if len(ds.TableNames) > 0 {
			pterm.Printfln("   Tables: %s", strings.Join(ds.TableNames, ", "))
		}
		if !ds.IsTrained {
			pterm.Warning.Println("This dataset is not trained yet. Run: nlsql train --from-db")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
