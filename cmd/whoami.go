// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// whoamiCmd shows the stored login. It does not contact the server.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account and active dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		st, ok, err := a.auth.WhoAmI()
		if err != nil {
			a.log.Debugf("whoami: %v", err)
		}
		if !ok {
			pterm.Println("You're not logged in yet!")
			pterm.Println("   Run 'nlsql login' to get started.")
			return nil
		}

		dataset := a.cfg.ActiveDataset
		if dataset == "" {
			dataset = "(none)"
		}
		data := [][]string{
			{"Account", st.Account},
			{"Server", st.Server},
			{"Dataset", dataset},
		}
		if !st.LoggedInAt.IsZero() {
			data = append(data, []string{"Since", st.LoggedInAt.Local().Format("2006-01-02 15:04")})
		}
		return pterm.DefaultTable.WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
