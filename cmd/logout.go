// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutForgetDB bool

// logoutCmd ends the server session and clears local credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the saved session",
	Long: `The logout command asks the server to end the session (best-effort) and always
removes the session cookie and login state from this machine. Pass --forget-db to
also remove the saved database connection.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.auth.Logout(cmd.Context()); err != nil {
			a.log.Debugf("remote logout: %v", err)
		}
		if logoutForgetDB {
			if err := a.km.ClearDB(); err != nil {
				a.log.Warnf("keychain: %v", err)
			}
		}
		pterm.Success.Println("Signed out. Local session removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutForgetDB, "forget-db", false, "Also remove the saved database connection")
}
