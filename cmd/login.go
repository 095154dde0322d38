// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apperrors "nlsql/cli/internal/errors"
	"nlsql/cli/internal/httperrors"
	"nlsql/cli/internal/terminal"
)

var loginUsername string

// loginCmd signs in with username and password and stores the session cookie.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in to the workbench server",
	Long: `The login command posts your credentials to the workbench server and keeps the
returned session in the OS keychain. The password is read from NLSQL_PASSWORD when
set, otherwise it is prompted for without echo.

If a session is already stored for this server, nothing is sent.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if st, ok, _ := a.auth.WhoAmI(); ok && st.Server == a.cfg.ServerURL {
			pterm.Info.Printfln("Already logged in as %s", st.Account)
			return nil
		}

		username := strings.TrimSpace(loginUsername)
		if username == "" {
			username, err = terminal.Prompt(bufio.NewReader(os.Stdin), "Username: ")
			if err != nil {
				return err
			}
		}
		if username == "" {
			return errors.New("username is required")
		}
		password := os.Getenv("NLSQL_PASSWORD")
		if password == "" {
			password, err = terminal.ReadSecret("Password: ")
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		stop := startInlineSpinner(os.Stdout, "Signing in", 120*time.Millisecond)
		err = a.auth.Login(ctx, username, password)
		stop()
		if err != nil {
			if apperrors.Is(err, apperrors.Unauthorized) {
				pterm.Error.Println("Invalid username or password.")
				return reportedError{err}
			}
			return reportedError{httperrors.FormatNetworkError(err, "Login", a.cfg.ServerURL)}
		}
		pterm.Success.Printfln("Logged in as %s", username)
		if a.cfg.ActiveDataset == "" {
			pterm.Println("   Next, pick a dataset: nlsql use <dataset-id>")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username")
}
