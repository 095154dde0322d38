// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/dsn"
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/sqlexec"
)

var dbinfoCheck bool

// dbinfoCmd displays the configured database connection with the password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the current database connection",
	Long: `The dbinfo command displays the configured database connection string (DSN)
with credentials masked, and where it was found. With --check it also connects
and counts the tables in the public schema.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		raw, source, err := resolveDSN(a.km)
		if err != nil {
			if errors.Is(err, errNoDSN) {
				pterm.Warning.Println("No database connection configured")
				pterm.Println("   Please run: nlsql connect")
				return nil
			}
			return err
		}

		body := logging.Mask(raw)
		if info, perr := dsn.Parse(raw); perr == nil {
			body = info.Describe() + "\n" + logging.Mask(info.String())
		}
		pterm.Printfln("Using DSN from %s", source)
		pterm.Println()
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(body)

		if dbinfoCheck {
			pool, err := a.connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			tables, err := sqlexec.NewSchemaInspector(pool).Tables(cmd.Context(), "public")
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			pterm.Success.Printfln("Connected. %d tables in schema public", len(tables))
		}
		pterm.Println()
		pterm.Println("To update this connection, run: nlsql connect")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
	dbinfoCmd.Flags().BoolVar(&dbinfoCheck, "check", false, "Connect and count tables")
}
