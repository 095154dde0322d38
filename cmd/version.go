// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version and the configured server",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("nlsql %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		if cfg, err := loadConfig(); err == nil {
			fmt.Printf("server %s\n", cfg.ServerURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
