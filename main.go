// Package main is the entry point for the nlsql CLI, a terminal client for
// the NL-to-SQL workbench server.
package main

import (
	"nlsql/cli/cmd"
)

func main() {
	cmd.Execute()
}
