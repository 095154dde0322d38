// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	apperrors "nlsql/cli/internal/errors"
)

// FormatStreamError renders a failed session for the terminal.
// command is the CLI verb to suggest on retry, e.g. "ask".
func FormatStreamError(err error, command string) string {
	var b strings.Builder
	kind := apperrors.KindOf(err)

	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(streamErrorTitle(kind)))
	b.WriteString("\n\n")

	switch kind {
	case apperrors.StreamTimeout:
		b.WriteString("The server stopped sending data before the answer was complete.\n")
		b.WriteString("Long training runs can exceed the idle limit; raise idle_timeout in the config if this repeats.\n")
	case apperrors.StreamUnavailable:
		b.WriteString("The server accepted the request but returned no stream to read.\n")
	case apperrors.Unauthorized:
		b.WriteString("The server rejected the saved session. It may have expired.\n")
	case apperrors.TransportError:
		b.WriteString("The request to the NL-to-SQL server failed.\n")
		b.WriteString("Check that the server is running and reachable at the configured URL.\n")
	default:
		b.WriteString("The session ended unexpectedly.\n")
	}

	b.WriteString("\n")
	if kind == apperrors.Unauthorized {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'nlsql login' and try again"))
	} else {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint(fmt.Sprintf("→ Please try running 'nlsql %s' again", command)))
	}
	b.WriteString("\n")

	if err != nil {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return b.String()
}

func streamErrorTitle(kind apperrors.Kind) string {
	switch kind {
	case apperrors.StreamTimeout:
		return "Stream Timed Out"
	case apperrors.StreamUnavailable:
		return "No Stream"
	case apperrors.Unauthorized:
		return "Not Signed In"
	case apperrors.TransportError:
		return "Connection Failed"
	}
	return "Session Failed"
}

// PresentStreamError displays a formatted stream error.
func PresentStreamError(err error, command string) {
	fmt.Println()
	fmt.Println(FormatStreamError(err, command))
	fmt.Println()
}
