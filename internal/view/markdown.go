// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package view

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minWrap keeps narrow or unknown terminals readable.
const minWrap = 40

// RenderMarkdown renders explanation and analysis markdown for the terminal,
// wrapped to width. styled selects colors matched to the terminal background;
// otherwise the plain notty style is used. If rendering fails the source is
// returned unchanged.
func RenderMarkdown(md string, width int, styled bool) string {
	if width < minWrap {
		width = minWrap
	}
	style := glamour.WithStandardStyle("notty")
	if styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
