// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import "encoding/json"

// Sink is the rendering capability set the dispatcher drives.
// Implementations own all concrete view state; the stream package never
// inspects it.
type Sink interface {
	// AppendLine adds a status or trace line to the channel's log.
	AppendLine(ch Channel, text string)
	// SetPanel replaces a panel's content and visibility.
	SetPanel(ch Channel, name Panel, content string, visible bool)
	// RenderTable shows a tabular result.
	RenderTable(ch Channel, rows [][]string, columns []string)
	// RenderChart shows a chart spec, or the empty state when spec is nil.
	RenderChart(ch Channel, spec json.RawMessage)
	// SetProgress moves the channel's progress indicator.
	SetProgress(ch Channel, percent float64)
	// ReportError surfaces a session-level failure.
	ReportError(ch Channel, message string)
}
