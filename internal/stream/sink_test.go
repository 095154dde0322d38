// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"encoding/json"
	"sync"
)

// sinkOp is one recorded call on recordingSink.
type sinkOp struct {
	Op      string
	Channel Channel
	Panel   Panel
	Text    string
	Visible bool
	Columns []string
	Rows    [][]string
	Percent float64
}

type recordingSink struct {
	mu  sync.Mutex
	ops []sinkOp
}

func (r *recordingSink) record(op sinkOp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingSink) Ops() []sinkOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sinkOp(nil), r.ops...)
}

// panel returns the last content set for a panel and whether it is visible.
func (r *recordingSink) panel(name Panel) (string, bool) {
	var content string
	var visible bool
	for _, op := range r.Ops() {
		if op.Op == "panel" && op.Panel == name {
			content, visible = op.Text, op.Visible
		}
	}
	return content, visible
}

func (r *recordingSink) lines() []string {
	var out []string
	for _, op := range r.Ops() {
		if op.Op == "line" {
			out = append(out, op.Text)
		}
	}
	return out
}

func (r *recordingSink) AppendLine(ch Channel, text string) {
	r.record(sinkOp{Op: "line", Channel: ch, Text: text})
}

func (r *recordingSink) SetPanel(ch Channel, name Panel, content string, visible bool) {
	r.record(sinkOp{Op: "panel", Channel: ch, Panel: name, Text: content, Visible: visible})
}

func (r *recordingSink) RenderTable(ch Channel, rows [][]string, columns []string) {
	r.record(sinkOp{Op: "table", Channel: ch, Rows: rows, Columns: columns})
}

func (r *recordingSink) RenderChart(ch Channel, spec json.RawMessage) {
	r.record(sinkOp{Op: "chart", Channel: ch, Text: string(spec)})
}

func (r *recordingSink) SetProgress(ch Channel, percent float64) {
	r.record(sinkOp{Op: "progress", Channel: ch, Percent: percent})
}

func (r *recordingSink) ReportError(ch Channel, message string) {
	r.record(sinkOp{Op: "error", Channel: ch, Text: message})
}
