// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package view

import (
	"encoding/json"
	"sync"

	"nlsql/cli/internal/stream"
)

// PanelState is the last content pushed to a panel.
type PanelState struct {
	Content string `json:"content"`
	Visible bool   `json:"visible"`
}

// Table is a rendered tabular result.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Snapshot is everything a channel's view received, in a JSON-friendly shape.
type Snapshot struct {
	Lines    []string                    `json:"lines,omitempty"`
	Panels   map[stream.Panel]PanelState `json:"panels,omitempty"`
	Table    *Table                      `json:"table,omitempty"`
	Chart    json.RawMessage             `json:"chart,omitempty"`
	HasChart bool                        `json:"has_chart"`
	Progress float64                     `json:"progress,omitempty"`
	Errors   []string                    `json:"errors,omitempty"`
}

// Recorder implements stream.Sink in memory.
type Recorder struct {
	mu       sync.Mutex
	channels map[stream.Channel]*Snapshot
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{channels: map[stream.Channel]*Snapshot{}}
}

func (r *Recorder) snap(ch stream.Channel) *Snapshot {
	s, ok := r.channels[ch]
	if !ok {
		s = &Snapshot{Panels: map[stream.Panel]PanelState{}}
		r.channels[ch] = s
	}
	return s
}

// Snapshot returns a copy of what ch received. Unknown channels yield an empty snapshot.
func (r *Recorder) Snapshot(ch stream.Channel) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.channels[ch]
	if !ok {
		return Snapshot{Panels: map[stream.Panel]PanelState{}}
	}
	cp := *s
	cp.Lines = append([]string(nil), s.Lines...)
	cp.Errors = append([]string(nil), s.Errors...)
	cp.Panels = make(map[stream.Panel]PanelState, len(s.Panels))
	for k, v := range s.Panels {
		cp.Panels[k] = v
	}
	return cp
}

func (r *Recorder) AppendLine(ch stream.Channel, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.snap(ch)
	s.Lines = append(s.Lines, text)
}

func (r *Recorder) SetPanel(ch stream.Channel, name stream.Panel, content string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap(ch).Panels[name] = PanelState{Content: content, Visible: visible}
}

func (r *Recorder) RenderTable(ch stream.Channel, rows [][]string, columns []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap(ch).Table = &Table{Columns: columns, Rows: rows}
}

func (r *Recorder) RenderChart(ch stream.Channel, spec json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.snap(ch)
	s.Chart = spec
	s.HasChart = spec != nil
}

func (r *Recorder) SetProgress(ch stream.Channel, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap(ch).Progress = percent
}

func (r *Recorder) ReportError(ch stream.Channel, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.snap(ch)
	s.Errors = append(s.Errors, message)
}
