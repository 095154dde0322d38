// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, frame string) Event {
	t.Helper()
	ev, ok, err := ParseFrame(frame)
	if err != nil || !ok {
		t.Fatalf("ParseFrame(%q) = %v, %v", frame, ok, err)
	}
	return ev
}

func newTestSession(ch Channel) *Session {
	s := newSession(context.Background(), ch, "test")
	s.setPhase(PhaseActive)
	return s
}

func TestDispatchSQLChunksThenFinal(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	s := newTestSession(ChannelAsk)

	for _, f := range []string{
		`data: {"type":"sql_chunk","content":"SELECT "}`,
		`data: {"type":"sql_chunk","content":"1"}`,
		`data: {"type":"sql","content":"SELECT 1"}`,
	} {
		if err := d.Dispatch(s, mustParse(t, f)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	content, visible := sink.panel(PanelSQL)
	if content != "SELECT 1" || !visible {
		t.Errorf("SQL panel = %q (visible %v), want %q visible", content, visible, "SELECT 1")
	}
	if s.SQL() != "SELECT 1" {
		t.Errorf("session SQL = %q, want %q", s.SQL(), "SELECT 1")
	}
	if got := len(sink.Ops()); got != 3 {
		t.Errorf("sink received %d ops, want one per event", got)
	}
}

func TestDispatchProgressIsMonotonic(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	s := newTestSession(ChannelTrain)

	for _, f := range []string{
		`data: {"percentage":40}`,
		`data: {"percentage":35}`,
		`data: {"percentage":60}`,
	} {
		if err := d.Dispatch(s, mustParse(t, f)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	var shown []float64
	for _, op := range sink.Ops() {
		if op.Op == "progress" {
			shown = append(shown, op.Percent)
		}
	}
	if want := []float64{40, 40, 60}; !reflect.DeepEqual(shown, want) {
		t.Errorf("displayed progress = %v, want %v", shown, want)
	}
	if p, ok := s.Progress(); !ok || p != 60 {
		t.Errorf("Progress() = %v, %v", p, ok)
	}
}

func TestDispatchProgressMessageAppendsLine(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	s := newTestSession(ChannelTrain)

	if err := d.Dispatch(s, mustParse(t, `data: {"percentage":120,"message":"Training DDL","log":"table users"}`)); err != nil {
		t.Fatal(err)
	}
	ops := sink.Ops()
	if len(ops) != 2 || ops[0].Op != "progress" || ops[0].Percent != 100 {
		t.Fatalf("ops = %+v", ops)
	}
	if ops[1].Text != "Training DDL\ntable users" {
		t.Errorf("log line = %q", ops[1].Text)
	}
}

func TestDispatchViewEffects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  sinkOp
	}{
		{
			name:  "thinking step",
			frame: `data: {"type":"thinking_step","step":"Searching similar questions","details":"2 found"}`,
			want:  sinkOp{Op: "line", Channel: ChannelAsk, Text: "Searching similar questions: 2 found"},
		},
		{
			name:  "warning",
			frame: `data: {"type":"warning","message":"slow query","sql":"SELECT *"}`,
			want:  sinkOp{Op: "line", Channel: ChannelAsk, Text: "warning: slow query (SELECT *)"},
		},
		{
			name:  "data frame",
			frame: `data: {"type":"df","content":"[{\"n\":1}]"}`,
			want:  sinkOp{Op: "table", Channel: ChannelAsk, Columns: []string{"n"}, Rows: [][]string{{"1"}}},
		},
		{
			name:  "chart absent shows empty state",
			frame: `data: {"type":"chart","content":null}`,
			want:  sinkOp{Op: "chart", Channel: ChannelAsk},
		},
		{
			name:  "explanation",
			frame: `data: {"type":"explanation","content":"## Summary"}`,
			want:  sinkOp{Op: "panel", Channel: ChannelAsk, Panel: PanelExplanation, Text: "## Summary", Visible: true},
		},
		{
			name:  "empty followups stay hidden",
			frame: `data: {"type":"followup_questions","content":[]}`,
			want:  sinkOp{Op: "panel", Channel: ChannelAsk, Panel: PanelFollowups},
		},
		{
			name:  "followups",
			frame: `data: {"type":"followup_questions","content":["By month?","Top 5?"]}`,
			want:  sinkOp{Op: "panel", Channel: ChannelAsk, Panel: PanelFollowups, Text: "By month?\nTop 5?", Visible: true},
		},
		{
			name:  "sql error",
			frame: `data: {"type":"sql_error","sql":"SELEC 1","error":"syntax error at SELEC"}`,
			want:  sinkOp{Op: "panel", Channel: ChannelAsk, Panel: PanelSQLError, Text: "SELEC 1\n\nsyntax error at SELEC", Visible: true},
		},
		{
			name:  "server error message verbatim",
			frame: `data: {"type":"error","message":"  Vanna is not configured  "}`,
			want:  sinkOp{Op: "error", Channel: ChannelAsk, Text: "  Vanna is not configured  "},
		},
		{
			name:  "malformed table",
			frame: `data: {"type":"df","content":"oops"}`,
			want:  sinkOp{Op: "panel", Channel: ChannelAsk, Panel: PanelResult, Text: "could not parse result table", Visible: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			d := NewDispatcher(sink)
			_ = d.Dispatch(newTestSession(ChannelAsk), mustParse(t, tt.frame))
			ops := sink.Ops()
			if len(ops) != 1 {
				t.Fatalf("got %d ops, want exactly one: %+v", len(ops), ops)
			}
			if !reflect.DeepEqual(ops[0], tt.want) {
				t.Errorf("op = %+v, want %+v", ops[0], tt.want)
			}
		})
	}
}

func TestDispatchErrorMarksSessionFailed(t *testing.T) {
	s := newTestSession(ChannelAsk)
	d := NewDispatcher(&recordingSink{})
	_ = d.Dispatch(s, mustParse(t, `data: {"type":"error","message":"boom"}`))
	if s.Phase() != PhaseFailed {
		t.Errorf("Phase() = %q, want failed", s.Phase())
	}
}

func TestDispatchResultExpands(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	s := newTestSession(ChannelAsk)
	frame := `data: {"type":"result","sql":"SELECT 2","df_json":"[{\"n\":2}]","plotly_json":"{\"data\":[]}","analysis_result":"Two.","followup_questions":["Why?"]}`

	if err := d.Dispatch(s, mustParse(t, frame)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	var kinds []string
	for _, op := range sink.Ops() {
		kinds = append(kinds, op.Op+":"+string(op.Panel))
	}
	want := []string{"panel:sql", "table:", "chart:", "panel:explanation", "panel:followups"}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("ops = %v, want %v", kinds, want)
	}
	if !s.HasResult() || s.SQL() != "SELECT 2" || s.Explanation() != "Two." {
		t.Errorf("session not updated: result=%v sql=%q", s.HasResult(), s.SQL())
	}
}

func TestDispatchQAPairCollects(t *testing.T) {
	s := newTestSession(ChannelGenerateQA)
	d := NewDispatcher(&recordingSink{})
	_ = d.Dispatch(s, mustParse(t, `data: {"status":"progress","percentage":50,"qa_pair":{"question":"Q1","sql":"SELECT 1"}}`))
	_ = d.Dispatch(s, mustParse(t, `data: {"status":"progress","percentage":100,"qa_pair":{"question":"Q2","sql":"SELECT 2"}}`))
	pairs := s.QAPairs()
	if len(pairs) != 2 || pairs[1].Question != "Q2" {
		t.Errorf("QAPairs() = %+v", pairs)
	}
}

func TestDispatchUnknownIsIgnored(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	if err := d.Dispatch(newTestSession(ChannelAsk), mustParse(t, `data: {"type":"heartbeat"}`)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(sink.Ops()) != 0 {
		t.Errorf("unknown kind touched the view: %+v", sink.Ops())
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher(&recordingSink{})
	d.Handle(KindInfo, func(*Session, Event) error { panic("bad handler") })
	err := d.Dispatch(newTestSession(ChannelAsk), mustParse(t, `data: {"type":"info","message":"x"}`))
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestDispatchOverride(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink)
	sentinel := errors.New("handled")
	var seen Event
	d.Handle(KindChart, func(_ *Session, ev Event) error {
		seen = ev
		return sentinel
	})
	err := d.Dispatch(newTestSession(ChannelAsk), mustParse(t, `data: {"type":"chart","content":{"data":[]}}`))
	if !errors.Is(err, sentinel) || seen.Kind != KindChart {
		t.Errorf("override not used: err=%v seen=%v", err, seen.Kind)
	}
	if len(sink.Ops()) != 0 {
		t.Error("built-in handler should not run when overridden")
	}
}
