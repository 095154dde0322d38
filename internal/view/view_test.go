// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package view

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"nlsql/cli/internal/stream"
)

var _ stream.Sink = (*Terminal)(nil)
var _ stream.Sink = (*Recorder)(nil)

func TestRecorderThroughController(t *testing.T) {
	raw := "data: {\"type\":\"sql_chunk\",\"content\":\"SELECT \"}\n\n" +
		"data: {\"type\":\"sql_chunk\",\"content\":\"1\"}\n\n" +
		"data: {\"type\":\"sql\",\"content\":\"SELECT 1\"}\n\n" +
		"data: {\"type\":\"df\",\"content\":\"[{\\\"n\\\":1}]\"}\n\n" +
		"data: {\"type\":\"followup_questions\",\"content\":[]}\n\n"
	rec := NewRecorder()
	c := stream.NewController(time.Second, nil)
	s := c.Begin(context.Background(), stream.ChannelAsk, "q")
	open := func(context.Context) (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(raw)), nil }

	if err := c.Run(s, open, stream.NewDispatcher(rec)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	snap := rec.Snapshot(stream.ChannelAsk)
	if p := snap.Panels[stream.PanelSQL]; p.Content != "SELECT 1" || !p.Visible {
		t.Errorf("SQL panel = %+v", p)
	}
	if snap.Table == nil || len(snap.Table.Rows) != 1 || snap.Table.Columns[0] != "n" {
		t.Errorf("Table = %+v", snap.Table)
	}
	if p := snap.Panels[stream.PanelFollowups]; p.Visible {
		t.Error("empty followups should stay hidden")
	}
}

func TestRecorderEmptyChannel(t *testing.T) {
	snap := NewRecorder().Snapshot(stream.ChannelTrain)
	if len(snap.Panels) != 0 || snap.Table != nil || snap.HasChart {
		t.Errorf("fresh snapshot should be empty: %+v", snap)
	}
}

func TestDescribeChart(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want string
	}{
		{
			name: "title object",
			spec: `{"data":[{"type":"bar"},{"type":"bar"}],"layout":{"title":{"text":"Sales"}}}`,
			want: "Chart: 2 series (bar) - Sales",
		},
		{
			name: "title string and default type",
			spec: `{"data":[{}],"layout":{"title":"Trend"}}`,
			want: "Chart: 1 series (scatter) - Trend",
		},
		{
			name: "not a figure",
			spec: `[1,2]`,
			want: "Chart available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeChart([]byte(tt.spec)); got != tt.want {
				t.Errorf("DescribeChart() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := "## Summary\n" +
		"- **Top** city is `Paris`\n\n" +
		"1. first step\n2. second step\n\n" +
		"| city | orders |\n|------|--------|\n| Lyon | 12 |\n\n" +
		"```sql\nSELECT 1\n```\n"
	got := RenderMarkdown(md, 80, false)

	for _, want := range []string{"Summary", "Top", "Paris", "first step", "second step", "Lyon", "12", "SELECT 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderMarkdown() is missing %q:\n%s", want, got)
		}
	}
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("RenderMarkdown() should trim surrounding newlines: %q", got)
	}
}

func captureTerminal(t *testing.T) *bytes.Buffer {
	t.Helper()
	pterm.DisableStyling()
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
	return &buf
}

func TestTerminalPartialSQLPrintedOnce(t *testing.T) {
	buf := captureTerminal(t)
	term := newTerminal(false)

	term.SetPanel(stream.ChannelAsk, stream.PanelSQL, "SELECT city", true)
	term.AppendLine(stream.ChannelAsk, "choosing columns")
	term.SetPanel(stream.ChannelAsk, stream.PanelSQL, "SELECT city FROM shops", true)
	term.SetPanel(stream.ChannelAsk, stream.PanelExplanation, "Cities with shops.", true)
	term.Close()

	out := buf.String()
	if n := strings.Count(out, "SELECT city"); n != 1 {
		t.Errorf("SQL printed %d times, want once:\n%s", n, out)
	}
	line := strings.Index(out, "choosing columns")
	sql := strings.Index(out, "SELECT city FROM shops")
	expl := strings.Index(out, "Cities with shops.")
	if line < 0 || sql < 0 || expl < 0 || !(line < sql && sql < expl) {
		t.Errorf("unexpected order (line %d, sql %d, explanation %d):\n%s", line, sql, expl, out)
	}
}

func TestTerminalSQLPanelsArePerChannel(t *testing.T) {
	buf := captureTerminal(t)
	term := newTerminal(false)

	term.SetPanel(stream.ChannelAsk, stream.PanelSQL, "SELECT 1", true)
	term.SetPanel(stream.ChannelTrain, stream.PanelSQL, "SELECT 2", true)
	term.ReportError(stream.ChannelTrain, "training failed")

	out := buf.String()
	if strings.Contains(out, "SELECT 1") {
		t.Errorf("ask SQL flushed by train output:\n%s", out)
	}
	if !strings.Contains(out, "SELECT 2") {
		t.Errorf("train SQL missing:\n%s", out)
	}

	term.Close()
	if n := strings.Count(buf.String(), "SELECT 1"); n != 1 {
		t.Errorf("ask SQL printed %d times after Close, want once", n)
	}
}
