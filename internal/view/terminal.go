// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package view renders stream sessions. Terminal draws them with pterm;
// Recorder keeps them in memory for tests and machine-readable output.
package view

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/terminal"
)

// maxTableRows caps how many result rows are drawn.
const maxTableRows = 50

// liveSQL is a channel's SQL panel while it is still streaming.
type liveSQL struct {
	area *pterm.AreaPrinter
	text string
}

// Terminal implements stream.Sink on the user's terminal.
//
// Each channel's SQL panel is drawn in a live pterm area so streamed chunks
// and the final statement rewrite it in place. Progress lines printed while
// the SQL streams lift the area, print above it and redraw it below, so the
// partial statement is never left behind in scrollback. Any other output on
// the channel freezes the panel where it is.
type Terminal struct {
	// ChartFile, when set, receives the JSON of each rendered chart.
	ChartFile string

	mu          sync.Mutex
	interactive bool
	headers     map[stream.Channel]bool
	live        map[stream.Channel]*liveSQL
	bars        map[stream.Channel]*pterm.ProgressbarPrinter
}

// NewTerminal returns a terminal sink. Live redraws are used only when stdout is a TTY.
func NewTerminal() *Terminal {
	return newTerminal(terminal.IsInteractive())
}

func newTerminal(interactive bool) *Terminal {
	return &Terminal{
		interactive: interactive,
		headers:     map[stream.Channel]bool{},
		live:        map[stream.Channel]*liveSQL{},
		bars:        map[stream.Channel]*pterm.ProgressbarPrinter{},
	}
}

// Close freezes every live panel and stops progress bars.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.liveChannels() {
		t.freeze(ch)
	}
	for ch, bar := range t.bars {
		_, _ = bar.Stop()
		delete(t.bars, ch)
	}
}

func (t *Terminal) AppendLine(ch stream.Channel, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspend()
	defer t.resume()
	t.header(ch)
	for i, line := range strings.Split(text, "\n") {
		prefix := "› "
		if i > 0 {
			prefix = "  "
		}
		pterm.Println(pterm.FgGray.Sprint(prefix) + line)
	}
}

func (t *Terminal) SetPanel(ch stream.Channel, name stream.Panel, content string, visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == stream.PanelSQL {
		t.drawSQL(ch, content)
		return
	}
	t.freeze(ch)
	if !visible {
		return
	}
	t.suspend()
	defer t.resume()
	t.header(ch)
	switch name {
	case stream.PanelExplanation, stream.PanelAnalysis:
		pterm.DefaultSection.WithLevel(2).Println(panelTitle(name))
		pterm.Println(RenderMarkdown(content, terminal.Width()-4, t.interactive && pterm.PrintColor))
	case stream.PanelFollowups:
		pterm.DefaultSection.WithLevel(2).Println(panelTitle(name))
		var items []pterm.BulletListItem
		for _, q := range strings.Split(content, "\n") {
			items = append(items, pterm.BulletListItem{Level: 0, Text: q})
		}
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	case stream.PanelSQLError:
		pterm.DefaultBox.WithTitle(pterm.Red("SQL error")).WithPadding(1).Println(content)
	default:
		pterm.Warning.Println(content)
	}
}

func (t *Terminal) RenderTable(ch stream.Channel, rows [][]string, columns []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeze(ch)
	t.suspend()
	defer t.resume()
	t.header(ch)
	if len(columns) == 0 {
		pterm.Info.Println("Query returned no columns")
		return
	}
	shown := rows
	if len(shown) > maxTableRows {
		shown = shown[:maxTableRows]
	}
	data := pterm.TableData{columns}
	data = append(data, shown...)
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	switch {
	case len(rows) == 0:
		pterm.Info.Println("Query returned no rows")
	case len(rows) > len(shown):
		pterm.Info.Printfln("Showing %d of %d rows", len(shown), len(rows))
	}
}

func (t *Terminal) RenderChart(ch stream.Channel, spec json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeze(ch)
	t.suspend()
	defer t.resume()
	t.header(ch)
	if spec == nil {
		pterm.Info.Println("No chart for this result")
		return
	}
	pterm.Info.Println(DescribeChart(spec))
	if t.ChartFile != "" {
		if err := os.WriteFile(t.ChartFile, spec, 0o644); err != nil {
			pterm.Warning.Printfln("Could not save chart: %v", err)
			return
		}
		pterm.Info.Printfln("Chart spec saved to %s", t.ChartFile)
	}
}

func (t *Terminal) SetProgress(ch stream.Channel, percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeze(ch)
	t.header(ch)
	target := int(percent)
	if !t.interactive {
		pterm.Printfln("%s %3d%%", pterm.FgGray.Sprint("progress"), target)
		return
	}
	bar, ok := t.bars[ch]
	if !ok {
		started, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(string(ch)).Start()
		if err != nil {
			return
		}
		bar = started
		t.bars[ch] = bar
	}
	if delta := target - bar.Current; delta > 0 {
		bar.Add(delta)
	}
	if bar.Current >= bar.Total {
		_, _ = bar.Stop()
		delete(t.bars, ch)
	}
}

func (t *Terminal) ReportError(ch stream.Channel, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeze(ch)
	if bar, ok := t.bars[ch]; ok {
		_, _ = bar.Stop()
		delete(t.bars, ch)
	}
	t.suspend()
	defer t.resume()
	t.header(ch)
	pterm.Error.Println(message)
}

// drawSQL updates ch's SQL panel, rewriting it in place while it is live.
// Non-interactive output keeps only the text and prints it once on freeze.
func (t *Terminal) drawSQL(ch stream.Channel, content string) {
	l, ok := t.live[ch]
	if !ok {
		l = &liveSQL{}
		t.live[ch] = l
	}
	l.text = content
	if !t.interactive {
		return
	}
	if l.area == nil {
		t.header(ch)
		t.start(l)
		return
	}
	l.area.Update(sqlBox(content))
}

// freeze ends ch's live SQL panel and leaves its last content on screen.
func (t *Terminal) freeze(ch stream.Channel) {
	l, ok := t.live[ch]
	if !ok {
		return
	}
	delete(t.live, ch)
	if l.area != nil {
		_ = l.area.Stop()
		cursor.Show()
		return
	}
	if l.text != "" {
		t.header(ch)
		pterm.Println(sqlBox(l.text))
	}
}

// suspend lifts every live area off the screen so other output can be printed.
func (t *Terminal) suspend() {
	for _, ch := range t.liveChannels() {
		l := t.live[ch]
		if l.area == nil {
			continue
		}
		l.area.Clear()
		_ = l.area.Stop()
		l.area = nil
		cursor.Show()
	}
}

// resume redraws suspended areas below whatever was just printed.
func (t *Terminal) resume() {
	if !t.interactive {
		return
	}
	for _, ch := range t.liveChannels() {
		if l := t.live[ch]; l.area == nil && l.text != "" {
			t.start(l)
		}
	}
}

func (t *Terminal) start(l *liveSQL) {
	cursor.Hide()
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		cursor.Show()
		return
	}
	l.area = area
	area.Update(sqlBox(l.text))
}

func (t *Terminal) liveChannels() []stream.Channel {
	chs := make([]stream.Channel, 0, len(t.live))
	for ch := range t.live {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })
	return chs
}

func sqlBox(content string) string {
	return pterm.DefaultBox.WithTitle("SQL").WithPadding(1).Sprint(content)
}

// header prints the channel's section title once.
func (t *Terminal) header(ch stream.Channel) {
	if t.headers[ch] {
		return
	}
	t.headers[ch] = true
	pterm.DefaultSection.Println(channelTitle(ch))
}

func channelTitle(ch stream.Channel) string {
	switch ch {
	case stream.ChannelAsk:
		return "Ask"
	case stream.ChannelTrain:
		return "Training"
	case stream.ChannelAnalyze:
		return "Schema analysis"
	case stream.ChannelGenerateQA:
		return "QA generation"
	}
	return string(ch)
}

func panelTitle(p stream.Panel) string {
	switch p {
	case stream.PanelExplanation:
		return "Explanation"
	case stream.PanelAnalysis:
		return "Analysis"
	case stream.PanelFollowups:
		return "You could also ask"
	}
	return string(p)
}

// DescribeChart summarises a Plotly figure in one line.
func DescribeChart(spec json.RawMessage) string {
	var fig struct {
		Data []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"data"`
		Layout struct {
			Title json.RawMessage `json:"title"`
		} `json:"layout"`
	}
	if err := json.Unmarshal(spec, &fig); err != nil {
		return "Chart available"
	}
	kinds := map[string]bool{}
	var order []string
	for _, tr := range fig.Data {
		k := tr.Type
		if k == "" {
			k = "scatter"
		}
		if !kinds[k] {
			kinds[k] = true
			order = append(order, k)
		}
	}
	desc := fmt.Sprintf("Chart: %d series", len(fig.Data))
	if len(order) > 0 {
		desc += " (" + strings.Join(order, ", ") + ")"
	}
	if title := chartTitle(fig.Layout.Title); title != "" {
		desc += " - " + title
	}
	return desc
}

// chartTitle accepts both the string and the {"text": ...} title forms.
func chartTitle(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Text
	}
	return ""
}
