// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"fmt"
	"strings"

	apperrors "nlsql/cli/internal/errors"
)

// Handler processes one event for a session.
type Handler func(s *Session, ev Event) error

// Dispatcher routes events to handlers. Each built-in handler updates the
// session's accumulators and performs one logical update on the Sink.
type Dispatcher struct {
	sink      Sink
	overrides map[Kind]Handler
}

// NewDispatcher returns a dispatcher rendering into sink.
func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink, overrides: map[Kind]Handler{}}
}

// Handle replaces the built-in handler for kind.
func (d *Dispatcher) Handle(kind Kind, h Handler) {
	d.overrides[kind] = h
}

// Dispatch runs the handler for ev. A panicking handler is converted into an error.
func (d *Dispatcher) Dispatch(s *Session, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", ev.Kind, r)
		}
	}()
	if h, ok := d.overrides[ev.Kind]; ok {
		return h(s, ev)
	}
	return d.builtin(s, ev)
}

func (d *Dispatcher) builtin(s *Session, ev Event) error {
	ch := s.Channel
	switch ev.Kind {
	case KindInfo, KindThinkingStep, KindWarning:
		p, ok := ev.Payload.(Info)
		if !ok {
			return payloadError(ev)
		}
		d.sink.AppendLine(ch, infoLine(ev.Kind, p))
	case KindSQLChunk:
		p, ok := ev.Payload.(SQLText)
		if !ok {
			return payloadError(ev)
		}
		d.sink.SetPanel(ch, PanelSQL, s.appendSQL(p.Content), true)
	case KindSQL:
		p, ok := ev.Payload.(SQLText)
		if !ok {
			return payloadError(ev)
		}
		s.replaceSQL(p.Content)
		d.sink.SetPanel(ch, PanelSQL, p.Content, true)
	case KindDataFrame:
		p, ok := ev.Payload.(DataFrame)
		if !ok {
			return payloadError(ev)
		}
		columns, rows, err := ParseTable(p.Raw)
		if err != nil {
			d.sink.SetPanel(ch, PanelResult, "could not parse result table", true)
			return fmt.Errorf("parse result table: %w", err)
		}
		d.sink.RenderTable(ch, rows, columns)
	case KindChart:
		p, ok := ev.Payload.(Chart)
		if !ok {
			return payloadError(ev)
		}
		d.sink.RenderChart(ch, p.Spec)
	case KindExplanation:
		p, ok := ev.Payload.(Explanation)
		if !ok {
			return payloadError(ev)
		}
		s.setExplanation(p.Content)
		d.sink.SetPanel(ch, PanelExplanation, p.Content, true)
	case KindFollowupQuestions:
		p, ok := ev.Payload.(Followups)
		if !ok {
			return payloadError(ev)
		}
		d.sink.SetPanel(ch, PanelFollowups, strings.Join(p.Questions, "\n"), len(p.Questions) > 0)
	case KindSQLError:
		p, ok := ev.Payload.(SQLError)
		if !ok {
			return payloadError(ev)
		}
		if p.SQL != "" {
			s.replaceSQL(p.SQL)
		}
		d.sink.SetPanel(ch, PanelSQLError, sqlErrorText(p), true)
	case KindError:
		p, _ := ev.Payload.(ServerError)
		s.finish(PhaseFailed, apperrors.New(apperrors.ServerSignaledError, p.Message))
		d.sink.ReportError(ch, p.Message)
	case KindProgress:
		p, ok := ev.Payload.(Progress)
		if !ok {
			return payloadError(ev)
		}
		if p.Percent != nil {
			d.sink.SetProgress(ch, s.advanceProgress(*p.Percent))
		}
		if line := progressLine(p); line != "" {
			d.sink.AppendLine(ch, line)
		}
	case KindResult:
		p, ok := ev.Payload.(Result)
		if !ok {
			return payloadError(ev)
		}
		s.markResult()
		return d.expandResult(s, p)
	case KindQAPair:
		p, ok := ev.Payload.(QAPair)
		if !ok {
			return payloadError(ev)
		}
		s.addPair(p)
		d.sink.AppendLine(ch, fmt.Sprintf("Q: %s\n   SQL: %s", p.Question, p.SQL))
	case KindAnalysis:
		p, ok := ev.Payload.(Analysis)
		if !ok {
			return payloadError(ev)
		}
		s.setAnalysis(p.Content)
		s.markResult()
		d.sink.SetPanel(ch, PanelAnalysis, p.Content, true)
	default:
		// Unknown kinds are ignored.
	}
	return nil
}

// expandResult replays a composite result as its constituent events, in panel order.
func (d *Dispatcher) expandResult(s *Session, r Result) error {
	var parts []Event
	if r.SQL != "" {
		parts = append(parts, Event{Kind: KindSQL, Payload: SQLText{Content: r.SQL}})
	}
	if len(r.Table) > 0 {
		parts = append(parts, Event{Kind: KindDataFrame, Payload: DataFrame{Raw: r.Table}})
	}
	parts = append(parts, Event{Kind: KindChart, Payload: Chart{Spec: r.Chart}})
	if r.Explanation != "" {
		parts = append(parts, Event{Kind: KindExplanation, Payload: Explanation{Content: r.Explanation}})
	}
	if len(r.Followups) > 0 {
		parts = append(parts, Event{Kind: KindFollowupQuestions, Payload: Followups{Questions: r.Followups}})
	}
	var firstErr error
	for _, ev := range parts {
		if err := d.Dispatch(s, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func infoLine(kind Kind, p Info) string {
	switch kind {
	case KindThinkingStep:
		if p.Details != "" {
			return p.Message + ": " + p.Details
		}
	case KindWarning:
		line := "warning: " + p.Message
		if p.SQL != "" {
			line += " (" + p.SQL + ")"
		}
		return line
	}
	return p.Message
}

func progressLine(p Progress) string {
	switch {
	case p.Message != "" && p.Log != "" && p.Log != p.Message:
		return p.Message + "\n" + p.Log
	case p.Message != "":
		return p.Message
	default:
		return p.Log
	}
}

func sqlErrorText(p SQLError) string {
	if p.SQL == "" {
		return p.Detail
	}
	return p.SQL + "\n\n" + p.Detail
}

func payloadError(ev Event) error {
	return fmt.Errorf("%s event has unexpected payload %T", ev.Kind, ev.Payload)
}
