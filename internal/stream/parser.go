// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	apperrors "nlsql/cli/internal/errors"
)

// fields is a flat JSON object with lazily decoded values.
type fields map[string]json.RawMessage

// ParseFrame turns one delimiter-split segment into an event.
//
// It returns ok=false with a nil error for segments that carry no data
// (comments, keep-alives, blank segments). A data segment whose payload is
// not a JSON object yields a FrameParseError; callers skip it and continue.
func ParseFrame(frame string) (Event, bool, error) {
	payload, ok := dataPayload(frame)
	if !ok {
		return Event{}, false, nil
	}
	var f fields
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Event{}, false, apperrors.Wrap(apperrors.FrameParseError, "malformed event frame", err)
	}
	if f == nil {
		return Event{}, false, apperrors.New(apperrors.FrameParseError, "event frame is null")
	}
	if typ, present := f.str("type"); present {
		return structured(typ, f), true, nil
	}
	return legacy(f), true, nil
}

// dataPayload joins the data lines of an SSE segment.
func dataPayload(frame string) (string, bool) {
	var parts []string
	for _, line := range strings.Split(frame, "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		v := strings.TrimPrefix(line, "data:")
		v = strings.TrimPrefix(v, " ")
		parts = append(parts, v)
	}
	if len(parts) == 0 {
		return "", false
	}
	payload := strings.Join(parts, "\n")
	if strings.TrimSpace(payload) == "" {
		return "", false
	}
	return payload, true
}

func structured(typ string, f fields) Event {
	kind, known := knownKinds[typ]
	if !known {
		return Event{Kind: KindUnknown, Type: typ}
	}
	ev := Event{Kind: kind, Type: typ}
	switch kind {
	case KindInfo:
		ev.Payload = Info{Message: f.text("message", "content")}
	case KindThinkingStep:
		ev.Payload = Info{Message: f.text("step", "message", "content"), Details: f.text("details")}
	case KindWarning:
		ev.Payload = Info{Message: f.text("message", "content"), SQL: f.text("sql")}
	case KindSQLChunk, KindSQL:
		ev.Payload = SQLText{Content: f.text("content", "sql")}
	case KindDataFrame:
		ev.Payload = DataFrame{Raw: f.raw("content", "df_json", "data")}
	case KindChart:
		ev.Payload = Chart{Spec: chartSpec(f.raw("content", "plotly_json", "spec"))}
	case KindExplanation:
		ev.Payload = Explanation{Content: f.text("content", "analysis_result", "message")}
	case KindFollowupQuestions:
		ev.Payload = Followups{Questions: f.list("content", "questions", "followup_questions")}
	case KindSQLError:
		ev.Payload = SQLError{SQL: f.text("sql"), Detail: f.text("error", "message", "content", "details")}
	case KindError:
		ev.Payload = ServerError{Message: f.text("message", "content", "error"), Traceback: f.text("traceback")}
	case KindProgress:
		ev.Payload = Progress{Percent: f.num("percentage", "percent", "progress"), Message: f.text("message"), Log: f.text("log")}
	case KindResult:
		chart := chartSpec(f.raw("plotly_json", "chart"))
		ev.Payload = Result{
			SQL:         f.text("sql"),
			Table:       f.raw("df_json", "df", "data"),
			Chart:       chart,
			HasChart:    chart != nil,
			Explanation: f.text("analysis_result", "explanation"),
			Followups:   f.list("followup_questions"),
		}
	case KindQAPair:
		ev.Payload = qaPair(f)
	case KindAnalysis:
		ev.Payload = Analysis{Content: f.text("content", "analysis", "message")}
	}
	return ev
}

// legacy maps payloads without a type discriminator.
func legacy(f fields) Event {
	status, hasStatus := f.str("status")
	message := f.text("message")
	percent := f.num("percentage", "percent")

	if hasStatus {
		switch status {
		case "error":
			return Event{Kind: KindError, Type: status, Payload: ServerError{Message: message, Traceback: f.text("traceback")}}
		case "warning":
			return Event{Kind: KindWarning, Type: status, Payload: Info{Message: message}}
		case "success":
			if a, ok := f.str("analysis"); ok {
				return Event{Kind: KindAnalysis, Type: status, Payload: Analysis{Content: a}}
			}
		}
		if _, ok := f["qa_pair"]; ok {
			return Event{Kind: KindQAPair, Type: status, Payload: qaPair(f)}
		}
		if percent != nil {
			return Event{Kind: KindProgress, Type: status, Payload: Progress{Percent: percent, Message: message, Log: f.text("log")}}
		}
		if message == "" {
			message = status
		}
		if total := f.num("total"); total != nil {
			message += " (" + strconv.FormatFloat(*total, 'f', -1, 64) + " total)"
		}
		return Event{Kind: KindInfo, Type: status, Payload: Info{Message: message}}
	}

	if percent != nil || message != "" {
		return Event{Kind: KindProgress, Payload: Progress{Percent: percent, Message: message, Log: f.text("log")}}
	}
	return Event{Kind: KindUnknown}
}

func qaPair(f fields) QAPair {
	var p QAPair
	if raw, ok := f["qa_pair"]; ok {
		var nested fields
		if json.Unmarshal(raw, &nested) == nil {
			f = nested
		}
	}
	p.ID = f.text("id")
	p.Question = f.text("question")
	p.SQL = f.text("sql")
	return p
}

// chartSpec normalises a chart payload. Plotly figures often arrive as a
// JSON-encoded string; null and empty values mean no chart.
func chartSpec(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "null" || !json.Valid([]byte(s)) {
			return nil
		}
		return json.RawMessage(s)
	}
	return raw
}

// str returns the value of key when it is a JSON string.
func (f fields) str(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// text returns the first key present as text. Numbers and booleans are
// rendered verbatim so a sloppy server does not lose content.
func (f fields) text(keys ...string) string {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		if s, ok := f.str(k); ok {
			return s
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && raw[0] != '{' && raw[0] != '[' {
			return string(raw)
		}
	}
	return ""
}

// raw returns the first non-null value among keys.
func (f fields) raw(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := f[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v
		}
	}
	return nil
}

// num returns the first key holding a number or numeric string.
func (f fields) num(keys ...string) *float64 {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		var n float64
		if json.Unmarshal(raw, &n) == nil {
			return &n
		}
		if s, ok := f.str(k); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// list returns the first key holding an array of strings, or a newline separated string.
func (f fields) list(keys ...string) []string {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		var items []string
		if json.Unmarshal(raw, &items) == nil {
			return nonEmpty(items)
		}
		if s, ok := f.str(k); ok {
			return nonEmpty(strings.Split(s, "\n"))
		}
	}
	return nil
}

func nonEmpty(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
