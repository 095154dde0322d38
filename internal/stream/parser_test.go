// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"reflect"
	"testing"

	apperrors "nlsql/cli/internal/errors"
)

func pct(v float64) *float64 { return &v }

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantOK  bool
		kind    Kind
		payload any
	}{
		{
			name:   "comment is discarded",
			frame:  ": keep-alive",
			wantOK: false,
		},
		{
			name:   "event line without data",
			frame:  "event: ping",
			wantOK: false,
		},
		{
			name:   "empty data",
			frame:  "data: ",
			wantOK: false,
		},
		{
			name:    "info",
			frame:   `data: {"type":"info","message":"Connecting"}`,
			wantOK:  true,
			kind:    KindInfo,
			payload: Info{Message: "Connecting"},
		},
		{
			name:    "thinking step with details",
			frame:   `data: {"type":"thinking_step","step":"Retrieving DDL","details":"3 tables"}`,
			wantOK:  true,
			kind:    KindThinkingStep,
			payload: Info{Message: "Retrieving DDL", Details: "3 tables"},
		},
		{
			name:    "sql chunk",
			frame:   `data: {"type":"sql_chunk","content":"SELECT "}`,
			wantOK:  true,
			kind:    KindSQLChunk,
			payload: SQLText{Content: "SELECT "},
		},
		{
			name:    "data without space and with event line",
			frame:   "event: message\ndata:{\"type\":\"sql\",\"sql\":\"SELECT 1\"}",
			wantOK:  true,
			kind:    KindSQL,
			payload: SQLText{Content: "SELECT 1"},
		},
		{
			name:    "multi-line data",
			frame:   "data: {\"type\":\"explanation\",\ndata: \"content\":\"**Top** rows\"}",
			wantOK:  true,
			kind:    KindExplanation,
			payload: Explanation{Content: "**Top** rows"},
		},
		{
			name:    "chart as encoded string",
			frame:   `data: {"type":"chart","content":"{\"data\":[]}"}`,
			wantOK:  true,
			kind:    KindChart,
			payload: Chart{Spec: []byte(`{"data":[]}`)},
		},
		{
			name:    "absent chart",
			frame:   `data: {"type":"chart","content":null}`,
			wantOK:  true,
			kind:    KindChart,
			payload: Chart{},
		},
		{
			name:    "followups",
			frame:   `data: {"type":"followup_questions","content":["By year?"," ","By region?"]}`,
			wantOK:  true,
			kind:    KindFollowupQuestions,
			payload: Followups{Questions: []string{"By year?", "By region?"}},
		},
		{
			name:    "sql error",
			frame:   `data: {"type":"sql_error","sql":"SELEC 1","error":"syntax error"}`,
			wantOK:  true,
			kind:    KindSQLError,
			payload: SQLError{SQL: "SELEC 1", Detail: "syntax error"},
		},
		{
			name:    "server error",
			frame:   `data: {"type":"error","message":"model unavailable","traceback":"..."}`,
			wantOK:  true,
			kind:    KindError,
			payload: ServerError{Message: "model unavailable", Traceback: "..."},
		},
		{
			name:    "structured progress with string percentage",
			frame:   `data: {"type":"progress","percentage":"42.5","message":"Training DDL"}`,
			wantOK:  true,
			kind:    KindProgress,
			payload: Progress{Percent: pct(42.5), Message: "Training DDL"},
		},
		{
			name:    "legacy bare progress",
			frame:   `data: {"percentage":30,"message":"Training documentation","log":"doc 1/3"}`,
			wantOK:  true,
			kind:    KindProgress,
			payload: Progress{Percent: pct(30), Message: "Training documentation", Log: "doc 1/3"},
		},
		{
			name:    "legacy status error",
			frame:   `data: {"status":"error","message":"no dataset"}`,
			wantOK:  true,
			kind:    KindError,
			payload: ServerError{Message: "no dataset"},
		},
		{
			name:    "legacy qa pair",
			frame:   `data: {"status":"progress","percentage":50,"message":"1/2","qa_pair":{"id":7,"question":"How many users?","sql":"SELECT count(*) FROM users"}}`,
			wantOK:  true,
			kind:    KindQAPair,
			payload: QAPair{ID: "7", Question: "How many users?", SQL: "SELECT count(*) FROM users"},
		},
		{
			name:    "legacy starting",
			frame:   `data: {"status":"starting","total":12,"message":"Generating pairs"}`,
			wantOK:  true,
			kind:    KindInfo,
			payload: Info{Message: "Generating pairs (12 total)"},
		},
		{
			name:    "legacy completed",
			frame:   `data: {"status":"completed","percentage":100,"message":"done"}`,
			wantOK:  true,
			kind:    KindProgress,
			payload: Progress{Percent: pct(100), Message: "done"},
		},
		{
			name:    "legacy analysis response",
			frame:   `data: {"status":"success","analysis":"orders references users"}`,
			wantOK:  true,
			kind:    KindAnalysis,
			payload: Analysis{Content: "orders references users"},
		},
		{
			name:   "unknown type",
			frame:  `data: {"type":"telemetry","value":1}`,
			wantOK: true,
			kind:   KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok, err := ParseFrame(tt.frame)
			if err != nil {
				t.Fatalf("ParseFrame() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ParseFrame() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", ev.Kind, tt.kind)
			}
			if !reflect.DeepEqual(normalise(ev.Payload), normalise(tt.payload)) {
				t.Errorf("Payload = %#v, want %#v", ev.Payload, tt.payload)
			}
		})
	}
}

// normalise makes json.RawMessage and []byte compare equal.
func normalise(p any) any {
	if c, ok := p.(Chart); ok {
		return string(c.Spec)
	}
	return p
}

func TestParseFrameMalformed(t *testing.T) {
	for _, frame := range []string{`data: {not json`, `data: [1,2]`, `data: null`, `data: "text"`} {
		t.Run(frame, func(t *testing.T) {
			_, ok, err := ParseFrame(frame)
			if ok {
				t.Error("malformed frame should not produce an event")
			}
			if !apperrors.Is(err, apperrors.FrameParseError) {
				t.Errorf("err = %v, want FrameParseError", err)
			}
		})
	}
}

func TestParseFrameResult(t *testing.T) {
	frame := `data: {"type":"result","sql":"SELECT 1 AS n","df_json":"[{\"n\":1}]","plotly_json":null,"analysis_result":"One row."}`
	ev, ok, err := ParseFrame(frame)
	if err != nil || !ok {
		t.Fatalf("ParseFrame() = %v, %v", ok, err)
	}
	r, isResult := ev.Payload.(Result)
	if !isResult {
		t.Fatalf("Payload = %T, want Result", ev.Payload)
	}
	if r.SQL != "SELECT 1 AS n" || r.Explanation != "One row." {
		t.Errorf("Result = %+v", r)
	}
	if r.HasChart || r.Chart != nil {
		t.Errorf("null plotly_json should mean no chart, got %s", r.Chart)
	}
	if len(r.Table) == 0 {
		t.Error("df_json should be carried as the table payload")
	}
}
