// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package stream implements the client side of the workbench event protocol.
// It consumes a chunked text/event-stream response, splits it into frames,
// parses each frame into a typed Event and dispatches events in arrival order
// to handlers that update per-session state and a View Sink.
//
// Data flows in one direction:
//
//	response body -> Decoder -> ParseFrame -> Controller -> Dispatcher -> Sink
//
// Nothing in this package holds process-wide mutable state. Every accumulator
// lives on a Session, and sessions on the same Channel supersede each other.
package stream

import "encoding/json"

// Channel names one logical request flow. Each channel has independent session state.
type Channel string

const (
	ChannelAsk        Channel = "ask"
	ChannelTrain      Channel = "train"
	ChannelAnalyze    Channel = "schema-analysis"
	ChannelGenerateQA Channel = "qa-generation"
)

// Panel names a region of a channel's view.
type Panel string

const (
	PanelSQL         Panel = "sql"
	PanelResult      Panel = "result"
	PanelExplanation Panel = "explanation"
	PanelFollowups   Panel = "followups"
	PanelSQLError    Panel = "sql_error"
	PanelAnalysis    Panel = "analysis"
)

// Kind enumerates known event kinds. The set is closed: anything the parser
// does not recognise becomes KindUnknown and is ignored by the dispatcher.
type Kind string

const (
	KindUnknown           Kind = ""
	KindInfo              Kind = "info"
	KindThinkingStep      Kind = "thinking_step"
	KindWarning           Kind = "warning"
	KindSQLChunk          Kind = "sql_chunk"
	KindSQL               Kind = "sql"
	KindDataFrame         Kind = "df"
	KindChart             Kind = "chart"
	KindExplanation       Kind = "explanation"
	KindFollowupQuestions Kind = "followup_questions"
	KindSQLError          Kind = "sql_error"
	KindError             Kind = "error"
	KindProgress          Kind = "progress"
	KindResult            Kind = "result"
	KindQAPair            Kind = "qa_pair"
	KindAnalysis          Kind = "analysis"
)

// knownKinds maps wire discriminators to kinds.
var knownKinds = map[string]Kind{
	"info":               KindInfo,
	"thinking_step":      KindThinkingStep,
	"warning":            KindWarning,
	"sql_chunk":          KindSQLChunk,
	"sql":                KindSQL,
	"df":                 KindDataFrame,
	"chart":              KindChart,
	"explanation":        KindExplanation,
	"followup_questions": KindFollowupQuestions,
	"sql_error":          KindSQLError,
	"error":              KindError,
	"progress":           KindProgress,
	"result":             KindResult,
	"qa_pair":            KindQAPair,
	"analysis":           KindAnalysis,
}

// Event is one parsed frame. Payload holds the concrete type matching Kind.
// Events are immutable once constructed.
type Event struct {
	Kind    Kind
	Payload any
	// Type is the raw discriminator as received, kept for diagnostics on unknown kinds.
	Type string
}

// Info is a status or trace line. It serves info, thinking_step and warning.
type Info struct {
	Message string
	// Details is the thinking_step body; empty for plain status lines.
	Details string
	// SQL accompanies some warnings.
	SQL string
}

// SQLText carries either a chunk (sql_chunk) or the final statement (sql).
type SQLText struct {
	Content string
}

// DataFrame carries a tabular result in records or split orientation.
type DataFrame struct {
	Raw json.RawMessage
}

// Chart carries a chart spec. A nil Spec means no chart is available.
type Chart struct {
	Spec json.RawMessage
}

// Explanation carries markdown text.
type Explanation struct {
	Content string
}

// Followups carries suggested next questions.
type Followups struct {
	Questions []string
}

// SQLError reports a generated statement that failed to execute.
type SQLError struct {
	SQL    string
	Detail string
}

// ServerError is an error announced by the server. It aborts the session.
type ServerError struct {
	Message   string
	Traceback string
}

// Progress reports training or generation progress.
type Progress struct {
	// Percent is nil when the frame had no percentage.
	Percent *float64
	Message string
	Log     string
}

// Result is the composite terminal result of the ask flow.
type Result struct {
	SQL         string
	Table       json.RawMessage
	Chart       json.RawMessage
	HasChart    bool
	Explanation string
	Followups   []string
}

// QAPair is a generated question and SQL pair.
type QAPair struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// Analysis is free-form schema analysis text.
type Analysis struct {
	Content string
}
