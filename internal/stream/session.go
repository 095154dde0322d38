// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseActive     Phase = "active"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
	PhaseSuperseded Phase = "superseded"
)

// Session is one in-flight streamed request on a channel.
// It owns every accumulator the handlers touch; nothing is shared between sessions.
type Session struct {
	// ID correlates the session across logs and history.
	ID        string
	Channel   Channel
	Prompt    string
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	phase       Phase
	sql         strings.Builder
	percent     float64
	hasPercent  bool
	terminal    bool
	explanation string
	analysis    string
	pairs       []QAPair
	err         error
	finishedAt  time.Time
}

func newSession(parent context.Context, ch Channel, prompt string) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:        uuid.NewString(),
		Channel:   ch,
		Prompt:    prompt,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		phase:     PhaseIdle,
	}
}

// Context is cancelled when the session is superseded or its parent ends.
func (s *Session) Context() context.Context { return s.ctx }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SQL returns the accumulated SQL text.
func (s *Session) SQL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sql.String()
}

// Progress returns the last displayed percentage and whether any was shown.
func (s *Session) Progress() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent, s.hasPercent
}

// HasResult reports whether a terminal result arrived.
func (s *Session) HasResult() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

// Explanation returns the last explanation text.
func (s *Session) Explanation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explanation
}

// Analysis returns the schema analysis text, if any.
func (s *Session) Analysis() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// QAPairs returns a copy of the generated pairs.
func (s *Session) QAPairs() []QAPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]QAPair(nil), s.pairs...)
}

// Err returns the failure that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// FinishedAt returns when the session left the active phase.
func (s *Session) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// finish records a terminal phase once. Later calls are ignored.
func (s *Session) finish(p Phase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive && s.phase != PhaseIdle {
		return
	}
	s.phase = p
	s.err = err
	s.finishedAt = time.Now()
}

func (s *Session) appendSQL(chunk string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sql.WriteString(chunk)
	return s.sql.String()
}

func (s *Session) replaceSQL(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sql.Reset()
	s.sql.WriteString(text)
}

// advanceProgress folds a raw percentage into the displayed value, which never decreases.
func (s *Session) advanceProgress(raw float64) float64 {
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPercent || raw > s.percent {
		s.percent = raw
		s.hasPercent = true
	}
	return s.percent
}

func (s *Session) markResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = true
}

func (s *Session) setExplanation(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.explanation = text
}

func (s *Session) setAnalysis(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = text
}

func (s *Session) addPair(p QAPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append(s.pairs, p)
}
