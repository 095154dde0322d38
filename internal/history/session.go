// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package history

import (
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/stream"
)

// FromSession builds the entry for a finished session. Error text is masked.
func FromSession(s *stream.Session) *Entry {
	e := &Entry{
		ID:         s.ID,
		Channel:    string(s.Channel),
		Prompt:     s.Prompt,
		SQL:        s.SQL(),
		Status:     string(s.Phase()),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt(),
	}
	if err := s.Err(); err != nil {
		e.Error = logging.Mask(err.Error())
	}
	return e
}
