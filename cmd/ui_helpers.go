// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	apperrors "nlsql/cli/internal/errors"
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/terminal"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startInlineSpinner draws frames followed by text on one line until the
// returned stop function is called. The line is cleared on stop.
// Nothing is drawn when stdout is not a terminal.
func startInlineSpinner(w io.Writer, text string, interval time.Duration) func() {
	if !terminal.IsInteractive() {
		return func() {}
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// runSession streams one request on ch into sink, records it in history and
// presents any failure. The returned error is already reported to the user.
func (a *app) runSession(cmd *cobra.Command, ch stream.Channel, prompt string, open stream.Opener, d *stream.Dispatcher) (*stream.Session, error) {
	s := a.streams.Begin(cmd.Context(), ch, prompt)
	err := a.streams.Run(s, open, d)
	a.record(s)
	if err == nil {
		return s, nil
	}

	switch {
	case errors.Is(err, stream.ErrSuperseded):
		a.log.Debugf("session %s superseded", s.ID)
	case errors.Is(cmd.Context().Err(), context.Canceled):
		fmt.Println()
		fmt.Println("Cancelled.")
	case apperrors.Is(err, apperrors.ServerSignaledError):
		// The sink has shown the server's message.
	default:
		logging.PresentStreamError(err, cmd.Name())
	}
	return s, reportedError{err}
}

func (a *app) record(s *stream.Session) {
	st := a.openHistory()
	if st == nil {
		return
	}
	defer st.Close()
	// The command context may already be cancelled; recording still runs.
	if err := st.Record(context.Background(), history.FromSession(s)); err != nil {
		a.log.Warnf("history: %v", err)
	}
}
