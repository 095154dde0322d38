// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "nlsql/cli/internal/errors"
)

// DefaultIdleTimeout bounds how long a session waits for the next chunk.
const DefaultIdleTimeout = 60 * time.Second

// readSize is the chunk size requested from the body per read.
const readSize = 4096

// ErrSuperseded is returned by Run when a newer session took over the channel.
var ErrSuperseded = errors.New("session superseded by a newer request")

// Opener issues the request for a session and returns its body.
// The context is cancelled when the session is superseded.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Logger receives diagnostics from the controller.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Controller drives sessions and enforces one current session per channel.
type Controller struct {
	// IdleTimeout is the longest wait for a single read. Zero disables it.
	IdleTimeout time.Duration
	// Log receives skipped frames and handler failures.
	Log Logger

	mu      sync.Mutex
	current map[Channel]*Session
	// gates serialise dispatch with Begin per channel, so no event of a
	// superseded session is applied once Begin has returned.
	gates map[Channel]*sync.Mutex
}

// NewController returns a controller with the given idle timeout.
func NewController(idle time.Duration, log Logger) *Controller {
	if log == nil {
		log = nopLogger{}
	}
	return &Controller{IdleTimeout: idle, Log: log, current: map[Channel]*Session{}, gates: map[Channel]*sync.Mutex{}}
}

// Begin starts a new session on ch. The previous session on the same channel,
// if any, is cancelled and will dispatch nothing further.
func (c *Controller) Begin(parent context.Context, ch Channel, prompt string) *Session {
	s := newSession(parent, ch, prompt)
	gate := c.gate(ch)
	gate.Lock()
	c.mu.Lock()
	prev := c.current[ch]
	c.current[ch] = s
	c.mu.Unlock()
	gate.Unlock()
	if prev != nil {
		prev.cancel()
	}
	return s
}

func (c *Controller) gate(ch Channel) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gates[ch]
	if !ok {
		g = &sync.Mutex{}
		c.gates[ch] = g
	}
	return g
}

// IsCurrent reports whether s is still the session of record for its channel.
func (c *Controller) IsCurrent(s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current[s.Channel] == s
}

func (c *Controller) release(s *Session) {
	c.mu.Lock()
	if c.current[s.Channel] == s {
		delete(c.current, s.Channel)
	}
	c.mu.Unlock()
	s.cancel()
}

type readResult struct {
	data []byte
	err  error
}

// Run issues the session's request and dispatches its events in arrival
// order until the stream ends. It returns nil on a clean end of stream.
//
// Errors carry an internal/errors kind: StreamUnavailable, StreamTimeout,
// ServerSignaledError or TransportError. A superseded session returns ErrSuperseded.
func (c *Controller) Run(s *Session, open Opener, d *Dispatcher) error {
	defer c.release(s)
	if !c.IsCurrent(s) {
		s.finish(PhaseSuperseded, ErrSuperseded)
		return ErrSuperseded
	}
	s.setPhase(PhaseActive)
	c.Log.Debugf("session %s: starting %s", s.ID, s.Channel)

	body, err := open(s.ctx)
	if err != nil {
		return c.fail(s, c.classifyOpenError(s, err))
	}
	if body == nil {
		return c.fail(s, apperrors.New(apperrors.StreamUnavailable, "response has no readable body"))
	}

	reads := make(chan struct{})
	chunks := make(chan readResult)
	g, gctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		buf := make([]byte, readSize)
		for {
			select {
			case <-gctx.Done():
				return nil
			case _, ok := <-reads:
				if !ok {
					return nil
				}
			}
			n, err := body.Read(buf)
			res := readResult{data: append([]byte(nil), buf[:n]...), err: err}
			select {
			case chunks <- res:
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer close(reads)
		// Closing the body unblocks a read still in flight.
		defer body.Close()
		return c.loop(gctx, s, d, reads, chunks)
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrSuperseded) {
			s.finish(PhaseSuperseded, err)
			c.Log.Debugf("session %s: superseded", s.ID)
			return err
		}
		return c.fail(s, err)
	}
	s.finish(PhaseCompleted, nil)
	c.Log.Debugf("session %s: completed", s.ID)
	return nil
}

func (c *Controller) loop(ctx context.Context, s *Session, d *Dispatcher, reads chan<- struct{}, chunks <-chan readResult) error {
	dec := NewDecoder()
	for {
		select {
		case reads <- struct{}{}:
		case <-ctx.Done():
			return c.interrupted(s, ctx)
		}

		res, err := c.await(ctx, s, chunks)
		if err != nil {
			return err
		}

		if err := c.dispatchFrames(s, d, dec.Feed(res.data)); err != nil {
			return err
		}
		if res.err == nil {
			continue
		}
		if errors.Is(res.err, io.EOF) {
			return c.dispatchFrames(s, d, dec.Flush())
		}
		if !c.IsCurrent(s) {
			return ErrSuperseded
		}
		return apperrors.Wrap(apperrors.TransportError, "stream interrupted", res.err)
	}
}

// await waits for the outstanding read, bounded by the idle timeout.
func (c *Controller) await(ctx context.Context, s *Session, chunks <-chan readResult) (readResult, error) {
	var timeout <-chan time.Time
	if c.IdleTimeout > 0 {
		timer := time.NewTimer(c.IdleTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case res := <-chunks:
		return res, nil
	case <-timeout:
		return readResult{}, apperrors.New(apperrors.StreamTimeout, fmt.Sprintf("no data received for %s", c.IdleTimeout))
	case <-ctx.Done():
		return readResult{}, c.interrupted(s, ctx)
	}
}

// dispatchFrames parses and dispatches frames strictly in order.
func (c *Controller) dispatchFrames(s *Session, d *Dispatcher, frames []string) error {
	for _, frame := range frames {
		ev, ok, err := ParseFrame(frame)
		if err != nil {
			c.Log.Debugf("session %s: skipping frame: %v", s.ID, err)
			continue
		}
		if !ok {
			continue
		}
		if ev.Kind == KindUnknown {
			c.Log.Debugf("session %s: ignoring event type %q", s.ID, ev.Type)
		}
		current, herr := c.dispatchCurrent(s, d, ev)
		if !current {
			return ErrSuperseded
		}
		if ev.Kind == KindError {
			p, _ := ev.Payload.(ServerError)
			return apperrors.New(apperrors.ServerSignaledError, p.Message)
		}
		if herr != nil {
			c.Log.Warnf("session %s: %s event: %v", s.ID, ev.Kind, herr)
		}
	}
	return nil
}

// dispatchCurrent dispatches ev only while s is still current for its channel.
func (c *Controller) dispatchCurrent(s *Session, d *Dispatcher, ev Event) (bool, error) {
	gate := c.gate(s.Channel)
	gate.Lock()
	defer gate.Unlock()
	if !c.IsCurrent(s) {
		return false, nil
	}
	return true, d.Dispatch(s, ev)
}

func (c *Controller) interrupted(s *Session, ctx context.Context) error {
	if !c.IsCurrent(s) {
		return ErrSuperseded
	}
	return apperrors.Wrap(apperrors.TransportError, "request cancelled", context.Cause(ctx))
}

func (c *Controller) fail(s *Session, err error) error {
	phase := PhaseFailed
	if errors.Is(err, ErrSuperseded) {
		phase = PhaseSuperseded
	}
	s.finish(phase, err)
	c.Log.Debugf("session %s: %v", s.ID, err)
	return err
}

func (c *Controller) classifyOpenError(s *Session, err error) error {
	if s.ctx.Err() != nil && !c.IsCurrent(s) {
		return ErrSuperseded
	}
	if apperrors.KindOf(err) != "" {
		return err
	}
	return apperrors.Wrap(apperrors.TransportError, "request failed", err)
}
