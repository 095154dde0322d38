// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth signs the CLI in to the workbench server. The session cookie is
// kept in the OS keychain; a small State record remembers who signed in and
// where, so whoami works offline.
package auth

import (
	"context"
	"errors"
	"time"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/keychain"
)

// ErrNotLoggedIn is returned when no session cookie is stored.
var ErrNotLoggedIn = errors.New("not logged in; run 'nlsql login'")

// Service centralizes authentication against the backend and local storage.
type Service struct {
	be     backend.API
	km     *keychain.Manager
	store  *Store
	server string
	now    func() time.Time
}

// NewService constructs an auth Service.
func NewService(be backend.API, km *keychain.Manager, server string) *Service {
	return &Service{be: be, km: km, store: NewStore(km), server: server, now: time.Now}
}

// Login signs in and persists the session cookie and state.
func (s *Service) Login(ctx context.Context, username, password string) error {
	cookie, err := s.be.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.km.SaveSessionCookie(cookie); err != nil {
		return err
	}
	return s.store.Save(State{LoggedIn: true, Account: username, Server: s.server, LoggedInAt: s.now()})
}

// WhoAmI returns the signed-in account. It reports false when no cookie is
// stored, even if stale state remains.
func (s *Service) WhoAmI() (State, bool, error) {
	if _, err := s.km.LoadSessionCookie(); err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	st, err := s.store.Load()
	if err != nil {
		return State{}, false, err
	}
	return st, st.LoggedIn, nil
}

// SessionCookie returns the stored cookie or ErrNotLoggedIn.
func (s *Service) SessionCookie() (string, error) {
	c, err := s.km.LoadSessionCookie()
	if errors.Is(err, keychain.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	return c, err
}

// SaveSessionCookie stores a cookie the server rotated mid-session.
func (s *Service) SaveSessionCookie(value string) error {
	return s.km.SaveSessionCookie(value)
}

// Logout performs remote logout (best-effort) and always clears local state.
func (s *Service) Logout(ctx context.Context) error {
	remote := s.be.Logout(ctx)
	if err := s.store.Clear(); err != nil {
		return err
	}
	return remote
}

// ResetLocalAuth clears only local credentials/state (no remote calls).
func (s *Service) ResetLocalAuth() error {
	return s.store.Clear()
}
