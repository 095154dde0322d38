// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"errors"
	"time"

	"nlsql/cli/internal/keychain"
)

// State is the persisted sign-in state for the current user.
type State struct {
	LoggedIn   bool      `json:"logged_in"`
	Account    string    `json:"account"`
	Server     string    `json:"server"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Store persists State in the keychain next to the session cookie.
type Store struct {
	km *keychain.Manager
}

// NewStore returns a store backed by km.
func NewStore(km *keychain.Manager) *Store { return &Store{km: km} }

// Load reads the state. Missing state yields the zero value.
func (s *Store) Load() (State, error) {
	var st State
	data, err := s.km.LoadAuthState()
	if errors.Is(err, keychain.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save writes the state.
func (s *Store) Save(st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.km.SaveAuthState(b)
}

// Clear removes the state and the session cookie.
func (s *Store) Clear() error {
	return s.km.ClearAuth()
}
