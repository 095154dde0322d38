// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps nlsql secrets in the OS credential store: the server
// session cookie, the signed-in user's state and the local database DSN.
//
// macOS uses the native security command when available; other platforms go
// through 99designs/keyring with the platform's native backends.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "nlsql"

// Keys used for storing secrets in the OS keychain.
const (
	KeySessionCookie = "session_cookie"
	KeyAuthState     = "auth_state"
	KeyDBDSN         = "db_dsn"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("keychain: key not found")

// backend is the minimal store the manager needs.
type backend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe access to stored secrets.
type Manager struct {
	mu      sync.RWMutex
	backend backend
}

// NewManager opens the OS credential store.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if b, err := newSecurityBackend(); err == nil {
			return &Manager{backend: b}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewWithKeyring(ring), nil
}

// NewWithKeyring wraps an already opened keyring, for example keyring.NewArrayKeyring in tests.
func NewWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{backend: ringBackend{ring: ring}}
}

func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.KeyCtlBackend, keyring.PassBackend}
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		KeyCtlScope:     "user",
	})
	if err != nil {
		return nil, errors.New("no secure credential store available; install a Secret Service provider or 'pass'")
	}
	return ring, nil
}

// ringBackend adapts keyring.Keyring to backend.
type ringBackend struct {
	ring keyring.Keyring
}

func (r ringBackend) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (r ringBackend) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringBackend) Delete(key string) error {
	err := r.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Set(key, value)
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, err := m.backend.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Manager) remove(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		_ = m.backend.Delete(k)
	}
}

// SaveSessionCookie stores the server's session cookie value.
func (m *Manager) SaveSessionCookie(value string) error { return m.set(KeySessionCookie, value) }

// LoadSessionCookie returns the stored session cookie or ErrNotFound.
func (m *Manager) LoadSessionCookie() (string, error) { return m.get(KeySessionCookie) }

// SaveAuthState stores serialized auth state.
func (m *Manager) SaveAuthState(data []byte) error { return m.set(KeyAuthState, string(data)) }

// LoadAuthState returns serialized auth state or ErrNotFound.
func (m *Manager) LoadAuthState() ([]byte, error) {
	v, err := m.get(KeyAuthState)
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

// ClearAuth removes the session cookie and auth state.
func (m *Manager) ClearAuth() error {
	m.remove(KeySessionCookie, KeyAuthState)
	return nil
}

// SaveDBDSN stores the local database DSN used by --exec and train --from-db.
func (m *Manager) SaveDBDSN(dsn string) error { return m.set(KeyDBDSN, dsn) }

// LoadDBDSN returns the stored DSN or ErrNotFound.
func (m *Manager) LoadDBDSN() (string, error) { return m.get(KeyDBDSN) }

// ClearDB removes the stored DSN.
func (m *Manager) ClearDB() error {
	m.remove(KeyDBDSN)
	return nil
}
