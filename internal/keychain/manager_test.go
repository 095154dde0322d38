// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func newTestManager() *Manager {
	return NewWithKeyring(keyring.NewArrayKeyring(nil))
}

func TestSessionCookieLifecycle(t *testing.T) {
	m := newTestManager()

	if _, err := m.LoadSessionCookie(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSessionCookie() on empty store error = %v, want ErrNotFound", err)
	}
	if err := m.SaveSessionCookie("abc123"); err != nil {
		t.Fatalf("SaveSessionCookie() error = %v", err)
	}
	if got, err := m.LoadSessionCookie(); err != nil || got != "abc123" {
		t.Fatalf("LoadSessionCookie() = %q, %v", got, err)
	}
	if err := m.SaveAuthState([]byte(`{"username":"alice"}`)); err != nil {
		t.Fatal(err)
	}

	if err := m.ClearAuth(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.LoadSessionCookie(); !errors.Is(err, ErrNotFound) {
		t.Errorf("cookie survived ClearAuth: %v", err)
	}
	if _, err := m.LoadAuthState(); !errors.Is(err, ErrNotFound) {
		t.Errorf("auth state survived ClearAuth: %v", err)
	}
}

func TestDSNIndependentOfAuth(t *testing.T) {
	m := newTestManager()
	if err := m.SaveDBDSN("postgres://u:p@localhost/db"); err != nil {
		t.Fatal(err)
	}
	_ = m.ClearAuth()

	got, err := m.LoadDBDSN()
	if err != nil || got != "postgres://u:p@localhost/db" {
		t.Fatalf("LoadDBDSN() = %q, %v", got, err)
	}
	_ = m.ClearDB()
	if _, err := m.LoadDBDSN(); !errors.Is(err, ErrNotFound) {
		t.Errorf("DSN survived ClearDB: %v", err)
	}
}

func TestClearMissingKeysIsNotAnError(t *testing.T) {
	m := newTestManager()
	if err := m.ClearAuth(); err != nil {
		t.Errorf("ClearAuth() error = %v", err)
	}
	if err := m.ClearDB(); err != nil {
		t.Errorf("ClearDB() error = %v", err)
	}
}
