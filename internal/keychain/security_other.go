// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import "errors"

var errNoSecurityCommand = errors.New("security command only available on macOS")

// securityBackend is unavailable off macOS; NewManager falls back to keyring.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) { return nil, errNoSecurityCommand }

func (s *securityBackend) Set(string, string) error   { return errNoSecurityCommand }
func (s *securityBackend) Get(string) (string, error) { return "", errNoSecurityCommand }
func (s *securityBackend) Delete(string) error        { return errNoSecurityCommand }
