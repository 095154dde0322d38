// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// securityBackend stores secrets with the macOS security command.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{}, nil
}

func (s *securityBackend) run(args ...string) (string, string, error) {
	cmd := exec.Command("security", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (s *securityBackend) Set(key, value string) error {
	_ = s.Delete(key)
	// -U updates in place if the item survived the delete.
	if _, stderr, err := s.run("add-generic-password", "-a", ServiceName, "-s", key, "-w", value, "-U"); err != nil {
		return fmt.Errorf("failed to store '%s' in keychain: %s: %w", key, strings.TrimSpace(stderr), err)
	}
	return nil
}

func (s *securityBackend) Get(key string) (string, error) {
	stdout, stderr, err := s.run("find-generic-password", "-a", ServiceName, "-s", key, "-w")
	if err != nil {
		if strings.Contains(stderr, "could not be found") {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keychain: %s: %w", strings.TrimSpace(stderr), err)
	}
	return strings.TrimSpace(stdout), nil
}

func (s *securityBackend) Delete(key string) error {
	_, stderr, err := s.run("delete-generic-password", "-a", ServiceName, "-s", key)
	if err != nil && !strings.Contains(stderr, "could not be found") {
		return fmt.Errorf("failed to delete from keychain: %s: %w", strings.TrimSpace(stderr), err)
	}
	return nil
}
