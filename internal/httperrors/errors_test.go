// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"errors"
	"strings"
	"testing"

	apperrors "nlsql/cli/internal/errors"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperrors.Kind
		substr string
	}{
		{name: "unauthorized", status: 401, kind: apperrors.Unauthorized, substr: "HTTP 401 Unauthorized"},
		{name: "forbidden", status: 403, kind: apperrors.Unauthorized, substr: "HTTP 403"},
		{name: "not found", status: 404, body: "no such route", kind: apperrors.TransportError, substr: "no such route"},
		{name: "server error", status: 500, kind: apperrors.TransportError, substr: "HTTP 500"},
		{name: "long body truncated", status: 502, body: strings.Repeat("x", 500), kind: apperrors.TransportError, substr: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("ask", tt.status, []byte(tt.body))
			if got := apperrors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q", got, tt.kind)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not contain %q", err, tt.substr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap("ask", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	cause := errors.New("connection refused")
	err := Wrap("ask", cause)
	if !apperrors.Is(err, apperrors.TransportError) || !errors.Is(err, cause) {
		t.Errorf("Wrap() = %v", err)
	}
}

func TestClassifiers(t *testing.T) {
	if !isConnectionRefusedError(errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")) {
		t.Error("connection refused not recognised")
	}
	if !isTimeoutError(errors.New("context deadline exceeded")) {
		t.Error("deadline not recognised as timeout")
	}
	if !isServerError(FromStatus("ask", 503, nil).Error()) {
		t.Error("5xx not recognised as server error")
	}
	if isServerError(FromStatus("ask", 404, nil).Error()) {
		t.Error("404 recognised as server error")
	}
}

func TestExtractHostFromURL(t *testing.T) {
	if got := ExtractHostFromURL("http://127.0.0.1:5000/api"); got != "127.0.0.1:5000" {
		t.Errorf("got %q", got)
	}
	if got := ExtractHostFromURL("not a url"); got != "server" {
		t.Errorf("got %q", got)
	}
}
