// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"time"

	"nlsql/cli/internal/manifest"
)

// Options configures the HTTP client.
type Options struct {
	BaseURL   string
	Endpoints manifest.HTTPEndpoints
	// Cookie is the stored session cookie value, if any.
	Cookie string
	// DatasetID is sent as X-Dataset-Id when non-empty.
	DatasetID string
	// OnCookie is called when the server rotates the session cookie.
	OnCookie func(value string)
	// Timeout bounds non-streaming calls. Zero means 10 seconds.
	Timeout time.Duration
}

// New creates a backend API implementation talking HTTP to the workbench server.
func New(opts Options) API {
	return newHTTP(opts)
}
