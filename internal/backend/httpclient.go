// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "nlsql/cli/internal/errors"
	"nlsql/cli/internal/httperrors"
	"nlsql/cli/internal/manifest"
)

// SessionCookie is the name of the workbench server's session cookie.
const SessionCookie = "session"

// DatasetHeader carries the active dataset id.
const DatasetHeader = "X-Dataset-Id"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTP implements API over the workbench REST and streaming endpoints.
type HTTP struct {
	baseURL   string
	endpoints manifest.HTTPEndpoints
	datasetID string
	onCookie  func(string)

	// client serves plain calls; stream has no overall timeout because the
	// session controller bounds each read with its idle timeout.
	client *http.Client
	stream *http.Client

	mu     sync.Mutex
	cookie string
}

func newHTTP(opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	noRedirect := func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &HTTP{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		endpoints: opts.Endpoints,
		datasetID: opts.DatasetID,
		onCookie:  opts.OnCookie,
		cookie:    opts.Cookie,
		client:    &http.Client{Timeout: timeout, CheckRedirect: noRedirect},
		stream:    &http.Client{CheckRedirect: noRedirect},
	}
}

// Cookie returns the current session cookie value.
func (h *HTTP) Cookie() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cookie
}

func (h *HTTP) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c := h.Cookie(); c != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c})
	}
	if h.datasetID != "" {
		req.Header.Set(DatasetHeader, h.datasetID)
	}
	return req, nil
}

// do sends req, records a rotated session cookie and maps failures to typed errors.
// On success the caller owns resp.Body.
func (h *HTTP) do(c *http.Client, op string, req *http.Request) (*http.Response, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, httperrors.Wrap(op, err)
	}
	h.captureCookie(resp)
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		resp.Body.Close()
		// login_required answers with a redirect to the login page.
		return nil, apperrors.New(apperrors.Unauthorized, op+": session expired, redirected to "+resp.Header.Get("Location"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, httperrors.FromStatus(op, resp.StatusCode, errorMessage(b))
	}
	return resp, nil
}

func (h *HTTP) captureCookie(resp *http.Response) {
	for _, c := range resp.Cookies() {
		if c.Name != SessionCookie || c.Value == "" {
			continue
		}
		h.mu.Lock()
		changed := h.cookie != c.Value
		h.cookie = c.Value
		h.mu.Unlock()
		if changed && h.onCookie != nil {
			h.onCookie(c.Value)
		}
	}
}

// errorMessage prefers the "message" field of a JSON error body.
func errorMessage(body []byte) []byte {
	var out struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &out) == nil && out.Message != "" {
		return []byte(out.Message)
	}
	return body
}

// postJSON sends in as a JSON body and decodes the response into out.
func (h *HTTP) postJSON(ctx context.Context, op, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := h.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.do(h.client, op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.TransportError, op+": invalid JSON response", err)
	}
	return nil
}
