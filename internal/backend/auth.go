// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "nlsql/cli/internal/errors"
	"nlsql/cli/internal/httperrors"
)

// Login posts the login form. The server answers a good login with a
// redirect carrying the session cookie and a bad one with the form again.
func (h *HTTP) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+h.endpoints.Login, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.client.Do(req)
	if err != nil {
		return "", httperrors.Wrap("login", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 400 {
		return "", httperrors.FromStatus("login", resp.StatusCode, nil)
	}
	if resp.StatusCode < 300 {
		return "", apperrors.New(apperrors.Unauthorized, "invalid username or password")
	}
	h.captureCookie(resp)
	cookie := h.Cookie()
	if cookie == "" {
		return "", apperrors.New(apperrors.Unauthorized, "login succeeded but no session cookie was set")
	}
	return cookie, nil
}

// Logout clears the server-side session. The server redirects to the login
// page afterwards, which counts as success here.
func (h *HTTP) Logout(ctx context.Context) error {
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.Logout, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return httperrors.Wrap("logout", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return httperrors.FromStatus("logout", resp.StatusCode, nil)
	}
	return nil
}
