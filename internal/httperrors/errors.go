// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns HTTP and network failures into typed errors and
// prints troubleshooting hints for the ones a user can act on.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	apperrors "nlsql/cli/internal/errors"
)

// maxBodyExcerpt bounds how much of an error body is kept in messages.
const maxBodyExcerpt = 200

// FromStatus maps a non-2xx response to a typed error. 401 and 403 become
// Unauthorized; everything else is a TransportError carrying the status.
func FromStatus(op string, status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > maxBodyExcerpt {
		excerpt = excerpt[:maxBodyExcerpt] + "..."
	}
	msg := fmt.Sprintf("%s: HTTP %d %s", op, status, http.StatusText(status))
	if excerpt != "" {
		msg += ": " + excerpt
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperrors.New(apperrors.Unauthorized, msg)
	}
	return apperrors.New(apperrors.TransportError, msg)
}

// Wrap tags a client-side request failure as a TransportError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.TransportError, op, err)
}

// FormatNetworkError prints a hint for recognisable network failures and
// returns err wrapped for logging.
func FormatNetworkError(err error, context, server string) error {
	if err == nil {
		return nil
	}
	displayErrorMessage(err, context, ExtractHostFromURL(server))
	return fmt.Errorf("network error: %w", err)
}

func displayErrorMessage(err error, context, host string) {
	switch {
	case apperrors.Is(err, apperrors.Unauthorized):
		showUnauthorized(context)
	case isTimeoutError(err):
		showTimeoutError(context)
	case isDNSError(err):
		showDNSError(context, host)
	case isConnectionRefusedError(err):
		showConnectionRefusedError(context, host)
	case isSSLError(err):
		showSSLError(context)
	case isServerError(err.Error()):
		showServerError(context)
	default:
		showGenericError(context, host, err.Error())
	}
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate")
}

// isServerError matches the "HTTP 5xx" marker FromStatus writes.
func isServerError(errStr string) bool {
	return strings.Contains(errStr, "HTTP 5")
}

func showUnauthorized(context string) {
	pterm.Printf("🔑 Not signed in while %s\n", context)
	pterm.Println()
	pterm.Println("The server rejected the saved session. Run 'nlsql login' first.")
	pterm.Println()
}

func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The server took too long to respond. It may still be loading a model.")
	pterm.Println("Please try again in a few moments.")
	pterm.Println()
}

func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve server address while %s\n", context)
	pterm.Println()
	pterm.Printf("Unable to look up %s. Check the server URL with 'nlsql --server'.\n", host)
	pterm.Println()
}

func showConnectionRefusedError(context, host string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Printf("Nothing is listening on %s. This could mean:\n", host)
	pterm.Println("  • The NL-to-SQL server is not running")
	pterm.Println("  • The configured port is wrong")
	pterm.Println()
}

func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("The server certificate could not be verified. Check the URL scheme and your system clock.")
	pterm.Println()
}

func showServerError(context string) {
	pterm.Printf("⚠️  Server error while %s\n", context)
	pterm.Println()
	pterm.Println("The server failed to handle the request. Its own log has the traceback.")
	pterm.Println()
}

func showGenericError(context, host, errDetails string) {
	pterm.Printf("❌ Cannot reach %s while %s\n", host, context)
	pterm.Println()
	if errDetails != "" {
		shortErr := errDetails
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
