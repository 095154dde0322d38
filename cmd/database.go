// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"

	"nlsql/cli/internal/keychain"
)

// dsnSource names where a DSN was found, for display.
type dsnSource string

const (
	sourceEnvDSN      dsnSource = "NLSQL_DSN environment variable"
	sourceDatabaseURL dsnSource = "DATABASE_URL environment variable"
	sourceKeychain    dsnSource = "OS keychain"
)

// errNoDSN is returned when no database connection is configured.
var errNoDSN = errors.New("no database connection configured; run 'nlsql connect'")

// resolveDSN looks in NLSQL_DSN, then DATABASE_URL, then the keychain.
func resolveDSN(km *keychain.Manager) (string, dsnSource, error) {
	if v := strings.TrimSpace(os.Getenv("NLSQL_DSN")); v != "" {
		return v, sourceEnvDSN, nil
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v, sourceDatabaseURL, nil
	}
	v, err := km.LoadDBDSN()
	if errors.Is(err, keychain.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return "", "", errNoDSN
	}
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(v), sourceKeychain, nil
}

// openPool connects to dsn and verifies it with a ping.
func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(pingCtx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connectDB resolves the configured DSN and opens a pool, printing a hint
// when nothing usable is configured.
func (a *app) connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	raw, source, err := resolveDSN(a.km)
	if err != nil {
		if errors.Is(err, errNoDSN) {
			pterm.Warning.Println("No database connection configured.")
			pterm.Println("   Please run: nlsql connect")
			return nil, reportedError{err}
		}
		return nil, err
	}
	a.log.Debugf("database from %s", source)
	pool, err := openPool(ctx, raw)
	if err != nil {
		pterm.Error.Println("Could not connect to the database. Check the connection with: nlsql dbinfo")
		return nil, reportedError{err}
	}
	return pool, nil
}
