// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nlsql/cli/internal/auth"
	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/config"
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/keychain"
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/manifest"
	"nlsql/cli/internal/stream"
	"nlsql/cli/internal/xdg"
)

// app bundles the services one command invocation needs.
type app struct {
	cfg     config.Config
	log     *logging.Console
	km      *keychain.Manager
	api     backend.API
	auth    *auth.Service
	streams *stream.Controller
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if s := strings.TrimSpace(serverFlag); s != "" {
		cfg.ServerURL = s
	}
	if d := strings.TrimSpace(datasetFlag); d != "" {
		cfg.ActiveDataset = d
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return cfg, nil
}

// logLevel is the config's log_level, raised to debug by --verbose or NLSQL_VERBOSE=1.
func logLevel(cfg config.Config) string {
	if verboseFlag || os.Getenv("NLSQL_VERBOSE") == "1" {
		return "debug"
	}
	return cfg.LogLevel
}

// newApp wires config, keychain, backend client and stream controller.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logging.NewConsole(logLevel(cfg))

	km, err := keychain.NewManager()
	if err != nil {
		pterm.Error.Println("Secure storage is not available on this system.")
		return nil, reportedError{err}
	}

	endpoints, unknown := manifest.Resolve(cfg.Endpoints)
	for _, key := range unknown {
		log.Warnf("config: ignoring unknown endpoint %q", key)
	}

	cookie, err := km.LoadSessionCookie()
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		log.Warnf("keychain: could not read session: %v", err)
	}

	api := backend.New(backend.Options{
		BaseURL:   cfg.ServerURL,
		Endpoints: endpoints,
		Cookie:    cookie,
		DatasetID: cfg.ActiveDataset,
		OnCookie: func(value string) {
			if err := km.SaveSessionCookie(value); err != nil {
				log.Warnf("keychain: could not save rotated session: %v", err)
			}
		},
	})
	log.Debugf("server %s, dataset %q", cfg.ServerURL, cfg.ActiveDataset)

	return &app{
		cfg:     cfg,
		log:     log,
		km:      km,
		api:     api,
		auth:    auth.NewService(api, km, cfg.ServerURL),
		streams: stream.NewController(cfg.IdleTimeout, log),
	}, nil
}

// requireLogin stops the command with a hint when no session is stored.
func (a *app) requireLogin() error {
	if _, err := a.auth.SessionCookie(); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			pterm.Warning.Println("You need to be logged in first.")
			pterm.Println("   Please run: nlsql login")
			return reportedError{err}
		}
		return err
	}
	return nil
}

// requireDataset stops the command when no dataset is selected.
func (a *app) requireDataset() error {
	if a.cfg.ActiveDataset != "" {
		return nil
	}
	pterm.Warning.Println("No dataset selected.")
	pterm.Println("   Please run: nlsql use <dataset-id>")
	return reportedError{errors.New("no active dataset")}
}

// openHistory opens the history store, or returns nil when history is
// disabled or unavailable.
func (a *app) openHistory() *history.Store {
	if !a.cfg.History.Enabled {
		return nil
	}
	dir, err := xdg.StateDir()
	if err != nil {
		a.log.Debugf("history: %v", err)
		return nil
	}
	st, err := history.Open(filepath.Join(dir, history.FileName))
	if err != nil {
		a.log.Warnf("history: %v", err)
		return nil
	}
	return st
}
