// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// Console writes diagnostics to stderr. Debug output appears only when
// Verbose; Quiet drops warnings. All messages pass through Mask.
type Console struct {
	Verbose bool
	Quiet   bool
	Out     io.Writer

	mu sync.Mutex
}

// NewConsole returns a console logger writing to stderr for the config's
// log_level: "debug" enables debug lines, "error" silences warnings, and
// anything else ("info", "warn") prints warnings only.
func NewConsole(level string) *Console {
	c := &Console{Out: os.Stderr}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		c.Verbose = true
	case "error":
		c.Quiet = true
	}
	return c
}

func (c *Console) Debugf(format string, args ...any) {
	if c == nil || !c.Verbose {
		return
	}
	c.write(pterm.FgGray.Sprint("debug ") + Mask(fmt.Sprintf(format, args...)))
}

func (c *Console) Warnf(format string, args ...any) {
	if c == nil || c.Quiet {
		return
	}
	c.write(pterm.FgYellow.Sprint("warn  ") + Mask(fmt.Sprintf(format, args...)))
}

func (c *Console) write(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, line)
}
