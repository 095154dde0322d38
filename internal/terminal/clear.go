// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides small helpers over the controlling terminal:
// its width, whether stdout is interactive, hidden input and clearing
// previously printed prompts.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// defaultWidth is used when the terminal size cannot be determined.
const defaultWidth = 80

// Width returns the current terminal width, or 80 when unavailable.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}

// IsInteractive reports whether stdout is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// LinesFor returns how many terminal rows text occupies at the given width,
// counting wrapped lines.
func LinesFor(text string, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	total := 0
	for _, line := range strings.Split(text, "\n") {
		n := int(math.Ceil(float64(utf8.RuneCountInString(line)) / float64(width)))
		if n < 1 {
			n = 1
		}
		total += n
	}
	return total
}

// ClearPreviousLines clears text from the terminal that was previously printed.
// textLength is the number of characters in the prompt plus the user's input.
// One extra line is cleared for the newline the user typed.
func ClearPreviousLines(textLength int) {
	termWidth := Width()

	totalLines := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if totalLines < 1 {
		totalLines = 1
	}
	linesToClear := totalLines + 1

	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A")
		}
	}
}

// Prompt prints label and reads one trimmed line from r.
func Prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret prints label and reads a line without echo when stdin is a
// terminal. Piped input is read as a plain line.
func ReadSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Prompt(bufio.NewReader(os.Stdin), label)
	}
	fmt.Print(label)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
