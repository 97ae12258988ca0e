// Package tty detects terminal capabilities for the console package:
// whether stdout/stderr are real terminals and how wide they are.
package tty

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsStdoutTerminal reports whether stdout is attached to a terminal.
func IsStdoutTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// IsStderrTerminal reports whether stderr is attached to a terminal.
func IsStderrTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// defaultWidth is used when the terminal width can't be determined, e.g.
// when output is piped to a file or the command runs in CI.
const defaultWidth = 80

// Width returns the current stdout terminal width, or defaultWidth if
// stdout isn't a terminal or the size can't be queried.
func Width() int {
	if !IsStdoutTerminal() {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
