// Package detector provides environment detection for color selection.
package detector

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ColorMode is the user's choice for colored build and log output.
type ColorMode string

const (
	// ColorAuto enables colors when the output is an interactive terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces colors on.
	ColorAlways ColorMode = "always"
	// ColorNever forces colors off.
	ColorNever ColorMode = "never"
)

// fder is implemented by writers backed by a file descriptor.
type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// IsCI reports whether the process runs under a CI system.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// DetectColor reports whether colored output should be used for w.
func DetectColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(w) && !IsCI()
}

// ResolveColor applies the user override flag to auto-detection.
// userFlag should be one of: "auto", "always", "never", or empty.
func ResolveColor(autoDetected bool, userFlag string) bool {
	switch ColorMode(userFlag) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto, "":
		return autoDetected
	default:
		return autoDetected
	}
}
