// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spiffcs/storefront/internal/constants"
)

// ansiRegex matches SGR escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of s in terminal columns, ignoring
// escape sequences and counting wide runes as two.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// TruncateToWidth shortens plain text to fit maxWidth columns, ending it
// with "..." when anything was cut. It returns the result and its width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	if maxWidth <= 0 {
		return "", 0
	}
	if w := runewidth.StringWidth(s); w <= maxWidth {
		return s, w
	}
	if maxWidth <= constants.TruncationSuffixWidth {
		out := runewidth.Truncate(s, maxWidth, "")
		return out, runewidth.StringWidth(out)
	}
	out := runewidth.Truncate(s, maxWidth, "...")
	return out, runewidth.StringWidth(out)
}

// PadRight pads s with spaces to targetWidth visible columns.
func PadRight(s string, targetWidth int) string {
	w := DisplayWidth(s)
	if w >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-w)
}

// Fit truncates and pads s to exactly width columns.
func Fit(s string, width int) string {
	out, _ := TruncateToWidth(s, width)
	return PadRight(out, width)
}

// SingleLine collapses runs of whitespace, including newlines, into one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
