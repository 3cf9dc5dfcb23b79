// Package textutil holds small text helpers for log output.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Preview condenses s into a single log-friendly line no wider than width
// terminal cells. Group payloads here are mostly Persian, so truncation has
// to count display width rather than bytes or runes.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
