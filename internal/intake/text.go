// Package intake turns raw notes and unread mail into input lines for
// analysis.
package intake

import (
	"regexp"
	"strings"
)

var (
	bulletPrefix   = regexp.MustCompile(`^(-|\*|•|·)\s+`)
	parenNumPrefix = regexp.MustCompile(`^\d+\)\s+`)
	dotNumPrefix   = regexp.MustCompile(`^\d+\.\s+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// NormalizeLines splits raw into trimmed, non-empty lines with one leading
// bullet ("- ", "* ", "• ", "· ") or list number ("1) ", "1. ") removed.
func NormalizeLines(raw string) []string {
	lines := []string{}
	for _, line := range strings.Split(raw, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		s = bulletPrefix.ReplaceAllString(s, "")
		s = parenNumPrefix.ReplaceAllString(s, "")
		s = dotNumPrefix.ReplaceAllString(s, "")
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// MergeDuplicates drops lines that repeat an earlier line, ignoring case and
// differences in whitespace. The first spelling is kept.
func MergeDuplicates(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, s := range lines {
		key := strings.ToLower(strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " ")))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Prepare is NormalizeLines followed by MergeDuplicates.
func Prepare(raw string) []string {
	return MergeDuplicates(NormalizeLines(raw))
}

// Condense collapses text to a single line of at most limit runes.
func Condense(text string, limit int) string {
	s := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if r := []rune(s); limit > 0 && len(r) > limit {
		s = strings.TrimSpace(string(r[:limit])) + "…"
	}
	return s
}
