package processing

import (
	"regexp"
	"strings"
)

var (
	multiNewline  = regexp.MustCompile(`\n{3,}`)
	intraLineWS   = regexp.MustCompile(`[ \t]+`)
	anyWhitespace = regexp.MustCompile(`\s+`)
)

// normalizeBody normalizes a unit body while preserving its line structure:
// runs of 3+ newlines collapse to a paragraph break, runs of spaces/tabs
// within a line collapse to one space, every line is stripped.
func normalizeBody(text string) string {
	text = strings.TrimRight(text, " \t\n\r")
	text = multiNewline.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(intraLineWS.ReplaceAllString(line, " "))
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CleanText flattens text for storage and display: all whitespace
// (including newlines) collapses to single spaces and dash variants
// normalize to the ASCII hyphen. The segmenter does NOT use this; it keeps
// line structure for hierarchy purposes.
func CleanText(text string) string {
	text = anyWhitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "–", "-") // En-dash
	text = strings.ReplaceAll(text, "—", "-") // Em-dash
	return text
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
