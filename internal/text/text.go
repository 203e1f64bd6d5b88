// Package text provides the small text munging helpers used when
// assembling replies: word-boundary shortening for attachment previews and
// whitespace sanitization for AI output.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Placeholder marks the cut point of a shortened preview.
const Placeholder = "..."

// Shorten collapses whitespace in s and, if the result is longer than
// width, truncates it on a word boundary so that the text plus the
// placeholder fits in width. Text that already fits is returned without a
// placeholder.
func Shorten(s string, width int) string {
	words := strings.Fields(s)
	joined := strings.Join(words, " ")
	if len(joined) <= width {
		return joined
	}

	var out string
	for _, w := range words {
		candidate := out
		if candidate != "" {
			candidate += " "
		}
		candidate += w
		if len(candidate)+len(Placeholder) > width {
			break
		}
		out = candidate
	}
	if out == "" {
		// Even the first word does not fit next to the placeholder.
		n := width - len(Placeholder)
		if n <= 0 {
			return Placeholder
		}
		return joined[:n] + Placeholder
	}
	return out + Placeholder
}

var multipleNewlines = regexp.MustCompile(`\n{3,}`)

// Sanitize normalizes an answer for the chat: line endings become \n,
// whitespace runs within a line collapse to one space, and runs of three
// or more newlines collapse to a paragraph break.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = collapseSpaces(lines[i])
	}

	s = strings.Join(lines, "\n")
	s = multipleNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func collapseSpaces(line string) string {
	var b strings.Builder
	var space bool
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}
