package chapters

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized edit-distance ratio in [0,1] between
// two strings: 1 is an exact match after normalization, 0 shares
// nothing. Case and whitespace differences are ignored.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	dist := levenshtein.ComputeDistance(na, nb)
	longest := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

// titleMatchRatio scores a declared chapter title against page text.
// The first non-blank line is the primary signal; a title-length prefix
// of the page body is the secondary one.
func titleMatchRatio(title, pageText string) float64 {
	best := 0.0

	if line, ok := firstNonBlankLine(pageText); ok {
		best = Similarity(title, line)
	}

	// Headings sometimes wrap across lines; compare against a prefix of
	// the whole page of roughly the title's length.
	titleLen := utf8.RuneCountInString(normalize(title))
	body := []rune(normalize(pageText))
	if titleLen > 0 && len(body) > titleLen {
		if r := Similarity(title, string(body[:titleLen])); r > best {
			best = r
		}
	} else if len(body) > 0 {
		if r := Similarity(title, string(body)); r > best {
			best = r
		}
	}

	return best
}

// normalize lower-cases and collapses all whitespace runs to single
// spaces so layout differences don't count as edits.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// firstNonBlankLine returns the first line of text that contains a
// non-space character.
func firstNonBlankLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}
