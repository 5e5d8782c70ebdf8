package chapters

import (
	"strings"
	"unicode"
)

// fromHeadings detects chapter starts by scanning each page's first
// non-blank line. A page opens a chapter when that line begins with a
// "chapter" prefix (case-insensitive) or is entirely upper-case. When a
// page holds more than one heading-looking line, the earliest line wins
// and the rest of the page belongs to the chapter it opens.
//
// Returns nil when no heading is found, signalling the caller to fall
// back to default chunking.
func fromHeadings(pages []Page) []Chapter {
	var chapters []Chapter
	for _, p := range pages {
		line, ok := firstNonBlankLine(p.Text)
		if !ok || !isHeadingLine(line) {
			continue
		}

		if len(chapters) > 0 {
			chapters[len(chapters)-1].EndPage = p.Number - 1
		}
		chapters = append(chapters, Chapter{
			Index:     len(chapters),
			Title:     truncateTitle(line, MaxTitleLen),
			StartPage: p.Number,
			Source:    SourceHeuristic,
		})
	}

	if len(chapters) == 0 {
		return nil
	}

	// Front matter before the first heading folds into the first
	// chapter; the last chapter runs to the end of the book.
	chapters[0].StartPage = 1
	chapters[len(chapters)-1].EndPage = len(pages)
	return chapters
}

// isHeadingLine reports whether a line looks like a chapter heading:
// a case-insensitive "chapter" prefix, or all-caps text.
func isHeadingLine(line string) bool {
	if strings.HasPrefix(strings.ToLower(line), "chapter") {
		return true
	}
	return isAllUpper(line)
}

// isAllUpper reports whether s contains at least one letter and no
// lower-case letters.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// truncateTitle shortens a heading to a displayable length.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
