package extract

import "strings"

// StripRunningLines removes the most common first and last line across
// pages (running headers and page footers) from every page they appear
// on. A line must repeat on at least two pages to be treated as a
// running line, so single-page books keep their content intact.
func StripRunningLines(pages []string) []string {
	headerCounts := make(map[string]int)
	footerCounts := make(map[string]int)

	split := make([][]string, len(pages))
	for i, text := range pages {
		lines := strings.Split(text, "\n")
		split[i] = lines
		// Pages with only a couple of lines are usually all content.
		if len(lines) > 2 {
			headerCounts[strings.TrimSpace(lines[0])]++
			footerCounts[strings.TrimSpace(lines[len(lines)-1])]++
		}
	}

	header := mostCommon(headerCounts)
	footer := mostCommon(footerCounts)

	result := make([]string, len(pages))
	for i, lines := range split {
		if header != "" && len(lines) > 0 && strings.TrimSpace(lines[0]) == header {
			lines = lines[1:]
		}
		if footer != "" && len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == footer {
			lines = lines[:len(lines)-1]
		}
		result[i] = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return result
}

// mostCommon returns the most frequent non-empty line appearing at
// least twice, or "".
func mostCommon(counts map[string]int) string {
	best := ""
	bestCount := 1
	for line, count := range counts {
		if line == "" {
			continue
		}
		if count > bestCount || (count == bestCount && best != "" && line < best) {
			best = line
			bestCount = count
		}
	}
	return best
}
