package chapters

// fromCandidates validates and renormalizes an external candidate list
// into a chapter partition. Returns nil when no candidate survives,
// signalling the caller to fall back to heuristics.
//
// Titles are trusted; only page-range correctness is authoritative.
// Inverted ranges, overlaps, and gaps are repaired first-wins: the
// earlier candidate's end_page holds, and the later candidate's
// start_page is pushed to end_page+1. The first chapter is stretched
// back to page 1 and the last forward to the final page so the result
// always covers the whole book.
func fromCandidates(pages []Page, candidates []Candidate, threshold float64) []Chapter {
	pageCount := len(pages)
	if len(candidates) == 0 {
		return nil
	}

	var chapters []Chapter
	prevEnd := 0
	for _, c := range candidates {
		start := prevEnd + 1
		if start > pageCount {
			// Earlier candidates already consumed every page.
			break
		}

		end := c.EndPage
		if end > pageCount {
			end = pageCount
		}
		if end < start {
			// Inverted or fully overlapped range; clip to a single page
			// rather than discarding the declared title.
			end = start
		}

		chapters = append(chapters, Chapter{
			Index:     len(chapters),
			Title:     c.Title,
			StartPage: start,
			EndPage:   end,
			Source:    SourceCandidates,
		})
		prevEnd = end
	}

	if len(chapters) == 0 {
		return nil
	}

	// Stretch the last chapter to cover trailing pages.
	chapters[len(chapters)-1].EndPage = pageCount

	// Sanity-check each declared title against its start page text.
	// A weak match flags the chapter unverified but never discards it.
	for i := range chapters {
		ratio := titleMatchRatio(chapters[i].Title, pageAt(pages, chapters[i].StartPage))
		// Neighboring pages catch off-by-one offsets between declared
		// and physical page numbers.
		if ratio < threshold {
			for _, n := range []int{chapters[i].StartPage - 1, chapters[i].StartPage + 1} {
				if r := titleMatchRatio(chapters[i].Title, pageAt(pages, n)); r > ratio {
					ratio = r
				}
			}
		}
		chapters[i].MatchRatio = ratio
		chapters[i].Verified = ratio >= threshold
	}

	return chapters
}

// pageAt returns the text of the 1-based page number n.
// Pages are contiguous from 1, so this is a direct index.
func pageAt(pages []Page, n int) string {
	if n < 1 || n > len(pages) {
		return ""
	}
	return pages[n-1].Text
}
