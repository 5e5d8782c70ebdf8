// Package chapters resolves chapter boundaries for a book.
//
// Resolution tries three strategies in order: externally supplied
// candidates (AI metadata or a loaded table of contents), heading
// heuristics over page text, and fixed-size chunking. Whichever path
// is taken, the resolved chapters partition [1, page_count] exactly.
package chapters

import (
	"errors"
	"fmt"
)

// Source identifies which resolution path produced a chapter.
type Source string

const (
	// SourceCandidates indicates the chapter came from an external candidate list.
	SourceCandidates Source = "candidates"
	// SourceHeuristic indicates the chapter came from heading detection.
	SourceHeuristic Source = "heuristic"
	// SourceChunking indicates the chapter came from default chunking.
	SourceChunking Source = "chunking"
)

// MatchThreshold is the default minimum fuzzy title match ratio for a
// candidate to be considered verified against its start page. Callers
// can override it per resolution via ResolveWithThreshold.
const MatchThreshold = 0.6

// MaxTitleLen is the display length heuristic titles are truncated to.
const MaxTitleLen = 80

var (
	// ErrNoPages is returned when resolution is attempted over an empty book.
	ErrNoPages = errors.New("no pages to resolve")

	// ErrValidation marks a chapter set that fails range or contiguity
	// checks. Renormalization repairs candidate input, so it only
	// surfaces when the resolved result cannot cover the book.
	ErrValidation = errors.New("invalid chapter partition")
)

// Page is one extracted page of input text. Numbers are 1-based and
// contiguous.
type Page struct {
	Number int
	Text   string
}

// Candidate is an unverified {title, start_page, end_page} triple
// proposed by an external metadata source.
type Candidate struct {
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// Chapter is a resolved chapter boundary. Indexes are 0-based;
// StartPage/EndPage are inclusive and 1-based.
type Chapter struct {
	Index      int
	Title      string
	StartPage  int
	EndPage    int
	Source     Source
	Verified   bool
	MatchRatio float64
}

// Resolve produces the final ordered chapter list for a book.
//
// Candidates are used when present and usable; otherwise heading
// heuristics, then default chunking. Resolution is a pure function of
// its inputs. The returned chapters are 0-indexed, contiguous,
// non-overlapping, and cover exactly [1, len(pages)]. A violation of
// that post-condition is an internal error, not recoverable input
// trouble.
func Resolve(pages []Page, candidates []Candidate) ([]Chapter, error) {
	return ResolveWithThreshold(pages, candidates, MatchThreshold)
}

// ResolveWithThreshold is Resolve with an explicit fuzzy verification
// threshold in (0,1]. A threshold outside that range falls back to
// MatchThreshold.
func ResolveWithThreshold(pages []Page, candidates []Candidate, threshold float64) ([]Chapter, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = MatchThreshold
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	chapters := fromCandidates(pages, candidates, threshold)
	if len(chapters) == 0 {
		chapters = fromHeadings(pages)
	}
	if len(chapters) == 0 {
		chapters = fromChunks(len(pages))
	}

	if err := verifyPartition(chapters, len(pages)); err != nil {
		return nil, fmt.Errorf("internal: resolved chapters violate page coverage: %w", err)
	}
	return chapters, nil
}

// verifyPartition checks that chapters form a contiguous, monotonically
// increasing partition of [1, pageCount] in index order. Failures wrap
// ErrValidation.
func verifyPartition(chapters []Chapter, pageCount int) error {
	if len(chapters) == 0 {
		return fmt.Errorf("%w: no chapters for %d pages", ErrValidation, pageCount)
	}

	next := 1
	for i, ch := range chapters {
		if ch.Index != i {
			return fmt.Errorf("%w: chapter %d has index %d", ErrValidation, i, ch.Index)
		}
		if ch.StartPage != next {
			return fmt.Errorf("%w: chapter %d starts at page %d, want %d", ErrValidation, i, ch.StartPage, next)
		}
		if ch.EndPage < ch.StartPage {
			return fmt.Errorf("%w: chapter %d range inverted: %d-%d", ErrValidation, i, ch.StartPage, ch.EndPage)
		}
		next = ch.EndPage + 1
	}
	if next != pageCount+1 {
		return fmt.Errorf("%w: chapters end at page %d, want %d", ErrValidation, next-1, pageCount)
	}
	return nil
}
