package chapters

import (
	"errors"
	"fmt"
	"testing"
)

// makePages builds n pages of unremarkable body text.
func makePages(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Number: i + 1, Text: fmt.Sprintf("some plain body text on page %d", i+1)}
	}
	return pages
}

// checkPartition asserts the resolved chapters cover [1, pageCount]
// exactly, in order, with 0-based contiguous indexes.
func checkPartition(t *testing.T, chapters []Chapter, pageCount int) {
	t.Helper()
	if len(chapters) == 0 {
		t.Fatal("no chapters resolved")
	}
	next := 1
	for i, ch := range chapters {
		if ch.Index != i {
			t.Errorf("chapter %d: index = %d, want %d", i, ch.Index, i)
		}
		if ch.StartPage != next {
			t.Errorf("chapter %d: start = %d, want %d", i, ch.StartPage, next)
		}
		if ch.EndPage < ch.StartPage {
			t.Errorf("chapter %d: inverted range %d-%d", i, ch.StartPage, ch.EndPage)
		}
		next = ch.EndPage + 1
	}
	if next != pageCount+1 {
		t.Errorf("chapters end at %d, want %d", next-1, pageCount)
	}
}

func TestResolveEmptyBook(t *testing.T) {
	if _, err := Resolve(nil, nil); !errors.Is(err, ErrNoPages) {
		t.Fatalf("Resolve(nil) error = %v, want ErrNoPages", err)
	}
}

func TestResolveChunkingFallback(t *testing.T) {
	pages := makePages(95)

	chapters, err := Resolve(pages, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 95)

	// 95 pages with chunk size max(10, 95/10) = 10.
	if len(chapters) != 10 {
		t.Fatalf("len(chapters) = %d, want 10", len(chapters))
	}
	if chapters[0].StartPage != 1 || chapters[0].EndPage != 10 {
		t.Errorf("first chunk = [%d,%d], want [1,10]", chapters[0].StartPage, chapters[0].EndPage)
	}
	last := chapters[9]
	if last.StartPage != 91 || last.EndPage != 95 {
		t.Errorf("last chunk = [%d,%d], want [91,95]", last.StartPage, last.EndPage)
	}
	for _, ch := range chapters {
		if ch.Source != SourceChunking {
			t.Errorf("chapter %d source = %q, want chunking", ch.Index, ch.Source)
		}
	}
	if chapters[2].Title != "Chapter 3" {
		t.Errorf("chapter 2 title = %q, want Chapter 3", chapters[2].Title)
	}
}

func TestResolveSmallBookSingleChunk(t *testing.T) {
	chapters, err := Resolve(makePages(7), nil)
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 7)
	if len(chapters) != 1 {
		t.Fatalf("len(chapters) = %d, want 1", len(chapters))
	}
}

func TestResolveOverlapRepairedFirstWins(t *testing.T) {
	pages := makePages(20)
	candidates := []Candidate{
		{Title: "One", StartPage: 1, EndPage: 10},
		{Title: "Two", StartPage: 8, EndPage: 20},
	}

	chapters, err := Resolve(pages, candidates)
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 20)

	if len(chapters) != 2 {
		t.Fatalf("len(chapters) = %d, want 2", len(chapters))
	}
	if chapters[0].EndPage != 10 {
		t.Errorf("first chapter end = %d, want 10 (earlier end holds)", chapters[0].EndPage)
	}
	if chapters[1].StartPage != 11 {
		t.Errorf("second chapter start = %d, want 11", chapters[1].StartPage)
	}
}

func TestResolveGapClosed(t *testing.T) {
	chapters, err := Resolve(makePages(20), []Candidate{
		{Title: "One", StartPage: 1, EndPage: 5},
		{Title: "Two", StartPage: 9, EndPage: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 20)
	if chapters[1].StartPage != 6 {
		t.Errorf("second chapter start = %d, want 6", chapters[1].StartPage)
	}
}

func TestResolveConsumedCandidatesDropped(t *testing.T) {
	// The first candidate claims the whole book; later ones have no
	// pages left and are dropped.
	chapters, err := Resolve(makePages(10), []Candidate{
		{Title: "Everything", StartPage: 1, EndPage: 10},
		{Title: "Leftover", StartPage: 11, EndPage: 12},
	})
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 10)
	if len(chapters) != 1 {
		t.Fatalf("len(chapters) = %d, want 1", len(chapters))
	}
	if chapters[0].Title != "Everything" {
		t.Errorf("title = %q, want Everything", chapters[0].Title)
	}
}

func TestResolveLastChapterStretched(t *testing.T) {
	chapters, err := Resolve(makePages(30), []Candidate{
		{Title: "One", StartPage: 1, EndPage: 12},
		{Title: "Two", StartPage: 13, EndPage: 25},
	})
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 30)
	if chapters[1].EndPage != 30 {
		t.Errorf("last chapter end = %d, want 30", chapters[1].EndPage)
	}
}

func TestResolveInvertedRangeClipped(t *testing.T) {
	chapters, err := Resolve(makePages(10), []Candidate{
		{Title: "One", StartPage: 1, EndPage: 5},
		{Title: "Backwards", StartPage: 9, EndPage: 3},
		{Title: "Rest", StartPage: 7, EndPage: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 10)
	if len(chapters) != 3 {
		t.Fatalf("len(chapters) = %d, want 3", len(chapters))
	}
	if chapters[1].StartPage != 6 || chapters[1].EndPage != 6 {
		t.Errorf("clipped chapter = [%d,%d], want [6,6]",
			chapters[1].StartPage, chapters[1].EndPage)
	}
}

func TestResolveFuzzyVerification(t *testing.T) {
	pages := makePages(10)
	pages[4].Text = "The Storm\n\nRain hammered the windows all night."

	chapters, err := Resolve(pages, []Candidate{
		{Title: "Calm Before", StartPage: 1, EndPage: 4},
		{Title: "The Storm", StartPage: 5, EndPage: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 10)

	storm := chapters[1]
	if !storm.Verified {
		t.Errorf("exact heading match not verified (ratio %.2f)", storm.MatchRatio)
	}
	if storm.MatchRatio < MatchThreshold {
		t.Errorf("ratio = %.2f, want >= %.2f", storm.MatchRatio, MatchThreshold)
	}

	// The first title appears nowhere; the chapter is kept but flagged.
	if chapters[0].Verified {
		t.Errorf("unmatched title verified (ratio %.2f)", chapters[0].MatchRatio)
	}
}

func TestResolveFuzzyNeighborPage(t *testing.T) {
	// Declared start is off by one from where the heading actually sits.
	pages := makePages(10)
	pages[5].Text = "The Storm\n\nRain hammered the windows."

	chapters, err := Resolve(pages, []Candidate{
		{Title: "Opening", StartPage: 1, EndPage: 4},
		{Title: "The Storm", StartPage: 5, EndPage: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !chapters[1].Verified {
		t.Errorf("off-by-one heading not verified (ratio %.2f)", chapters[1].MatchRatio)
	}
}

func TestResolveWithThreshold(t *testing.T) {
	// A near-miss heading: "One" spelled out in the candidate, a digit
	// on the page. The ratio lands well above the default threshold but
	// below a strict one.
	pages := makePages(10)
	pages[0].Text = "Chapter 1: The Beginning\nIt was a quiet morning."
	candidates := []Candidate{
		{Title: "Chapter One: The Beginning", StartPage: 1, EndPage: 10},
	}

	lenient, err := ResolveWithThreshold(pages, candidates, MatchThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if !lenient[0].Verified {
		t.Errorf("near-miss not verified at %.2f (ratio %.2f)", MatchThreshold, lenient[0].MatchRatio)
	}

	strict, err := ResolveWithThreshold(pages, candidates, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if strict[0].Verified {
		t.Errorf("near-miss verified at 0.95 (ratio %.2f)", strict[0].MatchRatio)
	}
	checkPartition(t, strict, 10)

	// Out-of-range thresholds fall back to the default.
	fallback, err := ResolveWithThreshold(pages, candidates, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fallback[0].Verified != lenient[0].Verified {
		t.Errorf("zero threshold verified = %v, want default behavior %v",
			fallback[0].Verified, lenient[0].Verified)
	}
}

func TestVerifyPartitionWrapsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		chapters []Chapter
	}{
		{"empty", nil},
		{"gap", []Chapter{
			{Index: 0, StartPage: 1, EndPage: 5},
			{Index: 1, StartPage: 7, EndPage: 10},
		}},
		{"bad index", []Chapter{
			{Index: 1, StartPage: 1, EndPage: 10},
		}},
		{"inverted", []Chapter{
			{Index: 0, StartPage: 1, EndPage: 0},
		}},
		{"short coverage", []Chapter{
			{Index: 0, StartPage: 1, EndPage: 8},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyPartition(tt.chapters, 10)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("verifyPartition() error = %v, want ErrValidation", err)
			}
		})
	}

	ok := []Chapter{
		{Index: 0, StartPage: 1, EndPage: 6},
		{Index: 1, StartPage: 7, EndPage: 10},
	}
	if err := verifyPartition(ok, 10); err != nil {
		t.Errorf("valid partition rejected: %v", err)
	}
}

func TestResolveHeuristicHeadings(t *testing.T) {
	pages := makePages(12)
	pages[2].Text = "CHAPTER ONE\n\nIt began quietly."
	pages[7].Text = "Chapter Two\n\nThings escalated."

	chapters, err := Resolve(pages, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, chapters, 12)

	if len(chapters) != 2 {
		t.Fatalf("len(chapters) = %d, want 2", len(chapters))
	}
	// Front matter folds into the first detected chapter.
	if chapters[0].StartPage != 1 || chapters[0].EndPage != 7 {
		t.Errorf("first chapter = [%d,%d], want [1,7]", chapters[0].StartPage, chapters[0].EndPage)
	}
	if chapters[1].StartPage != 8 || chapters[1].EndPage != 12 {
		t.Errorf("second chapter = [%d,%d], want [8,12]", chapters[1].StartPage, chapters[1].EndPage)
	}
	if chapters[0].Title != "CHAPTER ONE" {
		t.Errorf("title = %q, want CHAPTER ONE", chapters[0].Title)
	}
	for _, ch := range chapters {
		if ch.Source != SourceHeuristic {
			t.Errorf("chapter %d source = %q, want heuristic", ch.Index, ch.Source)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	pages := makePages(40)
	candidates := []Candidate{
		{Title: "A", StartPage: 1, EndPage: 15},
		{Title: "B", StartPage: 16, EndPage: 40},
	}

	first, err := Resolve(pages, candidates)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Resolve(pages, candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chapter %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
