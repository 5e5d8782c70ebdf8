// Package pipeline orchestrates book processing: page extraction,
// chapter resolution, summarization, and audio generation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/lectern/internal/chapters"
	"github.com/jackzampolin/lectern/internal/extract"
	"github.com/jackzampolin/lectern/internal/providers"
	"github.com/jackzampolin/lectern/internal/status"
	"github.com/jackzampolin/lectern/internal/store"
)

// Fallback metadata used when inference is unavailable. Processing
// continues; the record can be patched later.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Options tune the pipeline's provider calls and chapter resolution.
type Options struct {
	// FrontPages is how many leading pages are sent to metadata inference.
	FrontPages int
	// MatchConfidence is the fuzzy ratio a candidate title must reach
	// against its start page to be considered verified.
	MatchConfidence float64
	// MaxSummaryChars caps the chapter text sent to the summarizer.
	MaxSummaryChars int
}

func (o Options) withDefaults() Options {
	if o.FrontPages <= 0 {
		o.FrontPages = 50
	}
	if o.MatchConfidence <= 0 {
		o.MatchConfidence = chapters.MatchThreshold
	}
	if o.MaxSummaryChars <= 0 {
		o.MaxSummaryChars = 12000
	}
	return o
}

// Runner processes one book end to end. Provider clients are looked up
// through the registry per call so config reloads take effect.
type Runner struct {
	store     *store.Store
	tracker   *status.Tracker
	extractor extract.Extractor
	registry  *providers.Registry
	opts      Options
	logger    *slog.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(st *store.Store, tracker *status.Tracker, ex extract.Extractor, reg *providers.Registry, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:     st,
		tracker:   tracker,
		extractor: ex,
		registry:  reg,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Process runs every stage for the given book. The book record must
// already exist. Extraction failure is terminal; metadata, summary,
// and audio failures degrade per chapter and processing continues.
func (r *Runner) Process(ctx context.Context, bookID, path string) error {
	pages, err := r.extractPages(ctx, bookID, path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	chs, err := r.createChapters(ctx, bookID, pages)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.summarizeChapters(ctx, bookID, chs); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.generateAudio(ctx, bookID, chs)
}

// extractPages pulls page text and the cover out of the source file and
// records both against the book.
func (r *Runner) extractPages(ctx context.Context, bookID, path string) ([]extract.PageText, error) {
	r.tracker.RecordBestEffort(ctx, bookID, store.StageExtraction, store.LogInProgress, "extracting pages from "+path)

	pages, err := r.extractor.Extract(ctx, path)
	if err != nil {
		r.tracker.RecordBestEffort(ctx, bookID, store.StageExtraction, store.LogFailed, err.Error())
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	rows := make([]*store.Page, len(pages))
	for i, p := range pages {
		rows[i] = &store.Page{BookID: bookID, PageNumber: p.Number, TextContent: p.Text}
	}
	if err := r.store.CreatePages(ctx, bookID, rows); err != nil {
		r.tracker.RecordBestEffort(ctx, bookID, store.StageExtraction, store.LogFailed, err.Error())
		return nil, fmt.Errorf("store pages: %w", err)
	}

	pageCount := len(pages)
	update := store.BookUpdate{PageCount: &pageCount}
	if cover, coverErr := r.extractor.ExtractCover(ctx, path); coverErr != nil {
		r.logger.Warn("cover extraction failed", "book_id", bookID, "error", coverErr)
	} else if cover != nil {
		update.CoverImageData = cover.Data
		update.CoverImageType = &cover.MIME
	}
	if err := r.store.UpdateBook(ctx, bookID, update); err != nil {
		return nil, fmt.Errorf("update book after extraction: %w", err)
	}

	r.tracker.RecordBestEffort(ctx, bookID, store.StageExtraction, store.LogCompleted,
		fmt.Sprintf("extracted %d pages", pageCount))
	return pages, nil
}

// createChapters infers metadata, resolves chapter boundaries, and
// creates the chapter rows in one transaction.
func (r *Runner) createChapters(ctx context.Context, bookID string, pages []extract.PageText) ([]chapters.Chapter, error) {
	r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogInProgress, "resolving chapter boundaries")

	meta := r.inferMetadata(ctx, bookID, pages)
	if err := r.applyMetadata(ctx, bookID, meta); err != nil {
		return nil, err
	}

	resolverPages := make([]chapters.Page, len(pages))
	for i, p := range pages {
		resolverPages[i] = chapters.Page{Number: p.Number, Text: p.Text}
	}

	chs, err := chapters.ResolveWithThreshold(resolverPages, meta.Chapters, r.opts.MatchConfidence)
	if err != nil {
		r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogFailed, err.Error())
		return nil, fmt.Errorf("resolve chapters: %w", err)
	}

	rows := make([]*store.Chapter, len(chs))
	for i, ch := range chs {
		rows[i] = &store.Chapter{
			BookID:       bookID,
			ChapterIndex: ch.Index,
			Title:        ch.Title,
			StartPage:    ch.StartPage,
			EndPage:      ch.EndPage,
			Status:       store.StatusPending,
		}
		if ch.Source == chapters.SourceCandidates && !ch.Verified {
			r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogInProgress,
				fmt.Sprintf("chapter %d %q kept without title match (ratio %.2f)", ch.Index, ch.Title, ch.MatchRatio))
		}
	}
	if err := r.store.CreateChapters(ctx, bookID, rows); err != nil {
		r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogFailed, err.Error())
		return nil, fmt.Errorf("create chapters: %w", err)
	}

	r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogCompleted,
		fmt.Sprintf("created %d chapters via %s", len(chs), chs[0].Source))
	return chs, nil
}

// inferMetadata asks the model for book metadata. An unavailable or
// malformed response degrades to placeholder metadata with no
// candidate chapters.
func (r *Runner) inferMetadata(ctx context.Context, bookID string, pages []extract.PageText) *providers.Metadata {
	front := pages
	if len(front) > r.opts.FrontPages {
		front = front[:r.opts.FrontPages]
	}

	var sb strings.Builder
	for _, p := range front {
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", p.Number, p.Text)
	}

	meta, err := r.registry.Metadata().InferMetadata(ctx, sb.String())
	if err != nil {
		r.logger.Warn("metadata inference failed, using defaults", "book_id", bookID, "error", err)
		r.tracker.RecordBestEffort(ctx, bookID, store.StageChapterCreation, store.LogInProgress,
			"metadata inference unavailable, falling back to defaults")
		return &providers.Metadata{Title: UnknownTitle, Author: UnknownAuthor}
	}
	if meta.Title == "" {
		meta.Title = UnknownTitle
	}
	if meta.Author == "" {
		meta.Author = UnknownAuthor
	}
	return meta
}

func (r *Runner) applyMetadata(ctx context.Context, bookID string, meta *providers.Metadata) error {
	update := store.BookUpdate{Title: &meta.Title, Author: &meta.Author}
	if meta.Genre != "" {
		update.Genre = &meta.Genre
	}
	if meta.Year != "" {
		update.Year = &meta.Year
	}
	if err := r.store.UpdateBook(ctx, bookID, update); err != nil {
		return fmt.Errorf("update book metadata: %w", err)
	}
	return nil
}

// summarizeChapters writes a summary per chapter. A failed provider
// call degrades that chapter to a placeholder summary so the book can
// still finish.
func (r *Runner) summarizeChapters(ctx context.Context, bookID string, chs []chapters.Chapter) error {
	r.tracker.RecordBestEffort(ctx, bookID, store.StageSummarization, store.LogInProgress,
		fmt.Sprintf("summarizing %d chapters", len(chs)))

	failed := 0
	for _, ch := range chs {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := r.store.ChapterText(ctx, bookID, ch.StartPage, ch.EndPage)
		if err != nil {
			return fmt.Errorf("chapter %d text: %w", ch.Index, err)
		}
		if len(text) > r.opts.MaxSummaryChars {
			text = text[:r.opts.MaxSummaryChars]
		}

		summary, err := r.registry.Summarizer().Summarize(ctx, ch.Title, text)
		if err != nil {
			failed++
			r.logger.Warn("summary failed, storing placeholder",
				"book_id", bookID, "chapter", ch.Index, "error", err)
			summary = fmt.Sprintf("Unable to generate summary for chapter: %s", ch.Title)
		}
		if err := r.store.SetChapterSummary(ctx, bookID, ch.Index, summary); err != nil {
			return fmt.Errorf("store summary for chapter %d: %w", ch.Index, err)
		}
	}

	msg := fmt.Sprintf("summarized %d chapters", len(chs)-failed)
	if failed > 0 {
		msg = fmt.Sprintf("summarized %d chapters, %d placeholders", len(chs)-failed, failed)
	}
	r.tracker.RecordBestEffort(ctx, bookID, store.StageSummarization, store.LogCompleted, msg)
	return nil
}

// generateAudio synthesizes narration per chapter. A failed synthesis
// leaves that chapter summarized; the stage reports failure only when
// no chapter produced audio.
func (r *Runner) generateAudio(ctx context.Context, bookID string, chs []chapters.Chapter) error {
	r.tracker.RecordBestEffort(ctx, bookID, store.StageAudioGeneration, store.LogInProgress,
		fmt.Sprintf("generating audio for %d chapters", len(chs)))

	rows, err := r.store.GetChapters(ctx, bookID)
	if err != nil {
		return fmt.Errorf("load chapters: %w", err)
	}
	summaries := make(map[int]string, len(rows))
	for _, row := range rows {
		summaries[row.ChapterIndex] = row.SummaryText
	}

	done := 0
	for _, ch := range chs {
		if err := ctx.Err(); err != nil {
			return err
		}

		summary := summaries[ch.Index]
		if summary == "" {
			continue
		}

		audio, err := r.registry.TTS().Synthesize(ctx, summary)
		if err != nil {
			r.logger.Warn("audio generation failed, chapter stays summarized",
				"book_id", bookID, "chapter", ch.Index, "error", err)
			r.tracker.RecordBestEffort(ctx, bookID, store.StageAudioGeneration, store.LogFailed,
				fmt.Sprintf("chapter %d synthesis failed: %v", ch.Index, err))
			continue
		}
		if err := r.store.SetChapterAudio(ctx, bookID, ch.Index, audio.Data, audio.Format); err != nil {
			return fmt.Errorf("store audio for chapter %d: %w", ch.Index, err)
		}
		done++
	}

	logStatus := store.LogCompleted
	if done == 0 && len(chs) > 0 {
		logStatus = store.LogFailed
	}
	r.tracker.RecordBestEffort(ctx, bookID, store.StageAudioGeneration, logStatus,
		fmt.Sprintf("generated audio for %d of %d chapters", done, len(chs)))
	return nil
}
