// Package status derives book-level processing state from chapter
// lifecycle statuses and the processing log.
package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/lectern/internal/store"
)

// Overall is the derived book-level processing status. It is computed
// on demand, never stored.
type Overall string

const (
	// OverallPending means no chapter has made progress (including the
	// zero-chapter case).
	OverallPending Overall = "pending"
	// OverallInProgress means some but not all chapters have advanced.
	OverallInProgress Overall = "in_progress"
	// OverallCompleted means every chapter is completed and there is at
	// least one chapter.
	OverallCompleted Overall = "completed"
)

// RecentEventLimit is how many log entries a processing summary carries.
const RecentEventLimit = 10

// Summary aggregates a book's chapter counts, derived overall status,
// and recent processing events.
type Summary struct {
	Total        int               `json:"total"`
	Completed    int               `json:"completed"`
	Summarized   int               `json:"summarized"`
	Pending      int               `json:"pending"`
	Overall      Overall           `json:"overall_status"`
	RecentEvents []*store.LogEntry `json:"recent_events,omitempty"`
}

// Aggregate derives a summary from chapter statuses alone.
//
// Pending is derived as total - completed - summarized: each chapter
// holds exactly one status, so the count cannot go negative, and a
// chapter carrying an unexpected status string simply counts as
// pending rather than being treated as a data-integrity error.
func Aggregate(statuses []store.ChapterStatus) Summary {
	s := Summary{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case store.StatusCompleted:
			s.Completed++
		case store.StatusSummarized:
			s.Summarized++
		}
	}
	s.Pending = s.Total - s.Completed - s.Summarized

	switch {
	case s.Total > 0 && s.Completed == s.Total:
		s.Overall = OverallCompleted
	case s.Completed > 0 || s.Summarized > 0:
		s.Overall = OverallInProgress
	default:
		s.Overall = OverallPending
	}
	return s
}

// Tracker reads and records processing state against the record store.
type Tracker struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTracker creates a tracker backed by the given store.
func NewTracker(st *store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: st, logger: logger}
}

// RecordStageEvent appends one stage transition to the processing log.
// A storage failure surfaces to the caller.
func (t *Tracker) RecordStageEvent(ctx context.Context, bookID, stage, status, message string) error {
	if err := t.store.AppendLog(ctx, bookID, stage, status, message); err != nil {
		return fmt.Errorf("record stage event: %w", err)
	}
	return nil
}

// RecordBestEffort appends a stage transition but only logs a warning
// on failure. Used around a primary state change that must not be
// aborted by audit logging trouble.
func (t *Tracker) RecordBestEffort(ctx context.Context, bookID, stage, status, message string) {
	if err := t.store.AppendLog(ctx, bookID, stage, status, message); err != nil {
		t.logger.Warn("failed to append processing log",
			"book_id", bookID, "stage", stage, "error", err)
	}
}

// ProcessingSummary returns the derived summary for a book, including
// its most recent log entries.
func (t *Tracker) ProcessingSummary(ctx context.Context, bookID string) (*Summary, error) {
	chapters, err := t.store.GetChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("processing summary for %s: %w", bookID, err)
	}

	statuses := make([]store.ChapterStatus, len(chapters))
	for i, ch := range chapters {
		statuses[i] = ch.Status
	}
	summary := Aggregate(statuses)

	events, err := t.store.RecentLogs(ctx, bookID, RecentEventLimit)
	if err != nil {
		return nil, fmt.Errorf("processing summary for %s: %w", bookID, err)
	}
	summary.RecentEvents = events

	return &summary, nil
}
