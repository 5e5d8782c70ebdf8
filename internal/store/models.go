package store

import "time"

// ChapterStatus is the lifecycle status of a chapter.
// Transitions are forward-only: pending -> summarized -> completed.
type ChapterStatus string

const (
	StatusPending    ChapterStatus = "pending"
	StatusSummarized ChapterStatus = "summarized"
	StatusCompleted  ChapterStatus = "completed"
)

// Pipeline stages recorded in the processing log.
const (
	StageBookCreation    = "book_creation"
	StageExtraction      = "extraction"
	StageChapterCreation = "chapter_creation"
	StageSummarization   = "summarization"
	StageAudioGeneration = "audio_generation"
	StageBookDeletion    = "book_deletion"
)

// Log entry statuses.
const (
	LogInProgress = "in_progress"
	LogCompleted  = "completed"
	LogFailed     = "failed"
)

// Book is a single audiobook record.
type Book struct {
	BookID         string
	Title          string
	Author         string
	Genre          string
	Year           string
	PageCount      int
	CoverImageData []byte
	CoverImageType string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookUpdate is a typed patch for a book record.
// Only non-nil fields are written; updated_at is always refreshed.
type BookUpdate struct {
	Title          *string
	Author         *string
	Genre          *string
	Year           *string
	PageCount      *int
	CoverImageData []byte
	CoverImageType *string
}

// BookStats is a book row joined with chapter completion counts,
// used by the library listing.
type BookStats struct {
	Book
	ChapterCount      int
	CompletedChapters int
}

// Chapter is one chapter of a book. StartPage/EndPage are inclusive
// and 1-based; ChapterIndex is 0-based and defines ordering.
type Chapter struct {
	BookID       string
	ChapterIndex int
	Title        string
	StartPage    int
	EndPage      int
	SummaryText  string
	AudioData    []byte
	AudioFormat  string
	Status       ChapterStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Page is one extracted page of a book. Pages are immutable after creation.
type Page struct {
	BookID      string
	PageNumber  int
	TextContent string
	CreatedAt   time.Time
}

// LogEntry is one append-only processing log record.
type LogEntry struct {
	ID        int64
	BookID    string
	Stage     string
	Status    string
	Message   string
	CreatedAt time.Time
}
