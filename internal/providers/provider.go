// Package providers holds the AI and speech clients the pipeline calls
// out to: metadata inference, chapter summarization, and TTS.
package providers

import (
	"context"
	"errors"

	"github.com/jackzampolin/lectern/internal/chapters"
)

// ErrUnavailable marks a provider failure the pipeline should degrade
// around (placeholder values, retry later) rather than abort on.
// Malformed provider output is treated identically to the service
// being unreachable.
var ErrUnavailable = errors.New("service unavailable")

// Metadata is the book metadata inferred from a book's front pages.
type Metadata struct {
	Title    string
	Author   string
	Genre    string
	Year     string
	Chapters []chapters.Candidate
}

// Audio is a synthesized speech clip.
type Audio struct {
	Data   []byte
	Format string // MIME type, e.g. "audio/mpeg"
}

// MetadataService infers book metadata and candidate chapters from the
// text of a book's front pages.
type MetadataService interface {
	InferMetadata(ctx context.Context, frontPagesText string) (*Metadata, error)
}

// Summarizer produces a narration-ready summary of one chapter.
type Summarizer interface {
	Summarize(ctx context.Context, chapterTitle, chapterText string) (string, error)
}

// SpeechSynthesizer converts text to audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}
