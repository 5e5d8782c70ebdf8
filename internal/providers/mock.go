package providers

import "context"

// NewStaticRegistry wires explicit clients into a registry. Tests use
// it to substitute mocks for the OpenAI-backed clients.
func NewStaticRegistry(m MetadataService, s Summarizer, t SpeechSynthesizer) *Registry {
	return &Registry{metadata: m, summarizer: s, tts: t}
}

// Mock implements all provider interfaces with overridable functions.
// Unset functions return benign defaults.
type Mock struct {
	InferMetadataFn func(ctx context.Context, frontPagesText string) (*Metadata, error)
	SummarizeFn     func(ctx context.Context, chapterTitle, chapterText string) (string, error)
	SynthesizeFn    func(ctx context.Context, text string) (*Audio, error)
}

func (m *Mock) InferMetadata(ctx context.Context, frontPagesText string) (*Metadata, error) {
	if m.InferMetadataFn != nil {
		return m.InferMetadataFn(ctx, frontPagesText)
	}
	return &Metadata{Title: "Mock Title", Author: "Mock Author"}, nil
}

func (m *Mock) Summarize(ctx context.Context, chapterTitle, chapterText string) (string, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, chapterTitle, chapterText)
	}
	return "A mock summary of " + chapterTitle + ".", nil
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, text)
	}
	return &Audio{Data: []byte("mock audio"), Format: "audio/mpeg"}, nil
}

var (
	_ MetadataService   = (*Mock)(nil)
	_ Summarizer        = (*Mock)(nil)
	_ SpeechSynthesizer = (*Mock)(nil)
)
