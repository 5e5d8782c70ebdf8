package providers

import (
	"log/slog"
	"sync"

	"github.com/jackzampolin/lectern/internal/config"
)

// Registry bundles the configured provider clients. Reload swaps them
// in place so configuration changes apply without a restart.
type Registry struct {
	mu         sync.RWMutex
	metadata   MetadataService
	summarizer Summarizer
	tts        SpeechSynthesizer
	logger     *slog.Logger
}

// NewRegistry builds provider clients from configuration. API keys in
// ${ENV_VAR} form are resolved against the environment.
func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger}
	r.Reload(cfg)
	return r
}

// Reload rebuilds the clients from new configuration.
func (r *Registry) Reload(cfg *config.Config) {
	chat := NewChatClient(ChatConfig{
		APIKey:     config.ResolveEnvVars(cfg.LLM.APIKey),
		Model:      cfg.LLM.Model,
		BaseURL:    cfg.LLM.BaseURL,
		RateLimit:  cfg.LLM.RateLimit,
		MaxRetries: cfg.LLM.MaxRetries,
		Logger:     r.logger,
	})

	tts := NewTTSClient(TTSConfig{
		APIKey:     config.ResolveEnvVars(cfg.TTS.APIKey),
		Model:      cfg.TTS.Model,
		Voice:      cfg.TTS.Voice,
		Speed:      cfg.TTS.Speed,
		BaseURL:    cfg.TTS.BaseURL,
		MaxRetries: cfg.TTS.MaxRetries,
	})

	r.mu.Lock()
	r.metadata = chat
	r.summarizer = chat
	r.tts = tts
	r.mu.Unlock()
}

// Metadata returns the current metadata service.
func (r *Registry) Metadata() MetadataService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata
}

// Summarizer returns the current summarizer.
func (r *Registry) Summarizer() Summarizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summarizer
}

// TTS returns the current speech synthesizer.
func (r *Registry) TTS() SpeechSynthesizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tts
}
