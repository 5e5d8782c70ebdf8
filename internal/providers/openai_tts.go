package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	ttsDefaultModel = openai.SpeechModelTTS1
	ttsDefaultVoice = "onyx"
	ttsTimeout      = 300 * time.Second
)

// TTSConfig holds configuration for the OpenAI TTS client.
type TTSConfig struct {
	APIKey     string
	Model      string  // "tts-1" (default), "tts-1-hd"
	Voice      string  // "onyx" (default)
	Speed      float64 // 0.25-4.0
	MaxRetries int
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// TTSClient synthesizes speech through the OpenAI audio API.
type TTSClient struct {
	model      string
	voice      string
	speed      float64
	maxRetries int
	client     openai.Client
}

// NewTTSClient creates a TTS client.
func NewTTSClient(cfg TTSConfig) *TTSClient {
	if cfg.Model == "" {
		cfg.Model = ttsDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = ttsDefaultVoice
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: ttsTimeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &TTSClient{
		model:      cfg.Model,
		voice:      cfg.Voice,
		speed:      cfg.Speed,
		maxRetries: cfg.MaxRetries,
		client:     openai.NewClient(opts...),
	}
}

// Synthesize converts text to MP3 audio.
func (c *TTSClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("synthesize: text is required")
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(c.speed),
	}

	var audio []byte
	err := retry.Do(
		func() error {
			resp, err := c.client.Audio.Speech.New(ctx, params)
			if err != nil {
				return mapAPIError(err)
			}
			defer resp.Body.Close()

			audio, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read audio response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w: %v", ErrUnavailable, err)
	}

	return &Audio{Data: audio, Format: "audio/mpeg"}, nil
}

func mapAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("openai api error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai api error (status %d)", apiErr.StatusCode)
	}
	return err
}

var _ SpeechSynthesizer = (*TTSClient)(nil)
