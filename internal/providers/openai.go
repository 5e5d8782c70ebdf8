package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	chatDefaultModel   = "gpt-4o-mini"
	chatDefaultRetries = 3
	chatTimeout        = 120 * time.Second
)

const metadataPrompt = `You are a librarian cataloging a scanned book from its opening pages.
Respond with a single JSON object and nothing else:
{
  "title": "...",
  "author": "...",
  "genre": "...",
  "year": "...",
  "chapters": [{"title": "...", "start_page": 1, "end_page": 20}]
}
Page numbers refer to the "--- Page N ---" markers in the text, not any
numbers printed on the pages. Derive "chapters" from the table of
contents when one is present; otherwise return an empty array. Use ""
for any field you cannot determine.`

const summaryPrompt = `You are preparing an audiobook. Write a flowing, narration-ready
summary of the chapter below in 3-5 paragraphs of plain prose. Do not
use headings, lists, or meta commentary about the text.`

// ChatConfig holds configuration for the OpenAI chat client.
type ChatConfig struct {
	APIKey     string
	Model      string
	BaseURL    string  // Optional (tests)
	RateLimit  float64 // Requests per second
	MaxRetries int
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// ChatClient infers metadata and summarizes chapters through the OpenAI
// chat completions API.
type ChatClient struct {
	model      string
	maxRetries int
	limiter    *RateLimiter
	client     openai.Client
	logger     *slog.Logger
}

// NewChatClient creates a chat client.
func NewChatClient(cfg ChatConfig) *ChatClient {
	if cfg.Model == "" {
		cfg.Model = chatDefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = chatDefaultRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: chatTimeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ChatClient{
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		limiter:    NewRateLimiter(cfg.RateLimit),
		client:     openai.NewClient(opts...),
		logger:     cfg.Logger,
	}
}

// InferMetadata asks the model for book metadata and candidate chapter
// boundaries from the front-pages text. Malformed responses are
// reported as ErrUnavailable so callers fall back to defaults.
func (c *ChatClient) InferMetadata(ctx context.Context, frontPagesText string) (*Metadata, error) {
	raw, err := c.complete(ctx, metadataPrompt, frontPagesText)
	if err != nil {
		return nil, fmt.Errorf("infer metadata: %w: %v", ErrUnavailable, err)
	}

	meta, err := ParseMetadata(raw)
	if err != nil {
		c.logger.Warn("discarding unparseable metadata response", "model", c.model, "error", err)
		return nil, fmt.Errorf("infer metadata: %w: %v", ErrUnavailable, err)
	}
	return meta, nil
}

// Summarize produces a narration-ready summary of one chapter.
func (c *ChatClient) Summarize(ctx context.Context, chapterTitle, chapterText string) (string, error) {
	input := chapterText
	if chapterTitle != "" {
		input = fmt.Sprintf("Chapter: %s\n\n%s", chapterTitle, chapterText)
	}

	summary, err := c.complete(ctx, summaryPrompt, input)
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w: %v", chapterTitle, ErrUnavailable, err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("summarize %q: %w: empty response", chapterTitle, ErrUnavailable)
	}
	return strings.TrimSpace(summary), nil
}

// complete runs one chat completion with retry on transport errors.
// Every attempt takes a rate limiter token first so retries stay paced.
func (c *ChatClient) complete(ctx context.Context, system, user string) (string, error) {
	var content string
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(system),
					openai.UserMessage(user),
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("chat completion returned no choices")
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

var (
	_ MetadataService = (*ChatClient)(nil)
	_ Summarizer      = (*ChatClient)(nil)
)
