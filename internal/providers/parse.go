package providers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/lectern/internal/chapters"
)

// metadataSchema validates the shape of a model's metadata response
// before it is trusted. Candidate chapters missing page numbers fail
// here instead of producing nonsense boundaries downstream.
var metadataSchema = jsonschema.MustCompileString("metadata.json", `{
	"type": "object",
	"properties": {
		"title":  {"type": "string"},
		"author": {"type": "string"},
		"genre":  {"type": "string"},
		"year":   {"type": ["string", "number", "null"]},
		"chapters": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title":      {"type": "string"},
					"start_page": {"type": "number"},
					"end_page":   {"type": "number"}
				},
				"required": ["start_page", "end_page"]
			}
		}
	}
}`)

type metadataWire struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	Year     any    `json:"year"`
	Chapters []struct {
		Title     string  `json:"title"`
		StartPage float64 `json:"start_page"`
		EndPage   float64 `json:"end_page"`
	} `json:"chapters"`
}

// ParseMetadata decodes a model response into metadata. It first tries
// the raw text as JSON, then falls back to extracting a JSON object
// from surrounding prose or code fences. The decoded document is
// validated against the metadata schema before being returned.
func ParseMetadata(raw string) (*Metadata, error) {
	payload := strings.TrimSpace(raw)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		extracted, ok := extractJSONObject(payload)
		if !ok {
			return nil, fmt.Errorf("no JSON object in model response")
		}
		if err := json.Unmarshal([]byte(extracted), &doc); err != nil {
			return nil, fmt.Errorf("decode model response: %w", err)
		}
		payload = extracted
	}

	if err := metadataSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("model response does not match metadata schema: %w", err)
	}

	var wire metadataWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	meta := &Metadata{
		Title:  strings.TrimSpace(wire.Title),
		Author: strings.TrimSpace(wire.Author),
		Genre:  strings.TrimSpace(wire.Genre),
		Year:   yearString(wire.Year),
	}
	for _, ch := range wire.Chapters {
		meta.Chapters = append(meta.Chapters, chapters.Candidate{
			Title:     strings.TrimSpace(ch.Title),
			StartPage: int(ch.StartPage),
			EndPage:   int(ch.EndPage),
		})
	}
	return meta, nil
}

// extractJSONObject pulls the outermost {...} span out of text that
// wraps JSON in prose or a fenced code block.
func extractJSONObject(text string) (string, bool) {
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// yearString normalizes the year field, which models return as either a
// string or a bare number.
func yearString(v any) string {
	switch y := v.(type) {
	case string:
		return strings.TrimSpace(y)
	case float64:
		return strconv.Itoa(int(y))
	default:
		return ""
	}
}
