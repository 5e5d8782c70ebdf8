// Package extract pulls page text and cover images out of PDF books.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoPages is returned when a source yields no extractable pages.
// The pipeline treats this as terminal for the book.
var ErrNoPages = errors.New("no pages extracted")

// PageText is one extracted page. Numbers are 1-based.
type PageText struct {
	Number int
	Text   string
}

// Cover is an extracted cover image.
type Cover struct {
	Data []byte
	MIME string
}

// Extractor reads page text and cover art from a book source.
type Extractor interface {
	// Extract returns the ordered page texts of the source.
	Extract(ctx context.Context, path string) ([]PageText, error)

	// ExtractCover returns the source's cover image, or nil when the
	// source has none.
	ExtractCover(ctx context.Context, path string) (*Cover, error)
}

// PDFExtractor extracts text and images from PDF files.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

// Extract reads every page's plain text, then strips repeated running
// headers and footers detected across the book.
func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	// Cross-check the page count with a second parser; a mismatch
	// usually means a damaged file worth flagging.
	if count, err := pdfcpu.PageCountFile(path); err == nil && count != total {
		e.logger.Warn("page count mismatch between parsers",
			"path", path, "text_parser", total, "pdfcpu", count)
	}

	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("failed to extract page text", "path", path, "page", i, "error", err)
			text = ""
		}
		texts = append(texts, text)
	}

	texts = StripRunningLines(texts)

	pages := make([]PageText, total)
	nonEmpty := 0
	for i, text := range texts {
		pages[i] = PageText{Number: i + 1, Text: strings.TrimSpace(text)}
		if pages[i].Text != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	return pages, nil
}

// ExtractCover returns the first embedded image on the first page,
// or nil when the PDF has none.
func (e *PDFExtractor) ExtractCover(ctx context.Context, path string) (*Cover, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	images, err := pdfcpu.ExtractImagesRaw(f, []string{"1"}, nil)
	if err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", path, err)
	}

	for _, pageImages := range images {
		for _, img := range pageImages {
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("read cover image: %w", err)
			}
			if len(data) == 0 {
				continue
			}
			return &Cover{Data: data, MIME: mimeForFileType(img.FileType)}, nil
		}
	}
	return nil, nil
}

// mimeForFileType maps pdfcpu image file types to MIME types.
func mimeForFileType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
