package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CreatePages bulk-inserts extracted pages for a book in one transaction.
func (s *Store) CreatePages(ctx context.Context, bookID string, pages []*Page) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin page tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (book_id, page_number, text_content, created_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if _, err := stmt.ExecContext(ctx, bookID, p.PageNumber, p.TextContent, now); err != nil {
			return fmt.Errorf("insert page %d for %s: %w", p.PageNumber, bookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages for %s: %w", bookID, err)
	}
	return nil
}

// GetPages returns all pages for a book ordered by page_number.
func (s *Store) GetPages(ctx context.Context, bookID string) ([]*Page, error) {
	return s.queryPages(ctx, `
		SELECT book_id, page_number, text_content, created_at
		FROM pages WHERE book_id = ? ORDER BY page_number`, bookID)
}

// GetPageRange returns pages in [startPage, endPage] inclusive,
// ordered by page_number.
func (s *Store) GetPageRange(ctx context.Context, bookID string, startPage, endPage int) ([]*Page, error) {
	return s.queryPages(ctx, `
		SELECT book_id, page_number, text_content, created_at
		FROM pages WHERE book_id = ? AND page_number >= ? AND page_number <= ?
		ORDER BY page_number`, bookID, startPage, endPage)
}

// ChapterText returns the combined text of a chapter's page range,
// pages joined by blank lines.
func (s *Store) ChapterText(ctx context.Context, bookID string, startPage, endPage int) (string, error) {
	pages, err := s.GetPageRange(ctx, bookID, startPage, endPage)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.TextContent != "" {
			parts = append(parts, p.TextContent)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *Store) queryPages(ctx context.Context, query string, args ...any) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var result []*Page
	for rows.Next() {
		var (
			p         Page
			text      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.BookID, &p.PageNumber, &text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.TextContent = stringOr(text)
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}
