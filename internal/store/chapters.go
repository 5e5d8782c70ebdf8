package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateChapters inserts all chapters for a book in one transaction.
// The book's chapter list partitions its page range, so a partial list
// would violate the contiguity invariant: either every chapter is
// created or none are.
func (s *Store) CreateChapters(ctx context.Context, bookID string, chapters []*Chapter) error {
	if len(chapters) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapter tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (book_id, chapter_index, title, start_page, end_page,
		                      summary_text, audio_data, audio_format,
		                      processing_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chapter insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		status := ch.Status
		if status == "" {
			status = StatusPending
		}
		if _, err := stmt.ExecContext(ctx, bookID, ch.ChapterIndex, ch.Title,
			ch.StartPage, ch.EndPage, nullString(ch.SummaryText), ch.AudioData,
			nullString(ch.AudioFormat), string(status), now, now); err != nil {
			return fmt.Errorf("insert chapter %d for %s: %w", ch.ChapterIndex, bookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chapters for %s: %w", bookID, err)
	}
	return nil
}

// GetChapters returns all chapters for a book ordered by chapter_index.
func (s *Store) GetChapters(ctx context.Context, bookID string) ([]*Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, chapter_index, title, start_page, end_page,
		       summary_text, audio_data, audio_format, processing_status,
		       created_at, updated_at
		FROM chapters WHERE book_id = ? ORDER BY chapter_index`, bookID)
	if err != nil {
		return nil, fmt.Errorf("get chapters for %s: %w", bookID, err)
	}
	defer rows.Close()

	var result []*Chapter
	for rows.Next() {
		var (
			ch                   Chapter
			summary, format      sql.NullString
			status               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&ch.BookID, &ch.ChapterIndex, &ch.Title,
			&ch.StartPage, &ch.EndPage, &summary, &ch.AudioData, &format,
			&status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		ch.SummaryText = stringOr(summary)
		ch.AudioFormat = stringOr(format)
		ch.Status = ChapterStatus(status)
		if ch.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if ch.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		result = append(result, &ch)
	}
	return result, rows.Err()
}

// SetChapterSummary attaches a summary to a chapter and advances its
// status to summarized. A completed chapter is not moved backwards.
func (s *Store) SetChapterSummary(ctx context.Context, bookID string, chapterIndex int, summary string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chapters
		SET summary_text = ?,
		    processing_status = CASE WHEN processing_status = 'completed'
		                             THEN processing_status ELSE 'summarized' END,
		    updated_at = ?
		WHERE book_id = ? AND chapter_index = ?`,
		summary, formatTime(time.Now()), bookID, chapterIndex)
	if err != nil {
		return fmt.Errorf("set summary for %s/%d: %w", bookID, chapterIndex, err)
	}
	return requireRow(res, bookID, chapterIndex)
}

// SetChapterAudio attaches audio to a chapter and advances its status
// to completed.
func (s *Store) SetChapterAudio(ctx context.Context, bookID string, chapterIndex int, audio []byte, format string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chapters
		SET audio_data = ?, audio_format = ?, processing_status = 'completed', updated_at = ?
		WHERE book_id = ? AND chapter_index = ?`,
		audio, format, formatTime(time.Now()), bookID, chapterIndex)
	if err != nil {
		return fmt.Errorf("set audio for %s/%d: %w", bookID, chapterIndex, err)
	}
	return requireRow(res, bookID, chapterIndex)
}

// GetChapterAudio returns a chapter's audio bytes and format.
// Returns ErrNotFound when the chapter does not exist or has no audio.
func (s *Store) GetChapterAudio(ctx context.Context, bookID string, chapterIndex int) ([]byte, string, error) {
	var (
		data   []byte
		format sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT audio_data, audio_format FROM chapters
		WHERE book_id = ? AND chapter_index = ?`, bookID, chapterIndex).
		Scan(&data, &format)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("chapter %s/%d: %w", bookID, chapterIndex, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get audio for %s/%d: %w", bookID, chapterIndex, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("audio for %s/%d: %w", bookID, chapterIndex, ErrNotFound)
	}
	return data, stringOr(format), nil
}

func requireRow(res sql.Result, bookID string, chapterIndex int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("chapter %s/%d: %w", bookID, chapterIndex, err)
	}
	if n == 0 {
		return fmt.Errorf("chapter %s/%d: %w", bookID, chapterIndex, ErrNotFound)
	}
	return nil
}
