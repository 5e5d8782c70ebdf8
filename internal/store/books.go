package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CreateBook inserts a new book record.
func (s *Store) CreateBook(ctx context.Context, b *Book) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (book_id, title, author, genre, year, page_count,
		                   cover_image_data, cover_image_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BookID, b.Title, nullString(b.Author), nullString(b.Genre),
		nullString(b.Year), b.PageCount, b.CoverImageData,
		nullString(b.CoverImageType), formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert book %s: %w", b.BookID, err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBook returns a book by its book_id, or ErrNotFound.
func (s *Store) GetBook(ctx context.Context, bookID string) (*Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, title, author, genre, year, page_count,
		       cover_image_data, cover_image_type, created_at, updated_at
		FROM books WHERE book_id = ?`, bookID)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, err)
	}
	return b, nil
}

// ListBooks returns all books with chapter completion counts,
// newest first.
func (s *Store) ListBooks(ctx context.Context) ([]*BookStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.book_id, b.title, b.author, b.genre, b.year, b.page_count,
		       b.cover_image_type, b.created_at, b.updated_at,
		       COUNT(c.id),
		       COUNT(CASE WHEN c.processing_status = 'completed' THEN 1 END)
		FROM books b
		LEFT JOIN chapters c ON b.book_id = c.book_id
		GROUP BY b.book_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var result []*BookStats
	for rows.Next() {
		var (
			bs                              BookStats
			author, genre, year, coverType  sql.NullString
			pageCount                       sql.NullInt64
			createdAt, updatedAt            string
		)
		if err := rows.Scan(&bs.BookID, &bs.Title, &author, &genre, &year,
			&pageCount, &coverType, &createdAt, &updatedAt,
			&bs.ChapterCount, &bs.CompletedChapters); err != nil {
			return nil, fmt.Errorf("scan book stats: %w", err)
		}
		bs.Author = stringOr(author)
		bs.Genre = stringOr(genre)
		bs.Year = stringOr(year)
		bs.PageCount = intOr(pageCount)
		bs.CoverImageType = stringOr(coverType)
		if bs.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if bs.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		result = append(result, &bs)
	}
	return result, rows.Err()
}

// UpdateBook applies a partial update to a book. Only fields set on the
// patch are written; updated_at is always refreshed. Updating a
// nonexistent book returns ErrNotFound.
func (s *Store) UpdateBook(ctx context.Context, bookID string, patch BookUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *patch.Author)
	}
	if patch.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *patch.Genre)
	}
	if patch.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *patch.Year)
	}
	if patch.PageCount != nil {
		sets = append(sets, "page_count = ?")
		args = append(args, *patch.PageCount)
	}
	if patch.CoverImageData != nil {
		sets = append(sets, "cover_image_data = ?")
		args = append(args, patch.CoverImageData)
	}
	if patch.CoverImageType != nil {
		sets = append(sets, "cover_image_type = ?")
		args = append(args, *patch.CoverImageType)
	}

	args = append(args, bookID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE books SET "+strings.Join(sets, ", ")+" WHERE book_id = ?", args...)
	if err != nil {
		return fmt.Errorf("update book %s: %w", bookID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book %s: %w", bookID, err)
	}
	if n == 0 {
		return fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	return nil
}

// DeleteBook removes a book and all of its pages, chapters, and log
// entries in a single transaction. Deleting a nonexistent book is a
// no-op; the returned count is the number of book rows removed (0 or 1).
func (s *Store) DeleteBook(ctx context.Context, bookID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	// Children first to respect foreign key constraints.
	for _, table := range []string{"pages", "chapters", "processing_logs"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE book_id = ?", table), bookID); err != nil {
			return 0, fmt.Errorf("delete %s for book %s: %w", table, bookID, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM books WHERE book_id = ?", bookID)
	if err != nil {
		return 0, fmt.Errorf("delete book %s: %w", bookID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete book %s: %w", bookID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete of book %s: %w", bookID, err)
	}
	return n, nil
}

// GetBookCover returns a book's cover image bytes and MIME type.
// Returns ErrNotFound when the book does not exist or has no cover.
func (s *Store) GetBookCover(ctx context.Context, bookID string) ([]byte, string, error) {
	var (
		data []byte
		mime sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT cover_image_data, cover_image_type FROM books WHERE book_id = ?",
		bookID).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get cover for %s: %w", bookID, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("cover for %s: %w", bookID, ErrNotFound)
	}
	return data, stringOr(mime), nil
}

// scanner is the subset of sql.Row/sql.Rows used by scanBook.
type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*Book, error) {
	var (
		b                              Book
		author, genre, year, coverType sql.NullString
		pageCount                      sql.NullInt64
		createdAt, updatedAt           string
	)
	err := row.Scan(&b.BookID, &b.Title, &author, &genre, &year, &pageCount,
		&b.CoverImageData, &coverType, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.Author = stringOr(author)
	b.Genre = stringOr(genre)
	b.Year = stringOr(year)
	b.PageCount = intOr(pageCount)
	b.CoverImageType = stringOr(coverType)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &b, nil
}
