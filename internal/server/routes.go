package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/lectern/internal/pipeline"
	"github.com/jackzampolin/lectern/internal/store"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/books", s.handleListBooks)
	mux.HandleFunc("POST /api/v1/books", s.handleCreateBook)
	mux.HandleFunc("GET /api/v1/books/{id}", s.handleGetBook)
	mux.HandleFunc("DELETE /api/v1/books/{id}", s.handleDeleteBook)
	mux.HandleFunc("GET /api/v1/books/{id}/status", s.handleBookStatus)
	mux.HandleFunc("GET /api/v1/books/{id}/cover", s.handleBookCover)
	mux.HandleFunc("GET /api/v1/books/{id}/chapters", s.handleListChapters)
	mux.HandleFunc("GET /api/v1/books/{id}/chapters/{index}/audio", s.handleChapterAudio)
}

// handleHealth returns basic server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bookResponse is the wire form of a book record.
type bookResponse struct {
	BookID            string    `json:"book_id"`
	Title             string    `json:"title"`
	Author            string    `json:"author,omitempty"`
	Genre             string    `json:"genre,omitempty"`
	Year              string    `json:"year,omitempty"`
	PageCount         int       `json:"page_count"`
	ChapterCount      int       `json:"chapter_count,omitempty"`
	CompletedChapters int       `json:"completed_chapters,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toBookResponse(b *store.Book) bookResponse {
	return bookResponse{
		BookID:    b.BookID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Year:      b.Year,
		PageCount: b.PageCount,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.services.Store.ListBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]bookResponse, 0, len(books))
	for _, b := range books {
		br := toBookResponse(&b.Book)
		br.ChapterCount = b.ChapterCount
		br.CompletedChapters = b.CompletedChapters
		resp = append(resp, br)
	}
	writeJSON(w, http.StatusOK, resp)
}

// createBookRequest submits a local PDF for processing.
type createBookRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, "file not found: "+req.Path)
		return
	}

	ctx := r.Context()
	book := &store.Book{
		BookID: uuid.NewString(),
		// Placeholder until metadata inference runs.
		Title: strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path)),
	}
	if err := s.services.Store.CreateBook(ctx, book); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.services.Tracker.RecordBestEffort(ctx, book.BookID, store.StageBookCreation, store.LogCompleted,
		"book record created for "+req.Path)

	// The run outlives the request but not the server: it uses the
	// server-lifetime context, which shutdown cancels.
	if err := s.services.Pipelines.Start(s.runCtx, book.BookID, req.Path); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"book_id": book.BookID,
		"status":  "processing",
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Store.GetBook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	if s.services.Pipelines.Running(bookID) {
		writeError(w, http.StatusConflict, pipeline.ErrAlreadyRunning.Error())
		return
	}

	ctx := r.Context()
	s.services.Tracker.RecordBestEffort(ctx, bookID, store.StageBookDeletion, store.LogInProgress,
		"deleting book and all associated records")

	deleted, err := s.services.Store.DeleteBook(ctx, bookID)
	if err != nil {
		s.services.Tracker.RecordBestEffort(ctx, bookID, store.StageBookDeletion, store.LogFailed, err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The cascade removed the in_progress entry along with the book;
	// the final event survives as the audit trail.
	if deleted > 0 {
		s.services.Tracker.RecordBestEffort(ctx, bookID, store.StageBookDeletion, store.LogCompleted, "book deleted")
	} else {
		s.services.Tracker.RecordBestEffort(ctx, bookID, store.StageBookDeletion, store.LogFailed, "book not found")
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleBookStatus(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	if _, err := s.services.Store.GetBook(r.Context(), bookID); err != nil {
		writeStoreError(w, err)
		return
	}

	summary, err := s.services.Tracker.ProcessingSummary(r.Context(), bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBookCover(w http.ResponseWriter, r *http.Request) {
	data, mime, err := s.services.Store.GetBookCover(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "book has no cover")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// chapterResponse is the wire form of a chapter; audio is exposed via
// its own endpoint rather than inlined.
type chapterResponse struct {
	ChapterIndex int    `json:"chapter_index"`
	Title        string `json:"title"`
	StartPage    int    `json:"start_page"`
	EndPage      int    `json:"end_page"`
	SummaryText  string `json:"summary_text,omitempty"`
	Status       string `json:"status"`
	HasAudio     bool   `json:"has_audio"`
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	if _, err := s.services.Store.GetBook(r.Context(), bookID); err != nil {
		writeStoreError(w, err)
		return
	}

	chs, err := s.services.Store.GetChapters(r.Context(), bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]chapterResponse, 0, len(chs))
	for _, ch := range chs {
		resp = append(resp, chapterResponse{
			ChapterIndex: ch.ChapterIndex,
			Title:        ch.Title,
			StartPage:    ch.StartPage,
			EndPage:      ch.EndPage,
			SummaryText:  ch.SummaryText,
			Status:       string(ch.Status),
			HasAudio:     len(ch.AudioData) > 0,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChapterAudio(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid chapter index")
		return
	}

	data, format, err := s.services.Store.GetChapterAudio(r.Context(), r.PathValue("id"), index)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "chapter has no audio")
		return
	}
	if format == "" {
		format = "audio/mpeg"
	}
	w.Header().Set("Content-Type", format)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
