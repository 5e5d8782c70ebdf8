package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/lectern/internal/chapters"
	"github.com/jackzampolin/lectern/internal/extract"
	"github.com/jackzampolin/lectern/internal/pipeline"
	"github.com/jackzampolin/lectern/internal/providers"
	"github.com/jackzampolin/lectern/internal/status"
	"github.com/jackzampolin/lectern/internal/store"
	"github.com/jackzampolin/lectern/internal/svcctx"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, path string) ([]extract.PageText, error) {
	pages := make([]extract.PageText, 20)
	for i := range pages {
		pages[i] = extract.PageText{Number: i + 1, Text: fmt.Sprintf("page %d text", i+1)}
	}
	return pages, nil
}

func (stubExtractor) ExtractCover(ctx context.Context, path string) (*extract.Cover, error) {
	return &extract.Cover{Data: []byte("png bytes"), MIME: "image/png"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *svcctx.Services) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	mock := &providers.Mock{
		InferMetadataFn: func(ctx context.Context, front string) (*providers.Metadata, error) {
			return &providers.Metadata{
				Title:  "The Storm",
				Author: "A. Writer",
				Chapters: []chapters.Candidate{
					{Title: "One", StartPage: 1, EndPage: 10},
					{Title: "Two", StartPage: 11, EndPage: 20},
				},
			}, nil
		},
	}

	tracker := status.NewTracker(st, nil)
	registry := providers.NewStaticRegistry(mock, mock, mock)
	runner := pipeline.NewRunner(st, tracker, stubExtractor{}, registry, pipeline.Options{}, nil)

	services := &svcctx.Services{
		Store:     st,
		Tracker:   tracker,
		Extractor: stubExtractor{},
		Registry:  registry,
		Pipelines: pipeline.NewManager(runner, nil),
	}

	srv, err := New(Config{Services: services})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, services
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	var resp map[string]string
	getJSON(t, ts.URL+"/health", http.StatusOK, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q", resp["status"])
	}
}

func TestBookLifecycle(t *testing.T) {
	ts, services := newTestServer(t)

	pdf := filepath.Join(t.TempDir(), "storm.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]string{"path": pdf})
	resp, err := http.Post(ts.URL+"/api/v1/books", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want 202", resp.StatusCode)
	}
	var created map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	bookID := created["book_id"]
	if bookID == "" {
		t.Fatal("no book_id in response")
	}

	// Let the background run finish before inspecting results.
	services.Pipelines.Wait()

	var book bookResponse
	getJSON(t, ts.URL+"/api/v1/books/"+bookID, http.StatusOK, &book)
	if book.Title != "The Storm" || book.PageCount != 20 {
		t.Errorf("book = %+v", book)
	}

	var list []bookResponse
	getJSON(t, ts.URL+"/api/v1/books", http.StatusOK, &list)
	if len(list) != 1 || list[0].CompletedChapters != 2 {
		t.Errorf("list = %+v", list)
	}

	var summary status.Summary
	getJSON(t, ts.URL+"/api/v1/books/"+bookID+"/status", http.StatusOK, &summary)
	if summary.Overall != status.OverallCompleted || summary.Total != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.RecentEvents) == 0 {
		t.Error("no recent events in status")
	}

	var chs []chapterResponse
	getJSON(t, ts.URL+"/api/v1/books/"+bookID+"/chapters", http.StatusOK, &chs)
	if len(chs) != 2 || !chs[0].HasAudio {
		t.Errorf("chapters = %+v", chs)
	}

	audioResp, err := http.Get(ts.URL + "/api/v1/books/" + bookID + "/chapters/0/audio")
	if err != nil {
		t.Fatal(err)
	}
	defer audioResp.Body.Close()
	if audioResp.StatusCode != http.StatusOK {
		t.Fatalf("audio status = %d", audioResp.StatusCode)
	}
	if ct := audioResp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("audio content type = %q", ct)
	}

	coverResp, err := http.Get(ts.URL + "/api/v1/books/" + bookID + "/cover")
	if err != nil {
		t.Fatal(err)
	}
	defer coverResp.Body.Close()
	if coverResp.StatusCode != http.StatusOK {
		t.Fatalf("cover status = %d", coverResp.StatusCode)
	}
	if ct := coverResp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("cover content type = %q", ct)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/books/"+bookID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}

	getJSON(t, ts.URL+"/api/v1/books/"+bookID, http.StatusNotFound, nil)
}

func TestDeleteBookRecordsStage(t *testing.T) {
	ts, services := newTestServer(t)
	ctx := context.Background()

	book := &store.Book{BookID: "b-del", Title: "Doomed"}
	if err := services.Store.CreateBook(ctx, book); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/books/b-del", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	// The cascade wipes the book's earlier entries; the final deletion
	// event remains as the audit trail.
	logs, err := services.Store.RecentLogs(ctx, "b-del", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1 surviving entry", len(logs))
	}
	if logs[0].Stage != store.StageBookDeletion || logs[0].Status != store.LogCompleted {
		t.Errorf("log = %s/%s, want %s/%s",
			logs[0].Stage, logs[0].Status, store.StageBookDeletion, store.LogCompleted)
	}

	// Deleting an unknown book records a failed deletion event.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/books/missing", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	logs, err = services.Store.RecentLogs(ctx, "missing", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Stage != store.StageBookDeletion || logs[0].Status != store.LogFailed {
		t.Errorf("missing-book logs = %+v, want one failed %s entry", logs, store.StageBookDeletion)
	}
}

// blockingExtractor parks until its context is cancelled, simulating a
// long extraction stage.
type blockingExtractor struct {
	started chan struct{}
}

func (b *blockingExtractor) Extract(ctx context.Context, path string) ([]extract.PageText, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingExtractor) ExtractCover(ctx context.Context, path string) (*extract.Cover, error) {
	return nil, nil
}

func TestShutdownCancelsBackgroundRuns(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	ext := &blockingExtractor{started: make(chan struct{})}
	mock := &providers.Mock{}
	tracker := status.NewTracker(st, nil)
	runner := pipeline.NewRunner(st, tracker, ext, providers.NewStaticRegistry(mock, mock, mock), pipeline.Options{}, nil)

	services := &svcctx.Services{
		Store:     st,
		Tracker:   tracker,
		Extractor: ext,
		Pipelines: pipeline.NewManager(runner, nil),
	}

	srv, err := New(Config{Services: services})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)

	pdf := filepath.Join(t.TempDir(), "slow.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(map[string]string{"path": pdf})
	resp, err := http.Post(ts.URL+"/api/v1/books", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want 202", resp.StatusCode)
	}

	<-ext.started

	done := make(chan error, 1)
	go func() { done <- srv.shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("shutdown() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not stop the background run")
	}
}

func TestCreateBookValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/books", "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", resp.StatusCode)
	}

	body, _ := json.Marshal(map[string]string{"path": "/does/not/exist.pdf"})
	resp, err = http.Post(ts.URL+"/api/v1/books", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownBookRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	getJSON(t, ts.URL+"/api/v1/books/nope", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/v1/books/nope/status", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/v1/books/nope/chapters", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/v1/books/nope/chapters/abc/audio", http.StatusBadRequest, nil)
}
