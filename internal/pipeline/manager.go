package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAlreadyRunning is returned when a book already has an active run.
var ErrAlreadyRunning = errors.New("book is already being processed")

// Manager enforces one active pipeline run per book while allowing
// different books to process concurrently.
type Manager struct {
	runner *Runner
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

// NewManager creates a pipeline manager.
func NewManager(runner *Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runner: runner,
		logger: logger,
		active: make(map[string]struct{}),
	}
}

// Run processes a book synchronously. A second call for the same book
// while one is in flight returns ErrAlreadyRunning.
func (m *Manager) Run(ctx context.Context, bookID, path string) error {
	if err := m.acquire(bookID); err != nil {
		return err
	}
	defer m.release(bookID)
	return m.runner.Process(ctx, bookID, path)
}

// Start processes a book in the background. The given context bounds
// the run; cancellation stops it between stages.
func (m *Manager) Start(ctx context.Context, bookID, path string) error {
	if err := m.acquire(bookID); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(bookID)
		if err := m.runner.Process(ctx, bookID, path); err != nil {
			m.logger.Error("pipeline run failed", "book_id", bookID, "error", err)
		}
	}()
	return nil
}

// Running reports whether the book has an active run.
func (m *Manager) Running(bookID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[bookID]
	return ok
}

// Wait blocks until all background runs finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) acquire(bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[bookID]; ok {
		return fmt.Errorf("%s: %w", bookID, ErrAlreadyRunning)
	}
	m.active[bookID] = struct{}{}
	return nil
}

func (m *Manager) release(bookID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, bookID)
}
