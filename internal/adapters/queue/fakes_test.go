package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"corporateevents/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyHandler fails the first failures calls for every task, then succeeds.
type flakyHandler struct {
	mu       sync.Mutex
	failures int
	calls    map[string]int
	done     chan string
}

func newFlakyHandler(failures int) *flakyHandler {
	return &flakyHandler{failures: failures, calls: map[string]int{}, done: make(chan string, 100)}
}

func (h *flakyHandler) Handle(_ context.Context, task *domain.Task) error {
	h.mu.Lock()
	h.calls[task.ID]++
	n := h.calls[task.ID]
	h.mu.Unlock()
	if n <= h.failures {
		return errors.New("smtp unavailable")
	}
	h.done <- task.ID
	return nil
}

func (h *flakyHandler) callCount(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[id]
}
