package core

import (
	"context"
	"sync"
	"time"
)

// HistoryEntry records one submission attempt.
type HistoryEntry struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	DocumentType string    `json:"documentType"`
	SubmittedBy  string    `json:"submittedBy,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Success      bool      `json:"success"`
	Inserted     int       `json:"inserted"`
	Errors       []string  `json:"errors,omitempty"`
	InvalidRows  []int     `json:"invalidRows,omitempty"`
	RowCount     int       `json:"rowCount"`
	Edited       bool      `json:"edited"`
}

// HistoryStore persists submission attempts.
type HistoryStore interface {
	Record(ctx context.Context, e HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// DefaultHistoryCapacity bounds the in-memory store.
const DefaultHistoryCapacity = 1000

// MemoryHistory keeps the most recent entries in memory. It is the store used
// when no database is configured.
type MemoryHistory struct {
	mu      sync.Mutex
	cap     int
	entries []HistoryEntry
}

// NewMemoryHistory creates a store that keeps at most capacity entries.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &MemoryHistory{cap: capacity}
}

// Record appends an entry, evicting the oldest when full.
func (m *MemoryHistory) Record(_ context.Context, e HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.cap; over > 0 {
		m.entries = append([]HistoryEntry(nil), m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]HistoryEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// History returns recent submission attempts, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	return s.history.Recent(ctx, limit)
}
