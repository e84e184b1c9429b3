package core

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Defaults applied by NewService for zero-valued ServiceConfig fields.
const (
	DefaultPreviewRows        = 50
	DefaultMaxFileSize        = 100 * 1024 * 1024
	DefaultSubmitTimeout      = 60 * time.Second
	DefaultSessionIdleTimeout = 30 * time.Minute
)

// ServiceConfig tunes the ingestion engine.
type ServiceConfig struct {
	PreviewRows        int           // Editable rows in a correction session
	MaxFileSize        int64         // Per-file byte cap
	SubmitTimeout      time.Duration // Per-document transport deadline
	SessionIdleTimeout time.Duration // Sessions idle longer than this are discarded
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = DefaultSessionIdleTimeout
	}
	return c
}

// Service owns uploaded documents and their correction sessions, and drives
// them from upload to submission.
type Service struct {
	cfg       ServiceConfig
	transport Transport
	history   HistoryStore
	limiter   *UploadLimiter
	now       func() time.Time

	mu    sync.RWMutex
	docs  map[string]*docEntry
	order []string
}

// docEntry pairs a document with its lock and live session. The lock
// serialises validation passes on the document: no two passes for the same
// document are ever in flight.
type docEntry struct {
	mu      sync.Mutex
	doc     *Document
	schema  *Schema
	session *Session
}

// NewService creates a Service. transport may be nil, in which case Submit
// reports ErrNoTransport for every document. history may be nil, in which
// case an in-memory store is used.
func NewService(cfg ServiceConfig, transport Transport, history HistoryStore) *Service {
	if history == nil {
		history = NewMemoryHistory(0)
	}
	return &Service{
		cfg:       cfg.withDefaults(),
		transport: transport,
		history:   history,
		now:       time.Now,
		docs:      make(map[string]*docEntry),
	}
}

// SetLimiter bounds concurrent IngestBatch calls.
func (s *Service) SetLimiter(l *UploadLimiter) {
	s.limiter = l
}

// Limiter returns the configured limiter, or nil.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// Config returns the effective configuration.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// ListSchemas returns every registered schema.
func (s *Service) ListSchemas() []*Schema {
	return All()
}

// SchemasByGroup returns schemas organized by group.
func (s *Service) SchemasByGroup() map[string][]*Schema {
	result := make(map[string][]*Schema)
	for _, group := range Groups() {
		result[group] = ByGroup(group)
	}
	return result
}

// Document returns a snapshot of one document.
func (s *Service) Document(id string) (*Document, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.snapshot(), nil
}

// Documents returns snapshots of all documents in upload order.
func (s *Service) Documents() []*Document {
	s.mu.RLock()
	entries := make([]*docEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.docs[id])
	}
	s.mu.RUnlock()

	out := make([]*Document, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.doc.snapshot())
		e.mu.Unlock()
	}
	return out
}

// Preview returns the bounded sample of a document's grid shown before a
// correction session is opened.
func (s *Service) Preview(id string) (Grid, error) {
	e, err := s.entry(id)
	if err != nil {
		return Grid{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.grid.Preview(s.cfg.PreviewRows), nil
}

// RemoveDocument forgets a document and discards any open session.
func (s *Service) RemoveDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Revalidate re-runs validation over a document's saved grid.
func (s *Service) Revalidate(id string) (*Document, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionOpen, id)
	}
	applyResult(e.doc, e.doc.grid, SafeCheck(e.doc.grid, e.schema))
	return e.doc.snapshot(), nil
}

// OpenSession starts a correction session on a document. Only one session
// may be open per document.
func (s *Service) OpenSession(id string) (SessionView, error) {
	e, err := s.entry(id)
	if err != nil {
		return SessionView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return SessionView{}, fmt.Errorf("%w: %s", ErrSessionOpen, id)
	}
	if e.doc.grid.IsEmpty() {
		return SessionView{}, fmt.Errorf("%w: %s has nothing to correct", ErrNoSession, id)
	}

	e.session = NewSession(e.doc, e.schema, s.cfg.PreviewRows, s.now())
	slog.Debug("correction session opened", "document_id", id, "editable_rows", e.session.EditableRows())
	return e.session.View(), nil
}

// Session returns the open session's current state.
func (s *Service) Session(id string) (SessionView, error) {
	e, err := s.entry(id)
	if err != nil {
		return SessionView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return SessionView{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	return e.session.View(), nil
}

// UpdateCell edits one cell in the open session. The document's status and
// diagnostics follow the new validation result immediately.
func (s *Service) UpdateCell(id string, row, col int, value string) (SessionView, error) {
	return s.mutate(id, func(sess *Session, now time.Time) error {
		return sess.UpdateCell(row, col, value, now)
	})
}

// RemoveRow deletes one row in the open session.
func (s *Service) RemoveRow(id string, row int) (SessionView, error) {
	return s.mutate(id, func(sess *Session, now time.Time) error {
		return sess.RemoveRow(row, now)
	})
}

func (s *Service) mutate(id string, fn func(*Session, time.Time) error) (SessionView, error) {
	e, err := s.entry(id)
	if err != nil {
		return SessionView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return SessionView{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	if err := fn(e.session, s.now()); err != nil {
		return SessionView{}, err
	}

	wasError := e.doc.Status == StatusError
	applyResult(e.doc, e.session.Grid(), e.session.Result())
	if wasError && e.doc.Status == StatusSuccess {
		slog.Info("document issues resolved", "document_id", id)
	}
	return e.session.View(), nil
}

// SaveSession writes the session's grid back onto the document, marks it
// edited and closes the session.
func (s *Service) SaveSession(id string) (*Document, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}

	g := e.session.Grid()
	applyResult(e.doc, g, e.session.Result())
	e.doc.grid = g
	if e.session.Dirty() {
		e.doc.Edited = true
	}
	e.session = nil

	slog.Info("correction session saved",
		"document_id", id,
		"status", e.doc.Status,
		"diagnostics", len(e.doc.Diagnostics),
	)
	return e.doc.snapshot(), nil
}

// CloseSession discards the session's edits. The document's status and
// diagnostics are recomputed from its saved grid, so a session that fixed
// issues and was then abandoned does not leave the document looking clean.
func (s *Service) CloseSession(id string) (*Document, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	e.session = nil
	applyResult(e.doc, e.doc.grid, SafeCheck(e.doc.grid, e.schema))
	return e.doc.snapshot(), nil
}

// SweepIdleSessions discards sessions whose last activity is older than the
// idle timeout and returns how many were closed.
func (s *Service) SweepIdleSessions() int {
	cutoff := s.now().Add(-s.cfg.SessionIdleTimeout)

	s.mu.RLock()
	entries := make([]*docEntry, 0, len(s.docs))
	for _, e := range s.docs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	closed := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.session != nil && e.session.LastActivity().Before(cutoff) {
			slog.Info("discarding idle correction session",
				"document_id", e.doc.ID,
				"last_activity", e.session.LastActivity(),
			)
			e.session = nil
			applyResult(e.doc, e.doc.grid, SafeCheck(e.doc.grid, e.schema))
			closed++
		}
		e.mu.Unlock()
	}
	return closed
}

// OpenSessions returns the ids of documents with a live session, sorted.
func (s *Service) OpenSessions() []string {
	s.mu.RLock()
	entries := make([]*docEntry, 0, len(s.docs))
	for _, e := range s.docs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var ids []string
	for _, e := range entries {
		e.mu.Lock()
		if e.session != nil {
			ids = append(ids, e.doc.ID)
		}
		e.mu.Unlock()
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) entry(id string) (*docEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return e, nil
}

func (s *Service) add(e *docEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[e.doc.ID] = e
	s.order = append(s.order, e.doc.ID)
}

// applyResult sets a document's derived fields from a validation pass over g.
// Status and diagnostics are replaced, never patched.
func applyResult(doc *Document, g Grid, res Result) {
	doc.Diagnostics = append([]Diagnostic(nil), res.Diagnostics...)
	doc.HasMissingValues = res.HasMissingValues
	doc.RowCount = len(g.Rows)
	doc.ColumnCount = len(g.Header)
	doc.HasHeaders = !g.IsEmpty() && !isBlankRow(g.Header)
	if res.Valid() {
		doc.Status = StatusSuccess
		doc.Diagnostics = nil
	} else {
		doc.Status = StatusError
	}
}
