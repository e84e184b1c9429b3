package core

import (
	"fmt"
	"time"
)

// Session is a correction session over one Document. It owns a mutable copy
// of the document's preview rows; rows past the preview are carried along
// read-only so diagnostics always describe the whole file. Every mutation
// re-validates from scratch.
//
// A Session is not safe for concurrent use. The Service serialises access
// through the owning document's lock.
type Session struct {
	docID   string
	schema  *Schema
	header  []string
	preview [][]string
	tail    [][]string
	result  Result
	dirty   bool

	openedAt     time.Time
	lastActivity time.Time
}

// NewSession opens a session over doc's grid with at most previewRows
// editable rows and computes the initial diagnostics.
func NewSession(doc *Document, schema *Schema, previewRows int, now time.Time) *Session {
	g := doc.grid.Clone()
	if previewRows < 0 || previewRows > len(g.Rows) {
		previewRows = len(g.Rows)
	}

	s := &Session{
		docID:        doc.ID,
		schema:       schema,
		header:       g.Header,
		preview:      g.Rows[:previewRows:previewRows],
		tail:         g.Rows[previewRows:],
		openedAt:     now,
		lastActivity: now,
	}
	s.revalidate()
	return s
}

// DocumentID returns the id of the document under correction.
func (s *Session) DocumentID() string { return s.docID }

// Diagnostics returns the result of the latest validation pass.
func (s *Session) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.result.Diagnostics...)
}

// Result returns the latest validation pass.
func (s *Session) Result() Result { return s.result }

// Dirty reports whether the session holds unsaved edits.
func (s *Session) Dirty() bool { return s.dirty }

// EditableRows returns the number of rows that can be edited or removed.
func (s *Session) EditableRows() int { return len(s.preview) }

// LastActivity returns when the session was opened or last mutated.
func (s *Session) LastActivity() time.Time { return s.lastActivity }

// Preview returns a copy of the editable rows with the header.
func (s *Session) Preview() Grid {
	return Grid{Header: s.header, Rows: s.preview}.Clone()
}

// Grid returns a copy of the full working grid: edited preview rows followed
// by the untouched tail.
func (s *Session) Grid() Grid {
	rows := make([][]string, 0, len(s.preview)+len(s.tail))
	rows = append(rows, s.preview...)
	rows = append(rows, s.tail...)
	return Grid{Header: s.header, Rows: rows}.Clone()
}

// UpdateCell replaces one cell of an editable row and re-validates. row and
// col are 0-based data-row and column indices. Editing a cell past the end of
// a short row pads the row with empty cells.
func (s *Session) UpdateCell(row, col int, value string, now time.Time) error {
	if row < 0 || row >= len(s.preview) {
		return fmt.Errorf("%w: %d (editable rows: %d)", ErrRowOutOfRange, row, len(s.preview))
	}
	if col < 0 || col >= len(s.header) {
		return fmt.Errorf("%w: %d (columns: %d)", ErrColumnOutOfRange, col, len(s.header))
	}

	r := s.preview[row]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	s.preview[row] = r

	s.touch(now)
	return nil
}

// RemoveRow deletes one editable row and re-validates.
func (s *Session) RemoveRow(row int, now time.Time) error {
	if row < 0 || row >= len(s.preview) {
		return fmt.Errorf("%w: %d (editable rows: %d)", ErrRowOutOfRange, row, len(s.preview))
	}

	s.preview = append(s.preview[:row:row], s.preview[row+1:]...)
	s.touch(now)
	return nil
}

func (s *Session) touch(now time.Time) {
	s.dirty = true
	s.lastActivity = now
	s.revalidate()
}

func (s *Session) revalidate() {
	s.result = SafeCheck(s.Grid(), s.schema)
}

// SessionView is the serialisable state of a session.
type SessionView struct {
	DocumentID   string       `json:"documentId"`
	Status       Status       `json:"status"`
	Header       []string     `json:"header"`
	Rows         [][]string   `json:"rows"`
	TotalRows    int          `json:"totalRows"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	Dirty        bool         `json:"dirty"`
	OpenedAt     time.Time    `json:"openedAt"`
	LastActivity time.Time    `json:"lastActivity"`
}

// View returns a snapshot of the session for display.
func (s *Session) View() SessionView {
	p := s.Preview()
	status := StatusSuccess
	if !s.result.Valid() {
		status = StatusError
	}
	return SessionView{
		DocumentID:   s.docID,
		Status:       status,
		Header:       p.Header,
		Rows:         p.Rows,
		TotalRows:    len(s.preview) + len(s.tail),
		Diagnostics:  s.Diagnostics(),
		Dirty:        s.dirty,
		OpenedAt:     s.openedAt,
		LastActivity: s.lastActivity,
	}
}
