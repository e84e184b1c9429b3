package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors returned by the Service. Wrap with %w when adding context.
var (
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrSessionOpen         = errors.New("correction session already open")
	ErrNoSession           = errors.New("no correction session open")
	ErrRowOutOfRange       = errors.New("row out of range")
	ErrColumnOutOfRange    = errors.New("column out of range")
	ErrNoTransport         = errors.New("no submission transport configured")
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	KindEmptyFile            DiagnosticKind = "EmptyFile"
	KindUnsupportedFormat    DiagnosticKind = "UnsupportedFormat"
	KindMissingHeaders       DiagnosticKind = "MissingHeaders"
	KindDuplicateHeaders     DiagnosticKind = "DuplicateHeaders"
	KindUnexpectedHeaders    DiagnosticKind = "UnexpectedHeaders"
	KindRowLengthMismatch    DiagnosticKind = "RowLengthMismatch"
	KindRequiredFieldMissing DiagnosticKind = "RequiredFieldMissing"
	KindInvalidNumber        DiagnosticKind = "InvalidNumber"
	KindInvalidDate          DiagnosticKind = "InvalidDate"
	KindInvalidEnumValue     DiagnosticKind = "InvalidEnumValue"
	KindInvalidPattern       DiagnosticKind = "InvalidPattern"
	KindProcessingFailure    DiagnosticKind = "ProcessingFailure"
	KindReadFailure          DiagnosticKind = "ReadFailure"
	KindSubmissionFailed     DiagnosticKind = "SubmissionFailed"
	KindSubmissionTimeout    DiagnosticKind = "SubmissionTimeout"
)

// Recoverable reports whether an operator can fix the problem in a correction
// session without re-uploading the file.
func (k DiagnosticKind) Recoverable() bool {
	switch k {
	case KindReadFailure, KindUnsupportedFormat, KindProcessingFailure,
		KindSubmissionFailed, KindSubmissionTimeout:
		return false
	}
	return true
}

// Diagnostic is one reported problem. Row and Column are 1-based; zero means
// the diagnostic is not addressed at a row or column. Row 1 is the header, so
// the first data row is row 2.
type Diagnostic struct {
	Kind         DiagnosticKind `json:"kind" msgpack:"kind"`
	Description  string         `json:"description" msgpack:"description"`
	Row          int            `json:"row,omitempty" msgpack:"row,omitempty"`
	Column       int            `json:"column,omitempty" msgpack:"column,omitempty"`
	Field        string         `json:"field,omitempty" msgpack:"field,omitempty"`
	CurrentValue *string        `json:"currentValue,omitempty" msgpack:"currentValue,omitempty"`
}

// Grid is a parsed table: one header row followed by data rows.
type Grid struct {
	Header []string   `json:"header" msgpack:"header"`
	Rows   [][]string `json:"rows" msgpack:"rows"`
}

// IsEmpty reports whether the grid has no header row at all.
func (g Grid) IsEmpty() bool {
	return len(g.Header) == 0
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := Grid{Header: append([]string(nil), g.Header...)}
	if g.Rows != nil {
		out.Rows = make([][]string, len(g.Rows))
		for i, row := range g.Rows {
			out.Rows[i] = append([]string(nil), row...)
		}
	}
	return out
}

// Preview returns a copy of the grid with at most n data rows.
func (g Grid) Preview(n int) Grid {
	out := Grid{Header: append([]string(nil), g.Header...)}
	if n > len(g.Rows) || n < 0 {
		n = len(g.Rows)
	}
	out.Rows = make([][]string, n)
	for i := 0; i < n; i++ {
		out.Rows[i] = append([]string(nil), g.Rows[i]...)
	}
	return out
}

// Status is the lifecycle state of a Document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Document is one uploaded file plus its parse and validation state.
type Document struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Type             string       `json:"type"`
	SizeBytes        int64        `json:"sizeBytes"`
	UploadedAt       time.Time    `json:"uploadedAt"`
	UploadedBy       string       `json:"uploadedBy,omitempty"`
	Status           Status       `json:"status"`
	Diagnostics      []Diagnostic `json:"diagnostics"`
	RowCount         int          `json:"rowCount"`
	ColumnCount      int          `json:"columnCount"`
	HasHeaders       bool         `json:"hasHeaders"`
	HasMissingValues bool         `json:"hasMissingValues"`
	Edited           bool         `json:"edited"`
	Submission       *Outcome     `json:"submission,omitempty"`

	raw  []byte
	grid Grid
}

// Grid returns a copy of the document's full parsed grid.
func (d *Document) Grid() Grid {
	return d.grid.Clone()
}

// Raw returns the original file bytes.
func (d *Document) Raw() []byte {
	return d.raw
}

// snapshot returns a copy safe to hand outside the document lock.
func (d *Document) snapshot() *Document {
	cp := *d
	cp.Diagnostics = append([]Diagnostic{}, d.Diagnostics...)
	if d.Submission != nil {
		o := *d.Submission
		cp.Submission = &o
	}
	cp.grid = d.grid.Clone()
	return &cp
}

// FileInput describes one file in an upload batch.
type FileInput struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Outcome is the per-document result reported by the transport collaborator.
type Outcome struct {
	Success     bool      `json:"success"`
	Errors      []string  `json:"errors,omitempty"`
	InvalidRows []int     `json:"invalidRows,omitempty"`
	Inserted    int       `json:"inserted"`
	SubmittedAt time.Time `json:"submittedAt"`
	SubmittedBy string    `json:"submittedBy,omitempty"`
}

// Submission is what the gate hands to the transport: canonical CSV bytes
// plus the document type.
type Submission struct {
	DocumentID   string
	FileName     string
	DocumentType string
	Body         []byte
	UserID       string
}

// Transport delivers accepted documents to the downstream system.
type Transport interface {
	Submit(ctx context.Context, sub Submission) (Outcome, error)
}

// SubmitResult reports what happened to one document in a Submit call.
type SubmitResult struct {
	DocumentID string   `json:"documentId"`
	Name       string   `json:"name"`
	Status     Status   `json:"status"`
	Blocked    bool     `json:"blocked"`
	Outcome    *Outcome `json:"outcome,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// BatchSummary aggregates per-document submission outcomes.
type BatchSummary struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Blocked   int            `json:"blocked"`
	Results   []SubmitResult `json:"results"`
}
