package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoFiles is returned when a batch contains no files.
var ErrNoFiles = errors.New("no files provided")

// BytesFile wraps an in-memory file as a FileInput.
func BytesFile(name string, data []byte) FileInput {
	return FileInput{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// IngestBatch tokenizes and validates each file as a document of docType,
// stamped with userID. Files are processed one after another in the order
// given, so status changes and diagnostics are attributed deterministically.
// A file that cannot be read or has an unsupported extension ends in Error
// without affecting the rest of the batch.
//
// The returned error is non-nil only when the batch as a whole could not run:
// unknown document type, empty batch, no free upload slot, or ctx cancelled
// (documents finished before cancellation are still returned).
func (s *Service) IngestBatch(ctx context.Context, docType, userID string, files []FileInput) ([]*Document, error) {
	schema, err := Resolve(docType)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	start := time.Now()
	docs := make([]*Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		docs = append(docs, s.ingestFile(schema, userID, f))
	}

	slog.Info("upload batch processed",
		"document_type", schema.Type(),
		"user_id", userID,
		"files", len(files),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return docs, nil
}

func (s *Service) ingestFile(schema *Schema, userID string, f FileInput) *Document {
	e := &docEntry{
		schema: schema,
		doc: &Document{
			ID:          uuid.NewString(),
			Name:        f.Name,
			Type:        schema.Type(),
			SizeBytes:   f.Size,
			UploadedAt:  s.now(),
			UploadedBy:  userID,
			Status:      StatusPending,
			Diagnostics: []Diagnostic{},
		},
	}
	s.add(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	s.process(e, f)

	slog.Info("document processed",
		"document_id", e.doc.ID,
		"file", e.doc.Name,
		"status", e.doc.Status,
		"rows", e.doc.RowCount,
		"diagnostics", len(e.doc.Diagnostics),
	)
	return e.doc.snapshot()
}

// process runs one file through read, tokenize, alias mapping and validation.
// Any panic past the read step becomes a ProcessingFailure.
func (s *Service) process(e *docEntry, f FileInput) {
	doc := e.doc

	ext := strings.ToLower(filepath.Ext(f.Name))
	if !SupportedFormat(ext) {
		fail(doc, KindUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q: expected .csv, .xlsx or .xls", ext))
		return
	}

	doc.Status = StatusProcessing

	data, err := readInput(f, s.cfg.MaxFileSize)
	if err != nil {
		fail(doc, KindReadFailure, fmt.Sprintf("read file: %v", err))
		return
	}
	doc.raw = data
	if doc.SizeBytes == 0 {
		doc.SizeBytes = int64(len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("document processing panicked", "document_id", doc.ID, "panic", r)
			fail(doc, KindProcessingFailure, "processing failed: unexpected internal error")
		}
	}()

	grid, err := Parse(data, ext, e.schema.DateLayout())
	if err != nil {
		fail(doc, KindReadFailure, fmt.Sprintf("read file: %v", err))
		return
	}
	grid.Header = MapDisplayToCanonical(e.schema, grid.Header)
	doc.grid = grid

	applyResult(doc, grid, SafeCheck(grid, e.schema))
}

// Parse tokenizes file contents according to their extension.
func Parse(data []byte, ext string, layout DateLayout) (Grid, error) {
	switch strings.ToLower(ext) {
	case FormatCSV:
		text, err := io.ReadAll(WrapForText(bytes.NewReader(data)))
		if err != nil {
			return Grid{}, err
		}
		return Tokenize(string(text)), nil
	case FormatXLSX, FormatXLS:
		return TokenizeSpreadsheet(data, ext, layout)
	}
	return Grid{}, fmt.Errorf("unsupported file format %q", ext)
}

// SupportedFormat reports whether ext (with leading dot) can be ingested.
func SupportedFormat(ext string) bool {
	switch strings.ToLower(ext) {
	case FormatCSV, FormatXLSX, FormatXLS:
		return true
	}
	return false
}

func readInput(f FileInput, maxSize int64) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.New("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(NewLimitedReader(rc, maxSize))
}

// fail moves doc to Error with a single pipeline-level diagnostic.
func fail(doc *Document, kind DiagnosticKind, description string) {
	doc.Status = StatusError
	doc.Diagnostics = []Diagnostic{{Kind: kind, Description: description}}
}
