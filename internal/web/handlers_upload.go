package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fxdesk/internal/core"
	"github.com/JonMunkholm/fxdesk/internal/logging"
	"github.com/JonMunkholm/fxdesk/internal/web/templates"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// handleUpload ingests a batch of files as documents of one type. Files may
// be sent under "files" (repeatable) or "file".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "docType")
	if _, err := core.Resolve(docType); err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize*maxBatchFiles)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, maxErr.Limit))
			return
		}
		s.respondError(w, r, badRequest("expected a multipart form with files: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		s.respondError(w, r, core.ErrNoFiles)
		return
	}
	if len(headers) > maxBatchFiles {
		s.respondError(w, r, badRequest("at most %d files per upload", maxBatchFiles))
		return
	}

	files := make([]core.FileInput, len(headers))
	for i, fh := range headers {
		files[i] = fileInput(fh)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	docs, err := s.service.IngestBatch(ctx, docType, actingUser(r), files)
	if err != nil && len(docs) == 0 {
		s.respondError(w, r, err)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("upload batch interrupted",
			"document_type", docType, "processed", len(docs), "error", err)
	}

	respond(w, r, docs, func() templ.Component { return templates.DocumentList(docs) })
}

func fileInput(fh *multipart.FileHeader) core.FileInput {
	return core.FileInput{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.service.Documents()
	respond(w, r, docs, func() templ.Component { return templates.DocumentList(docs) })
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Document(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveDocument(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// diagnosticsResponse is the body of the diagnostics endpoint in both JSON and
// MessagePack.
type diagnosticsResponse struct {
	DocumentID  string            `json:"documentId" msgpack:"documentId"`
	Status      core.Status       `json:"status" msgpack:"status"`
	Diagnostics []core.Diagnostic `json:"diagnostics" msgpack:"diagnostics"`
}

// handleDiagnostics lists a document's diagnostics. Clients sending
// Accept: application/msgpack get MessagePack; HTMX gets a table fragment.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Document(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	diags := doc.Diagnostics
	if diags == nil {
		diags = []core.Diagnostic{}
	}
	if isHTMX(r) {
		renderFragment(w, r, http.StatusOK, templates.DiagnosticsTable(doc.ID, diags))
		return
	}
	writeNegotiated(w, r, diagnosticsResponse{DocumentID: doc.ID, Status: doc.Status, Diagnostics: diags})
}

// handlePreview returns the first rows of a document's grid.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.Preview(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeNegotiated(w, r, g)
}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Revalidate(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, doc, func() templ.Component { return templates.DiagnosticsTable(doc.ID, doc.Diagnostics) })
}
