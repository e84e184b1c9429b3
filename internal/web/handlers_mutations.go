package web

// handlers_mutations.go exposes correction sessions: open, edit, save and
// close. Edits return the refreshed session so the client can redraw the
// grid and its diagnostics in one round trip.

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fxdesk/internal/core"
	"github.com/JonMunkholm/fxdesk/internal/web/templates"
)

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, v core.SessionView, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, v, func() templ.Component { return templates.SessionEditor(v) })
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.OpenSession(chi.URLParam(r, "id"))
	s.respondSession(w, r, v, err)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.Session(chi.URLParam(r, "id"))
	s.respondSession(w, r, v, err)
}

// cellEdit is the body of a cell update. Row and Col index the editable
// preview, starting at 0.
type cellEdit struct {
	Row   *int   `json:"row"`
	Col   *int   `json:"col"`
	Value string `json:"value"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req cellEdit
	err := decodeBody(r, &req, func(get func(string) string, _ func(string) []string) error {
		row, err := formInt(get, "row")
		if err != nil {
			return err
		}
		col, err := formInt(get, "col")
		if err != nil {
			return err
		}
		req = cellEdit{Row: &row, Col: &col, Value: get("value")}
		return nil
	})
	if err == nil && (req.Row == nil || req.Col == nil) {
		err = badRequest("row and col are required")
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	v, err := s.service.UpdateCell(chi.URLParam(r, "id"), *req.Row, *req.Col, req.Value)
	s.respondSession(w, r, v, err)
}

func (s *Server) handleRemoveRow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Row *int `json:"row"`
	}
	err := decodeBody(r, &req, func(get func(string) string, _ func(string) []string) error {
		row, err := formInt(get, "row")
		req.Row = &row
		return err
	})
	if err == nil && req.Row == nil {
		err = badRequest("row is required")
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	v, err := s.service.RemoveRow(chi.URLParam(r, "id"), *req.Row)
	s.respondSession(w, r, v, err)
}

// handleSaveSession commits the session's grid to the document and closes
// the session.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.SaveSession(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, doc, func() templ.Component { return templates.DiagnosticsTable(doc.ID, doc.Diagnostics) })
}

// handleCloseSession discards unsaved edits.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.CloseSession(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, doc, func() templ.Component { return templates.DiagnosticsTable(doc.ID, doc.Diagnostics) })
}
