package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

// handleDownloadTemplate serves a blank template for a document type:
// display-label header plus one sample row. ?format=csv|xlsx, default csv.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	schema, err := core.Resolve(chi.URLParam(r, "docType"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	tpl, err := core.BuildTemplate(schema, r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, badRequest("%v", err))
		return
	}

	w.Header().Set("Content-Type", tpl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, tpl.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(tpl.Body)))
	_, _ = w.Write(tpl.Body)
}
