package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

// schemaInfo describes a document type to clients building upload forms.
type schemaInfo struct {
	Type       string      `json:"type"`
	Label      string      `json:"label"`
	Group      string      `json:"group"`
	DateLayout string      `json:"dateLayout"`
	AllowExtra bool        `json:"allowExtraColumns"`
	Fields     []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

func toSchemaInfo(s *core.Schema) schemaInfo {
	info := schemaInfo{
		Type:       s.Type(),
		Label:      s.Label(),
		Group:      s.Group(),
		DateLayout: string(s.DateLayout()),
		AllowExtra: s.AllowsExtraColumns(),
	}
	for _, f := range s.Fields() {
		info.Fields = append(info.Fields, fieldInfo{Name: f, Label: s.DisplayLabel(f), Required: s.IsRequired(f)})
	}
	return info
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"schemas":  len(s.service.ListSchemas()),
		"sessions": len(s.service.OpenSessions()),
	})
}

// handleListSchemas returns every registered document type, optionally
// filtered by ?group=.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")

	out := make([]schemaInfo, 0)
	for _, sc := range s.service.ListSchemas() {
		if group != "" && !strings.EqualFold(sc.Group(), group) {
			continue
		}
		out = append(out, toSchemaInfo(sc))
	}
	writeJSON(w, out)
}

// handleMatchSchemas suggests document types for a header row.
func (s *Server) handleMatchSchemas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Header []string `json:"header"`
	}
	err := decodeBody(r, &req, func(get func(string) string, all func(string) []string) error {
		req.Header = all("header")
		if len(req.Header) == 1 && strings.Contains(req.Header[0], ",") {
			req.Header = core.Tokenize(req.Header[0]).Header
		}
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Header) == 0 {
		s.respondError(w, r, badRequest("header is required"))
		return
	}

	matches := core.MatchSchemas(req.Header)
	if matches == nil {
		matches = []core.SchemaMatch{}
	}
	writeJSON(w, matches)
}

// handleHistory returns recent submission attempts, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.History(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, entries)
}

// handleUploadStatus reports upload-slot usage.
func (s *Server) handleUploadStatus(w http.ResponseWriter, _ *http.Request) {
	l := s.service.Limiter()
	if l == nil {
		writeJSON(w, core.UploadLimiterStatus{})
		return
	}
	writeJSON(w, l.Status())
}
