package web

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fxdesk/internal/web/templates"
)

// submitRequest names the documents to hand to the transport, in order.
type submitRequest struct {
	IDs []string `json:"ids"`
}

// handleSubmit pushes the selected documents through the submission gate.
// Documents with outstanding issues are reported as blocked, not sent.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	err := decodeBody(r, &req, func(_ func(string) string, all func(string) []string) error {
		for _, v := range all("ids") {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					req.IDs = append(req.IDs, id)
				}
			}
		}
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.service.Submit(r.Context(), req.IDs, actingUser(r))
	if err != nil && len(summary.Results) == 0 {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, summary, func() templ.Component { return templates.SubmitSummary(summary) })
}
