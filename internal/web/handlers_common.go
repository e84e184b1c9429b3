package web

// handlers_common.go holds response writers and request decoding shared by
// the handlers.

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
	contentTypeHTML    = "text/html; charset=utf-8"

	// maxJSONBody caps JSON request bodies (cell edits, submit lists).
	maxJSONBody = 1 << 20
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

// wantsMsgpack reports whether the client asked for MessagePack.
func wantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == contentTypeMsgpack || mt == "application/x-msgpack" {
			return true
		}
	}
	return false
}

// writeNegotiated writes v as MessagePack when the client asked for it and as
// JSON otherwise.
func writeNegotiated(w http.ResponseWriter, r *http.Request, v any) {
	if !wantsMsgpack(r) {
		writeJSON(w, v)
		return
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		slog.Error("msgpack encode", "error", err)
		writeJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error: "failed to encode response", Message: "failed to encode response", Code: "ERR000",
		})
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.Header().Set("Vary", "Accept")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// renderFragment writes an HTMX fragment.
func renderFragment(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render fragment", "path", r.URL.Path, "error", err)
	}
}

// respond sends an HTMX fragment or JSON depending on who asked.
func respond(w http.ResponseWriter, r *http.Request, v any, fragment func() templ.Component) {
	if isHTMX(r) && fragment != nil {
		renderFragment(w, r, http.StatusOK, fragment())
		return
	}
	writeJSON(w, v)
}

// decodeBody reads a JSON body into v, or form values through fromForm when
// the request is form-encoded (HTMX posts forms).
func decodeBody(r *http.Request, v any, fromForm func(get func(string) string, all func(string) []string) error) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == contentTypeJSON {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return badRequest("malformed JSON body: %v", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return badRequest("malformed form body: %v", err)
	}
	return fromForm(r.PostForm.Get, func(k string) []string { return r.PostForm[k] })
}

func formInt(get func(string) string, name string) (int, error) {
	raw := strings.TrimSpace(get(name))
	if raw == "" {
		return 0, badRequest("%s is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}

// queryInt parses a positive integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}
