package web

// errors.go turns Go errors into HTTP responses. The technical error is
// logged with the request id; the client gets core.MapError's message and
// support code as JSON, or an ErrorAlert fragment for HTMX requests.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fxdesk/internal/core"
	"github.com/JonMunkholm/fxdesk/internal/logging"
	"github.com/JonMunkholm/fxdesk/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errBadRequest = errors.New("invalid request")

// badRequest wraps a client input problem so it maps to 400 and VAL004.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, core.ErrColumnOutOfRange),
		errors.Is(err, core.ErrNoFiles),
		errors.Is(err, core.ErrNoDocuments):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownDocumentType),
		errors.Is(err, core.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionOpen),
		errors.Is(err, core.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads),
		errors.Is(err, core.ErrNoTransport):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing version of it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	if errors.Is(err, errBadRequest) {
		msg.Message = strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	}

	logger := logging.FromContext(r.Context())
	logFn := logger.Warn
	if status >= http.StatusInternalServerError {
		logFn = logger.Error
	}
	logFn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if isHTMX(r) {
		// HTMX only swaps 2xx responses by default; HX-Retarget moves the
		// alert into the page's error slot.
		w.Header().Set("HX-Retarget", "#errors")
		renderFragment(w, r, status, templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
		return
	}
	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
