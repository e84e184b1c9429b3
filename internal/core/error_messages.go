package core

// error_messages.go maps Go errors returned by the engine to user-facing
// messages with support codes. Diagnostics are not errors and do not pass
// through here; they already carry their own descriptions.
//
// # Error Codes Reference
//
//	VAL001 - Unknown document type
//	VAL002 - Row out of range
//	VAL003 - Column out of range
//	VAL004 - Invalid request body
//
//	FILE001 - File too large
//	FILE002 - Unsupported file format
//	FILE003 - No file provided
//	FILE004 - File could not be read
//
//	UPL001 - Too many concurrent uploads
//	UPL002 - Request cancelled
//	UPL003 - Request timed out
//
//	DOC001 - Document not found
//
//	SES001 - Correction session already open
//	SES002 - No correction session open
//
//	SUB001 - No documents selected
//	SUB002 - Submission transport not configured
//	SUB003 - Receiving system unreachable
//
//	DB001 - History database unavailable
//
//	RATE001 - Rate limited
//
//	ERR000 - Unknown error (check logs for the technical error)
//
// Sentinel errors are matched with errors.Is first. Anything else falls back to
// case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrUnknownDocumentType, UserMessage{
		Message: "Unknown document type",
		Action:  "Choose one of the listed document types",
		Code:    "VAL001",
	}},
	{ErrRowOutOfRange, UserMessage{
		Message: "That row is not in the editable preview",
		Action:  "Refresh the session and pick a row from the preview",
		Code:    "VAL002",
	}},
	{ErrColumnOutOfRange, UserMessage{
		Message: "That column does not exist in this document",
		Action:  "Refresh the session and pick a column from the header",
		Code:    "VAL003",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}},
	{ErrNoFiles, UserMessage{
		Message: "No file was selected",
		Action:  "Select at least one .csv, .xlsx or .xls file",
		Code:    "FILE003",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL002",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try again, or upload fewer files at once",
		Code:    "UPL003",
	}},
	{ErrDocumentNotFound, UserMessage{
		Message: "Document not found",
		Action:  "The document may have been removed. Upload the file again",
		Code:    "DOC001",
	}},
	{ErrSessionOpen, UserMessage{
		Message: "A correction session is already open for this document",
		Action:  "Continue the open session, or save or close it first",
		Code:    "SES001",
	}},
	{ErrNoSession, UserMessage{
		Message: "No correction session is open for this document",
		Action:  "Open a correction session first",
		Code:    "SES002",
	}},
	{ErrNoDocuments, UserMessage{
		Message: "No documents were selected for submission",
		Action:  "Select at least one validated document",
		Code:    "SUB001",
	}},
	{ErrNoTransport, UserMessage{
		Message: "Submission is not configured on this server",
		Action:  "Ask an administrator to set TRANSPORT_URL",
		Code:    "SUB002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that arrive without a sentinel, typically from
// the standard library or a driver.
var errorPatterns = []errorPattern{
	{"unsupported file format", UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv, .xlsx or .xls file",
		Code:    "FILE002",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Select at least one .csv, .xlsx or .xls file",
		Code:    "FILE003",
	}},
	{"multipart", UserMessage{
		Message: "The uploaded form could not be read",
		Action:  "Try the upload again",
		Code:    "FILE004",
	}},
	{"invalid request", UserMessage{
		Message: "The request could not be understood",
		Action:  "Check the request body and try again",
		Code:    "VAL004",
	}},
	{"connection refused", UserMessage{
		Message: "The receiving system could not be reached",
		Action:  "Please try again in a few moments",
		Code:    "SUB003",
	}},
	{"no such host", UserMessage{
		Message: "The receiving system could not be reached",
		Action:  "Ask an administrator to check TRANSPORT_URL",
		Code:    "SUB003",
	}},
	{"database", UserMessage{
		Message: "Submission history is temporarily unavailable",
		Action:  "Please try again later",
		Code:    "DB001",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
