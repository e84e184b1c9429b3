// Package transport delivers accepted documents to the downstream treasury
// system.
//
// Each document is posted as multipart/form-data: the canonical CSV in a file
// part plus the document type in a form field. The receiver answers with
// {success, errors, invalidRows, inserted}. A well-formed rejection is an
// Outcome, not an error; errors are reserved for transport failures.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// Config configures an HTTP transport.
type Config struct {
	URL       string
	Timeout   time.Duration // client-level cap; the engine also sets a per-document deadline
	FileField string        // default "file"
	TypeField string        // default "document_type"
	AuthToken string        // sent as a bearer token when set
}

// HTTP posts documents to a single endpoint. It implements core.Transport.
type HTTP struct {
	cfg    Config
	client *http.Client
}

var _ core.Transport = (*HTTP)(nil)

// NewHTTP creates a transport. A nil client uses a fresh http.Client with
// cfg.Timeout.
func NewHTTP(cfg Config, client *http.Client) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("transport: URL is required")
	}
	if cfg.FileField == "" {
		cfg.FileField = "file"
	}
	if cfg.TypeField == "" {
		cfg.TypeField = "document_type"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTP{cfg: cfg, client: client}, nil
}

// response is the receiver's JSON reply.
type response struct {
	Success     bool     `json:"success"`
	Errors      []string `json:"errors"`
	InvalidRows []int    `json:"invalidRows"`
	Inserted    int      `json:"inserted"`
	Message     string   `json:"message"`
}

// Submit posts one document and decodes the receiver's verdict.
func (t *HTTP) Submit(ctx context.Context, sub core.Submission) (core.Outcome, error) {
	body, contentType, err := t.encode(sub)
	if err != nil {
		return core.Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, body)
	if err != nil {
		return core.Outcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if sub.UserID != "" {
		req.Header.Set("X-User-ID", sub.UserID)
	}
	if t.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.AuthToken)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return core.Outcome{}, fmt.Errorf("post %s: %w", sub.FileName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return core.Outcome{}, fmt.Errorf("read response: %w", err)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		if resp.StatusCode >= 300 {
			return core.Outcome{}, fmt.Errorf("receiver returned %s", resp.Status)
		}
		return core.Outcome{}, fmt.Errorf("decode response: %w", err)
	}

	// A 5xx without a verdict is a transport failure; anything else with a
	// decodable body is the receiver's answer.
	if resp.StatusCode >= 500 && !r.Success && len(r.Errors) == 0 && len(r.InvalidRows) == 0 {
		return core.Outcome{}, fmt.Errorf("receiver returned %s", resp.Status)
	}

	out := core.Outcome{
		Success:     r.Success && resp.StatusCode < 300,
		Errors:      r.Errors,
		InvalidRows: r.InvalidRows,
		Inserted:    r.Inserted,
	}
	if !out.Success && len(out.Errors) == 0 && r.Message != "" {
		out.Errors = []string{r.Message}
	}
	return out, nil
}

func (t *HTTP) encode(sub core.Submission) (io.Reader, string, error) {
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	if err := mw.WriteField(t.cfg.TypeField, sub.DocumentType); err != nil {
		return nil, "", fmt.Errorf("write %s field: %w", t.cfg.TypeField, err)
	}
	fw, err := mw.CreateFormFile(t.cfg.FileField, sub.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(sub.Body); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &b, mw.FormDataContentType(), nil
}
