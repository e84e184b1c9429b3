package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoDocuments is returned when Submit is called without document ids.
var ErrNoDocuments = errors.New("no documents selected")

// IsSubmittable reports whether doc may be handed to the transport: it must
// have validated cleanly and carry no diagnostics.
func IsSubmittable(doc *Document) bool {
	return doc.Status == StatusSuccess && len(doc.Diagnostics) == 0
}

// Serialize renders a grid as CSV with every field quoted and embedded
// quotes doubled. Lines end with "\n".
func Serialize(g Grid) []byte {
	var buf bytes.Buffer
	writeRecord(&buf, g.Header)
	for _, row := range g.Rows {
		writeRecord(&buf, row)
	}
	return buf.Bytes()
}

func writeRecord(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// Submit hands every submittable document in ids to the transport, one at a
// time, and folds each outcome back into the document. Documents that are not
// submittable are reported as blocked and left untouched so they can be
// corrected and retried. A document whose only diagnostics come from an
// earlier failed submission is re-validated first, which makes it eligible
// again.
func (s *Service) Submit(ctx context.Context, ids []string, userID string) (BatchSummary, error) {
	if len(ids) == 0 {
		return BatchSummary{}, ErrNoDocuments
	}

	summary := BatchSummary{Results: make([]SubmitResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := s.submitOne(ctx, id, userID)
		switch {
		case res.Blocked:
			summary.Blocked++
		case res.Outcome != nil && res.Outcome.Success:
			summary.Succeeded++
		default:
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
	}

	slog.Info("submission batch finished",
		"user_id", userID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"blocked", summary.Blocked,
	)
	return summary, nil
}

func (s *Service) submitOne(ctx context.Context, id, userID string) SubmitResult {
	e, err := s.entry(id)
	if err != nil {
		return SubmitResult{DocumentID: id, Blocked: true, Error: err.Error()}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.doc
	res := SubmitResult{DocumentID: id, Name: doc.Name}

	if e.session != nil {
		res.Status = doc.Status
		res.Blocked = true
		res.Error = "correction session is open; save or close it first"
		return res
	}
	if onlySubmissionDiagnostics(doc.Diagnostics) {
		applyResult(doc, doc.grid, SafeCheck(doc.grid, e.schema))
	}
	if !IsSubmittable(doc) {
		res.Status = doc.Status
		res.Blocked = true
		res.Error = fmt.Sprintf("document has %d outstanding issue(s)", len(doc.Diagnostics))
		return res
	}
	if s.transport == nil {
		res.Status = doc.Status
		res.Error = ErrNoTransport.Error()
		return res
	}

	sub := Submission{
		DocumentID:   doc.ID,
		FileName:     canonicalFileName(doc),
		DocumentType: doc.Type,
		Body:         Serialize(doc.grid),
		UserID:       userID,
	}

	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	out, err := s.transport.Submit(tctx, sub)
	cancel()
	elapsed := time.Since(start).Round(time.Millisecond)

	out.SubmittedAt = s.now()
	out.SubmittedBy = userID

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// The transport may carry its own, shorter deadline.
		fail(doc, KindSubmissionTimeout, fmt.Sprintf("submission timed out after %s", elapsed))
		out.Success = false
		out.Errors = append(out.Errors, doc.Diagnostics[0].Description)
		res.Error = doc.Diagnostics[0].Description
	case err != nil:
		fail(doc, KindSubmissionFailed, fmt.Sprintf("submission failed: %v", err))
		out.Success = false
		out.Errors = append(out.Errors, err.Error())
		res.Error = err.Error()
	case !out.Success:
		doc.Status = StatusError
		doc.Diagnostics = outcomeDiagnostics(out)
		res.Error = strings.Join(out.Errors, "; ")
		if res.Error == "" {
			res.Error = "submission rejected"
		}
	}

	outcome := out
	doc.Submission = &outcome
	res.Status = doc.Status
	res.Outcome = &outcome

	s.recordHistory(ctx, doc, outcome)
	return res
}

// outcomeDiagnostics turns a rejected outcome into diagnostics on the document.
func outcomeDiagnostics(out Outcome) []Diagnostic {
	var diags []Diagnostic
	for _, msg := range out.Errors {
		diags = append(diags, Diagnostic{Kind: KindSubmissionFailed, Description: msg})
	}
	for _, row := range out.InvalidRows {
		diags = append(diags, Diagnostic{
			Kind:        KindSubmissionFailed,
			Description: "row rejected by the receiving system",
			Row:         row,
		})
	}
	if len(diags) == 0 {
		diags = append(diags, Diagnostic{Kind: KindSubmissionFailed, Description: "submission rejected"})
	}
	return diags
}

func onlySubmissionDiagnostics(diags []Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Kind != KindSubmissionFailed && d.Kind != KindSubmissionTimeout {
			return false
		}
	}
	return true
}

// canonicalFileName names the CSV handed to the transport. Spreadsheets are
// converted, so their extension changes.
func canonicalFileName(doc *Document) string {
	name := doc.Name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		name = doc.Type
	}
	return name + FormatCSV
}

func (s *Service) recordHistory(ctx context.Context, doc *Document, out Outcome) {
	entry := HistoryEntry{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		FileName:     doc.Name,
		DocumentType: doc.Type,
		SubmittedBy:  out.SubmittedBy,
		SubmittedAt:  out.SubmittedAt,
		Success:      out.Success,
		Inserted:     out.Inserted,
		Errors:       out.Errors,
		InvalidRows:  out.InvalidRows,
		RowCount:     doc.RowCount,
		Edited:       doc.Edited,
	}
	// History must not turn a delivered document into a failure.
	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("record submission history", "document_id", doc.ID, "error", err)
	}
}
