package core

import (
	"errors"
	"testing"
	"time"
)

func newTestSession(t *testing.T, previewRows int, rows ...[]string) *Session {
	t.Helper()
	doc := &Document{ID: "doc-1", grid: tradeGrid(rows...)}
	return NewSession(doc, tradeSchema(t), previewRows, time.Unix(0, 0))
}

func TestSession_InitialDiagnostics(t *testing.T) {
	bad := validTradeRow()
	bad[4] = "4M"
	s := newTestSession(t, 50, validTradeRow(), bad)

	if s.Dirty() {
		t.Error("new session is dirty")
	}
	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != KindInvalidNumber || diags[0].Row != 3 {
		t.Errorf("Diagnostics() = %+v, want one InvalidNumber at row 3", diags)
	}
	if v := s.View(); v.Status != StatusError || v.TotalRows != 2 {
		t.Errorf("View() status %s total %d, want error/2", v.Status, v.TotalRows)
	}
}

func TestSession_UpdateCellResolves(t *testing.T) {
	bad := validTradeRow()
	bad[2] = "USDINR"
	s := newTestSession(t, 50, bad)

	now := time.Unix(100, 0)
	if err := s.UpdateCell(0, 2, "USD/INR", now); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	if len(s.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() after fix = %+v, want none", s.Diagnostics())
	}
	if !s.Dirty() {
		t.Error("Dirty() = false after edit")
	}
	if !s.LastActivity().Equal(now) {
		t.Errorf("LastActivity() = %v, want %v", s.LastActivity(), now)
	}
	if got := s.Grid().Rows[0][2]; got != "USD/INR" {
		t.Errorf("cell = %q, want USD/INR", got)
	}
	if s.View().Status != StatusSuccess {
		t.Errorf("View().Status = %s, want success", s.View().Status)
	}
}

func TestSession_UpdateCellPadsShortRow(t *testing.T) {
	s := newTestSession(t, 50, []string{"T1", "2025-08-01", "USD/INR", "Buy", "10"})

	if len(s.Diagnostics()) != 1 || s.Diagnostics()[0].Kind != KindRowLengthMismatch {
		t.Fatalf("Diagnostics() = %+v, want one RowLengthMismatch", s.Diagnostics())
	}
	if err := s.UpdateCell(0, 5, "added", time.Unix(1, 0)); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if len(s.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() after padding = %+v, want none", s.Diagnostics())
	}
}

func TestSession_Bounds(t *testing.T) {
	s := newTestSession(t, 1, validTradeRow(), validTradeRow())

	tests := []struct {
		name    string
		op      func() error
		wantErr error
	}{
		{"negative row", func() error { return s.UpdateCell(-1, 0, "x", time.Now()) }, ErrRowOutOfRange},
		{"row past preview", func() error { return s.UpdateCell(1, 0, "x", time.Now()) }, ErrRowOutOfRange},
		{"column past header", func() error { return s.UpdateCell(0, 6, "x", time.Now()) }, ErrColumnOutOfRange},
		{"negative column", func() error { return s.UpdateCell(0, -1, "x", time.Now()) }, ErrColumnOutOfRange},
		{"remove past preview", func() error { return s.RemoveRow(1, time.Now()) }, ErrRowOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if s.Dirty() {
		t.Error("rejected edits marked the session dirty")
	}
}

func TestSession_RemoveRow(t *testing.T) {
	bad := validTradeRow()
	bad[3] = "Hold"
	s := newTestSession(t, 50, validTradeRow(), bad, validTradeRow())

	if len(s.Diagnostics()) != 1 {
		t.Fatalf("Diagnostics() = %+v, want one", s.Diagnostics())
	}
	if err := s.RemoveRow(1, time.Unix(5, 0)); err != nil {
		t.Fatalf("RemoveRow: %v", err)
	}
	if len(s.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() after removal = %+v, want none", s.Diagnostics())
	}
	if got := len(s.Grid().Rows); got != 2 {
		t.Errorf("rows after removal = %d, want 2", got)
	}
	if s.EditableRows() != 2 {
		t.Errorf("EditableRows() = %d, want 2", s.EditableRows())
	}
}

// TestSession_TailIsValidatedButReadOnly checks that rows past the preview
// still contribute diagnostics while staying out of reach of edits.
func TestSession_TailIsValidatedButReadOnly(t *testing.T) {
	bad := validTradeRow()
	bad[1] = "01-08-2025"
	s := newTestSession(t, 1, validTradeRow(), bad)

	if s.EditableRows() != 1 {
		t.Fatalf("EditableRows() = %d, want 1", s.EditableRows())
	}
	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Row != 3 || diags[0].Kind != KindInvalidDate {
		t.Errorf("Diagnostics() = %+v, want InvalidDate at row 3", diags)
	}
	if got := len(s.View().Rows); got != 1 {
		t.Errorf("View().Rows = %d, want preview only", got)
	}
	if got := len(s.Grid().Rows); got != 2 {
		t.Errorf("Grid().Rows = %d, want full grid", got)
	}
}

func TestSession_DoesNotAliasDocument(t *testing.T) {
	doc := &Document{ID: "doc-1", grid: tradeGrid(validTradeRow())}
	s := NewSession(doc, tradeSchema(t), 50, time.Now())

	if err := s.UpdateCell(0, 0, "CHANGED", time.Now()); err != nil {
		t.Fatal(err)
	}
	if doc.grid.Rows[0][0] != "T1" {
		t.Errorf("document grid changed to %q while session was open", doc.grid.Rows[0][0])
	}
}
