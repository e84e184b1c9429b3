package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	out := renderString(t, ErrorAlert("<script>x</script>", "Try again", "VAL001"))
	if strings.Contains(out, "<script>") {
		t.Errorf("message not escaped: %s", out)
	}
	for _, want := range []string{"&lt;script&gt;", "Try again", "Code: VAL001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestDiagnosticsTable(t *testing.T) {
	val := "20-20-2025"
	diags := []core.Diagnostic{
		{Kind: core.KindMissingHeaders, Description: "missing required headers: value_date"},
		{Kind: core.KindInvalidDate, Description: "invalid date", Row: 3, Column: 4, Field: "value_date", CurrentValue: &val},
	}
	out := renderString(t, DiagnosticsTable("doc-1", diags))

	for _, want := range []string{`id="diagnostics-doc-1"`, "2 issue(s)", "<td>3</td><td>4</td>", "<code>20-20-2025</code>", "diag-InvalidDate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}

	if out := renderString(t, DiagnosticsTable("doc-2", nil)); !strings.Contains(out, "No issues found.") {
		t.Errorf("empty table = %s", out)
	}
}

func TestSessionEditor_FlagsInvalidCells(t *testing.T) {
	view := core.SessionView{
		DocumentID: "doc-1",
		Status:     core.StatusError,
		Header:     []string{"deal_id", "amount"},
		Rows:       [][]string{{"D1", "12"}, {"D2", "abc"}},
		TotalRows:  5,
		Diagnostics: []core.Diagnostic{
			{Kind: core.KindInvalidNumber, Description: "amount must be a number", Row: 3, Column: 2, Field: "amount"},
		},
		Dirty: true,
	}
	out := renderString(t, SessionEditor(view))

	for _, want := range []string{
		"showing 2 of 5 rows",
		"unsaved changes",
		`<td class="cell-invalid" title="amount must be a number"><input name="value" value="abc"`,
		`hx-vals="{&#34;row&#34;:1,&#34;col&#34;:1}"`,
		`hx-target="#session-doc-1"`,
		"1 issue(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "cell-invalid") != 1 {
		t.Errorf("want exactly one flagged cell:\n%s", out)
	}
}

func TestSubmitSummary(t *testing.T) {
	s := core.BatchSummary{
		Succeeded: 1, Blocked: 1,
		Results: []core.SubmitResult{
			{DocumentID: "a", Name: "mtm.csv", Outcome: &core.Outcome{Success: true, Inserted: 4}},
			{DocumentID: "b", Blocked: true, Error: "document has 2 outstanding issue(s)"},
		},
	}
	out := renderString(t, SubmitSummary(s))
	for _, want := range []string{"1 submitted, 0 failed, 1 blocked", "mtm.csv", "4 inserted", "badge-blocked", "outstanding issue(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestDocumentList(t *testing.T) {
	docs := []*core.Document{
		{ID: "d1", Name: "po & grn.csv", Status: core.StatusSuccess, RowCount: 3},
		{ID: "d2", Name: "bad.csv", Status: core.StatusError, Diagnostics: []core.Diagnostic{{Kind: core.KindEmptyFile}}},
	}
	out := renderString(t, DocumentList(docs))
	for _, want := range []string{"po &amp; grn.csv", "badge-success", "3 rows", `hx-get="/api/documents/d2/diagnostics"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSessionEditor_ShortRowsRenderBlankCells(t *testing.T) {
	view := core.SessionView{
		DocumentID: "doc-9",
		Status:     core.StatusSuccess,
		Header:     []string{"deal_id", "amount", "currency"},
		Rows:       [][]string{{"D1"}},
		TotalRows:  1,
	}
	out := renderString(t, SessionEditor(view))

	if got := strings.Count(out, `<input name="value"`); got != 3 {
		t.Errorf("want 3 inputs, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, `<input name="value" value=""`) {
		t.Errorf("missing blank cell:\n%s", out)
	}
	if strings.Contains(out, "unsaved changes") {
		t.Errorf("clean session marked dirty:\n%s", out)
	}
	if !strings.Contains(out, `hx-post="/api/documents/doc-9/session/remove-row"`) {
		t.Errorf("missing remove-row control:\n%s", out)
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := DocumentList(nil).Render(ctx, &buf); err == nil {
		t.Error("expected error for cancelled context")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q after cancellation", buf.String())
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"position zero", position(0), ""},
		{"position", position(7), "7"},
		{"issue count", issueCount(2), "2 issue(s)"},
		{"document path", documentPath("d1", "session/cell"), "/api/documents/d1/session/cell"},
		{"row vals", rowVals(3), `{"row":3}`},
		{"cell vals", cellVals(0, 2), `{"row":0,"col":2}`},
		{"cell value in range", cellValue([]string{"a", "b"}, 1), "b"},
		{"cell value past end", cellValue([]string{"a"}, 4), ""},
		{"result name", resultName(core.SubmitResult{DocumentID: "x", Name: "mtm.csv"}), "mtm.csv"},
		{"result name fallback", resultName(core.SubmitResult{DocumentID: "x"}), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFlaggedCells_SkipsDocumentLevel(t *testing.T) {
	v := core.SessionView{Diagnostics: []core.Diagnostic{
		{Kind: core.KindMissingHeaders, Description: "missing"},
		{Kind: core.KindInvalidNumber, Description: "bad", Row: 2, Column: 3},
		{Kind: core.KindInvalidDate, Description: "header row", Row: 1, Column: 1},
	}}
	flagged := flaggedCells(v)
	if len(flagged) != 1 || flagged[[2]int{0, 2}] != "bad" {
		t.Errorf("flaggedCells = %v", flagged)
	}
}
