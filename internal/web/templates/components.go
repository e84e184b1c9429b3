// Package templates renders the HTMX fragments served by the web layer.
//
// Components live in components.templ; run `templ generate` after editing it.
package templates

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

func issueCount(n int) string {
	return strconv.Itoa(n) + " issue(s)"
}

// position renders a 1-based row or column, blank when unknown.
func position(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func documentPath(id, suffix string) string {
	return "/api/documents/" + id + "/" + suffix
}

func rowVals(row int) string {
	return fmt.Sprintf(`{"row":%d}`, row)
}

func cellVals(row, col int) string {
	return fmt.Sprintf(`{"row":%d,"col":%d}`, row, col)
}

// flaggedCells maps preview coordinates to the diagnostic raised there.
// Diagnostic rows count the header as row 1.
func flaggedCells(v core.SessionView) map[[2]int]string {
	flagged := make(map[[2]int]string)
	for _, d := range v.Diagnostics {
		if d.Row > 1 && d.Column > 0 {
			flagged[[2]int{d.Row - 2, d.Column - 1}] = d.Description
		}
	}
	return flagged
}

func cellValue(row []string, c int) string {
	if c < len(row) {
		return row[c]
	}
	return ""
}

func resultName(r core.SubmitResult) string {
	if r.Name != "" {
		return r.Name
	}
	return r.DocumentID
}
