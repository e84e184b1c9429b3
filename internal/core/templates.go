package core

import (
	"fmt"
	"sort"
	"strings"
)

// Template formats offered for download.
const (
	TemplateCSV  = "csv"
	TemplateXLSX = "xlsx"
)

// Content types of generated templates.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TemplateMatchThreshold is the minimum score for a schema to be suggested
// for an uploaded header row.
const TemplateMatchThreshold = 0.7

// Template is a generated header-plus-sample file for one schema.
type Template struct {
	FileName    string
	ContentType string
	Body        []byte
}

// TemplateRows returns the rows of a schema's downloadable template: the
// display header followed by one sample row.
func TemplateRows(schema *Schema) [][]string {
	return [][]string{schema.DisplayHeader(), schema.SampleRow()}
}

// BuildTemplate renders the template for schema as CSV or xlsx.
func BuildTemplate(schema *Schema, format string) (Template, error) {
	rows := TemplateRows(schema)
	base := schema.Type() + "_template"

	switch strings.ToLower(format) {
	case "", TemplateCSV:
		return Template{
			FileName:    base + FormatCSV,
			ContentType: ContentTypeCSV,
			Body:        Serialize(Grid{Header: rows[0], Rows: rows[1:]}),
		}, nil
	case TemplateXLSX:
		body, err := WriteSpreadsheet(rows)
		if err != nil {
			return Template{}, fmt.Errorf("build %s template: %w", schema.Type(), err)
		}
		return Template{
			FileName:    base + FormatXLSX,
			ContentType: ContentTypeXLSX,
			Body:        body,
		}, nil
	}
	return Template{}, fmt.Errorf("unsupported template format %q", format)
}

// SchemaMatch is a schema suggested for an uploaded header row.
type SchemaMatch struct {
	Type  string  `json:"type"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MatchSchemas scores every registered schema against header and returns
// those at or above TemplateMatchThreshold, best first. The score is the share
// of the schema's required fields present after alias mapping.
func MatchSchemas(header []string) []SchemaMatch {
	var matches []SchemaMatch
	for _, s := range All() {
		score := matchHeader(s, header)
		if score >= TemplateMatchThreshold {
			matches = append(matches, SchemaMatch{Type: s.Type(), Label: s.Label(), Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func matchHeader(schema *Schema, header []string) float64 {
	required := schema.RequiredFields()
	if len(required) == 0 {
		return 0
	}

	present := make(map[string]bool, len(header))
	for _, h := range MapDisplayToCanonical(schema, header) {
		present[normalizeHeader(h)] = true
	}

	matched := 0
	for _, f := range required {
		if present[f] {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}
