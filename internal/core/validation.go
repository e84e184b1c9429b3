package core

// validation.go applies a Schema to a parsed Grid.
//
// Validation runs in passes, in this order:
//  1. Emptiness: the grid must have a non-blank header row (short-circuits)
//  2. Columns: missing required, duplicate and unexpected headers
//  3. Row length: rows whose cell count differs from the header are reported
//     and skipped by the next pass
//  4. Fields: required values, then numeric, date, enum and pattern rules
//
// Every problem becomes a Diagnostic. Check never returns an error, and
// SafeCheck turns an unexpected panic into a single ProcessingFailure so a
// document always reaches a terminal status. Validation keeps no state:
// checking the same grid twice yields the same diagnostics.

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes why one cell failed one rule.
type ValidationError struct {
	Kind    DiagnosticKind
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Result is the outcome of one validation pass.
type Result struct {
	Diagnostics      []Diagnostic
	HasMissingValues bool
}

// Valid reports whether the pass produced no diagnostics.
func (r Result) Valid() bool {
	return len(r.Diagnostics) == 0
}

// ruleOrder is the order rule kinds are checked within a row.
var ruleOrder = []RuleKind{RuleNumeric, RuleDate, RuleEnum, RulePattern}

// Validate returns the diagnostics for grid under schema.
func Validate(grid Grid, schema *Schema) []Diagnostic {
	return Check(grid, schema).Diagnostics
}

// SafeCheck is Check with panic recovery.
func SafeCheck(grid Grid, schema *Schema) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Diagnostics: []Diagnostic{{
				Kind:        KindProcessingFailure,
				Description: fmt.Sprintf("processing failed: %v", r),
			}}}
		}
	}()
	return Check(grid, schema)
}

// Check runs every validation pass over grid.
func Check(grid Grid, schema *Schema) Result {
	var res Result

	if grid.IsEmpty() {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:        KindEmptyFile,
			Description: "file is empty",
		})
		return res
	}
	if isBlankRow(grid.Header) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:        KindEmptyFile,
			Description: "header row is blank",
			Row:         1,
		})
		return res
	}

	res.Diagnostics = append(res.Diagnostics, checkColumns(grid.Header, schema)...)

	if len(grid.Rows) == 0 {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:        KindEmptyFile,
			Description: "file has a header row but no data rows",
		})
		return res
	}

	headerIdx := MakeHeaderIndex(grid.Header)
	width := len(grid.Header)

	for i, row := range grid.Rows {
		rowNum := i + 2
		if len(row) != width {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:        KindRowLengthMismatch,
				Description: fmt.Sprintf("row has %d cells, expected %d", len(row), width),
				Row:         rowNum,
			})
			continue
		}

		diags, missing := checkRow(row, rowNum, headerIdx, schema)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if missing {
			res.HasMissingValues = true
		}
	}

	return res
}

// checkColumns reports missing, duplicate and unexpected headers, one
// diagnostic per category.
func checkColumns(header []string, schema *Schema) []Diagnostic {
	var diags []Diagnostic

	seen := make(map[string]int, len(header))
	var order []string
	for _, h := range header {
		key := normalizeHeader(CleanCell(h))
		if key == "" {
			continue
		}
		if seen[key] == 0 {
			order = append(order, key)
		}
		seen[key]++
	}

	var missing []string
	for _, f := range schema.RequiredFields() {
		if seen[f] == 0 {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		diags = append(diags, Diagnostic{
			Kind:        KindMissingHeaders,
			Description: "missing required columns: " + strings.Join(missing, ", "),
			Row:         1,
		})
	}

	var dups, unexpected []string
	for _, key := range order {
		if seen[key] > 1 {
			dups = append(dups, key)
		}
		if !schema.AllowsExtraColumns() && !schema.HasField(key) {
			unexpected = append(unexpected, key)
		}
	}
	if len(dups) > 0 {
		diags = append(diags, Diagnostic{
			Kind:        KindDuplicateHeaders,
			Description: "duplicate columns: " + strings.Join(dups, ", "),
			Row:         1,
		})
	}
	if len(unexpected) > 0 {
		diags = append(diags, Diagnostic{
			Kind:        KindUnexpectedHeaders,
			Description: "unexpected columns: " + strings.Join(unexpected, ", "),
			Row:         1,
		})
	}

	return diags
}

// checkRow validates one full-width row. A required field whose column is
// absent is not reported here; the column pass already covers it.
func checkRow(row []string, rowNum int, headerIdx HeaderIndex, schema *Schema) ([]Diagnostic, bool) {
	var (
		diags   []Diagnostic
		missing bool
	)

	for _, field := range schema.RequiredFields() {
		pos, ok := headerIdx[field]
		if !ok {
			continue
		}
		if strings.TrimSpace(row[pos]) == "" {
			missing = true
			diags = append(diags, Diagnostic{
				Kind:        KindRequiredFieldMissing,
				Description: fmt.Sprintf("%s is required", field),
				Row:         rowNum,
				Column:      pos + 1,
				Field:       field,
			})
		}
	}

	fields := schema.Fields()
	for _, kind := range ruleOrder {
		for _, field := range fields {
			pos, ok := headerIdx[field]
			if !ok {
				continue
			}
			value := strings.TrimSpace(row[pos])
			if value == "" {
				continue
			}
			for _, rule := range schema.Rules(field) {
				if rule.Kind != kind {
					continue
				}
				err := ValidateCell(value, rule)
				var ve ValidationError
				if !errors.As(err, &ve) {
					continue
				}
				v := value
				diags = append(diags, Diagnostic{
					Kind:         ve.Kind,
					Description:  fmt.Sprintf("%s %s", field, ve.Message),
					Row:          rowNum,
					Column:       pos + 1,
					Field:        field,
					CurrentValue: &v,
				})
			}
		}
	}

	return diags, missing
}

// ValidateCell checks one non-empty value against one rule. It returns nil
// when the value passes, otherwise a ValidationError.
func ValidateCell(value string, rule FieldRule) error {
	if value == "" {
		return nil
	}

	switch rule.Kind {
	case RuleNumeric:
		if !IsNumeric(value) {
			return ValidationError{Kind: KindInvalidNumber, Message: "must be numeric"}
		}
	case RuleDate:
		if _, ok := ParseDate(value, rule.Layout); !ok {
			return ValidationError{
				Kind:    KindInvalidDate,
				Message: fmt.Sprintf("must be a valid date (%s)", dateHint(rule.Layout)),
			}
		}
	case RuleEnum:
		for _, allowed := range rule.Values {
			if value == allowed || (rule.CaseInsensitive && strings.EqualFold(value, allowed)) {
				return nil
			}
		}
		return ValidationError{
			Kind:    KindInvalidEnumValue,
			Message: "must be one of: " + strings.Join(rule.Values, ", "),
		}
	case RulePattern:
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			hint := rule.Hint
			if hint == "" {
				hint = rule.Pattern.String()
			}
			return ValidationError{Kind: KindInvalidPattern, Message: "must match " + hint}
		}
	}
	return nil
}

func dateHint(l DateLayout) string {
	if l == DateISO {
		return "YYYY-MM-DD"
	}
	return "DD-MM-YYYY"
}
