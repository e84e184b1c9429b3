package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Supported upload formats.
const (
	FormatCSV  = ".csv"
	FormatXLSX = ".xlsx"
	FormatXLS  = ".xls"
)

// TokenizeSpreadsheet reads the first sheet of an .xlsx or .xls workbook into
// a Grid. Fully empty rows are skipped and short rows keep their length, the
// same as the CSV path. Date cells are rendered with layout.
func TokenizeSpreadsheet(data []byte, ext string, layout DateLayout) (Grid, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(ext) {
	case FormatXLSX:
		rows, err = readXLSX(data, layout)
	case FormatXLS:
		rows, err = readXLS(data, layout)
	default:
		return Grid{}, fmt.Errorf("unsupported spreadsheet format %q", ext)
	}
	if err != nil {
		return Grid{}, err
	}

	var g Grid
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if g.Header == nil {
			g.Header = row
			continue
		}
		g.Rows = append(g.Rows, row)
	}
	return g, nil
}

// readXLSX walks the first sheet twice: once with formatted values and once
// with raw values. A numeric raw value whose formatted text looks like a date
// is an Excel serial date and is converted from the serial, which avoids
// guessing whether the display format was day-first or month-first. Other
// numeric cells keep their raw value.
func readXLSX(data []byte, layout DateLayout) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	out := make([][]string, len(formatted))
	headerSeen := false
	for i, row := range formatted {
		cells := make([]string, len(row))
		for j, v := range row {
			if !headerSeen {
				cells[j] = CleanCell(v)
				continue
			}
			var rawVal string
			if i < len(raw) && j < len(raw[i]) {
				rawVal = raw[i][j]
			}
			cells[j] = xlsxCell(f, sheet, i, j, v, rawVal, layout)
		}
		if !isBlankRow(cells) {
			headerSeen = true
		}
		out[i] = cells
	}
	return out, nil
}

// xlsxCell picks the text for one data cell. Cells stored as numbers use the
// raw value, not the display text, so a "#,##0.00" format does not leak
// thousands separators into the grid.
func xlsxCell(f *excelize.File, sheet string, row, col int, formatted, raw string, layout DateLayout) string {
	formatted = CleanCell(formatted)
	if formatted == "" {
		return ""
	}

	typ := excelize.CellTypeUnset
	if ref, err := excelize.CoordinatesToCellName(col+1, row+1); err == nil {
		if t, err := f.GetCellType(sheet, ref); err == nil {
			typ = t
		}
	}

	if typ == excelize.CellTypeDate {
		if t, ok := ParseDateText(raw); ok {
			return FormatDate(t, layout)
		}
	}

	if raw != "" && raw != formatted && looksLikeDate(formatted) {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return FormatDate(t, layout)
			}
		}
	}

	if t, ok := ParseDateText(formatted); ok {
		return FormatDate(t, layout)
	}

	if (typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber) && IsNumeric(raw) {
		return NormalizeNumber(raw)
	}
	return formatted
}

// readXLS reads a legacy BIFF workbook. The reader already renders built-in
// date formats as RFC 3339 text, which ParseDateText recognises.
func readXLS(data []byte, layout DateLayout) (rows [][]string, err error) {
	// The BIFF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read legacy workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	headerSeen := false
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		cells := make([]string, r.LastCol())
		for j := range cells {
			v := CleanCell(r.Col(j))
			if headerSeen && v != "" {
				if t, ok := ParseDateText(v); ok {
					v = FormatDate(t, layout)
				}
			}
			cells[j] = v
		}
		if !isBlankRow(cells) {
			headerSeen = true
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteSpreadsheet renders rows as a single-sheet .xlsx workbook.
func WriteSpreadsheet(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
