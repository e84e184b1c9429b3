package core

import "strings"

// Tokenize splits delimited text into a Grid. The first non-blank line is the
// header; blank lines anywhere are dropped.
//
// Fields are separated by commas outside double quotes. Quote characters only
// toggle quoting and are not part of the value, except that a doubled quote
// inside a quoted field stands for one literal quote, which is how Serialize
// writes them. Every field is trimmed. Newlines inside quoted fields are not
// supported.
func Tokenize(raw string) Grid {
	raw = strings.TrimPrefix(raw, "\ufeff")

	var g Grid
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := tokenizeLine(line)
		if g.Header == nil {
			g.Header = cells
			continue
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

func tokenizeLine(line string) []string {
	var (
		cells    []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			field.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(cells, strings.TrimSpace(field.String()))
}
