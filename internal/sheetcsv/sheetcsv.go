// Package sheetcsv parses the CSV text served by public spreadsheet exports
// into sparse, header-keyed rows.
//
// The scanner is written by hand rather than on top of encoding/csv because
// export responses are lenient in ways the stdlib reader rejects: ragged
// rows, unbalanced quotes at end of line, and stray content after a closing
// quote. The policy here is to never fail: malformed input degrades to
// literal text.
package sheetcsv

import "strings"

// Row maps a header name to a non-empty trimmed cell value. Headers whose
// cell is empty for a given row are omitted rather than stored as "".
type Row map[string]string

// Table is the ordered sequence of rows parsed from one export, header row
// excluded.
type Table []Row

// SplitFields splits one logical CSV line into its raw field values.
//
// Commas inside a quoted region are literal content. Quote characters toggle
// quoted mode and are not part of the value, except that a doubled quote
// inside a quoted region emits one literal quote. End of line terminates the
// last field regardless of quote state; unbalanced quotes are not an error.
// The line must not contain newline characters. Multi-line quoted fields
// are assembled by Parse before tokenizing.
func SplitFields(line string) []string {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// Escaped quote: emit one and stay in quoted mode.
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

// Parse consumes the full text of a CSV export and returns its Table.
//
// Logical lines are assembled by a single pass over the character stream
// that tracks quote state, so a newline inside a quoted field is content,
// not a line terminator. Carriage returns are discarded everywhere, even
// inside quoted fields; exports do not round-trip \r in cell content (a
// known limitation, kept for parity with the published data).
//
// The first non-blank logical line is the header. Data lines are zipped
// positionally against it: extra values are ignored, missing trailing
// values are absent, empty values are omitted from the row, and rows with
// no populated fields are dropped. Inputs with fewer than two non-blank
// lines yield an empty Table. Parse never fails.
func Parse(text string) Table {
	var lines []string
	for _, line := range splitLogicalLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return Table{}
	}

	header := SplitFields(lines[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := make(Table, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := SplitFields(line)
		row := Row{}
		for i, h := range header {
			if h == "" || i >= len(values) {
				continue
			}
			v := strings.TrimSpace(values[i])
			if v == "" {
				continue
			}
			row[h] = v
		}
		if len(row) == 0 {
			continue
		}
		table = append(table, row)
	}
	return table
}

// splitLogicalLines cuts text on newlines that sit outside quoted regions.
// Quote characters are kept verbatim so SplitFields can re-scan each line.
func splitLogicalLines(text string) []string {
	var lines []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == '\n' && !inQuotes:
			lines = append(lines, cur.String())
			cur.Reset()
		case c == '\r':
			// Discarded regardless of quote state; see Parse.
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
