// Package dataset turns uploaded or fetched tabular data into validated tables
// and provides the heuristics the analysis pipeline runs over them.
package dataset

import (
	"strings"
)

const (
	minHeaderColumns = 2
	minDataRows      = 2
)

// Table is a parsed, validated table. Every row has exactly len(Headers) cells
// and header names are unique ignoring case.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Index returns the position of header (case-insensitive) or -1.
func (t *Table) Index(header string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(h, header) {
			return i
		}
	}
	return -1
}

// Validate applies the parser's header, row width and row count rules to a
// table built elsewhere, such as a provider report.
func Validate(t *Table) error {
	if err := validateHeaders(t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			// Line numbers count the header as line 1.
			return rowMismatch(i+2, len(row), len(t.Headers))
		}
	}
	return validateRowCount(len(t.Rows))
}

// WithRows returns a table sharing the headers of t with a different row set.
func (t *Table) WithRows(rows [][]string) *Table {
	return &Table{Headers: t.Headers, Rows: rows}
}

// FormatCSV serializes a table back to CSV text. Fields containing a comma or
// a quote are quoted with embedded quotes doubled, so ParseCSV(FormatCSV(t))
// reproduces t for any table ParseCSV produced. Line breaks inside a field
// are written as spaces because the parser is line oriented.
func FormatCSV(t *Table) string {
	var b strings.Builder
	writeLine(&b, t.Headers)
	for _, row := range t.Rows {
		writeLine(&b, row)
	}
	return b.String()
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteField(f))
	}
	b.WriteByte('\n')
}

func quoteField(f string) string {
	f = cellBreaks.Replace(f)
	if !strings.ContainsAny(f, ",\"") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// DecodeCSV reads text produced by FormatCSV back into a Table without the
// upload validation rules, so stored tables of any size round-trip.
func DecodeCSV(text string) *Table {
	t := &Table{}
	for _, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) == "" {
			continue
		}
		fields := splitFields(l)
		if t.Headers == nil {
			t.Headers = fields
			continue
		}
		t.Rows = append(t.Rows, fields)
	}
	return t
}
