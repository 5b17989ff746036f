package dataset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParseCSV tokenizes raw CSV text into a Table. Parsing is strict: a row whose
// field count differs from the header is rejected rather than padded, and at
// least two data rows are required.
func ParseCSV(text string) (*Table, error) {
	type line struct {
		number int
		text   string
	}

	var lines []line
	for i, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, line{number: i + 1, text: l})
	}
	if len(lines) == 0 {
		return nil, errs.NewValidationErrorCode(errs.CodeEmptyInput,
			"the file is empty",
			"Upload a CSV file with a header row and at least two data rows.")
	}

	headers := splitFields(lines[0].text)
	if err := validateHeaders(headers); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		fields := splitFields(l.text)
		if len(fields) != len(headers) {
			return nil, rowMismatch(l.number, len(fields), len(headers))
		}
		rows = append(rows, fields)
	}

	if err := validateRowCount(len(rows)); err != nil {
		return nil, err
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

// splitFields splits one CSV line. A double quote toggles quoting, a doubled
// quote inside a quoted section is a literal quote, and an unquoted comma ends
// the field. Each field is trimmed.
func splitFields(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			field.WriteRune('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}

func validateHeaders(headers []string) error {
	if len(headers) < minHeaderColumns {
		return errs.NewValidationErrorCode(errs.CodeMissingHeader,
			fmt.Sprintf("header row must have at least %d columns, found %d", minHeaderColumns, len(headers)),
			"Make sure the first line of the file lists the column names separated by commas.")
	}

	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		if h == "" {
			return errs.NewValidationErrorCode(errs.CodeEmptyHeaderCell,
				fmt.Sprintf("header in column %d is blank", i+1),
				"Give every column a name in the header row.")
		}
		key := strings.ToLower(h)
		if prev, ok := seen[key]; ok {
			return errs.NewValidationErrorCode(errs.CodeDuplicateHeader,
				fmt.Sprintf("header %q in column %d duplicates column %d", h, i+1, prev+1),
				"Rename the duplicated column so every header is unique.")
		}
		seen[key] = i
	}
	return nil
}

func validateRowCount(n int) error {
	if n < minDataRows {
		return errs.NewValidationErrorCode(errs.CodeInsufficientRows,
			fmt.Sprintf("at least %d data rows are required, found %d", minDataRows, n),
			"Add more rows of data before running an analysis.")
	}
	return nil
}

func rowMismatch(line, actual, expected int) error {
	return errs.NewValidationErrorCode(errs.CodeRowColumnMismatch,
		fmt.Sprintf("line %d has %d columns, expected %d", line, actual, expected),
		"Check line "+fmt.Sprint(line)+" for missing or extra commas, or quote values that contain commas.")
}
