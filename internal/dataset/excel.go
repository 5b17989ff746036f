package dataset

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

var cellBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// ParseExcel reads the first sheet with data from an XLSX workbook and applies
// the same header and row rules as ParseCSV. Trailing empty cells that excelize
// omits are padded; any row wider than the header is rejected. Line breaks
// inside cells become spaces so the table survives a CSV round trip.
func ParseExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errs.NewValidationErrorCode(errs.CodeUnsupportedFile,
			"the workbook could not be opened",
			"Save the file as .xlsx or .csv and upload it again.")
	}
	defer func() { _ = f.Close() }()

	var raw [][]string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(nonBlankRows(rows)) > 0 {
			raw = rows
			break
		}
	}

	type numbered struct {
		number int
		cells  []string
	}
	var lines []numbered
	for i, row := range raw {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(cellBreaks.Replace(c))
		}
		lines = append(lines, numbered{number: i + 1, cells: cells})
	}
	if len(lines) == 0 {
		return nil, errs.NewValidationErrorCode(errs.CodeEmptyInput,
			"the workbook has no data",
			"Upload a workbook with a header row and at least two data rows.")
	}

	headers := trimTrailingBlank(lines[0].cells)
	if err := validateHeaders(headers); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		cells := trimTrailingBlank(l.cells)
		if len(cells) > len(headers) {
			return nil, rowMismatch(l.number, len(cells), len(headers))
		}
		row := make([]string, len(headers))
		copy(row, cells)
		rows = append(rows, row)
	}

	if err := validateRowCount(len(rows)); err != nil {
		return nil, err
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

func nonBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, r := range rows {
		if !isBlankRow(r) {
			out = append(out, r)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
