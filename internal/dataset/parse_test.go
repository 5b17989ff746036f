package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
	assert.Equal(t, code, ve.Code)
	assert.NotEmpty(t, ve.Message)
	assert.NotEmpty(t, ve.Action)
}

func TestParseCSV(t *testing.T) {
	text := "Date,Campaign,Clicks\r\n2024-01-01, Spring ,10\n\n2024-01-02,\"Summer, Big\",\"1,200\"\n"
	table, err := ParseCSV(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Campaign", "Clicks"}, table.Headers)
	assert.Equal(t, [][]string{
		{"2024-01-01", "Spring", "10"},
		{"2024-01-02", "Summer, Big", "1,200"},
	}, table.Rows)
}

func TestParseCSV_EscapedQuotes(t *testing.T) {
	table, err := ParseCSV("name,note\na,\"say \"\"hi\"\"\"\nb,\"\"\n")
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, table.Rows[0][1])
	assert.Equal(t, "", table.Rows[1][1])
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code string
	}{
		{"empty", "", errs.CodeEmptyInput},
		{"whitespace only", " \n\r\n  \n", errs.CodeEmptyInput},
		{"single column header", "only\n1\n2\n", errs.CodeMissingHeader},
		{"duplicate header ignoring case", "Clicks,clicks\n1,2\n3,4\n", errs.CodeDuplicateHeader},
		{"blank header cell", "a,,c\n1,2,3\n4,5,6\n", errs.CodeEmptyHeaderCell},
		{"short row", "a,b\n1,2\n3\n", errs.CodeRowColumnMismatch},
		{"long row", "a,b\n1,2,3\n4,5\n", errs.CodeRowColumnMismatch},
		{"one data row", "a,b\n1,2\n", errs.CodeInsufficientRows},
		{"header only", "a,b\n", errs.CodeInsufficientRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(tt.text)
			requireCode(t, err, tt.code)
		})
	}
}

func TestParseCSV_MismatchReportsPhysicalLine(t *testing.T) {
	_, err := ParseCSV("a,b\n\n1,2\n3,4,5\n")
	requireCode(t, err, errs.CodeRowColumnMismatch)
	assert.Contains(t, err.Error(), "line 4 has 3 columns, expected 2")
}

func TestParseCSV_RowLengthMatchesHeaders(t *testing.T) {
	inputs := []string{
		"a,b,c\n1,2,3\n4,5,6\n",
		"a,b\n\"x,y\",1\n\"\",2\n",
		"x,y\n , \n,\n",
	}
	for _, in := range inputs {
		table, err := ParseCSV(in)
		require.NoError(t, err)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Headers))
		}
	}
}

func TestFormatCSV_RoundTrip(t *testing.T) {
	inputs := []string{
		"Date,Campaign,Revenue\n2024-01-01,Spring,\"$1,000\"\n2024-01-02,\"He said \"\"go\"\"\",20\n",
		"a,b\n\"\",x\ny,\"\"\"\"\n",
		"name,value\nplain,1\n\"comma, inside\",2\n",
	}
	for _, in := range inputs {
		table, err := ParseCSV(in)
		require.NoError(t, err)

		again, err := ParseCSV(FormatCSV(table))
		require.NoError(t, err)
		assert.Equal(t, table, again)
	}
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]any{"Date", "Channel", "Sessions"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]any{"2024-01-01", "organic", 120}))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]any{"2024-01-02", "", 95}))
	require.NoError(t, f.SetSheetRow("Data", "A5", &[]any{"2024-01-03", "paid"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseExcel(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Channel", "Sessions"}, table.Headers)
	assert.Equal(t, [][]string{
		{"2024-01-01", "organic", "120"},
		{"2024-01-02", "", "95"},
		{"2024-01-03", "paid", ""},
	}, table.Rows)
}

func TestParseExcel_MultilineCellsRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Campaign\nName", "Spend"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Spring\nSale", 10}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Summer\r\nSale, EU", 12}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseExcel(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Campaign Name", "Spend"}, table.Headers)
	assert.Equal(t, [][]string{{"Spring Sale", "10"}, {"Summer Sale, EU", "12"}}, table.Rows)

	again, err := ParseCSV(FormatCSV(table))
	require.NoError(t, err)
	assert.Equal(t, table, again)
}

func TestFormatCSV_FlattensLineBreaks(t *testing.T) {
	table := &Table{
		Headers: []string{"Campaign", "Spend"},
		Rows:    [][]string{{"Spring\nSale", "10"}, {"Brand", "12"}},
	}

	again, err := ParseCSV(FormatCSV(table))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Spring Sale", "10"}, {"Brand", "12"}}, again.Rows)
}

func TestValidate(t *testing.T) {
	ok := &Table{Headers: []string{"Date", "Sessions"}, Rows: [][]string{{"2024-01-01", "1"}, {"2024-01-02", "2"}}}
	require.NoError(t, Validate(ok))

	t.Run("one row", func(t *testing.T) {
		err := Validate(&Table{Headers: []string{"Date", "Sessions"}, Rows: [][]string{{"2024-01-01", "1"}}})
		requireCode(t, err, errs.CodeInsufficientRows)
	})

	t.Run("ragged row", func(t *testing.T) {
		err := Validate(&Table{Headers: []string{"Date", "Sessions"}, Rows: [][]string{{"2024-01-01", "1"}, {"2024-01-02"}}})
		requireCode(t, err, errs.CodeRowColumnMismatch)
	})

	t.Run("single column", func(t *testing.T) {
		err := Validate(&Table{Headers: []string{"Date"}, Rows: [][]string{{"a"}, {"b"}}})
		requireCode(t, err, errs.CodeMissingHeader)
	})
}

func TestParseExcel_Errors(t *testing.T) {
	t.Run("not a workbook", func(t *testing.T) {
		_, err := ParseExcel(bytesReader("a,b\n1,2\n"))
		requireCode(t, err, errs.CodeUnsupportedFile)
	})

	t.Run("empty workbook", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		_, err = ParseExcel(buf)
		requireCode(t, err, errs.CodeEmptyInput)
	})

	t.Run("too few rows", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"a", "b"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, 2}))
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		_, err = ParseExcel(buf)
		requireCode(t, err, errs.CodeInsufficientRows)
	})
}

func TestDecodeCSV_KeepsSmallTables(t *testing.T) {
	table := &Table{Headers: []string{"Campaign", "Spend"}, Rows: [][]string{{"Brand, Search", "12.5"}}}

	got := DecodeCSV(FormatCSV(table))
	assert.Equal(t, table, got)

	empty := DecodeCSV("")
	assert.Empty(t, empty.Headers)
	assert.Empty(t, empty.Rows)
}
