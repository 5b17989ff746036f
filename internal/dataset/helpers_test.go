package dataset

import (
	"io"
	"strings"
)

func bytesReader(s string) io.Reader { return strings.NewReader(s) }

func mustParse(text string) *Table {
	t, err := ParseCSV(text)
	if err != nil {
		panic(err)
	}
	return t
}

func f64(v float64) *float64 { return &v }
