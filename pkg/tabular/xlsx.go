package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the first worksheet of a workbook on disk.
func LoadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

// ReadXLSX reads the first worksheet of a workbook stream.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// Leading blank rows are common above a pasted table.
	start := 0
	for start < len(records) && len(records[start]) == 0 {
		start++
	}
	if start == len(records) {
		return nil, ErrNoHeader
	}
	header, err := canonicalHeader(records[start])
	if err != nil {
		return nil, err
	}

	t := &Table{Format: FormatXLSX, Header: header, Charset: charsetUTF8}
	for i := start + 1; i < len(records); i++ {
		if row, ok := recordRow(header, i+1, records[i]); ok {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}
