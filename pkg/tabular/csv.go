package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadCSV reads a CSV file from disk.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV loads every record of r. The input may carry a byte-order mark and
// need not be UTF-8. Stray quotes inside unquoted cells are kept as text. A
// record the reader still cannot split comes back as a Malformed row, so only
// an unreadable header fails the whole load.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text, charset, err := toUTF8(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rawHeader, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header, err := canonicalHeader(rawHeader)
	if err != nil {
		return nil, err
	}

	t := &Table{Format: FormatCSV, Header: header, Charset: charset}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			t.Rows = append(t.Rows, Row{Line: pe.StartLine, Values: map[string]string{}, Malformed: pe.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if row, ok := recordRow(header, line, record); ok {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}
