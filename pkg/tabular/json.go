package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// LoadJSON reads a JSON file holding either {"rows": [...]} or a bare array
// of objects keyed by column header.
func LoadJSON(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON is LoadJSON for an already open stream.
func ReadJSON(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	raw, _, err = toUTF8(raw)
	if err != nil {
		return nil, err
	}

	// Try the object wrapper first { "rows": [...] }. An empty "rows" is an
	// empty table.
	var wrapper struct {
		Rows *[]map[string]interface{} `json:"rows"`
	}
	var objects []map[string]interface{}
	if err := decodeNumbers(raw, &wrapper); err == nil && wrapper.Rows != nil {
		objects = *wrapper.Rows
	} else if err := decodeNumbers(raw, &objects); err != nil {
		return nil, fmt.Errorf("parse rows as object or array: %w", err)
	}

	var header []string
	seen := map[string]bool{}
	t := &Table{Format: FormatJSON, Charset: charsetUTF8}
	for i, obj := range objects {
		values := make(map[string]string, len(obj))
		for k, v := range obj {
			values[k] = cellText(v)
		}
		row := NewRow(i+1, values)
		for name := range row.Values {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	sort.Strings(header)
	t.Header = header
	return t, nil
}

func decodeNumbers(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// cellText renders a JSON value the way it would appear in a sheet cell.
func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "Y"
		}
		return ""
	default:
		return fmt.Sprint(x)
	}
}
