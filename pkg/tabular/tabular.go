// Package tabular loads concert program sheets (CSV, XLSX or JSON) into rows
// keyed by canonical header name.
package tabular

import (
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/concertarchive/pkg/fields"
)

// Column headers of a concert program sheet, in canonical form.
const (
	ColDatetime  = "Year/Date/Time"
	ColVenue     = "Venue"
	ColOrganiser = "Organiser/Sponsor"
	ColTitle     = "Concert Title"
	ColNote      = "Note"
	ColSource    = "Source"
	ColPerformer = "Performer/ Nationality"
	ColWorkTitle = "Music Title"
	ColComposer  = "Composer"
	ColItemOrder = "Program Order number"
	ColInterval  = "Interval Y/N"
)

// ErrNoHeader is returned when a sheet is empty or its header row has no
// named column. A header without the datetime column is accepted; its rows
// are skipped later.
var ErrNoHeader = errors.New("tabular: missing header row")

// Row is one data record. Line is the 1-based line (CSV), sheet row (XLSX)
// or array position (JSON) it came from. Malformed holds the parse error of
// a record that could not be split into cells; its Values are empty.
type Row struct {
	Line      int
	Values    map[string]string
	Malformed string
}

// Get returns the raw cell for a canonical column name, or "".
func (r Row) Get(col string) string {
	return r.Values[col]
}

// Table is a fully loaded sheet.
type Table struct {
	Format  Format
	Header  []string
	Rows    []Row
	Charset string
}

// NewRow builds a row from header/value pairs, canonicalizing header names.
// Tests and callers with in-memory data use it instead of a file.
func NewRow(line int, values map[string]string) Row {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[fields.CanonicalHeader(k)] = v
	}
	return Row{Line: line, Values: out}
}

func canonicalHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	named := false
	for i, h := range raw {
		header[i] = fields.CanonicalHeader(h)
		if header[i] != "" {
			named = true
		}
	}
	if !named {
		return nil, fmt.Errorf("%w: no named column", ErrNoHeader)
	}
	return header, nil
}

// recordRow maps a positional record onto the header. The first occurrence of
// a duplicated header wins; cells past the header width are dropped.
// ok is false for records whose cells are all blank.
func recordRow(header []string, line int, record []string) (Row, bool) {
	values := make(map[string]string, len(header))
	blank := true
	for i, name := range header {
		if i >= len(record) {
			break
		}
		if _, dup := values[name]; dup || name == "" {
			continue
		}
		values[name] = record[i]
		if strings.TrimSpace(record[i]) != "" {
			blank = false
		}
	}
	return Row{Line: line, Values: values}, !blank
}
