// Package fields cleans the raw text cells of a concert program row.
package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// IntervalMarker is the only cell value that marks an interval after an item.
const IntervalMarker = "Y"

const itemPrefix = "Item "

// Date and time joined by a stray '-' instead of a space, e.g. 2023-05-01-19:30.
var reDashJoined = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(\d{2}:\d{2})$`)

// NormalizeDatetime repairs the free-text datetime cell. It reports false when
// the cell is empty; such a row cannot identify a concert.
func NormalizeDatetime(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if m := reDashJoined.FindStringSubmatch(s); m != nil {
		return m[1] + " " + m[2] + ":00", true
	}
	return s, true
}

// ParseDatetime turns normalized datetime text into a UTC timestamp.
func ParseDatetime(text string) (time.Time, error) {
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", text, err)
	}
	return t.UTC(), nil
}

// SplitPerformer splits "Name / Nationality" on the first slash.
// Nationality is "" when absent; name is "" when the cell is empty.
func SplitPerformer(raw string) (name, nationality string) {
	before, after, found := strings.Cut(raw, "/")
	name = Clean(before)
	if found {
		nationality = Clean(after)
	}
	return name, nationality
}

// ParseItemOrder parses "Item 3" (or "3") into 3. Empty, malformed and zero
// values yield nil.
func ParseItemOrder(raw string) *int {
	s := strings.TrimSpace(strings.Replace(raw, itemPrefix, "", 1))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// ParseIntervalFlag returns a pointer to true only for the interval marker.
// Anything else, including "N", is nil.
func ParseIntervalFlag(raw string) *bool {
	if raw != IntervalMarker {
		return nil
	}
	v := true
	return &v
}

// Clean trims the value and composes it to NFC so that visually identical
// names compare equal.
func Clean(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// CanonicalHeader strips a leading byte-order mark and collapses whitespace
// runs, so "\uFEFFInterval  Y/N " becomes "Interval Y/N".
func CanonicalHeader(raw string) string {
	s := strings.TrimPrefix(raw, "\uFEFF")
	return strings.Join(strings.Fields(s), " ")
}
