package tabular

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const charsetUTF8 = "UTF-8"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// toUTF8 returns raw as UTF-8 text without a byte-order mark, together with
// the name of the charset it was decoded from. Files with a BOM or valid UTF-8
// are decoded directly; anything else goes through charset detection and
// falls back to Windows-1252, the usual spreadsheet export encoding.
func toUTF8(raw []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF16BE):
		return decodeBOM(raw, "UTF-16BE")
	case bytes.HasPrefix(raw, bomUTF16LE):
		return decodeBOM(raw, "UTF-16LE")
	case bytes.HasPrefix(raw, bomUTF8), utf8.Valid(raw):
		return decodeBOM(raw, charsetUTF8)
	}

	name := "windows-1252"
	enc := charmap.Windows1252.NewDecoder()
	if res, err := chardet.NewTextDetector().DetectBest(raw); err == nil {
		if e, err := htmlindex.Get(res.Charset); err == nil {
			name, enc = res.Charset, e.NewDecoder()
		}
	}
	out, _, err := transform.Bytes(enc, raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", name, err)
	}
	return out, name, nil
}

func decodeBOM(raw []byte, name string) ([]byte, string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", name, err)
	}
	return out, name, nil
}
