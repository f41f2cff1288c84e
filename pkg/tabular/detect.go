package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is a supported sheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Detect sniffs the file content and falls back to the extension when the
// content is ambiguous, as it often is for small or ragged CSV files.
func Detect(path string) (Format, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect format: %w", err)
	}
	switch {
	case mime.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXLSX, nil
	case mime.Is("application/json"):
		return FormatJSON, nil
	case mime.Is("text/csv"):
		return FormatCSV, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	if strings.HasPrefix(mime.String(), "text/") {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported input format %s", mime.String())
}

// Load detects the format of path and loads it.
func Load(path string) (*Table, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return LoadXLSX(path)
	case FormatJSON:
		return LoadJSON(path)
	default:
		return LoadCSV(path)
	}
}
