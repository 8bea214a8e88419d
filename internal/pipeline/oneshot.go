package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nabonassar/internal"
)

// ReadRows loads an input table, choosing the parser by file extension:
// .xlsx workbooks, .html/.htm table exports, anything else as CSV.
func ReadRows(path string) ([]internal.RawRow, []string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		rows, headers, err := parseXLSX(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, headers, nil
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		rows, headers, err := parseHTMLTable(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, headers, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		rows, headers, err := parseCSV(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, headers, nil
	}
}
