package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"nabonassar/internal"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat rejects unknown selectors before any output is produced.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, csv or xlsx)", ErrUnsupportedFormat, name)
	}
}

type ExportOptions struct {
	Pretty bool
}

func Export(w io.Writer, records []internal.Record, format Format, opts ExportOptions) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, records, opts.Pretty)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteJSON emits the records as a JSON array with keys in sorted order.
// Pretty output is indented by four spaces.
func WriteJSON(w io.Writer, records []internal.Record, pretty bool) error {
	if records == nil {
		records = []internal.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(records)
}

// TableHeader is the sorted union of all record keys.
func TableHeader(records []internal.Record) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for k := range seen {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

// WriteCSV writes one row per record. Multi-valued cells hold a JSON array.
func WriteCSV(w io.Writer, records []internal.Record) error {
	headers := TableHeader(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	row := make([]string, len(headers))
	for _, rec := range records {
		for i, h := range headers {
			row[i] = rec[h].CellString()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
// Single scalars keep their type; multi-valued cells hold a JSON array.
func WriteXLSX(w io.Writer, records []internal.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := TableHeader(records)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range records {
		r := i + 2
		for c, h := range headers {
			v, ok := rec.Get(h)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			var value any = v.CellString()
			if !v.IsMultiple() {
				value = v.Scalar()
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}
