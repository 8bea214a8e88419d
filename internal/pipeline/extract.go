package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"nabonassar/internal"
	"nabonassar/internal/util"
)

var errNoHeader = errors.New("input has no header row")

// parseCSV reads a UTF-8 table whose first row is the header. Every row
// must have as many columns as the header. Stray quotes inside unquoted
// cells are kept as text.
func parseCSV(r io.Reader) ([]internal.RawRow, []string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errNoHeader
	}
	if err != nil {
		return nil, nil, err
	}
	headers[0] = util.StripBOM(headers[0])
	reader.FieldsPerRecord = len(headers)

	out := []internal.RawRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := reader.FieldPos(0)
		out = append(out, makeRow(line, headers, record))
	}
	return out, headers, nil
}

// parseXLSX reads the first sheet of a workbook. The first non-blank row is
// the header; short rows are padded and blank rows skipped.
func parseXLSX(content []byte) ([]internal.RawRow, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}

	table := make([]numberedCells, 0, len(rows))
	for i, row := range rows {
		table = append(table, numberedCells{lineNo: i + 1, cells: row})
	}
	return fromTable(table, "sheet "+sheets[0])
}

// parseHTMLTable reads the first <table> of an HTML export.
func parseHTMLTable(r io.Reader) ([]internal.RawRow, []string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("%w: no <table> element", errNoHeader)
	}

	var rows []numberedCells
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		rows = append(rows, numberedCells{lineNo: i + 1, cells: cells})
	})
	return fromTable(rows, "table")
}

type numberedCells struct {
	lineNo int
	cells  []string
}

func fromTable(rows []numberedCells, where string) ([]internal.RawRow, []string, error) {
	var headers []string
	out := []internal.RawRow{}
	for _, row := range rows {
		if isBlankRow(row.cells) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(row.cells))
			for i, h := range row.cells {
				headers[i] = util.CleanCell(h)
			}
			continue
		}
		cells := row.cells
		if len(cells) > len(headers) {
			if !isBlankRow(cells[len(headers):]) {
				return nil, nil, fmt.Errorf("%s row %d: %d cells for %d columns", where, row.lineNo, len(cells), len(headers))
			}
			cells = cells[:len(headers)]
		}
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		out = append(out, makeRow(row.lineNo, headers, cells))
	}
	if headers == nil {
		return nil, nil, errNoHeader
	}
	return out, headers, nil
}

func makeRow(lineNo int, headers, values []string) internal.RawRow {
	cells := make([]internal.Cell, len(headers))
	for i, h := range headers {
		cells[i] = internal.Cell{Header: h, Value: values[i]}
	}
	return internal.RawRow{LineNo: lineNo, Cells: cells}
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadRecordsJSON parses a JSON array of records as written by WriteJSON.
func ReadRecordsJSON(r io.Reader) ([]internal.Record, error) {
	var records []internal.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
