package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nabonassar/internal"
)

func exportRecords() []internal.Record {
	return []internal.Record{
		{
			"id":            internal.Single("1"),
			"king":          internal.Single("Q123"),
			"day":           internal.Single(14),
			"intercalary":   internal.Single(false),
			"museum-labels": internal.Multiple("IM.001", "IM.001b"),
		},
		{
			"id":    internal.Single("2"),
			"notes": internal.Single("Šamaš <b>"),
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"CSV", FormatCSV},
		{" xlsx ", FormatXLSX},
	} {
		got, err := ParseFormat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseFormat("yaml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exportRecords(), false))

	want := `[{"day":14,"id":"1","intercalary":false,"king":"Q123","museum-labels":["IM.001","IM.001b"]},{"id":"2","notes":"Šamaš <b>"}]` + "\n"
	assert.Equal(t, want, buf.String())

	back, err := ReadRecordsJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, exportRecords(), back)
}

func TestWriteJSONPretty(t *testing.T) {
	var buf bytes.Buffer
	records := []internal.Record{{"id": internal.Single("1"), "king": internal.Multiple("Q1", "Q2")}}
	require.NoError(t, WriteJSON(&buf, records, true))

	want := "[\n" +
		"    {\n" +
		"        \"id\": \"1\",\n" +
		"        \"king\": [\n" +
		"            \"Q1\",\n" +
		"            \"Q2\"\n" +
		"        ]\n" +
		"    }\n" +
		"]\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, false))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exportRecords(), FormatCSV, ExportOptions{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"day", "id", "intercalary", "king", "museum-labels", "notes"}, rows[0])
	assert.Equal(t, []string{"14", "1", "false", "Q123", `["IM.001","IM.001b"]`, ""}, rows[1])
	assert.Equal(t, []string{"", "2", "", "", "", "Šamaš <b>"}, rows[2])

	var labels []string
	require.NoError(t, json.Unmarshal([]byte(rows[1][4]), &labels))
	assert.Equal(t, []string{"IM.001", "IM.001b"}, labels)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exportRecords(), FormatXLSX, ExportOptions{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"day", "id", "intercalary", "king", "museum-labels", "notes"}, rows[0])
	assert.Equal(t, []string{"14", "1", "FALSE", "Q123", `["IM.001","IM.001b"]`}, rows[1])
	assert.Equal(t, []string{"", "2", "", "", "", "Šamaš <b>"}, rows[2])

	day, err := f.GetCellType(f.GetSheetName(0), "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, day)

	// the reader reads it back as the same table
	var again bytes.Buffer
	require.NoError(t, WriteXLSX(&again, exportRecords()))
	parsed, headers, err := parseXLSX(again.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rows[0], headers)
	require.Len(t, parsed, 2)
	assert.Equal(t, "Q123", parsed[0].Cells[3].Value)
}

func TestExportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, exportRecords(), Format("yaml"), ExportOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}
