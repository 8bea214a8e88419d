package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nabonassar/internal/pipeline"
)

var testdata = filepath.Join("..", "..", "internal", "pipeline", "testdata")

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("NABONASSAR_LOG_LEVEL", "warning")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func lookupFlags(dir string) []string {
	return []string{
		"--converters", filepath.Join(dir, "converters"),
		"--vocabularies", filepath.Join(dir, "vocabularies"),
	}
}

func TestConvertCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "attestations.json")
	args := append([]string{"convert", filepath.Join(testdata, "attestations.csv"), out, "-p"}, lookupFlags(testdata)...)

	stdout, stderr, err := run(t, args...)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "validation error")
	assert.NotContains(t, stderr, "level=INFO")

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(blob, &records))
	assert.Len(t, records, 3)
	assert.Contains(t, string(blob), "\n    {\n        \"day\": 14,")
}

func TestConvertCommandHalts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "attestations.json")
	args := append([]string{"convert", "-x", filepath.Join(testdata, "attestations.csv"), out}, lookupFlags(testdata)...)

	_, _, err := run(t, args...)
	require.ErrorIs(t, err, pipeline.ErrNotInteger)
	assert.NoFileExists(t, out)
}

func TestConvertCommandRejectsFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "attestations.yaml")
	args := append([]string{"convert", "--format", "yaml", filepath.Join(testdata, "attestations.csv"), out}, lookupFlags(testdata)...)

	_, _, err := run(t, args...)
	require.ErrorIs(t, err, pipeline.ErrUnsupportedFormat)
	assert.NoFileExists(t, out)
}

func TestConvertCommandVerbose(t *testing.T) {
	args := append([]string{"convert", "-v", "-f", "csv", filepath.Join(testdata, "attestations.csv")}, lookupFlags(testdata)...)

	stdout, stderr, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "day,id,intercalary,king,month")
	assert.Contains(t, stderr, `msg="conversion done"`)
	assert.NotContains(t, stderr, "level=DEBUG")
}

func TestConvertCommandBadLogLevel(t *testing.T) {
	_, _, err := run(t, "convert", "--loglevel", "loud", filepath.Join(testdata, "attestations.csv"))
	assert.ErrorContains(t, err, "unknown log level")
}

func TestVocabCommand(t *testing.T) {
	vocabDir := t.TempDir()
	stdout, _, err := run(t, "vocab", "month",
		"--converters", filepath.Join(testdata, "converters"),
		"--vocabularies", vocabDir)
	require.NoError(t, err)

	path := filepath.Join(vocabDir, "month.json")
	assert.Equal(t, "wrote 3 unique terms from month converter to "+path+"\n", stdout)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	var terms []string
	require.NoError(t, json.Unmarshal(blob, &terms))
	assert.Equal(t, []string{"I", "II", "III"}, terms)
}

func TestVocabCommandWithoutConverter(t *testing.T) {
	_, _, err := run(t, "vocab", "king",
		"--converters", filepath.Join(testdata, "converters"),
		"--vocabularies", t.TempDir())
	assert.ErrorContains(t, err, "no converter for king")
}

func TestAttestationsCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(in, []byte(`[
		{"id": "1", "king": "Q123", "regnal-year": "2", "month": "I", "day": 14},
		{"id": "2", "king": "Q123", "regnal-year": "2", "month": "I"}
	]`), 0o644))

	stdout, stderr, err := run(t, "attestations", in)
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped record")

	var idx pipeline.AttestationIndex
	require.NoError(t, json.Unmarshal([]byte(stdout), &idx))
	assert.Equal(t, []string{"1"}, idx["Q123"]["2"]["I"]["14"])
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "nabonassar "+version+"\n", stdout)
}
