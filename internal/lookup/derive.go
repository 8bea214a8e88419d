package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Targets returns the distinct conversion values of c, sorted. Dropped
// entries contribute nothing.
func (c *Converter) Targets() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, conv := range c.entries {
		if !conv.Present {
			continue
		}
		if _, ok := seen[conv.Value]; ok {
			continue
		}
		seen[conv.Value] = struct{}{}
		out = append(out, conv.Value)
	}
	sort.Strings(out)
	return out
}

// WriteVocabulary stores terms as <dir>/<field>.json, an indented list, and
// returns the written path.
func WriteVocabulary(dir, field string, terms []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(terms); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, field+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write vocabulary %s: %w", field, err)
	}
	return path, nil
}
