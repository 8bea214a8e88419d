// Package lookup loads converter and vocabulary tables from per-field JSON
// files and caches them for the lifetime of a run.
//
// A converter file maps raw values to descriptors:
//
//	{"obs.": {"conversion": "observed"}, "?": {}}
//
// An entry whose descriptor has no "conversion" key (or is null) means the
// value is dropped. A vocabulary file is either an object whose keys are the
// valid values or a flat list of valid values.
package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nabonassar/internal"
)

var ErrMalformedLookup = errors.New("malformed lookup file")

// Conversion is the descriptor of one converter entry. Present is false when
// the entry carries no replacement, meaning the value is dropped.
type Conversion struct {
	Value   string
	Present bool
}

type Converter struct {
	Field   string
	entries map[string]Conversion
}

func (c *Converter) Lookup(raw string) (Conversion, bool) {
	conv, ok := c.entries[raw]
	return conv, ok
}

func (c *Converter) Len() int { return len(c.entries) }

type Vocabulary struct {
	Field  string
	values map[string]struct{}
}

func (v *Vocabulary) Contains(value string) bool {
	_, ok := v.values[value]
	return ok
}

func (v *Vocabulary) Len() int { return len(v.values) }

// Store resolves tables by field name. A field without a table file is
// cached as nil so the file system is consulted once per field.
type Store struct {
	convertersDir   string
	vocabulariesDir string
	logger          *slog.Logger

	converters   map[string]*Converter
	vocabularies map[string]*Vocabulary
}

func NewStore(convertersDir, vocabulariesDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		convertersDir:   convertersDir,
		vocabulariesDir: vocabulariesDir,
		logger:          logger,
		converters:      map[string]*Converter{},
		vocabularies:    map[string]*Vocabulary{},
	}
}

// Converter returns the converter for field, or nil when none is defined.
func (s *Store) Converter(field string) (*Converter, error) {
	if conv, ok := s.converters[field]; ok {
		return conv, nil
	}
	blob, path, err := s.read(s.convertersDir, field, "converter")
	if err != nil {
		return nil, err
	}
	if blob == nil {
		s.converters[field] = nil
		return nil, nil
	}
	conv, err := ParseConverter(field, blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("loaded converter", slog.String("field", field), slog.Int("entries", conv.Len()))
	s.converters[field] = conv
	return conv, nil
}

// Vocabulary returns the vocabulary for field, or nil when none is defined.
func (s *Store) Vocabulary(field string) (*Vocabulary, error) {
	if vocab, ok := s.vocabularies[field]; ok {
		return vocab, nil
	}
	blob, path, err := s.read(s.vocabulariesDir, field, "vocabulary")
	if err != nil {
		return nil, err
	}
	if blob == nil {
		s.vocabularies[field] = nil
		return nil, nil
	}
	vocab, err := ParseVocabulary(field, blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("loaded vocabulary", slog.String("field", field), slog.Int("terms", vocab.Len()))
	s.vocabularies[field] = vocab
	return vocab, nil
}

// read returns nil contents (and no error) when the table file is absent.
func (s *Store) read(dir, field, kind string) ([]byte, string, error) {
	if field == "" || strings.ContainsAny(field, `/\`) || strings.Contains(field, "..") {
		s.logger.Warn("no "+kind+" for unusable field name", slog.String("field", field))
		return nil, "", nil
	}
	path := filepath.Join(dir, field+".json")
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("no "+kind+" defined", slog.String("field", field), slog.String("path", path))
		return nil, path, nil
	}
	if err != nil {
		return nil, path, fmt.Errorf("read %s for %s: %w", kind, field, err)
	}
	return blob, path, nil
}

func ParseConverter(field string, blob []byte) (*Converter, error) {
	raw, err := decode(blob)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: converter for %s must be a JSON object, got %s", ErrMalformedLookup, field, jsonKind(raw))
	}

	conv := &Converter{Field: field, entries: make(map[string]Conversion, len(obj))}
	for key, entry := range obj {
		switch desc := entry.(type) {
		case nil:
			conv.entries[key] = Conversion{}
		case map[string]any:
			switch t := desc["conversion"].(type) {
			case nil:
				conv.entries[key] = Conversion{}
			case string:
				conv.entries[key] = Conversion{Value: t, Present: true}
			default:
				return nil, fmt.Errorf("%w: converter %s entry %q: conversion must be a string, got %s", ErrMalformedLookup, field, key, jsonKind(t))
			}
		default:
			return nil, fmt.Errorf("%w: converter %s entry %q must be an object, got %s", ErrMalformedLookup, field, key, jsonKind(entry))
		}
	}
	return conv, nil
}

func ParseVocabulary(field string, blob []byte) (*Vocabulary, error) {
	raw, err := decode(blob)
	if err != nil {
		return nil, err
	}

	vocab := &Vocabulary{Field: field, values: map[string]struct{}{}}
	switch t := raw.(type) {
	case map[string]any:
		for key := range t {
			vocab.values[key] = struct{}{}
		}
	case []any:
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any, nil:
				return nil, fmt.Errorf("%w: vocabulary %s lists a non-scalar term", ErrMalformedLookup, field)
			}
			vocab.values[internal.FormatScalar(scalar(item))] = struct{}{}
		}
	default:
		return nil, fmt.Errorf("%w: vocabulary for %s must be a JSON object or list, got %s", ErrMalformedLookup, field, jsonKind(raw))
	}
	return vocab, nil
}

func decode(blob []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLookup, err)
	}
	return raw, nil
}

func scalar(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
