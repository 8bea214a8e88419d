package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"nabonassar/internal"
	"nabonassar/internal/config"
	"nabonassar/internal/lookup"
	"nabonassar/internal/util"
)

// Builder turns raw rows into typed, converted records.
type Builder struct {
	schema *config.Schema
	store  *lookup.Store
	logger *slog.Logger
	halt   bool

	// field -> literal, so each bad integer is reported once
	reported map[string]map[string]struct{}
}

func NewBuilder(schema *config.Schema, store *lookup.Store, logger *slog.Logger, halt bool) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		schema:   schema,
		store:    store,
		logger:   logger,
		halt:     halt,
		reported: map[string]map[string]struct{}{},
	}
}

// ConvertRows builds one record per row. Unconvertable and untrapped values,
// missing or repeated ids, and (under halt) non-integers or integers that
// overflow int abort the build.
func (b *Builder) ConvertRows(rows []internal.RawRow, cw internal.Crosswalk) ([]internal.Record, error) {
	idField := b.schema.IDField
	records := make([]internal.Record, 0, len(rows))
	seen := map[string]int{}

	for _, row := range rows {
		rec, err := b.convertRow(row, cw)
		if err != nil {
			return nil, err
		}

		id := rec.ID(idField)
		if id == "" {
			return nil, &CellError{LineNo: row.LineNo, Field: idField, Err: ErrMissingRecordID}
		}
		if v, _ := rec.Get(idField); v.IsMultiple() {
			return nil, &CellError{LineNo: row.LineNo, Field: idField, Value: v.CellString(), Err: ErrDuplicateRecordID}
		}
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %q on lines %d and %d", ErrDuplicateRecordID, id, prev, row.LineNo)
		}
		seen[id] = row.LineNo
		records = append(records, rec)
	}

	b.logger.Info("built records", slog.Int("rows", len(rows)), slog.Int("records", len(records)))
	return records, nil
}

func (b *Builder) convertRow(row internal.RawRow, cw internal.Crosswalk) (internal.Record, error) {
	rec := internal.Record{}
	for _, cell := range row.Cells {
		field, ok := cw.Lookup(cell.Header)
		if !ok {
			return nil, fmt.Errorf("line %d: column %q has no normalized field name", row.LineNo, cell.Header)
		}
		value, keep, err := b.convertCell(row.LineNo, field, cell.Value)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		rec[field] = rec[field].Append(value)
	}
	return rec, nil
}

// convertCell reports keep=false for blank, dropped and (without halt)
// non-integer cells.
func (b *Builder) convertCell(lineNo int, field, raw string) (any, bool, error) {
	cleaned := util.CleanCell(raw)
	class := b.schema.Class(field)
	if cleaned == "" && class != config.ClassBoolean {
		return nil, false, nil
	}

	var value any = cleaned
	switch class {
	case config.ClassInteger:
		n, err := util.ParseInteger(cleaned)
		if err != nil {
			cerr := &CellError{LineNo: lineNo, Field: field, Value: cleaned, Err: ErrNotInteger}
			if errors.Is(err, util.ErrIntegerRange) {
				cerr.Err = ErrIntegerOutOfRange
			}
			if b.halt {
				return nil, false, cerr
			}
			b.reportOnce(cerr)
			return nil, false, nil
		}
		value = n
	case config.ClassBoolean:
		value = util.IsAffirmative(cleaned, b.schema.Affirmative)
	case config.ClassRegex:
		if !matchesAny(b.schema, field, cleaned) {
			return nil, false, &CellError{LineNo: lineNo, Field: field, Value: cleaned, Err: ErrUntrappedValue}
		}
	}

	if !b.schema.Convertible(field) {
		return value, true, nil
	}
	conv, err := b.store.Converter(field)
	if err != nil {
		return nil, false, err
	}
	if conv == nil {
		return value, true, nil
	}
	key := internal.FormatScalar(value)
	c, ok := conv.Lookup(key)
	if !ok {
		return nil, false, &CellError{LineNo: lineNo, Field: field, Value: key, Err: ErrUnconvertable}
	}
	if !c.Present {
		b.logger.Debug("dropped value", slog.Int("line", lineNo), slog.String("field", field), slog.String("value", key))
		return nil, false, nil
	}
	return c.Value, true, nil
}

func (b *Builder) reportOnce(cerr *CellError) {
	literals, ok := b.reported[cerr.Field]
	if !ok {
		literals = map[string]struct{}{}
		b.reported[cerr.Field] = literals
	}
	if _, done := literals[cerr.Value]; done {
		return
	}
	literals[cerr.Value] = struct{}{}
	msg := "dropping non-integer value"
	if errors.Is(cerr.Err, ErrIntegerOutOfRange) {
		msg = "dropping out-of-range integer"
	}
	b.logger.Error(msg,
		slog.Int("line", cerr.LineNo),
		slog.String("field", cerr.Field),
		slog.String("value", cerr.Value))
}

func matchesAny(schema *config.Schema, field, value string) bool {
	for _, re := range schema.Patterns(field) {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
