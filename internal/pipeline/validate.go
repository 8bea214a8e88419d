package pipeline

import (
	"fmt"
	"log/slog"

	"nabonassar/internal"
	"nabonassar/internal/config"
	"nabonassar/internal/lookup"
)

// ValidationError is a value missing from its field's vocabulary. Index is
// the record's 1-based position in the run.
type ValidationError struct {
	Index    int
	RecordID string
	Field    string
	Value    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("record %d (id %s): %s value %q is not in vocabulary", e.Index, e.RecordID, e.Field, e.Value)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

type Validator struct {
	schema *config.Schema
	store  *lookup.Store
	logger *slog.Logger
	halt   bool
}

func NewValidator(schema *config.Schema, store *lookup.Store, logger *slog.Logger, halt bool) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{schema: schema, store: store, logger: logger, halt: halt}
}

// Validate checks every non-exempt field against its vocabulary. Under halt
// the first miss is returned as the error; otherwise every miss is logged
// and returned.
func (v *Validator) Validate(records []internal.Record) ([]ValidationError, error) {
	var found []ValidationError
	for i, rec := range records {
		for _, field := range rec.Keys() {
			if v.schema.SkipsValidation(field) {
				continue
			}
			vocab, err := v.store.Vocabulary(field)
			if err != nil {
				return found, err
			}
			if vocab == nil {
				continue
			}
			for _, term := range rec[field].Strings() {
				if vocab.Contains(term) {
					continue
				}
				verr := ValidationError{Index: i + 1, RecordID: rec.ID(v.schema.IDField), Field: field, Value: term}
				if v.halt {
					return append(found, verr), verr
				}
				v.logger.Error("validation error",
					slog.Int("record", verr.Index),
					slog.String("id", verr.RecordID),
					slog.String("field", field),
					slog.String("value", term))
				found = append(found, verr)
			}
		}
	}
	return found, nil
}
