package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrUnconvertable     = errors.New("unconvertable value")
	ErrUntrappedValue    = errors.New("untrapped value")
	ErrNotInteger        = errors.New("not an integer")
	ErrIntegerOutOfRange = errors.New("integer out of range")
	ErrValidation        = errors.New("validation failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMissingRecordID   = errors.New("missing record id")
	ErrDuplicateRecordID = errors.New("duplicate record id")
)

// CellError locates a per-cell failure in the input.
type CellError struct {
	LineNo int
	Field  string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d: %s %q: %v", e.LineNo, e.Field, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }
