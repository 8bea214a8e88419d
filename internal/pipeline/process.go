package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nabonassar/internal"
	"nabonassar/internal/config"
	"nabonassar/internal/lookup"
)

// ProcessingService runs conversions with one schema and lookup layout.
type ProcessingService struct {
	cfg    config.Config
	schema *config.Schema
	logger *slog.Logger
}

func NewProcessingService(cfg config.Config, schema *config.Schema, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{cfg: cfg, schema: schema, logger: logger}
}

type RunOptions struct {
	Input  string
	Output string // empty means Stdout
	Format Format
	Halt   bool
	Pretty bool
	Stdout io.Writer
}

type ProcessResult struct {
	TraceID          string
	Rows             int
	Records          []internal.Record
	ValidationErrors []ValidationError
	Duplicates       []DuplicateGroup
	Output           string
}

// Run converts one input file. Nothing is written unless every stage
// succeeds.
func (s *ProcessingService) Run(ctx context.Context, opts RunOptions) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{TraceID: uuid.NewString()}
	log := s.logger.With(slog.String("run", res.TraceID))

	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return res, err
	}
	opts.Format = format
	if opts.Format == FormatXLSX && opts.Output == "" {
		return res, fmt.Errorf("%w: xlsx output needs a destination file", ErrUnsupportedFormat)
	}

	rows, headers, err := ReadRows(opts.Input)
	if err != nil {
		return res, err
	}
	res.Rows = len(rows)
	log.Debug("read input", slog.String("path", opts.Input), slog.Int("rows", len(rows)), slog.Any("headers", headers))

	crosswalk := NormalizeFieldnames(headers)
	log.Debug("normalized field names", slog.Any("fields", crosswalk.Fields()), slog.Any("crosswalk", map[string]string(crosswalk)))
	if err := ctx.Err(); err != nil {
		return res, err
	}

	store := lookup.NewStore(s.cfg.ConvertersDir, s.cfg.VocabulariesDir, log)
	records, err := NewBuilder(s.schema, store, log, opts.Halt).ConvertRows(rows, crosswalk)
	if err != nil {
		return res, err
	}
	res.Records = records
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.ValidationErrors, err = NewValidator(s.schema, store, log, opts.Halt).Validate(records)
	if err != nil {
		return res, err
	}

	res.Duplicates = CheckDuplicates(log, records, s.schema.IDField, s.schema.LabelFields)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var buf bytes.Buffer
	if err := Export(&buf, records, opts.Format, ExportOptions{Pretty: opts.Pretty}); err != nil {
		return res, err
	}
	if err := writeOutput(opts, buf.Bytes()); err != nil {
		return res, err
	}
	res.Output = opts.Output

	log.Info("conversion done",
		slog.Int("records", len(records)),
		slog.Int("validationErrors", len(res.ValidationErrors)),
		slog.Int("duplicateGroups", len(res.Duplicates)),
		slog.Duration("took", time.Since(start)))
	return res, nil
}

func writeOutput(opts RunOptions, blob []byte) error {
	if opts.Output == "" {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		_, err := w.Write(blob)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(opts.Output, blob, 0o644)
}
