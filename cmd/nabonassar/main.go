package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nabonassar/internal/config"
	"nabonassar/internal/logger"
	"nabonassar/internal/lookup"
	"nabonassar/internal/pipeline"
)

const version = "0.1.0"

type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	logLevel        string
	verbose         bool
	veryVerbose     bool
	schemaPath      string
	convertersDir   string
	vocabulariesDir string
}

func main() {
	must(newRootCmd(os.Stdout, os.Stderr).Execute())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "nabonassar",
		Short:         "Normalize and validate Babylonian date attestation tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.logLevel, "loglevel", "l", "", "desired logging level (debug, info, warning or error)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output (logging level == info)")
	flags.BoolVarP(&a.veryVerbose, "veryverbose", "w", false, "very verbose output (logging level == debug)")
	flags.StringVar(&a.schemaPath, "schema", "", "field schema YAML (default: built-in)")
	flags.StringVar(&a.convertersDir, "converters", "", "converters directory (default: ./data/converters)")
	flags.StringVar(&a.vocabulariesDir, "vocabularies", "", "vocabularies directory (default: ./data/vocabularies)")

	root.AddCommand(a.convertCmd(), a.vocabCmd(), a.attestationsCmd(), versionCmd(stdout))
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.convertersDir != "" {
		cfg.ConvertersDir = a.convertersDir
	}
	if a.vocabulariesDir != "" {
		cfg.VocabulariesDir = a.vocabulariesDir
	}
	if a.schemaPath != "" {
		cfg.SchemaPath = a.schemaPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fallback, _, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	level, err := logger.ResolveLevel(a.logLevel, a.verbose, a.veryVerbose, fallback)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(a.stderr, level)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) convertCmd() *cobra.Command {
	var (
		format string
		opts   pipeline.RunOptions
	)

	cmd := &cobra.Command{
		Use:   "convert <from> [to]",
		Short: "Convert a CSV, XLSX or HTML attestation table to JSON, CSV or XLSX",
		Args:  cobra.RangeArgs(1, 2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := pipeline.ParseFormat(format)
			if err != nil {
				return err
			}
			opts.Format = f
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("halt") {
				opts.Halt = a.cfg.Halt
			}
			if !cmd.Flags().Changed("pretty") {
				opts.Pretty = a.cfg.Pretty
			}
			schema, err := config.LoadSchema(a.cfg.SchemaPath)
			if err != nil {
				return err
			}

			opts.Input = args[0]
			if len(args) > 1 {
				opts.Output = args[1]
			}
			opts.Stdout = a.stdout

			svc := pipeline.NewProcessingService(a.cfg, schema, a.logger)
			_, err = svc.Run(cmd.Context(), opts)
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Halt, "halt", "x", false, "abort on the first typing or validation error")
	flags.BoolVarP(&opts.Pretty, "pretty", "p", false, "pretty-print the output JSON")
	flags.StringVarP(&format, "format", "f", "json", "output format: json, csv or xlsx")
	return cmd
}

func (a *app) vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab <field>",
		Short: "Write the vocabulary of a field from its converter's targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := args[0]
			store := lookup.NewStore(a.cfg.ConvertersDir, a.cfg.VocabulariesDir, a.logger)
			conv, err := store.Converter(field)
			if err != nil {
				return err
			}
			if conv == nil {
				return fmt.Errorf("no converter for %s in %s", field, a.cfg.ConvertersDir)
			}
			terms := conv.Targets()
			path, err := lookup.WriteVocabulary(a.cfg.VocabulariesDir, field, terms)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %d unique terms from %s converter to %s\n", len(terms), field, path)
			return nil
		},
	}
}

func (a *app) attestationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attestations <from>",
		Short: "Index converted JSON records by king, regnal year, month and day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.LoadSchema(a.cfg.SchemaPath)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			records, err := pipeline.ReadRecordsJSON(f)
			if err != nil {
				return err
			}
			a.logger.Info("read records", slog.Int("count", len(records)))

			idx, skipped := pipeline.IndexAttestations(records, schema.IDField)
			for _, reason := range skipped {
				a.logger.Warn("skipped record", slog.String("reason", reason))
			}

			enc := json.NewEncoder(a.stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "    ")
			return enc.Encode(idx)
		},
	}
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "nabonassar %s\n", version)
		},
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
