// =============================================================================
// Subscription CSV Customiser - Converter Module
// =============================================================================
//
// This module orchestrates the conversion pipeline for a single export, from
// ingest to the written output file.
//
// CONVERSION PIPELINE:
//   1. Validate the input file (exists, supported extension)
//   2. Parse it into a Dataset (CSV or first XLSX sheet)
//   3. Transform the Dataset with the business rules
//   4. Write the output file (CSV or XLSX) to the output directory
//   5. Archive the input file, if enabled
//
// CONCURRENCY:
//   A Converter holds no per-file state and may be shared by concurrent
//   HTTP requests.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/csv-customiser/internal/config"
	"github.com/ginjaninja78/csv-customiser/internal/csvparser"
	"github.com/ginjaninja78/csv-customiser/internal/types"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
	"github.com/ginjaninja78/csv-customiser/internal/writer"
	"github.com/ginjaninja78/csv-customiser/internal/xlsxparser"
	"github.com/ginjaninja78/csv-customiser/pkg/utils"
)

// ErrParse wraps every ingest failure, so callers can tell bad input apart
// from I/O problems.
var ErrParse = errors.New("failed to parse input")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// ID identifies this conversion in logs and HTTP responses.
	ID string

	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the written file. It is empty if processing
	// failed or the run was a dry run.
	OutputFile string

	// ArchivePath is where the input was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats counts the rule outcomes.
	Stats Stats

	// Warnings are the discovery findings for the file.
	Warnings []validation.Warning

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// Options control a single run.
type Options struct {
	// Format is the output format ("csv" or "xlsx"). Empty uses the
	// configured output format.
	Format string

	// OutputDir overrides the configured output directory.
	OutputDir string

	// DryRun transforms the file but writes and archives nothing.
	DryRun bool
}

// Observer receives the outcome of every conversion. The metrics package
// implements it.
type Observer interface {
	ObserveConversion(inputFormat, outputFormat string, stats Stats, warnings []validation.Warning)
	ObserveFailure(inputFormat string, err error)
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the conversion pipeline.
type Converter struct {
	config      *config.MainConfig
	transformer *Transformer
	files       *utils.FileManager
	observer    Observer
	logger      *slog.Logger
}

// New creates a new Converter.
func New(cfg *config.MainConfig, transformer *Transformer, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	files := utils.NewFileManager(cfg.InputArchiveDir)
	files.UseTimestampSubdirs = cfg.ArchiveByDate

	return &Converter{
		config:      cfg,
		transformer: transformer,
		files:       files,
		logger:      logger.With(slog.String("component", "converter")),
	}
}

// WithObserver sets the observer notified after each conversion.
func (c *Converter) WithObserver(o Observer) *Converter {
	c.observer = o
	return c
}

// =============================================================================
// IN-MEMORY CONVERSION
// =============================================================================

// Parse reads an export into a Dataset, choosing the parser from the
// extension of name.
func (c *Converter) Parse(name string, r io.Reader) (*types.Dataset, error) {
	if err := validation.ValidateFileName(name); err != nil {
		return nil, err
	}

	var (
		ds  *types.Dataset
		err error
	)
	switch InputFormat(name) {
	case writer.FormatXLSX:
		ds, err = xlsxparser.Parse(r, filepath.Base(name))
	default:
		ds, err = csvparser.Parse(r, filepath.Base(name), c.config.CSVSettings)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return ds, nil
}

// Convert parses and transforms an export held in r. name is the original
// file name; only its extension and base name are used.
func (c *Converter) Convert(name string, r io.Reader) (*Transformation, error) {
	ds, err := c.Parse(name, r)
	if err != nil {
		c.observeFailure(name, err)
		return nil, err
	}
	return c.transformer.Transform(ds), nil
}

// Export writes a transformation in the given format. An empty format uses
// the configured output format.
func (c *Converter) Export(w io.Writer, t *Transformation, format string) error {
	return writer.Write(w, t.Dataset, c.OutputFormat(format))
}

// OutputFormat resolves an optional format override against the
// configuration.
func (c *Converter) OutputFormat(format string) string {
	if format == "" {
		return writer.NormalizeFormat(c.config.OutputFormat)
	}
	return writer.NormalizeFormat(format)
}

// OutputFileName returns the name of the converted file for an input name.
func (c *Converter) OutputFileName(original, format string) string {
	return utils.OutputFileName(c.config.OutputPrefix, original, writer.Extension(c.OutputFormat(format)))
}

// Observe reports a finished conversion to the observer, if any.
func (c *Converter) Observe(name, format string, t *Transformation) {
	if c.observer != nil {
		c.observer.ObserveConversion(InputFormat(name), c.OutputFormat(format), t.Stats, t.Warnings)
	}
}

func (c *Converter) observeFailure(name string, err error) {
	if c.observer != nil {
		c.observer.ObserveFailure(InputFormat(name), err)
	}
}

// =============================================================================
// FILE PROCESSING
// =============================================================================

// Run executes the conversion pipeline for the file at path.
//
// PROCESSING STEPS:
//   1. Validate the input file
//   2. Parse and transform it
//   3. Write the output file
//   4. Archive the input file
func (c *Converter) Run(ctx context.Context, path string, opts Options) Result {
	startTime := time.Now()
	result := Result{
		ID:       uuid.NewString(),
		FilePath: path,
	}
	logger := c.logger.With(slog.String("conversion_id", result.ID), slog.String("file", path))

	fail := func(err error) Result {
		result.Error = err
		result.ProcessingTime = time.Since(startTime)
		logger.Error("conversion failed", slog.String("error", err.Error()))
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 1: VALIDATE INPUT
	// =========================================================================

	if err := validation.ValidateInputFile(path); err != nil {
		c.observeFailure(path, err)
		return fail(err)
	}

	// =========================================================================
	// STEP 2: PARSE AND TRANSFORM
	// =========================================================================

	file, err := os.Open(path)
	if err != nil {
		c.observeFailure(path, err)
		return fail(fmt.Errorf("failed to open file: %w", err))
	}
	t, err := c.Convert(path, file)
	file.Close()
	if err != nil {
		return fail(err)
	}

	result.Stats = t.Stats
	result.Warnings = t.Warnings

	// =========================================================================
	// STEP 3: WRITE OUTPUT FILE
	// =========================================================================

	if !opts.DryRun {
		outputPath, err := c.writeOutput(path, t, opts)
		if err != nil {
			c.observeFailure(path, err)
			return fail(fmt.Errorf("failed to write output: %w", err))
		}
		result.OutputFile = outputPath
	}

	// =========================================================================
	// STEP 4: ARCHIVE INPUT
	// =========================================================================

	if c.config.ArchiveInput && !opts.DryRun {
		archivePath, err := c.files.ArchiveInputFile(path)
		if err != nil {
			// The output is already written; a failed archive is not fatal.
			logger.Warn("failed to archive input", slog.String("error", err.Error()))
		} else {
			result.ArchivePath = archivePath
		}
	}

	c.Observe(path, opts.Format, t)

	result.Success = true
	result.ProcessingTime = time.Since(startTime)

	logger.Info("conversion complete",
		slog.String("output", result.OutputFile),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("rows", result.Stats.Rows),
		slog.Int("weights_assigned", result.Stats.WeightsAssigned),
		slog.Int("ioss_marked", result.Stats.IOSSMarked),
		slog.Int("prices_redacted", result.Stats.PricesRedacted),
		slog.Duration("duration", result.ProcessingTime))

	return result
}

// writeOutput writes the transformation into the output directory and
// returns the path written.
func (c *Converter) writeOutput(inputPath string, t *Transformation, opts Options) (string, error) {
	outputDir := c.config.OutputDir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, c.OutputFileName(inputPath, opts.Format))

	// Write to a temporary file first so a failed export never leaves a
	// partial file under the final name.
	tmp, err := os.CreateTemp(outputDir, ".customiser-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Export(tmp, t, opts.Format); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return outputPath, nil
}

// InputFormat returns "xlsx" for .xlsx names and "csv" otherwise.
func InputFormat(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return writer.FormatXLSX
	}
	return writer.FormatCSV
}
