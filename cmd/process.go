// =============================================================================
// Subscription CSV Customiser - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts one order export
// on disk.
//
// COMMAND USAGE:
//   customiser process --file <export> [flags]
//
// FLAGS:
//   --file        : The export to convert (relative paths also resolve
//                   against input_dir)
//   --format      : Output format, csv or xlsx (default from config)
//   --output-dir  : Write output here instead of output_dir
//   --dry-run     : Transform and report, but write and archive nothing
//
// PROCESSING PIPELINE:
//   1. Resolve the input file
//   2. Parse the export
//   3. Apply the rules
//   4. Write the output file
//   5. Archive the input, if enabled
//   6. Print the result and any warnings
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
	"github.com/ginjaninja78/csv-customiser/internal/writer"
	"github.com/ginjaninja78/csv-customiser/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type processFlags struct {
	file      string
	format    string
	outputDir string
	dryRun    bool
}

var processOpts processFlags

// errConversionFailed is returned when the file could not be converted.
var errConversionFailed = errors.New("conversion failed")

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert an order export",
	Long: `The process command converts one order export (.csv or .xlsx).

On success:
  - The converted file is written as <output_prefix><original name>
  - The original is moved to input_archive_dir when archive_input is set

On error:
  - The original stays where it is
  - Nothing is written to the output directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, processOpts)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processOpts.file, "file", "", "Export to convert (required)")
	processCmd.Flags().StringVar(&processOpts.format, "format", "", "Output format: csv or xlsx (default from config)")
	processCmd.Flags().StringVar(&processOpts.outputDir, "output-dir", "", "Directory for the converted file (default from config)")
	processCmd.Flags().BoolVar(&processOpts.dryRun, "dry-run", false, "Transform without writing output or archiving")
	_ = processCmd.MarkFlagRequired("file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, flags processFlags) error {
	if flags.format != "" {
		switch writer.NormalizeFormat(flags.format) {
		case writer.FormatCSV, writer.FormatXLSX:
		default:
			return fmt.Errorf("%w: %q", writer.ErrUnsupportedFormat, flags.format)
		}
	}

	opts := converter.Options{
		Format:    flags.format,
		OutputDir: flags.outputDir,
		DryRun:    flags.dryRun,
	}

	result := app.converter.Run(cmd.Context(), resolveInputFile(flags.file), opts)
	printResult(cmd.OutOrStdout(), result)
	if !result.Success {
		return fmt.Errorf("%w: %s", errConversionFailed, result.Error)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveInputFile returns path as given if it exists, otherwise relative
// to the input directory.
func resolveInputFile(path string) string {
	if filepath.IsAbs(path) || utils.FileExists(path) {
		return path
	}
	return filepath.Join(app.config.InputDir, path)
}

func printResult(out io.Writer, result converter.Result) {
	name := filepath.Base(result.FilePath)
	if !result.Success {
		fmt.Fprintf(out, "✗ %s: %v\n", name, result.Error)
		return
	}

	target := result.OutputFile
	if target == "" {
		target = "(dry run, nothing written)"
	}
	fmt.Fprintf(out, "✓ %s -> %s\n", name, target)
	if result.ArchivePath != "" {
		fmt.Fprintf(out, "  archived to %s\n", result.ArchivePath)
	}

	s := result.Stats
	fmt.Fprintf(out, "  rows=%d weights=%d ioss=%d usa=%d uk=%d other=%d phones=%d names_blanked=%d prices_redacted=%d (%s)\n",
		s.Rows, s.WeightsAssigned, s.IOSSMarked, s.USA, s.UK, s.Other, s.PhonesFilled, s.NamesBlanked, s.PricesRedacted,
		result.ProcessingTime.Round(time.Millisecond))

	fmt.Fprintln(out, strings.TrimRight(indent(validation.FormatWarnings(validation.UserVisible(result.Warnings)), "  "), "\n"))
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "")
}
