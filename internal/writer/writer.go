// =============================================================================
// Subscription CSV Customiser - Output Writer Module
// =============================================================================
//
// This module serializes a converted Dataset. Two formats are supported:
//
//   csv   One header line followed by one line per row. Fields are quoted
//         only when they contain the delimiter, a quote or a line break.
//         Empty cells are written as empty fields.
//
//   xlsx  A single worksheet with the header in row 1. Every cell is
//         written as text, so weights such as "0.490" keep their trailing
//         zero when the workbook is opened in Excel.
//
// =============================================================================

package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-customiser/internal/types"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options contains options for serialization.
type Options struct {
	// Delimiter is the CSV field separator.
	// Default: ','
	Delimiter rune

	// UseCRLF ends CSV lines with \r\n instead of \n.
	// Default: false
	UseCRLF bool

	// SheetName is the worksheet name for XLSX output.
	// Default: "Orders"
	SheetName string
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		SheetName: "Orders",
	}
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// Write serializes ds to w in the given format with default options.
func Write(w io.Writer, ds *types.Dataset, format string) error {
	return WriteWithOptions(w, ds, format, DefaultOptions())
}

// WriteWithOptions serializes ds to w in the given format.
func WriteWithOptions(w io.Writer, ds *types.Dataset, format string, options Options) error {
	switch NormalizeFormat(format) {
	case FormatCSV:
		return WriteCSV(w, ds, options)
	case FormatXLSX:
		return WriteXLSX(w, ds, options)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteCSV writes ds as delimited text.
func WriteCSV(w io.Writer, ds *types.Dataset, options Options) error {
	cw := csv.NewWriter(w)
	if options.Delimiter != 0 {
		cw.Comma = options.Delimiter
	}
	cw.UseCRLF = options.UseCRLF

	if err := cw.Write(ds.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range ds.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes ds as a single-sheet workbook.
func WriteXLSX(w io.Writer, ds *types.Dataset, options Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := options.SheetName
	if sheet == "" {
		sheet = DefaultOptions().SheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, ds.Headers); err != nil {
		return err
	}
	for i, row := range ds.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// NormalizeFormat lower-cases a format name and strips a leading dot, so
// ".XLSX" and "xlsx" are equivalent.
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}

// Extension returns the file extension (with dot) for a format.
func Extension(format string) string {
	return "." + NormalizeFormat(format)
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}
