// =============================================================================
// Subscription CSV Customiser - XLSX Parser
// =============================================================================
//
// This module reads an order export saved as an Excel workbook. The first
// worksheet is treated exactly like a CSV file:
//   - Row 1 is the header row
//   - Every later row up to the last non-empty one is a data row, blank
//     rows included
//   - Cells to the right of the header row get placeholder columns
//
// Cell values are read as their formatted text, so a price shown as
// "£25.00" in Excel arrives as "£25.00" here.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-customiser/internal/types"
)

var (
	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")

	// ErrEmptySheet is returned when the first sheet has no header row.
	ErrEmptySheet = errors.New("sheet is empty")
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first worksheet of an XLSX workbook. name is recorded as
// the dataset's source name.
func Parse(r io.Reader, name string) (*types.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}

	// GetRows trims trailing empty cells and trailing empty rows, so short
	// rows are normal and interior blank rows arrive as empty slices.
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = types.CleanHeader(h)
		if h == "" {
			h = types.PlaceholderHeader(i)
		}
		headers[i] = h
	}

	ds := types.NewDataset(headers, rows[1:])
	ds.SourceName = name
	return ds, nil
}
