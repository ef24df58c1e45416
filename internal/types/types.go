// =============================================================================
// Subscription CSV Customiser - Shared Types
// =============================================================================
//
// This package contains the tabular Dataset shared by the ingest adapters,
// the row transformer and the export adapters. Keeping it here avoids
// import cycles between:
//   - csvparser / xlsxparser (produce a Dataset)
//   - converter             (transforms a Dataset)
//   - writer                (serializes a Dataset)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// DATASET
// =============================================================================

// Dataset is an ordered set of named columns with row-aligned string cells.
//
// Rows[i][j] is the cell of row i under Headers[j]. Every row has exactly
// len(Headers) cells.
type Dataset struct {
	// Headers contains the column names in presentation order.
	Headers []string

	// Rows contains the data rows, in source order.
	Rows [][]string

	// SourceName is the original file name (no directory), if known.
	SourceName string
}

// NewDataset creates a Dataset. Short rows are padded with empty cells. A row
// longer than headers adds placeholder columns (Column_N) so no cell is
// lost.
func NewDataset(headers []string, rows [][]string) *Dataset {
	d := &Dataset{
		Headers: append([]string(nil), headers...),
		Rows:    make([][]string, len(rows)),
	}
	for _, row := range rows {
		for len(d.Headers) < len(row) {
			d.Headers = append(d.Headers, PlaceholderHeader(len(d.Headers)))
		}
	}
	for i, row := range rows {
		d.Rows[i] = fitRow(row, len(d.Headers))
	}
	return d
}

// PlaceholderHeader names an unnamed column at zero-based position i.
func PlaceholderHeader(i int) string {
	return fmt.Sprintf("Column_%d", i+1)
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Headers:    append([]string(nil), d.Headers...),
		Rows:       make([][]string, len(d.Rows)),
		SourceName: d.SourceName,
	}
	for i, row := range d.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// InsertColumn inserts an empty column named name at position pos.
// A pos outside [0, len(Headers)] appends the column at the end.
func (d *Dataset) InsertColumn(pos int, name string) {
	if pos < 0 || pos > len(d.Headers) {
		pos = len(d.Headers)
	}
	d.Headers = insertAt(d.Headers, pos, name)
	for i := range d.Rows {
		d.Rows[i] = insertAt(d.Rows[i], pos, "")
	}
}

// CleanHeader folds line breaks to spaces and trims surrounding whitespace.
func CleanHeader(h string) string {
	h = strings.ReplaceAll(h, "\r\n", " ")
	h = strings.ReplaceAll(h, "\n", " ")
	h = strings.ReplaceAll(h, "\r", " ")
	return strings.TrimSpace(h)
}

func insertAt(s []string, pos int, v string) []string {
	s = append(s, "")
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
