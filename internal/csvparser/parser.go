// =============================================================================
// Subscription CSV Customiser - CSV Parser Module
// =============================================================================
//
// This module reads a subscription-order export into a Dataset. It handles:
//   - Configurable delimiters (comma, semicolon, pipe, tab)
//   - UTF-8 (with or without BOM), Windows-1252 and ISO-8859-1 input
//   - Quoted fields containing delimiters and line breaks
//   - Short rows (padded to the header width)
//
// A row with more fields than the header is an error, and rows whose cells
// are all empty are kept. Cell values are kept verbatim. Only the header row is cleaned (line
// breaks folded, whitespace trimmed) because column discovery works on
// headers, not data.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/csv-customiser/internal/config"
	"github.com/ginjaninja78/csv-customiser/internal/types"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrTooManyFields is returned for a row wider than the header row.
	ErrTooManyFields = errors.New("row has more fields than the header")
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads CSV data from r. name is recorded as the dataset's source
// name.
//
// PARSING PROCESS:
//   1. Decode the input to UTF-8 according to settings.Encoding
//   2. Read all records with the configured delimiter
//   3. Clean the header row
//   4. Reject rows wider than the header and pad shorter ones
func Parse(r io.Reader, name string, settings config.CSVSettings) (*types.Dataset, error) {
	decoder, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(bufio.NewReader(r), unicode.BOMOverride(decoder)))
	configureReader(reader, settings)

	record, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	headers := cleanHeaders(record)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(record) > len(headers) {
			line, _ := reader.FieldPos(len(headers))
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrTooManyFields, line, len(record), len(headers))
		}
		rows = append(rows, record)
	}

	ds := types.NewDataset(headers, rows)
	ds.SourceName = name
	return ds, nil
}

// decoderFor returns the decoder for a configured encoding name. A byte
// order mark in the input always takes precedence.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		return unicode.UTF8.NewDecoder(), nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Exports from spreadsheet tools are not always strictly quoted.
	reader.LazyQuotes = true
}

// Delimiter converts a configured delimiter name to a rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if r, size := utf8.DecodeRuneInString(name); size > 0 && r != utf8.RuneError {
			return r
		}
		return ','
	}
}

// cleanHeaders folds line breaks and trims each header. Empty headers get a
// positional placeholder name.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = types.CleanHeader(header)
		if header == "" {
			header = types.PlaceholderHeader(i)
		}
		cleaned[i] = header
	}
	return cleaned
}
