// =============================================================================
// Subscription CSV Customiser - Transformation Engine
// =============================================================================
//
// This module applies the business rules to a parsed export. It is a pure
// function of the input dataset and the compiled Tables: the input is never
// modified, and every row of the output is computed from the matching input
// row only.
//
// TRANSFORMATION STEPS:
//   1. Discover which header carries each column role
//   2. Provision the derived columns (weight, package size, service, IOSS)
//   3. Classify each row, in this fixed order:
//      a. Weight from product id
//      b. IOSS from shipping country
//      c. Package size / service code / placeholder phone by destination
//      d. Product name whitelist
//      e. High price redaction (price, order total, order postage)
//
// FAILURE SEMANTICS:
//   No rule can fail a row. Missing columns, unparsable numbers and unknown
//   countries all fall back to an empty or default value.
//
// =============================================================================

package converter

import (
	"fmt"
	"log/slog"

	"github.com/ginjaninja78/csv-customiser/internal/types"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
)

// LengthWarning is shown when no product length column is found.
const LengthWarning = "'Product length' column not found; adding new columns at end."

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Stats counts what the rules did to a dataset.
type Stats struct {
	Rows            int `json:"rows"`
	WeightsAssigned int `json:"weights_assigned"`
	IOSSMarked      int `json:"ioss_marked"`
	USA             int `json:"usa"`
	UK              int `json:"uk"`
	Other           int `json:"other"`
	PhonesFilled    int `json:"phones_filled"`
	NamesBlanked    int `json:"names_blanked"`
	PricesRedacted  int `json:"prices_redacted"`
}

// Transformation is the output of Transform.
type Transformation struct {
	// Dataset is the converted copy of the input.
	Dataset *types.Dataset

	// Columns are the discovered role columns, indexed into Dataset.
	Columns Columns

	// Warnings are non-fatal findings. Only SeverityWarning entries are
	// meant for the end user.
	Warnings []validation.Warning

	// Stats counts the rule outcomes.
	Stats Stats
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the business rules using a fixed set of Tables.
// It holds no per-run state and is safe for concurrent use.
type Transformer struct {
	tables *Tables
	logger *slog.Logger
}

// NewTransformer creates a Transformer. A nil logger discards debug output
// to slog.Default().
func NewTransformer(tables *Tables, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		tables: tables,
		logger: logger.With(slog.String("component", "transformer")),
	}
}

// Transform converts ds into a new dataset. ds is not modified.
func (t *Transformer) Transform(ds *types.Dataset) *Transformation {
	out := ds.Clone()

	cols := Discover(out.Headers, t.tables.Aliases())
	warnings := discoveryWarnings(cols)
	for _, w := range warnings {
		if w.Severity == validation.SeverityWarning {
			t.logger.Warn(w.Message, slog.String("file", ds.SourceName))
		} else {
			t.logger.Debug("column not discovered", slog.String("role", w.Field), slog.String("file", ds.SourceName))
		}
	}
	for role, header := range cols.Resolved() {
		t.logger.Debug("column discovered", slog.String("role", string(role)), slog.String("header", header))
	}

	cols = Provision(out, cols)
	derived := derivedIndexes(out.Headers)

	stats := Stats{Rows: out.RowCount()}
	for i, row := range out.Rows {
		out.Rows[i] = t.classify(row, cols, derived, &stats)
	}

	t.logger.Debug("dataset transformed",
		slog.String("file", ds.SourceName),
		slog.Int("rows", stats.Rows),
		slog.Int("prices_redacted", stats.PricesRedacted))

	return &Transformation{
		Dataset:  out,
		Columns:  cols,
		Warnings: warnings,
		Stats:    stats,
	}
}

// Inspect runs column discovery only.
func (t *Transformer) Inspect(ds *types.Dataset) (Columns, []validation.Warning) {
	cols := Discover(ds.Headers, t.tables.Aliases())
	return cols, discoveryWarnings(cols)
}

type derivedColumns struct {
	weight, packageSize, serviceCode, ioss int
}

func derivedIndexes(headers []string) derivedColumns {
	return derivedColumns{
		weight:      indexOfColumn(headers, ColumnProductWeight),
		packageSize: indexOfColumn(headers, ColumnPackageSize),
		serviceCode: indexOfColumn(headers, ColumnServiceCode),
		ioss:        indexOfColumn(headers, ColumnIOSS),
	}
}

// classify returns a new row with every rule applied.
func (t *Transformer) classify(in []string, cols Columns, derived derivedColumns, stats *Stats) []string {
	row := append([]string(nil), in...)

	get := func(role Role) string {
		if i, ok := cols.Index(role); ok {
			return row[i]
		}
		return ""
	}
	set := func(role Role, v string) {
		if i, ok := cols.Index(role); ok {
			row[i] = v
		}
	}

	productID := get(RoleProductID)
	country := get(RoleShippingCountry)

	// 1. Weight.
	weight := t.tables.Weight(productID)
	if weight != "" {
		stats.WeightsAssigned++
	}
	row[derived.weight] = weight

	// 2. IOSS.
	ioss := t.tables.IOSS(country)
	if ioss != "" {
		stats.IOSSMarked++
	}
	row[derived.ioss] = ioss

	// 3. Destination.
	dest := t.tables.Destination(country)
	switch dest {
	case DestinationUSA:
		stats.USA++
		if _, ok := cols.Index(RoleNotes); ok {
			if notes, filled := t.tables.Notes(get(RoleNotes)); filled {
				set(RoleNotes, notes)
				stats.PhonesFilled++
			}
		}
	case DestinationUK:
		stats.UK++
	default:
		stats.Other++
	}
	row[derived.packageSize] = t.tables.PackageSize(dest, productID)
	row[derived.serviceCode] = t.tables.ServiceCode(dest, productID)

	// 4. Product name.
	if i, ok := cols.Index(RoleProductName); ok && !t.tables.AllowedProductName(row[i]) {
		if row[i] != "" {
			stats.NamesBlanked++
		}
		row[i] = ""
	}

	// 5. Price redaction.
	if i, ok := cols.Index(RoleProductPrice); ok && t.tables.RedactPrice(row[i]) {
		row[i] = ""
		set(RoleOrderTotal, "")
		set(RoleOrderPostage, "")
		stats.PricesRedacted++
	}

	return row
}

func discoveryWarnings(cols Columns) []validation.Warning {
	var warnings []validation.Warning
	for _, role := range cols.Missing() {
		if role == RoleProductLength {
			warnings = append(warnings, validation.Warning{
				Severity: validation.SeverityWarning,
				Field:    string(role),
				Message:  LengthWarning,
			})
			continue
		}
		warnings = append(warnings, validation.Warning{
			Severity: validation.SeverityInfo,
			Field:    string(role),
			Message:  fmt.Sprintf("no column matches %q; rule skipped", string(role)),
		})
	}
	return warnings
}
