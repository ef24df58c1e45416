package converter

import (
	"github.com/ginjaninja78/csv-customiser/internal/types"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
)

// Report describes how the columns of an export were discovered, without
// transforming any rows.
type Report struct {
	File     string               `json:"file"`
	Rows     int                  `json:"rows"`
	Columns  []string             `json:"columns"`
	Resolved map[string]string    `json:"resolved"`
	Missing  []string             `json:"missing"`
	Warnings []validation.Warning `json:"warnings"`
}

// Inspect builds a discovery report for ds.
func (c *Converter) Inspect(ds *types.Dataset) *Report {
	cols, warnings := c.transformer.Inspect(ds)

	report := &Report{
		File:     ds.SourceName,
		Rows:     ds.RowCount(),
		Columns:  append([]string(nil), ds.Headers...),
		Resolved: make(map[string]string),
		Missing:  []string{},
		Warnings: warnings,
	}
	for role, header := range cols.Resolved() {
		report.Resolved[string(role)] = header
	}
	for _, role := range cols.Missing() {
		report.Missing = append(report.Missing, string(role))
	}
	if report.Warnings == nil {
		report.Warnings = []validation.Warning{}
	}
	return report
}
