package converter

import (
	"github.com/ginjaninja78/csv-customiser/internal/types"
)

// Provision adds any missing derived columns to ds.
//
// "Product weight", "Package Size" and "Service Code" go directly after the
// product length column, in that order, or at the end when no length
// column was discovered. "IOSS" goes last. Columns that already exist are
// left where they are. The returned Columns have their indices adjusted for
// the inserted columns.
func Provision(ds *types.Dataset, cols Columns) Columns {
	cols = cols.clone()
	anchor := len(ds.Headers) - 1
	if i, ok := cols.Index(RoleProductLength); ok {
		anchor = i
	}

	for _, name := range []string{ColumnProductWeight, ColumnPackageSize, ColumnServiceCode} {
		if indexOfColumn(ds.Headers, name) >= 0 {
			continue
		}
		pos := anchor + 1
		ds.InsertColumn(pos, name)
		cols.shift(pos)
		anchor = pos
	}

	if indexOfColumn(ds.Headers, ColumnIOSS) < 0 {
		ds.InsertColumn(len(ds.Headers), ColumnIOSS)
	}

	return cols
}
