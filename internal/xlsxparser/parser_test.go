package xlsxparser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newWorkbook builds a workbook with one sheet per entry of sheets, in
// order. Sheet contents are written row by row starting at A1.
func newWorkbook(t *testing.T, names []string, sheets map[string][][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				if v == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellStr(name, cell, v))
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParse_FirstSheet(t *testing.T) {
	buf := newWorkbook(t, []string{"Orders", "Other"}, map[string][][]string{
		"Orders": {
			{"Shipping\nCountry", "Product ID", "", "Notes"},
			{"France", "ay5cwt7h"},
			{},
			{"United States", "j6a63izr", "", "call me"},
		},
		"Other": {{"Ignored"}},
	})

	ds, err := Parse(buf, "orders.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "orders.xlsx", ds.SourceName)
	assert.Equal(t, []string{"Shipping Country", "Product ID", "Column_3", "Notes"}, ds.Headers)
	assert.Equal(t, [][]string{
		{"France", "ay5cwt7h", "", ""},
		{"", "", "", ""},
		{"United States", "j6a63izr", "", "call me"},
	}, ds.Rows)
}

func TestParse_KeepsCellsBeyondHeader(t *testing.T) {
	buf := newWorkbook(t, []string{"Orders"}, map[string][][]string{
		"Orders": {
			{"Country", "SKU"},
			{"France", "ay5cwt7h", "gift"},
		},
	})

	ds, err := Parse(buf, "orders.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "SKU", "Column_3"}, ds.Headers)
	assert.Equal(t, [][]string{{"France", "ay5cwt7h", "gift"}}, ds.Rows)
}

func TestParse_EmptySheet(t *testing.T) {
	buf := newWorkbook(t, []string{"Orders"}, nil)

	_, err := Parse(buf, "empty.xlsx")
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := Parse(strings.NewReader("A,B\n1,2\n"), "fake.xlsx")
	assert.Error(t, err)
}
