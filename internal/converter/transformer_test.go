package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csv-customiser/internal/types"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
)

var orderHeaders = []string{
	"Order ID", "Shipping Country", "Product Length", "Product ID", "Product Name",
	"Notes", "Product Price", "Order Total", "Order Postage",
}

func orderRows() [][]string {
	return [][]string{
		{"1001", "United States", "10", "j6a63izr", "12 Month Mag Only Subscription", "", "£10.00", "£12.00", "£2.00"},
		{"1002", "United Kingdom", "12", "pjzmis04", "Random Title", "call 07700 900123", "£25.00", "£27.50", "£2.50"},
		{"1003", "France", "10", "ay5cwt7h", "12 Month Bundle Subscription", "", "£19", "£21", "£2"},
		{"1004", "Germany", "30", "wl7k4elo", "Bundle (Print Edition + Vinyl / CD + Web Premium)", "", "£18", "£20", "£2"},
	}
}

func newOrderDataset() *types.Dataset {
	ds := types.NewDataset(orderHeaders, orderRows())
	ds.SourceName = "orders.csv"
	return ds
}

func TestTransform(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)

	result := tr.Transform(newOrderDataset())

	assert.Equal(t, []string{
		"Order ID", "Shipping Country", "Product Length",
		"Product weight", "Package Size", "Service Code",
		"Product ID", "Product Name", "Notes", "Product Price", "Order Total", "Order Postage",
		"IOSS",
	}, result.Dataset.Headers)

	want := [][]string{
		{"1001", "United States", "10", "0.430", "Parcel", "MPR", "j6a63izr", "12 Month Mag Only Subscription", "123-123-1234", "£10.00", "£12.00", "£2.00", ""},
		{"1002", "United Kingdom", "12", "0.980", "Parcel", "TPS48", "pjzmis04", "", "call 07700 900123", "", "", "", ""},
		{"1003", "France", "10", "0.490", "Large Letter", "DG4", "ay5cwt7h", "12 Month Bundle Subscription", "", "£19", "£21", "£2", "IM5280003071"},
		{"1004", "Germany", "30", "0.920", "Parcel", "DE4", "wl7k4elo", "Bundle (Print Edition + Vinyl / CD + Web Premium)", "", "£18", "£20", "£2", "IM5280003071"},
	}
	require.Len(t, result.Dataset.Rows, len(want))
	for i := range want {
		assert.Equal(t, want[i], result.Dataset.Rows[i], "row %d", i)
	}

	assert.Equal(t, Stats{
		Rows:            4,
		WeightsAssigned: 4,
		IOSSMarked:      2,
		USA:             1,
		UK:              1,
		Other:           2,
		PhonesFilled:    1,
		NamesBlanked:    1,
		PricesRedacted:  1,
	}, result.Stats)

	assert.Empty(t, validation.UserVisible(result.Warnings))
	assert.Equal(t, "orders.csv", result.Dataset.SourceName)
}

func TestTransform_DoesNotModifyInput(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)
	ds := newOrderDataset()

	tr.Transform(ds)

	assert.Equal(t, orderHeaders, ds.Headers)
	assert.Equal(t, orderRows(), ds.Rows)
}

func TestTransform_Idempotent(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)

	first := tr.Transform(newOrderDataset())
	second := tr.Transform(first.Dataset)

	assert.Equal(t, first.Dataset.Headers, second.Dataset.Headers)
	assert.Equal(t, first.Dataset.Rows, second.Dataset.Rows)
	assert.Zero(t, second.Stats.PhonesFilled)
	assert.Zero(t, second.Stats.NamesBlanked)
	assert.Zero(t, second.Stats.PricesRedacted)
}

func TestTransform_MissingLengthColumn(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)
	ds := types.NewDataset([]string{"Country", "SKU"}, [][]string{{"France", "ay5cwt7h"}})

	result := tr.Transform(ds)

	assert.Equal(t, []string{"Country", "SKU", "Product weight", "Package Size", "Service Code", "IOSS"}, result.Dataset.Headers)
	assert.Equal(t, []string{"France", "ay5cwt7h", "0.490", "Large Letter", "DG4", "IM5280003071"}, result.Dataset.Rows[0])

	visible := validation.UserVisible(result.Warnings)
	require.Len(t, visible, 1)
	assert.Equal(t, LengthWarning, visible[0].Message)
}

func TestTransform_UnknownValues(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)
	ds := types.NewDataset(orderHeaders, [][]string{
		{"2001", "", "5", "zzzz", "", "", "n/a", "", ""},
	})

	result := tr.Transform(ds)
	row := result.Dataset.Rows[0]

	assert.Equal(t, "", row[3], "weight")
	assert.Equal(t, "Large Letter", row[4])
	assert.Equal(t, "DG4", row[5])
	assert.Equal(t, "n/a", row[9], "unparsable price is kept")
	assert.Equal(t, "", row[12], "ioss")
	assert.Equal(t, Stats{Rows: 1, Other: 1}, result.Stats)
}

func TestTransform_USAWithoutNotesColumn(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)
	ds := types.NewDataset([]string{"Country", "Length", "SKU"}, [][]string{{"USA", "3", "pjzmis04"}})

	result := tr.Transform(ds)

	assert.Equal(t, []string{"USA", "3", "0.980", "Parcel", "MPR", "pjzmis04", ""}, result.Dataset.Rows[0])
	assert.Zero(t, result.Stats.PhonesFilled)
}

func TestTransform_HeadersOnly(t *testing.T) {
	tr := NewTransformer(defaultTables(), nil)

	result := tr.Transform(types.NewDataset(orderHeaders, nil))

	assert.Len(t, result.Dataset.Headers, len(orderHeaders)+4)
	assert.Empty(t, result.Dataset.Rows)
	assert.Equal(t, Stats{}, result.Stats)
}
