package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/csv-customiser/internal/config"
)

// defaultTables compiles the embedded rules document.
func defaultTables() *Tables {
	rules, err := config.DefaultRules()
	if err != nil {
		panic(err)
	}
	return NewTables(rules)
}

func TestTables_Weight(t *testing.T) {
	tables := defaultTables()

	tests := []struct {
		id   string
		want string
	}{
		{"wl7k4elo", "0.920"},
		{"WL7K4ELO", "0.920"},
		{"pjzmis04", "0.980"},
		{"ay5cwt7h", "0.490"},
		{" iljcpq05 ", "0.490"},
		{"j6a63izr", "0.430"},
		{"Ljae93q8", "0.430"},
		{"ljae93q8", "0.430"},
		{"unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.Weight(tt.id))
		})
	}
}

func TestTables_IOSS(t *testing.T) {
	tables := defaultTables()

	assert.Equal(t, "IM5280003071", tables.IOSS("France"))
	assert.Equal(t, "IM5280003071", tables.IOSS("  germany "))
	assert.Equal(t, "IM5280003071", tables.IOSS("Republic of Ireland"))
	assert.Empty(t, tables.IOSS("United Kingdom"))
	assert.Empty(t, tables.IOSS("Norway"))
	assert.Empty(t, tables.IOSS(""))
}

func TestTables_Destination(t *testing.T) {
	tables := defaultTables()

	tests := []struct {
		country string
		want    Destination
	}{
		{"United States of America", DestinationUSA},
		{"united states", DestinationUSA},
		{"USA", DestinationUSA},
		{"US", DestinationUSA},
		{"United Kingdom", DestinationUK},
		{"Great Britain", DestinationUK},
		{"GB", DestinationUK},
		{"Scotland", DestinationUK},
		{"Russia", DestinationOther},
		{"Australia", DestinationOther},
		{"France", DestinationOther},
		{"", DestinationOther},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.Destination(tt.country))
		})
	}
}

func TestTables_PackageSizeAndServiceCode(t *testing.T) {
	tables := defaultTables()

	tests := []struct {
		name    string
		dest    Destination
		id      string
		size    string
		service string
	}{
		{"usa any product", DestinationUSA, "ay5cwt7h", "Parcel", "MPR"},
		{"usa vinyl", DestinationUSA, "wl7k4elo", "Parcel", "MPR"},
		{"uk default", DestinationUK, "ay5cwt7h", "Large Letter", "CRL48"},
		{"uk override", DestinationUK, "pjzmis04", "Parcel", "TPS48"},
		{"uk vinyl", DestinationUK, "wl7k4elo", "Parcel", "CRL48"},
		{"other default", DestinationOther, "j6a63izr", "Large Letter", "DG4"},
		{"other override", DestinationOther, "wl7k4elo", "Parcel", "DE4"},
		{"other unknown id", DestinationOther, "", "Large Letter", "DG4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tables.PackageSize(tt.dest, tt.id))
			assert.Equal(t, tt.service, tables.ServiceCode(tt.dest, tt.id))
		})
	}
}

func TestTables_Notes(t *testing.T) {
	tables := defaultTables()

	notes, filled := tables.Notes("")
	assert.True(t, filled)
	assert.Equal(t, "123-123-1234", notes)

	notes, filled = tables.Notes("   ")
	assert.True(t, filled)
	assert.Equal(t, "123-123-1234", notes)

	notes, filled = tables.Notes("leave with neighbour")
	assert.True(t, filled)
	assert.Equal(t, "123-123-1234", notes)

	notes, filled = tables.Notes("call 555-123-4567 first")
	assert.False(t, filled)
	assert.Equal(t, "call 555-123-4567 first", notes)
}

func TestHasPhoneNumber(t *testing.T) {
	assert.True(t, HasPhoneNumber("+44 (0)20 7946 0958"))
	assert.True(t, HasPhoneNumber("5551234567"))
	assert.True(t, HasPhoneNumber("tel: 555.123.4567"))
	assert.False(t, HasPhoneNumber("flat 12345"))
	assert.False(t, HasPhoneNumber("no phone"))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 25.0, ParsePrice("£25.00"))
	assert.Equal(t, 1234.5, ParsePrice("$1,234.50"))
	assert.Equal(t, 19.0, ParsePrice(" 19 "))
	assert.Equal(t, 0.0, ParsePrice(""))
	assert.Equal(t, 0.0, ParsePrice("n/a"))
	assert.Equal(t, 0.0, ParsePrice("1.2.3"))
}

func TestTables_RedactPrice(t *testing.T) {
	tables := defaultTables()

	assert.True(t, tables.RedactPrice("£25.00"))
	assert.True(t, tables.RedactPrice("19.01"))
	assert.False(t, tables.RedactPrice("£19"))
	assert.False(t, tables.RedactPrice("£10"))
	assert.False(t, tables.RedactPrice(""))
}

func TestTables_AllowedProductName(t *testing.T) {
	tables := defaultTables()

	assert.True(t, tables.AllowedProductName("12 Month Bundle Subscription"))
	assert.True(t, tables.AllowedProductName("Bundle (Print Edition + Vinyl / CD + Web Premium)"))
	assert.False(t, tables.AllowedProductName("12 month bundle subscription"))
	assert.False(t, tables.AllowedProductName("Random Title"))
	assert.False(t, tables.AllowedProductName(""))
}
