package converter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csv-customiser/internal/config"
)

// Destination is the shipping region a row is classified into.
type Destination int

const (
	DestinationOther Destination = iota
	DestinationUSA
	DestinationUK
)

func (d Destination) String() string {
	switch d {
	case DestinationUSA:
		return "usa"
	case DestinationUK:
		return "uk"
	default:
		return "other"
	}
}

// phonePattern matches a run of at least seven digits, optionally led by a
// "+" and separated by spaces, dots, dashes or parentheses.
var phonePattern = regexp.MustCompile(`\+?\(?\d(?:[\s().\-]*\d){6,}`)

// priceNoise strips everything that is not part of a plain decimal number.
var priceNoise = regexp.MustCompile(`[^0-9.]`)

// Tables are the compiled, read-only lookup tables used to classify rows.
// A Tables value is safe for concurrent use.
type Tables struct {
	aliases AliasTable

	exceptions   map[string]string
	weightGroups []weightGroup

	iossNumber     string
	euCountries    []string
	usa            countryGroup
	uk             countryGroup
	usaPackage     string
	usaService     string
	placeholder    string
	ukService      string
	ukOverrides    map[string]string
	otherService   string
	otherOverrides map[string]string

	defaultPackage string
	parcelPackage  string
	parcelIDs      map[string]struct{}

	productNames   map[string]struct{}
	priceThreshold float64
}

type weightGroup struct {
	name   string
	weight string
	ids    map[string]struct{}
}

type countryGroup struct {
	contains []string
	exact    map[string]struct{}
}

func (g countryGroup) match(country string) bool {
	if country == "" {
		return false
	}
	if _, ok := g.exact[country]; ok {
		return true
	}
	for _, name := range g.contains {
		if strings.Contains(country, name) {
			return true
		}
	}
	return false
}

// NewTables compiles a validated rules document. Product ids and country
// names are normalised to lower case; product names are kept verbatim.
func NewTables(rules *config.Rules) *Tables {
	t := &Tables{
		aliases: AliasTable{
			RoleShippingCountry: rules.Columns.ShippingCountry,
			RoleProductLength:   rules.Columns.ProductLength,
			RoleProductID:       rules.Columns.ProductID,
			RoleProductName:     rules.Columns.ProductName,
			RoleNotes:           rules.Columns.Notes,
			RoleProductPrice:    rules.Columns.ProductPrice,
			RoleOrderTotal:      rules.Columns.OrderTotal,
			RoleOrderPostage:    rules.Columns.OrderPostage,
		},
		exceptions:     make(map[string]string, len(rules.Weights.Exceptions)),
		iossNumber:     rules.IOSS.Number,
		usa:            newCountryGroup(rules.Destinations.USA.CountryAliases),
		uk:             newCountryGroup(rules.Destinations.UK.CountryAliases),
		usaPackage:     rules.Destinations.USA.PackageSize,
		usaService:     rules.Destinations.USA.ServiceCode,
		placeholder:    rules.Destinations.USA.PlaceholderPhone,
		ukService:      rules.Destinations.UK.ServiceCode,
		ukOverrides:    lowerKeys(rules.Destinations.UK.Overrides),
		otherService:   rules.Destinations.Other.ServiceCode,
		otherOverrides: lowerKeys(rules.Destinations.Other.Overrides),
		defaultPackage: rules.PackageSize.Default,
		parcelPackage:  rules.PackageSize.Parcel,
		parcelIDs:      idSet(rules.PackageSize.ParcelIDs),
		productNames:   make(map[string]struct{}, len(rules.ProductNames)),
		priceThreshold: rules.Price.Threshold,
	}

	for _, e := range rules.Weights.Exceptions {
		id := normalizeID(e.ID)
		if _, dup := t.exceptions[id]; !dup {
			t.exceptions[id] = e.Weight
		}
	}
	for _, g := range rules.Weights.Groups {
		t.weightGroups = append(t.weightGroups, weightGroup{name: g.Name, weight: g.Weight, ids: idSet(g.IDs)})
	}
	for _, c := range rules.IOSS.Countries {
		t.euCountries = append(t.euCountries, normalizeCountry(c))
	}
	for _, name := range rules.ProductNames {
		t.productNames[name] = struct{}{}
	}

	return t
}

// Aliases returns the column alias table.
func (t *Tables) Aliases() AliasTable {
	return t.aliases
}

// =============================================================================
// CLASSIFICATION LOOKUPS
// =============================================================================

// Weight returns the fixed weight for a product id, or "" when the id is
// unknown. Exceptions win over groups; groups are checked in order.
func (t *Tables) Weight(productID string) string {
	id := normalizeID(productID)
	if id == "" {
		return ""
	}
	if w, ok := t.exceptions[id]; ok {
		return w
	}
	for _, g := range t.weightGroups {
		if _, ok := g.ids[id]; ok {
			return g.weight
		}
	}
	return ""
}

// IOSS returns the IOSS number when the country contains an EU member
// name, or "". Matching is by substring.
func (t *Tables) IOSS(country string) string {
	c := normalizeCountry(country)
	if c == "" {
		return ""
	}
	for _, eu := range t.euCountries {
		if strings.Contains(c, eu) {
			return t.iossNumber
		}
	}
	return ""
}

// Destination classifies a shipping country. USA is checked before UK.
func (t *Tables) Destination(country string) Destination {
	c := normalizeCountry(country)
	switch {
	case t.usa.match(c):
		return DestinationUSA
	case t.uk.match(c):
		return DestinationUK
	default:
		return DestinationOther
	}
}

// PackageSize returns the package size for a destination and product id.
func (t *Tables) PackageSize(dest Destination, productID string) string {
	if dest == DestinationUSA {
		return t.usaPackage
	}
	if _, ok := t.parcelIDs[normalizeID(productID)]; ok {
		return t.parcelPackage
	}
	return t.defaultPackage
}

// ServiceCode returns the carrier service code. Product id overrides win
// over the destination default.
func (t *Tables) ServiceCode(dest Destination, productID string) string {
	id := normalizeID(productID)
	switch dest {
	case DestinationUSA:
		return t.usaService
	case DestinationUK:
		if code, ok := t.ukOverrides[id]; ok {
			return code
		}
		return t.ukService
	default:
		if code, ok := t.otherOverrides[id]; ok {
			return code
		}
		return t.otherService
	}
}

// Notes returns the notes value for a USA row: the placeholder phone when
// notes are blank or hold no phone number, otherwise notes unchanged.
func (t *Tables) Notes(notes string) (string, bool) {
	if strings.TrimSpace(notes) == "" || !HasPhoneNumber(notes) {
		return t.placeholder, true
	}
	return notes, false
}

// AllowedProductName reports whether name is an exact member of the
// allowed set.
func (t *Tables) AllowedProductName(name string) bool {
	_, ok := t.productNames[name]
	return ok
}

// RedactPrice reports whether a price cell exceeds the threshold.
func (t *Tables) RedactPrice(price string) bool {
	return ParsePrice(price) > t.priceThreshold
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// HasPhoneNumber reports whether s contains a phone-number-shaped token.
func HasPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// ParsePrice parses a price, ignoring currency symbols and separators.
// Empty or unparsable values are zero.
func ParsePrice(s string) float64 {
	cleaned := priceNoise.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeCountry(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

func newCountryGroup(aliases config.CountryAliases) countryGroup {
	g := countryGroup{exact: make(map[string]struct{}, len(aliases.Exact))}
	for _, name := range aliases.Contains {
		g.contains = append(g.contains, normalizeCountry(name))
	}
	for _, name := range aliases.Exact {
		g.exact[normalizeCountry(name)] = struct{}{}
	}
	return g
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[normalizeID(id)] = struct{}{}
	}
	return set
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalizeID(k)] = v
	}
	return out
}
