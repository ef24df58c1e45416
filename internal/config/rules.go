package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// =============================================================================
// RULES DOCUMENT
// =============================================================================

// Rules is the business rules document. It is decoded once at startup and
// compiled by the converter into immutable lookup tables.
type Rules struct {
	Columns      ColumnAliases    `yaml:"columns"`
	Weights      WeightRules      `yaml:"weights"`
	IOSS         IOSSRules        `yaml:"ioss"`
	Destinations DestinationRules `yaml:"destinations"`
	PackageSize  PackageSizeRules `yaml:"package_size"`
	ProductNames []string         `yaml:"product_names" validate:"required,min=1,dive,required"`
	Price        PriceRules       `yaml:"price"`
}

// ColumnAliases lists the header fragments for every column role, in
// priority order.
type ColumnAliases struct {
	ShippingCountry []string `yaml:"shipping_country" validate:"required,min=1,dive,required"`
	ProductLength   []string `yaml:"product_length" validate:"required,min=1,dive,required"`
	ProductID       []string `yaml:"product_id" validate:"required,min=1,dive,required"`
	ProductName     []string `yaml:"product_name" validate:"required,min=1,dive,required"`
	Notes           []string `yaml:"notes" validate:"required,min=1,dive,required"`
	ProductPrice    []string `yaml:"product_price" validate:"required,min=1,dive,required"`
	OrderTotal      []string `yaml:"order_total" validate:"required,min=1,dive,required"`
	OrderPostage    []string `yaml:"order_postage" validate:"required,min=1,dive,required"`
}

// WeightRules assigns a fixed weight per product id.
type WeightRules struct {
	// Exceptions are single ids checked before any group.
	Exceptions []WeightException `yaml:"exceptions" validate:"dive"`

	// Groups are checked in order after the exceptions.
	Groups []WeightGroup `yaml:"groups" validate:"dive"`
}

// WeightException is a single product id with its own weight.
type WeightException struct {
	ID     string `yaml:"id" validate:"required"`
	Weight string `yaml:"weight" validate:"required,numeric"`
}

// WeightGroup is a named set of product ids sharing a weight.
type WeightGroup struct {
	Name   string   `yaml:"name" validate:"required"`
	Weight string   `yaml:"weight" validate:"required,numeric"`
	IDs    []string `yaml:"ids" validate:"required,min=1,dive,required"`
}

// IOSSRules marks EU-bound rows with the IOSS number.
type IOSSRules struct {
	Number    string   `yaml:"number" validate:"required"`
	Countries []string `yaml:"countries" validate:"required,min=1,dive,required"`
}

// DestinationRules selects the carrier service per destination.
type DestinationRules struct {
	USA   USARules   `yaml:"usa"`
	UK    UKRules    `yaml:"uk"`
	Other OtherRules `yaml:"other"`
}

// CountryAliases matches a shipping country either by substring
// (Contains) or by whole-value equality (Exact).
type CountryAliases struct {
	Contains []string `yaml:"contains" validate:"dive,required"`
	Exact    []string `yaml:"exact" validate:"dive,required"`
}

// USARules applies to rows shipping to the United States.
type USARules struct {
	CountryAliases   `yaml:",inline"`
	PackageSize      string `yaml:"package_size" validate:"required"`
	ServiceCode      string `yaml:"service_code" validate:"required"`
	PlaceholderPhone string `yaml:"placeholder_phone" validate:"required"`
}

// UKRules applies to rows shipping to the United Kingdom.
type UKRules struct {
	CountryAliases `yaml:",inline"`
	ServiceCode    string            `yaml:"service_code" validate:"required"`
	Overrides      map[string]string `yaml:"overrides"`
}

// OtherRules applies to every row that is neither USA nor UK.
type OtherRules struct {
	ServiceCode string            `yaml:"service_code" validate:"required"`
	Overrides   map[string]string `yaml:"overrides"`
}

// PackageSizeRules sets the package size for non-USA rows.
type PackageSizeRules struct {
	Default   string   `yaml:"default" validate:"required"`
	Parcel    string   `yaml:"parcel" validate:"required"`
	ParcelIDs []string `yaml:"parcel_ids" validate:"dive,required"`
}

// PriceRules controls high-price redaction.
type PriceRules struct {
	Threshold float64 `yaml:"threshold" validate:"gt=0"`
}

// =============================================================================
// RULES LOADING FUNCTIONS
// =============================================================================

// DefaultRules returns the embedded rules document.
func DefaultRules() (*Rules, error) {
	return parseRules(defaultRules)
}

// LoadRules reads a rules document from path. An empty path returns the
// embedded rules.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := parseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

func parseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := validate.Struct(&rules); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &rules, nil
}
