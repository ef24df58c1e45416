package converter

import (
	"strings"

	"github.com/ginjaninja78/csv-customiser/internal/types"
)

// =============================================================================
// COLUMN ROLES
// =============================================================================

// Role is a canonical column meaning that may appear under several header
// spellings.
type Role string

const (
	RoleShippingCountry Role = "shipping country"
	RoleProductLength   Role = "product length"
	RoleProductID       Role = "product id"
	RoleProductName     Role = "product name"
	RoleNotes           Role = "notes"
	RoleProductPrice    Role = "product price"
	RoleOrderTotal      Role = "order total"
	RoleOrderPostage    Role = "order postage"
)

// Roles lists every role in discovery order.
var Roles = []Role{
	RoleShippingCountry,
	RoleProductLength,
	RoleProductID,
	RoleProductName,
	RoleNotes,
	RoleProductPrice,
	RoleOrderTotal,
	RoleOrderPostage,
}

// Derived column names, in provisioning order.
const (
	ColumnProductWeight = "Product weight"
	ColumnPackageSize   = "Package Size"
	ColumnServiceCode   = "Service Code"
	ColumnIOSS          = "IOSS"
)

// DerivedColumns are the columns the transformer computes.
var DerivedColumns = []string{ColumnProductWeight, ColumnPackageSize, ColumnServiceCode, ColumnIOSS}

// AliasTable maps each role to its header fragments in priority order.
type AliasTable map[Role][]string

// =============================================================================
// RESOLVED COLUMNS
// =============================================================================

// Columns is the result of column discovery: the header index resolved for
// each role. Unresolved roles are absent.
type Columns struct {
	index   map[Role]int
	headers map[Role]string
}

// Index returns the column index resolved for role.
func (c Columns) Index(role Role) (int, bool) {
	i, ok := c.index[role]
	return i, ok
}

// Header returns the header resolved for role, or "".
func (c Columns) Header(role Role) string {
	return c.headers[role]
}

// Resolved returns role -> header for every resolved role.
func (c Columns) Resolved() map[Role]string {
	out := make(map[Role]string, len(c.headers))
	for role, h := range c.headers {
		out[role] = h
	}
	return out
}

// Missing returns the unresolved roles in discovery order.
func (c Columns) Missing() []Role {
	var missing []Role
	for _, role := range Roles {
		if _, ok := c.index[role]; !ok {
			missing = append(missing, role)
		}
	}
	return missing
}

func (c Columns) clone() Columns {
	out := Columns{
		index:   make(map[Role]int, len(c.index)),
		headers: make(map[Role]string, len(c.headers)),
	}
	for role, i := range c.index {
		out.index[role] = i
	}
	for role, h := range c.headers {
		out.headers[role] = h
	}
	return out
}

// shift moves every resolved index at or after pos one column right.
func (c Columns) shift(pos int) {
	for role, i := range c.index {
		if i >= pos {
			c.index[role] = i + 1
		}
	}
}

// =============================================================================
// DISCOVERY
// =============================================================================

// Discover resolves each role to a header.
//
// Headers are compared after normalisation (line breaks folded, trimmed,
// lower-cased). For each role, pass one looks for an exact match of any
// alias, aliases in priority order and headers in column order; pass two
// accepts a header containing the alias or contained in it. Empty headers
// and the derived columns never resolve a role, so re-running on converted
// output resolves the same source columns.
func Discover(headers []string, aliases AliasTable) Columns {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		n := NormalizeHeader(h)
		if isDerivedColumn(n) {
			n = ""
		}
		normalized[i] = n
	}

	cols := Columns{
		index:   make(map[Role]int),
		headers: make(map[Role]string),
	}
	for _, role := range Roles {
		if i := matchHeader(normalized, aliases[role]); i >= 0 {
			cols.index[role] = i
			cols.headers[role] = headers[i]
		}
	}
	return cols
}

func matchHeader(normalized []string, aliases []string) int {
	candidates := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if n := NormalizeHeader(a); n != "" {
			candidates = append(candidates, n)
		}
	}

	for _, alias := range candidates {
		for i, h := range normalized {
			if h != "" && h == alias {
				return i
			}
		}
	}

	for _, alias := range candidates {
		for i, h := range normalized {
			if h == "" {
				continue
			}
			if strings.Contains(h, alias) || strings.Contains(alias, h) {
				return i
			}
		}
	}

	return -1
}

// NormalizeHeader folds line breaks to spaces, trims and lower-cases.
func NormalizeHeader(h string) string {
	return strings.ToLower(types.CleanHeader(h))
}

func isDerivedColumn(normalized string) bool {
	for _, name := range DerivedColumns {
		if normalized == strings.ToLower(name) {
			return true
		}
	}
	return false
}

// indexOfColumn finds a column by normalised name.
func indexOfColumn(headers []string, name string) int {
	want := NormalizeHeader(name)
	for i, h := range headers {
		if NormalizeHeader(h) == want {
			return i
		}
	}
	return -1
}
