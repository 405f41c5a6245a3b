// Package estate defines the immutable value types the optimizer works on:
// owned properties (units) and the collection catalog.
package estate

import (
	"fmt"
	"sort"
)

// Scope is the grouping a collection uses for exclusivity.
type Scope int

const (
	// ScopeNone collections have no grouping rule.
	ScopeNone Scope = iota
	// ScopeCity collections must be filled within a single city.
	ScopeCity
	// ScopeStreet collections must be filled within a single street of a city.
	ScopeStreet
)

// String returns the configuration name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeNone:
		return "none"
	case ScopeCity:
		return "city"
	case ScopeStreet:
		return "street"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Membership is a collection a unit declares itself eligible for.
type Membership struct {
	CollectionID int     `json:"id"`
	Boost        float64 `json:"yield_boost"`
}

// Unit is one owned property.
type Unit struct {
	ID          int64        `json:"id"`
	PropID      int64        `json:"prop_id"`
	Yield       float64      `json:"yield_per_hour"`
	City        int          `json:"city_id"`
	Street      int64        `json:"street_id"`
	Address     string       `json:"full_address"`
	MintPrice   float64      `json:"mint_price"`
	Memberships []Membership `json:"collections,omitempty"`
}

// Collection is a catalog entry.
type Collection struct {
	ID       int     `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Required int     `json:"amount" yaml:"amount"`
	Boost    float64 `json:"yield_boost" yaml:"yield_boost"`
	// City is the home city of a city-bound collection, zero otherwise.
	City  int   `json:"city_id,omitempty" yaml:"city_id,omitempty"`
	Scope Scope `json:"-" yaml:"-"`
}

// Catalog is the full set of collection definitions, ordered by boost descending.
type Catalog struct {
	collections []Collection
	index       map[int]int
}

// NewCatalog builds a Catalog. Duplicate identifiers are rejected.
func NewCatalog(collections []Collection) (Catalog, error) {
	sorted := make([]Collection, len(collections))
	copy(sorted, collections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Boost != sorted[j].Boost {
			return sorted[i].Boost > sorted[j].Boost
		}
		return sorted[i].ID < sorted[j].ID
	})

	index := make(map[int]int, len(sorted))
	for i, c := range sorted {
		if _, ok := index[c.ID]; ok {
			return Catalog{}, fmt.Errorf("duplicate collection id %d in catalog", c.ID)
		}
		index[c.ID] = i
	}
	return Catalog{collections: sorted, index: index}, nil
}

// Get returns the collection with the given id.
func (c Catalog) Get(id int) (Collection, bool) {
	i, ok := c.index[id]
	if !ok {
		return Collection{}, false
	}
	return c.collections[i], true
}

// Collections returns a copy of all definitions, boost descending.
func (c Catalog) Collections() []Collection {
	out := make([]Collection, len(c.collections))
	copy(out, c.collections)
	return out
}

// Len returns the number of definitions.
func (c Catalog) Len() int {
	return len(c.collections)
}

// WithScopes returns a copy of the catalog with the given exclusivity scopes
// applied. Ids absent from the catalog are ignored.
func (c Catalog) WithScopes(scopes map[int]Scope) Catalog {
	out := Catalog{collections: c.Collections(), index: make(map[int]int, len(c.index))}
	for i := range out.collections {
		if s, ok := scopes[out.collections[i].ID]; ok {
			out.collections[i].Scope = s
		}
		out.index[out.collections[i].ID] = i
	}
	return out
}

// StreetKey identifies a street; street ids are only unique within a city.
type StreetKey struct {
	City   int
	Street int64
}

// StreetKey returns the unit's street grouping key.
func (u Unit) StreetKey() StreetKey {
	return StreetKey{City: u.City, Street: u.Street}
}

// TotalYield sums the hourly yield of the units.
func TotalYield(units []Unit) float64 {
	total := 0.0
	for _, u := range units {
		total += u.Yield
	}
	return total
}
