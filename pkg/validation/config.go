package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/ssolson/upOpt/internal/estate"
)

// ErrMalformedData marks unit or catalog records that cannot be optimized.
var ErrMalformedData = errors.New("malformed external data")

// ValidateCatalog checks every collection definition.
func ValidateCatalog(catalog estate.Catalog) error {
	if catalog.Len() == 0 {
		return fmt.Errorf("%w: collection catalog is empty", ErrMalformedData)
	}
	for _, c := range catalog.Collections() {
		if c.Required <= 0 {
			return fmt.Errorf("%w: collection %d (%s) requires %d units", ErrMalformedData, c.ID, c.Name, c.Required)
		}
		if !finitePositive(c.Boost) {
			return fmt.Errorf("%w: collection %d (%s) has boost %v", ErrMalformedData, c.ID, c.Name, c.Boost)
		}
	}
	return nil
}

// ValidateUnits checks the owned units against the catalog. Memberships must
// reference catalog collections.
func ValidateUnits(units []estate.Unit, catalog estate.Catalog) error {
	seen := make(map[int64]bool, len(units))
	for _, u := range units {
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate unit id %d", ErrMalformedData, u.ID)
		}
		seen[u.ID] = true

		if math.IsNaN(u.Yield) || math.IsInf(u.Yield, 0) || u.Yield < 0 {
			return fmt.Errorf("%w: unit %d has yield %v", ErrMalformedData, u.ID, u.Yield)
		}
		for _, m := range u.Memberships {
			if _, ok := catalog.Get(m.CollectionID); !ok {
				return fmt.Errorf("%w: unit %d references unknown collection %d", ErrMalformedData, u.ID, m.CollectionID)
			}
			if !finitePositive(m.Boost) {
				return fmt.Errorf("%w: unit %d has boost %v for collection %d", ErrMalformedData, u.ID, m.Boost, m.CollectionID)
			}
		}
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
