// Package testutil provides common fixtures for tests.
package testutil

import (
	"strconv"
	"testing"

	"github.com/ssolson/upOpt/internal/estate"
)

// Default collection ids used by fixtures.
const (
	StreetID   = 1
	StarterID  = 7
	ResidentID = 11
	CityWideID = 21
)

// MustCatalog builds a catalog and fails the test on error.
func MustCatalog(t testing.TB, collections ...estate.Collection) estate.Catalog {
	t.Helper()
	catalog, err := estate.NewCatalog(collections)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return catalog
}

// Unit returns a unit on the given street with the given memberships.
func Unit(id int64, yield float64, city int, street int64, memberships ...estate.Membership) estate.Unit {
	return estate.Unit{
		ID:          id,
		PropID:      id + 1000,
		Yield:       yield,
		City:        city,
		Street:      street,
		Address:     "Unit " + strconv.FormatInt(id, 10),
		MintPrice:   float64(id) * 1000,
		Memberships: memberships,
	}
}

// In is shorthand for a membership.
func In(collectionID int, boost float64) estate.Membership {
	return estate.Membership{CollectionID: collectionID, Boost: boost}
}

// FindUnit returns the unit with the given id, or nil.
func FindUnit(units []estate.Unit, id int64) *estate.Unit {
	for i := range units {
		if units[i].ID == id {
			return &units[i]
		}
	}
	return nil
}

// High-yield collections used by the generated portfolio.
const (
	GoldRushID    = 40
	BigSpenderID  = 50
	GoldRushCity  = 2
	portfolioCity = 3
)

// GameCatalog mirrors the shape of the live catalog: the street, starter,
// resident and city-wide collections plus two high-yield collections.
func GameCatalog(t testing.TB) estate.Catalog {
	t.Helper()
	return MustCatalog(t,
		estate.Collection{ID: StreetID, Name: "King of the Street", Required: 3, Boost: 1.3},
		estate.Collection{ID: StarterID, Name: "Newbie", Required: 1, Boost: 1.1},
		estate.Collection{ID: ResidentID, Name: "San Franciscan", Required: 5, Boost: 1.2},
		estate.Collection{ID: CityWideID, Name: "City Pro", Required: 4, Boost: 1.4},
		estate.Collection{ID: GoldRushID, Name: "Gold Rush", Required: 3, Boost: 1.6, City: GoldRushCity},
		estate.Collection{ID: BigSpenderID, Name: "Big Spender", Required: 4, Boost: 1.5},
	)
}

// Portfolio generates n deterministic units spread over three cities and five
// streets per city. Every fourth unit declares Big Spender and even units in
// the Gold Rush city declare Gold Rush; the rest declare nothing.
func Portfolio(n int) []estate.Unit {
	units := make([]estate.Unit, 0, n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		city := i%portfolioCity + 1
		street := int64(i%5 + 1)
		yield := 0.1 + float64(i%7)*0.05
		var memberships []estate.Membership
		if i%4 == 0 {
			memberships = append(memberships, In(BigSpenderID, 1.5))
		}
		if city == GoldRushCity && i%2 == 0 {
			memberships = append(memberships, In(GoldRushID, 1.6))
		}
		units = append(units, Unit(id, yield, city, street, memberships...))
	}
	return units
}
