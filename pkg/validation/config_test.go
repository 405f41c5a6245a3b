package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/ssolson/upOpt/internal/estate"
)

func testCatalog(t *testing.T) estate.Catalog {
	t.Helper()
	catalog, err := estate.NewCatalog([]estate.Collection{
		{ID: 7, Name: "Newbie", Required: 1, Boost: 1.1},
		{ID: 21, Name: "City Pro", Required: 2, Boost: 1.4},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return catalog
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name        string
		collections []estate.Collection
		expectErr   bool
	}{
		{
			name:        "Valid catalog",
			collections: []estate.Collection{{ID: 7, Name: "Newbie", Required: 1, Boost: 1.1}},
		},
		{
			name:      "Empty catalog",
			expectErr: true,
		},
		{
			name:        "Zero required count",
			collections: []estate.Collection{{ID: 7, Required: 0, Boost: 1.1}},
			expectErr:   true,
		},
		{
			name:        "Missing boost",
			collections: []estate.Collection{{ID: 7, Required: 1}},
			expectErr:   true,
		},
		{
			name:        "Infinite boost",
			collections: []estate.Collection{{ID: 7, Required: 1, Boost: math.Inf(1)}},
			expectErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := estate.NewCatalog(tt.collections)
			if err != nil {
				t.Fatalf("NewCatalog() error = %v", err)
			}
			err = ValidateCatalog(catalog)
			if tt.expectErr {
				if !errors.Is(err, ErrMalformedData) {
					t.Errorf("ValidateCatalog() error = %v, expected ErrMalformedData", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateCatalog() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateUnits(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name      string
		units     []estate.Unit
		expectErr bool
	}{
		{
			name: "Valid units",
			units: []estate.Unit{
				{ID: 1, Yield: 1.5, Memberships: []estate.Membership{{CollectionID: 21, Boost: 1.4}}},
				{ID: 2, Yield: 0},
			},
		},
		{
			name:      "Duplicate ids",
			units:     []estate.Unit{{ID: 1, Yield: 1}, {ID: 1, Yield: 2}},
			expectErr: true,
		},
		{
			name:      "Negative yield",
			units:     []estate.Unit{{ID: 1, Yield: -1}},
			expectErr: true,
		},
		{
			name:      "NaN yield",
			units:     []estate.Unit{{ID: 1, Yield: math.NaN()}},
			expectErr: true,
		},
		{
			name:      "Unknown collection",
			units:     []estate.Unit{{ID: 1, Yield: 1, Memberships: []estate.Membership{{CollectionID: 99, Boost: 2}}}},
			expectErr: true,
		},
		{
			name:      "Zero membership boost",
			units:     []estate.Unit{{ID: 1, Yield: 1, Memberships: []estate.Membership{{CollectionID: 7}}}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnits(tt.units, catalog)
			if tt.expectErr {
				if !errors.Is(err, ErrMalformedData) {
					t.Errorf("ValidateUnits() error = %v, expected ErrMalformedData", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateUnits() unexpected error: %v", err)
			}
		})
	}
}
