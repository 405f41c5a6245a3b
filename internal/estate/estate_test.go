package estate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCatalogSortsByBoost(t *testing.T) {
	catalog, err := NewCatalog([]Collection{
		{ID: 7, Name: "Newbie", Required: 1, Boost: 1.1},
		{ID: 3, Name: "Big", Required: 5, Boost: 2.0},
		{ID: 21, Name: "City Pro", Required: 9, Boost: 1.4},
		{ID: 2, Name: "Also Big", Required: 4, Boost: 2.0},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	var ids []int
	for _, c := range catalog.Collections() {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]int{2, 3, 21, 7}, ids); diff != "" {
		t.Errorf("Collections() order mismatch (-want +got):\n%s", diff)
	}

	got, ok := catalog.Get(21)
	if !ok || got.Name != "City Pro" {
		t.Errorf("Get(21) = %+v, %v", got, ok)
	}
	if _, ok := catalog.Get(99); ok {
		t.Errorf("Get(99) found a collection that does not exist")
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Collection{
		{ID: 7, Required: 1, Boost: 1.1},
		{ID: 7, Required: 1, Boost: 1.2},
	})
	if err == nil {
		t.Fatalf("NewCatalog() expected error for duplicate ids")
	}
}

func TestWithScopes(t *testing.T) {
	catalog, err := NewCatalog([]Collection{
		{ID: 1, Required: 3, Boost: 1.3},
		{ID: 21, Required: 9, Boost: 1.4},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	scoped := catalog.WithScopes(map[int]Scope{1: ScopeStreet, 21: ScopeCity, 50: ScopeCity})

	street, _ := scoped.Get(1)
	city, _ := scoped.Get(21)
	if street.Scope != ScopeStreet || city.Scope != ScopeCity {
		t.Errorf("WithScopes() scopes = %v, %v", street.Scope, city.Scope)
	}

	original, _ := catalog.Get(1)
	if original.Scope != ScopeNone {
		t.Errorf("WithScopes() modified the receiver")
	}
}

func TestScopeString(t *testing.T) {
	tests := []struct {
		scope    Scope
		expected string
	}{
		{ScopeNone, "none"},
		{ScopeCity, "city"},
		{ScopeStreet, "street"},
		{Scope(9), "scope(9)"},
	}
	for _, tt := range tests {
		if got := tt.scope.String(); got != tt.expected {
			t.Errorf("Scope(%d).String() = %q, expected %q", int(tt.scope), got, tt.expected)
		}
	}
}
