package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/pkg/constants"
)

func TestCanonicalCapacity(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty defaults to at-most", input: "", expected: CapacityAtMost},
		{name: "at-most casing", input: "At-Most", expected: CapacityAtMost},
		{name: "underscore", input: "at_most", expected: CapacityAtMost},
		{name: "exact", input: "EXACT", expected: CapacityExact},
		{name: "equal alias", input: "eq", expected: CapacityExact},
		{name: "unknown lowered", input: "Loose", expected: "loose"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := CanonicalCapacity(tc.input)
			if actual != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, actual)
			}
		})
	}
}

func TestCanonicalExclusivity(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty defaults to aggregate", input: "", expected: ExclusivityAggregate},
		{name: "sum alias", input: "Sum", expected: ExclusivityAggregate},
		{name: "single group", input: "single_group", expected: ExclusivitySingleGroup},
		{name: "group alias", input: "GROUP", expected: ExclusivitySingleGroup},
		{name: "unknown lowered", input: "Per-City", expected: "per-city"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := CanonicalExclusivity(tc.input)
			if actual != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, actual)
			}
		})
	}
}

func TestOptimizerConfigNormalize(t *testing.T) {
	cfg := &OptimizerConfig{Capacity: "Exact", Exclusivity: "single-group"}
	cfg.Normalize()

	want := OptimizerConfig{
		KeepCount:              constants.DefaultKeepCount,
		HighYieldThreshold:     constants.DefaultHighYieldThreshold,
		Capacity:               CapacityExact,
		Exclusivity:            ExclusivitySingleGroup,
		ObjectiveScale:         constants.DefaultObjectiveScale,
		RelaxationMaxVariables: constants.DefaultRelaxationMaxVariables,
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizerConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     OptimizerConfig
		wantErr bool
	}{
		{name: "defaults", cfg: OptimizerConfig{}},
		{name: "negative bonus", cfg: OptimizerConfig{RelaxedBonus: -1}, wantErr: true},
		{name: "unknown capacity", cfg: OptimizerConfig{Capacity: "loose"}, wantErr: true},
		{name: "unknown exclusivity", cfg: OptimizerConfig{Exclusivity: "per-city"}, wantErr: true},
		{name: "negative timeout", cfg: OptimizerConfig{SolveTimeout: -1}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	var nilCfg *OptimizerConfig
	if err := nilCfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error for nil configuration")
	}
}

func TestCollectionsConfig(t *testing.T) {
	c := DefaultCollections()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	wantScopes := map[int]estate.Scope{
		constants.StreetCollectionID:   estate.ScopeStreet,
		constants.CityWideCollectionID: estate.ScopeCity,
	}
	if diff := cmp.Diff(wantScopes, c.Scopes()); diff != "" {
		t.Errorf("Scopes() mismatch (-want +got):\n%s", diff)
	}

	testCases := []struct {
		name   string
		mutate func(*CollectionsConfig)
	}{
		{name: "street equals city-wide", mutate: func(c *CollectionsConfig) { c.CityWide = c.Street }},
		{name: "capped street", mutate: func(c *CollectionsConfig) { c.Capped = append(c.Capped, c.Street) }},
		{name: "capped city-wide", mutate: func(c *CollectionsConfig) { c.Capped = []int{c.CityWide} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultCollections()
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("Validate() expected error")
			}
		})
	}

	empty := CollectionsConfig{}
	empty.Normalize()
	if empty.MaxPerStreet != constants.DefaultMaxUnitsPerStreet || empty.MaxStreetsPerCity != constants.DefaultMaxStreetsPerCity {
		t.Errorf("Normalize() street caps = %d/%d", empty.MaxPerStreet, empty.MaxStreetsPerCity)
	}
	if len(empty.Scopes()) != 0 {
		t.Errorf("Scopes() = %v, want none for unset ids", empty.Scopes())
	}
}
