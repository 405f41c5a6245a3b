package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/pkg/constants"
)

const (
	// CapacityAtMost lets a collection be partially filled (sum <= required).
	CapacityAtMost = "at-most"
	// CapacityExact only admits fully filled collections (sum == required).
	CapacityExact = "exact"

	// ExclusivityAggregate allows one committed unit across a whole scope.
	ExclusivityAggregate = "aggregate"
	// ExclusivitySingleGroup keeps all committed units inside one group of the scope.
	ExclusivitySingleGroup = "single-group"
)

// OptimizerConfig tunes candidate pruning and the two solve phases.
type OptimizerConfig struct {
	KeepCount              int           `yaml:"keepCount,omitempty" mapstructure:"keepCount"`
	RelaxedBonus           int           `yaml:"relaxedBonus,omitempty" mapstructure:"relaxedBonus"`
	HighYieldThreshold     float64       `yaml:"highYieldThreshold,omitempty" mapstructure:"highYieldThreshold"`
	Capacity               string        `yaml:"capacity,omitempty" mapstructure:"capacity"`
	Exclusivity            string        `yaml:"exclusivity,omitempty" mapstructure:"exclusivity"`
	SolveTimeout           time.Duration `yaml:"solveTimeout,omitempty" mapstructure:"solveTimeout"`
	ObjectiveScale         int           `yaml:"objectiveScale,omitempty" mapstructure:"objectiveScale"`
	RelaxationBound        bool          `yaml:"relaxationBound,omitempty" mapstructure:"relaxationBound"`
	RelaxationMaxVariables int           `yaml:"relaxationMaxVariables,omitempty" mapstructure:"relaxationMaxVariables"`
}

// CollectionsConfig names the catalog entries the optimizer treats specially.
type CollectionsConfig struct {
	Starter           int   `yaml:"starter,omitempty" mapstructure:"starter"`
	CityWide          int   `yaml:"cityWide,omitempty" mapstructure:"cityWide"`
	Resident          int   `yaml:"resident,omitempty" mapstructure:"resident"`
	ResidentCity      int   `yaml:"residentCity,omitempty" mapstructure:"residentCity"`
	Street            int   `yaml:"street,omitempty" mapstructure:"street"`
	CapitalCity       int   `yaml:"capitalCity,omitempty" mapstructure:"capitalCity"`
	Capped            []int `yaml:"capped,omitempty" mapstructure:"capped"`
	MaxPerStreet      int   `yaml:"maxPerStreet,omitempty" mapstructure:"maxPerStreet"`
	MaxStreetsPerCity int   `yaml:"maxStreetsPerCity,omitempty" mapstructure:"maxStreetsPerCity"`
}

// DefaultCollections returns the game's well-known collection layout.
func DefaultCollections() CollectionsConfig {
	return CollectionsConfig{
		Starter:           constants.StarterCollectionID,
		CityWide:          constants.CityWideCollectionID,
		Resident:          constants.ResidentCollectionID,
		ResidentCity:      constants.CapitalCityID,
		Street:            constants.StreetCollectionID,
		CapitalCity:       constants.CapitalCityID,
		Capped:            []int{constants.StarterCollectionID, constants.ResidentCollectionID},
		MaxPerStreet:      constants.DefaultMaxUnitsPerStreet,
		MaxStreetsPerCity: constants.DefaultMaxStreetsPerCity,
	}
}

// CanonicalCapacity returns the canonical identifier for a capacity mode.
func CanonicalCapacity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "at-most", "atmost", "at_most", "upper-bound":
		return CapacityAtMost
	case "exact", "equal", "eq":
		return CapacityExact
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// CanonicalExclusivity returns the canonical identifier for an exclusivity mode.
func CanonicalExclusivity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "aggregate", "sum":
		return ExclusivityAggregate
	case "single-group", "singlegroup", "single_group", "group":
		return ExclusivitySingleGroup
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	if o.KeepCount <= 0 {
		o.KeepCount = constants.DefaultKeepCount
	}
	if o.HighYieldThreshold <= 0 {
		o.HighYieldThreshold = constants.DefaultHighYieldThreshold
	}
	o.Capacity = CanonicalCapacity(o.Capacity)
	o.Exclusivity = CanonicalExclusivity(o.Exclusivity)
	if o.ObjectiveScale <= 0 {
		o.ObjectiveScale = constants.DefaultObjectiveScale
	}
	if o.RelaxationMaxVariables <= 0 {
		o.RelaxationMaxVariables = constants.DefaultRelaxationMaxVariables
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	if o.RelaxedBonus < 0 {
		return fmt.Errorf("optimizer relaxedBonus %d must not be negative", o.RelaxedBonus)
	}
	switch o.Capacity {
	case CapacityAtMost, CapacityExact:
	default:
		return fmt.Errorf("optimizer capacity %q is not supported", o.Capacity)
	}
	switch o.Exclusivity {
	case ExclusivityAggregate, ExclusivitySingleGroup:
	default:
		return fmt.Errorf("optimizer exclusivity %q is not supported", o.Exclusivity)
	}
	if o.SolveTimeout < 0 {
		return fmt.Errorf("optimizer solveTimeout %s must not be negative", o.SolveTimeout)
	}
	return nil
}

// Normalize fills unset collection settings with the game defaults.
func (c *CollectionsConfig) Normalize() {
	if c == nil {
		return
	}
	defaults := DefaultCollections()
	if c.MaxPerStreet <= 0 {
		c.MaxPerStreet = defaults.MaxPerStreet
	}
	if c.MaxStreetsPerCity <= 0 {
		c.MaxStreetsPerCity = defaults.MaxStreetsPerCity
	}
}

// Validate checks that the special collections do not collide.
func (c *CollectionsConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("collections configuration cannot be nil")
	}
	c.Normalize()
	if c.Street != 0 && c.Street == c.CityWide {
		return fmt.Errorf("street collection %d cannot also be the city-wide collection", c.Street)
	}
	for _, id := range c.Capped {
		if id != 0 && (id == c.Street || id == c.CityWide) {
			return fmt.Errorf("collection %d is scoped and cannot also be capped", id)
		}
	}
	return nil
}

// Scopes maps the scoped collections to their exclusivity scope.
func (c CollectionsConfig) Scopes() map[int]estate.Scope {
	scopes := make(map[int]estate.Scope, 2)
	if c.Street != 0 {
		scopes[c.Street] = estate.ScopeStreet
	}
	if c.CityWide != 0 {
		scopes[c.CityWide] = estate.ScopeCity
	}
	return scopes
}
