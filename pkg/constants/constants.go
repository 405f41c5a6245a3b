// Package constants provides shared constants for the upOpt application.
package constants

// Earnings constants
const (
	// HoursPerDay is the number of yield hours in a day
	HoursPerDay = 24

	// DaysPerMonth is the month length used for monthly projections
	DaysPerMonth = 30

	// HoursPerMonth converts an hourly yield into a monthly projection
	HoursPerMonth = HoursPerDay * DaysPerMonth

	// YieldTolerance is the tolerance for yield comparisons
	YieldTolerance = 1e-9

	// MintDivisor renders mint prices in thousands in the text report
	MintDivisor = 1000.0
)

// Output format constants
const (
	// OutputFormatText is the human-readable report format
	OutputFormatText = "text"

	// OutputFormatJSON is the machine-readable report format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)

// Optimizer defaults
const (
	// DefaultKeepCount is the number of top-yield candidates retained per capped group
	DefaultKeepCount = 30

	// DefaultRelaxedBonus is added to the keep count for the capital city
	DefaultRelaxedBonus = 30

	// DefaultHighYieldThreshold separates phase-one collections (boost above) from phase two
	DefaultHighYieldThreshold = 1.4

	// DefaultObjectiveScale converts boosted yields into integer solver weights
	DefaultObjectiveScale = 10000

	// DefaultRelaxationMaxVariables bounds the models handed to the LP relaxation
	DefaultRelaxationMaxVariables = 1000
)

// Well-known collection identifiers of the game catalog.
const (
	// StreetCollectionID is "King of the Street": same street, exclusive across streets
	StreetCollectionID = 1

	// StarterCollectionID is "Newbie": open to every property
	StarterCollectionID = 7

	// ResidentCollectionID is "San Franciscan": properties in the capital city
	ResidentCollectionID = 11

	// CityWideCollectionID is "City Pro": same city, exclusive across cities
	CityWideCollectionID = 21

	// CapitalCityID is the city with the largest property counts (San Francisco)
	CapitalCityID = 1
)

// Street collection defaults
const (
	// DefaultMaxUnitsPerStreet caps the street collection candidates on one street
	DefaultMaxUnitsPerStreet = 4

	// DefaultMaxStreetsPerCity caps the qualifying streets considered in one city
	DefaultMaxStreetsPerCity = 2
)

// Provider defaults
const (
	// DefaultUnitsURL is the base URL of the per-user property feed
	DefaultUnitsURL = "https://api.uplandworld.me/upland"

	// DefaultCatalogURL is the collection catalog endpoint
	DefaultCatalogURL = "https://api.upland.me/collections"

	// DefaultActivityURL lists the authenticated user's currently boosted properties
	DefaultActivityURL = "https://api.upland.me/yield/mine"

	// UnknownPlaceholder is how the property feed marks missing values
	UnknownPlaceholder = "Unknown"
)
