package candidate

import (
	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/estate"
)

// Defaults names the collections every unit is implicitly eligible for.
// A zero id disables that default.
type Defaults struct {
	Starter      int
	CityWide     int
	Resident     int
	ResidentCity int
	Street       int
}

// Builder expands units into the candidate universe.
type Builder struct {
	logger   *zap.Logger
	catalog  estate.Catalog
	defaults Defaults
}

// NewBuilder constructs a Builder for the catalog.
func NewBuilder(logger *zap.Logger, catalog estate.Catalog, defaults Defaults) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, catalog: catalog, defaults: defaults}
}

// Build emits one variable per declared membership, synthesizes the default
// memberships of units that declare none, adds every unit with a street to the
// street collection, and finally drops collections that cannot be filled.
func (b *Builder) Build(units []estate.Unit) (Universe, []Drop) {
	var vars []Variable
	for _, unit := range units {
		if len(unit.Memberships) == 0 {
			vars = append(vars, b.synthesize(unit)...)
		} else {
			for _, m := range unit.Memberships {
				if m.CollectionID == b.defaults.Street && b.defaults.Street != 0 {
					// Street candidates are derived from the pool below.
					continue
				}
				if _, ok := b.catalog.Get(m.CollectionID); !ok {
					b.logger.Warn("skipping membership of unknown collection",
						zap.String("op", "candidate.Build"),
						zap.Int64("unit", unit.ID),
						zap.Int("collection", m.CollectionID),
					)
					continue
				}
				vars = append(vars, newVariable(unit, m.CollectionID, m.Boost))
			}
		}
		if v, ok := b.implicit(unit, b.defaults.Street); ok && unit.Street != 0 {
			vars = append(vars, v)
		}
	}

	universe := NewUniverse(vars)
	if dups := len(vars) - universe.Len(); dups > 0 {
		b.logger.Debug("collapsed duplicate memberships",
			zap.String("op", "candidate.Build"),
			zap.Int("duplicates", dups),
		)
	}

	universe, drops := DropUnfillable(universe, b.catalog, "build")
	logDrops(b.logger, "candidate.Build", b.catalog, drops)

	b.logger.Debug("built candidate universe",
		zap.String("op", "candidate.Build"),
		zap.Int("units", len(units)),
		zap.Int("variables", universe.Len()),
		zap.Int("collections", len(universe.CollectionIDs())),
	)
	return universe, drops
}

func (b *Builder) synthesize(unit estate.Unit) []Variable {
	b.logger.Debug("unit has no associated collection, adding defaults",
		zap.String("op", "candidate.Build"),
		zap.Int64("unit", unit.ID),
	)
	var vars []Variable
	for _, id := range []int{b.defaults.Starter, b.defaults.CityWide} {
		if v, ok := b.implicit(unit, id); ok {
			vars = append(vars, v)
		}
	}
	if unit.City == b.defaults.ResidentCity {
		if v, ok := b.implicit(unit, b.defaults.Resident); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// implicit builds a variable for a collection the unit is eligible for without
// declaring it; the boost comes from the catalog.
func (b *Builder) implicit(unit estate.Unit, collectionID int) (Variable, bool) {
	if collectionID == 0 {
		return Variable{}, false
	}
	def, ok := b.catalog.Get(collectionID)
	if !ok {
		return Variable{}, false
	}
	return newVariable(unit, def.ID, def.Boost), true
}

func newVariable(unit estate.Unit, collectionID int, boost float64) Variable {
	return Variable{
		UnitID:       unit.ID,
		CollectionID: collectionID,
		City:         unit.City,
		Street:       unit.Street,
		Yield:        unit.Yield,
		Boost:        boost,
	}
}

func logDrops(logger *zap.Logger, op string, catalog estate.Catalog, drops []Drop) {
	for _, d := range drops {
		def, _ := catalog.Get(d.CollectionID)
		logger.Warn("not enough properties for collection",
			zap.String("op", op),
			zap.Int("collection", d.CollectionID),
			zap.String("name", def.Name),
			zap.Int("candidates", d.Candidates),
			zap.Int("required", d.Required),
			zap.String("stage", d.Stage),
		)
	}
}
