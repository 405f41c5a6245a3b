package candidate

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/estate"
)

// PruneConfig parameterizes the size caps applied by the Pruner.
type PruneConfig struct {
	// KeepCount is the per-collection (or per-city) cap K.
	KeepCount int
	// RelaxedBonus is added to K for the capital city.
	RelaxedBonus int
	// CapitalCity receives the relaxed cap.
	CapitalCity int
	// ResidentCollection is bound to ResidentCity even when the catalog omits it.
	ResidentCollection int
	ResidentCity       int
	// Capped lists the collections subject to the top-K cap.
	Capped []int
	// MaxPerStreet is M, the units kept per qualifying street.
	MaxPerStreet int
	// MaxStreetsPerCity is N, the streets kept per city.
	MaxStreetsPerCity int
}

// Pruner narrows collection candidate sets so that constraint generation
// stays tractable.
type Pruner struct {
	logger  *zap.Logger
	catalog estate.Catalog
	cfg     PruneConfig
	capped  map[int]bool
}

// NewPruner validates the caps against the catalog. A cap below a collection's
// required count would let a second pass drop what the first pass kept.
func NewPruner(logger *zap.Logger, catalog estate.Catalog, cfg PruneConfig) (*Pruner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeepCount <= 0 {
		return nil, fmt.Errorf("keep count must be positive, got %d", cfg.KeepCount)
	}
	if cfg.RelaxedBonus < 0 {
		return nil, fmt.Errorf("relaxed bonus must not be negative, got %d", cfg.RelaxedBonus)
	}
	if cfg.MaxPerStreet <= 0 || cfg.MaxStreetsPerCity <= 0 {
		return nil, fmt.Errorf("street caps must be positive, got %d units and %d streets", cfg.MaxPerStreet, cfg.MaxStreetsPerCity)
	}

	capped := make(map[int]bool, len(cfg.Capped))
	for _, id := range cfg.Capped {
		capped[id] = true
	}
	for _, def := range catalog.Collections() {
		switch {
		case def.Scope == estate.ScopeStreet && cfg.MaxPerStreet < def.Required:
			return nil, fmt.Errorf("max per street %d is below the %d units required by collection %d", cfg.MaxPerStreet, def.Required, def.ID)
		case (def.Scope == estate.ScopeCity || capped[def.ID]) && cfg.KeepCount < def.Required:
			return nil, fmt.Errorf("keep count %d is below the %d units required by collection %d", cfg.KeepCount, def.Required, def.ID)
		}
	}
	return &Pruner{logger: logger, catalog: catalog, cfg: cfg, capped: capped}, nil
}

// Prune applies the per-collection caps and then drops every collection that
// can no longer reach its required count. Variables of other collections are
// never touched by a cap.
func (p *Pruner) Prune(u Universe) (Universe, []Drop) {
	keep := make(map[Key]bool, u.Len())
	byCollection := u.ByCollection()
	for _, id := range u.CollectionIDs() {
		vars := byCollection[id]
		def, ok := p.catalog.Get(id)
		var kept []Variable
		switch {
		case !ok:
			kept = vars
		case def.Scope == estate.ScopeStreet:
			kept = p.pruneStreets(def, vars)
		case def.Scope == estate.ScopeCity:
			kept = p.pruneCities(def, vars)
		case p.capped[id]:
			kept = topN(vars, p.capFor(p.homeCity(def)))
		default:
			kept = vars
		}
		if len(kept) < len(vars) {
			p.logger.Debug("pruned collection candidates",
				zap.String("op", "candidate.Prune"),
				zap.Int("collection", id),
				zap.Int("before", len(vars)),
				zap.Int("after", len(kept)),
			)
		}
		for _, v := range kept {
			keep[v.Key()] = true
		}
	}

	pruned := u.Filter(func(v Variable) bool { return keep[v.Key()] })
	pruned, drops := dropUnfillable(pruned, u.CollectionIDs(), p.catalog, "prune")
	logDrops(p.logger, "candidate.Prune", p.catalog, drops)
	return pruned, drops
}

func (p *Pruner) homeCity(def estate.Collection) int {
	if def.City != 0 {
		return def.City
	}
	if def.ID == p.cfg.ResidentCollection && p.cfg.ResidentCollection != 0 {
		return p.cfg.ResidentCity
	}
	return 0
}

func (p *Pruner) capFor(city int) int {
	if city != 0 && city == p.cfg.CapitalCity {
		return p.cfg.KeepCount + p.cfg.RelaxedBonus
	}
	return p.cfg.KeepCount
}

func (p *Pruner) pruneCities(def estate.Collection, vars []Variable) []Variable {
	cities := make(map[int][]Variable)
	var order []int
	for _, v := range vars {
		if _, ok := cities[v.City]; !ok {
			order = append(order, v.City)
		}
		cities[v.City] = append(cities[v.City], v)
	}
	sort.Ints(order)

	var kept []Variable
	for _, city := range order {
		group := cities[city]
		if len(group) < def.Required {
			continue
		}
		kept = append(kept, topN(group, p.capFor(city))...)
	}
	return kept
}

type street struct {
	key   estate.StreetKey
	vars  []Variable
	yield float64
}

func (p *Pruner) pruneStreets(def estate.Collection, vars []Variable) []Variable {
	streets := make(map[estate.StreetKey]*street)
	for _, v := range vars {
		if v.Street == 0 {
			continue
		}
		s, ok := streets[v.StreetKey()]
		if !ok {
			s = &street{key: v.StreetKey()}
			streets[s.key] = s
		}
		s.vars = append(s.vars, v)
	}

	perCity := make(map[int][]*street)
	for _, s := range streets {
		if len(s.vars) < def.Required {
			continue
		}
		s.vars = topN(s.vars, p.cfg.MaxPerStreet)
		for _, v := range s.vars {
			s.yield += v.Yield
		}
		perCity[s.key.City] = append(perCity[s.key.City], s)
	}

	cities := make([]int, 0, len(perCity))
	for city := range perCity {
		cities = append(cities, city)
	}
	sort.Ints(cities)

	var kept []Variable
	for _, city := range cities {
		group := perCity[city]
		sort.Slice(group, func(i, j int) bool {
			if group[i].yield != group[j].yield {
				return group[i].yield > group[j].yield
			}
			return group[i].key.Street < group[j].key.Street
		})
		if len(group) > p.cfg.MaxStreetsPerCity {
			group = group[:p.cfg.MaxStreetsPerCity]
		}
		for _, s := range group {
			kept = append(kept, s.vars...)
		}
	}
	return kept
}

func topN(vars []Variable, n int) []Variable {
	ranked := rankByYield(vars)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
