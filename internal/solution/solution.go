// Package solution assembles committed assignments into the earnings report.
package solution

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/candidate"
	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/pkg/mathutil"
	"github.com/ssolson/upOpt/pkg/optimization"
)

// UnitEntry is one committed unit in a collection report.
type UnitEntry struct {
	UnitID    int64   `json:"id"`
	PropID    int64   `json:"prop_id"`
	Address   string  `json:"full_address"`
	MintPrice float64 `json:"mint"`
	Yield     float64 `json:"yield_per_hour"`
	// Active is nil until the solution has been annotated with activity.
	Active *bool `json:"active,omitempty"`
}

// CollectionReport summarizes one collection.
type CollectionReport struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Required     int         `json:"number_needed"`
	Boost        float64     `json:"collection_boost"`
	HourlyBoost  float64     `json:"hourly_earnings"`
	MonthlyBoost float64     `json:"monthly_earnings"`
	Units        []UnitEntry `json:"properties"`
	Missing      int         `json:"missing"`
	Complete     bool        `json:"complete"`
	Dropped      bool        `json:"dropped"`
	DropReason   string      `json:"drop_reason,omitempty"`
}

// Earnings are aggregated from committed units only.
type Earnings struct {
	BaseHourly   float64 `json:"base_hourly"`
	BoostHourly  float64 `json:"collection_hourly"`
	TotalHourly  float64 `json:"total_hourly"`
	BaseMonthly  float64 `json:"base_earnings"`
	BoostMonthly float64 `json:"collection_earnings"`
	TotalMonthly float64 `json:"total_earnings"`
	// ActiveCollections counts the collections with at least one commitment.
	ActiveCollections int `json:"active_collections"`
}

// Solution is the merged outcome of an optimization run.
type Solution struct {
	// Assignments maps a collection id to its committed unit ids.
	Assignments map[int][]int64        `json:"assignments"`
	Earnings    Earnings               `json:"earnings"`
	Collections []CollectionReport     `json:"collections"`
	Phases      []optimization.Summary `json:"phases,omitempty"`
	Annotated   bool                   `json:"annotated"`
}

type assembler struct {
	logger *zap.Logger
	s      *Solution
	drops  map[int]candidate.Drop
	units  map[int64]estate.Unit
}

// Input collects what Assemble needs.
type Input struct {
	Catalog   estate.Catalog
	Units     []estate.Unit
	Committed []candidate.Variable
	// Considered lists every collection that had candidates before any drop.
	Considered []int
	Drops      []candidate.Drop
	Phases     []optimization.Summary
}

// Assemble builds the Solution. Under-filled collections are reported with
// their missing slot count and never abort assembly.
func Assemble(logger *zap.Logger, in Input) *Solution {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Solution{Assignments: make(map[int][]int64), Phases: in.Phases}
	a := &assembler{
		logger: logger,
		s:      s,
		drops:  make(map[int]candidate.Drop),
		units:  make(map[int64]estate.Unit, len(in.Units)),
	}
	for _, u := range in.Units {
		a.units[u.ID] = u
	}
	for _, d := range in.Drops {
		if _, seen := a.drops[d.CollectionID]; !seen {
			a.drops[d.CollectionID] = d
		}
	}

	committed := make(map[int][]candidate.Variable)
	for _, v := range in.Committed {
		committed[v.CollectionID] = append(committed[v.CollectionID], v)
	}

	ids := make(map[int]bool)
	for _, id := range in.Considered {
		ids[id] = true
	}
	for id := range committed {
		ids[id] = true
	}
	ordered := make([]int, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Ints(ordered)

	s.Earnings.BaseHourly = estate.TotalYield(in.Units)
	for _, id := range ordered {
		def, _ := in.Catalog.Get(id)
		report := a.report(def, id, committed[id])
		s.Earnings.BoostHourly += report.HourlyBoost
		if len(report.Units) > 0 {
			s.Earnings.ActiveCollections++
		}
		s.Collections = append(s.Collections, report)
	}
	s.Earnings.TotalHourly = s.Earnings.BaseHourly + s.Earnings.BoostHourly
	s.Earnings.BaseMonthly = mathutil.Monthly(s.Earnings.BaseHourly)
	s.Earnings.BoostMonthly = mathutil.Monthly(s.Earnings.BoostHourly)
	s.Earnings.TotalMonthly = mathutil.Monthly(s.Earnings.TotalHourly)
	return s
}

func (a *assembler) report(def estate.Collection, id int, vars []candidate.Variable) CollectionReport {
	sort.SliceStable(vars, func(i, j int) bool {
		if vars[i].Yield != vars[j].Yield {
			return vars[i].Yield > vars[j].Yield
		}
		return vars[i].UnitID < vars[j].UnitID
	})

	r := CollectionReport{ID: id, Name: def.Name, Required: def.Required, Boost: def.Boost, Units: []UnitEntry{}}
	for _, v := range vars {
		unit := a.units[v.UnitID]
		r.Units = append(r.Units, UnitEntry{
			UnitID:    v.UnitID,
			PropID:    unit.PropID,
			Address:   unit.Address,
			MintPrice: unit.MintPrice,
			Yield:     v.Yield,
		})
		r.HourlyBoost += mathutil.BoostGain(v.Yield, def.Boost)
		a.s.Assignments[id] = append(a.s.Assignments[id], v.UnitID)
	}
	r.MonthlyBoost = mathutil.Monthly(r.HourlyBoost)

	r.Missing = def.Required - len(r.Units)
	if r.Missing < 0 {
		r.Missing = 0
	}
	r.Complete = r.Missing == 0

	if d, ok := a.drops[id]; ok && len(r.Units) == 0 {
		r.Dropped = true
		r.DropReason = d.Error()
		return r
	}
	for slot := len(r.Units) + 1; slot <= def.Required; slot++ {
		a.logger.Warn("collection slot left empty",
			zap.String("op", "solution.Assemble"),
			zap.Int("collection", id),
			zap.String("name", def.Name),
			zap.Int("slot", slot),
			zap.Int("required", def.Required),
		)
	}
	return r
}

// Collection returns the report of one collection.
func (s *Solution) Collection(id int) (CollectionReport, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return CollectionReport{}, false
}

// CommittedUnits returns the number of committed units across all collections.
func (s *Solution) CommittedUnits() int {
	n := 0
	for _, ids := range s.Assignments {
		n += len(ids)
	}
	return n
}
