// Package constraint turns a candidate universe into a binary ILP model.
package constraint

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/candidate"
	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/ilp"
)

// Capacity selects how a collection's required count bounds its commitments.
type Capacity int

const (
	// AtMost allows partially filled collections.
	AtMost Capacity = iota
	// Exact fills a collection completely or leaves it empty.
	Exact
)

// Exclusivity selects the rule for scoped collections spanning several groups.
type Exclusivity int

const (
	// Aggregate allows one commitment across every group of the scope.
	Aggregate Exclusivity = iota
	// SingleGroup keeps every commitment inside one group of the scope.
	SingleGroup
)

// Options configures the generator.
type Options struct {
	Capacity    Capacity
	Exclusivity Exclusivity
}

// Counts tallies the emitted rows by kind.
type Counts struct {
	Uniqueness  int
	Capacity    int
	Exclusivity int
	Selectors   int
	Fills       int
}

// Formulation is a generated model plus the mapping back to candidates.
type Formulation struct {
	Model *ilp.Model
	// Vars[i] is model variable i. Selector and fill variables follow and
	// have no entry.
	Vars   []candidate.Variable
	Counts Counts
}

// Committed returns the candidates set in an assignment, in model order.
func (f *Formulation) Committed(values []bool) []candidate.Variable {
	var out []candidate.Variable
	for i, v := range f.Vars {
		if i < len(values) && values[i] {
			out = append(out, v)
		}
	}
	return out
}

// Generator emits the uniqueness, capacity and exclusivity rows.
type Generator struct {
	logger  *zap.Logger
	catalog estate.Catalog
	opts    Options
}

// NewGenerator returns a Generator for the catalog.
func NewGenerator(logger *zap.Logger, catalog estate.Catalog, opts Options) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger, catalog: catalog, opts: opts}
}

// Generate builds the model for u. The objective is Σ boost·yield.
func (g *Generator) Generate(u candidate.Universe) *Formulation {
	f := &Formulation{Model: ilp.NewModel(), Vars: u.Variables()}
	index := make(map[candidate.Key]int, len(f.Vars))
	for _, v := range f.Vars {
		index[v.Key()] = f.Model.AddVar(v.Key().String(), v.Weight())
	}

	byUnit := u.ByUnit()
	for _, id := range u.UnitIDs() {
		f.Model.AddAtMostOne(fmt.Sprintf("unit_%d", id), indices(index, byUnit[id])...)
		f.Counts.Uniqueness++
	}

	byCollection := u.ByCollection()
	for _, id := range u.CollectionIDs() {
		vars := byCollection[id]
		def, ok := g.catalog.Get(id)
		if !ok {
			continue
		}
		if g.opts.Capacity == Exact {
			g.exactFill(f, def, indices(index, vars))
		} else {
			f.Model.AddSum(fmt.Sprintf("cap_%d", id), ilp.LE, def.Required, indices(index, vars)...)
		}
		f.Counts.Capacity++

		if def.Scope == estate.ScopeNone {
			continue
		}
		groups := candidate.Groups(def.Scope, vars)
		if len(groups) < 2 {
			continue
		}
		switch g.opts.Exclusivity {
		case SingleGroup:
			g.singleGroup(f, index, def, groups)
		default:
			f.Model.AddAtMostOne(fmt.Sprintf("excl_%d", id), indices(index, vars)...)
			f.Counts.Exclusivity++
		}
	}

	g.logger.Debug("generated constraints",
		zap.String("op", "constraint.Generate"),
		zap.Int("variables", f.Model.NumVars()),
		zap.Int("uniqueness", f.Counts.Uniqueness),
		zap.Int("capacity", f.Counts.Capacity),
		zap.Int("exclusivity", f.Counts.Exclusivity),
		zap.Int("selectors", f.Counts.Selectors),
		zap.Int("fills", f.Counts.Fills),
	)
	return f
}

// exactFill adds Σx = Required·z with a fill variable z, so the collection
// takes all of its slots or none.
func (g *Generator) exactFill(f *Formulation, def estate.Collection, vars []int) {
	z := f.Model.AddVar(fmt.Sprintf("full_%d", def.ID), 0)
	f.Counts.Fills++
	terms := make([]ilp.Term, 0, len(vars)+1)
	for _, v := range vars {
		terms = append(terms, ilp.Term{Var: v, Coeff: 1})
	}
	terms = append(terms, ilp.Term{Var: z, Coeff: -def.Required})
	f.Model.Add(ilp.Constraint{Name: fmt.Sprintf("cap_%d", def.ID), Terms: terms, Sense: ilp.EQ, RHS: 0})
}

// singleGroup adds one selector per group, at most one selector set, and
// x → selector for every member.
func (g *Generator) singleGroup(f *Formulation, index map[candidate.Key]int, def estate.Collection, groups [][]candidate.Variable) {
	selectors := make([]int, 0, len(groups))
	for _, group := range groups {
		first := group[0]
		street := int64(0)
		if def.Scope == estate.ScopeStreet {
			street = first.Street
		}
		y := f.Model.AddVar(fmt.Sprintf("y_%d_%d_%d", def.ID, first.City, street), 0)
		selectors = append(selectors, y)
		f.Counts.Selectors++
		for _, v := range group {
			f.Model.AddImplication(fmt.Sprintf("in_%s", v.Key()), index[v.Key()], y)
		}
	}
	f.Model.AddAtMostOne(fmt.Sprintf("excl_%d", def.ID), selectors...)
	f.Counts.Exclusivity++
}

func indices(index map[candidate.Key]int, vars []candidate.Variable) []int {
	out := make([]int, len(vars))
	for i, v := range vars {
		out[i] = index[v.Key()]
	}
	return out
}
