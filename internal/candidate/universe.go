// Package candidate builds and prunes the decision-variable universe: every
// (unit, collection) pairing the solver may commit.
package candidate

import (
	"fmt"
	"sort"

	"github.com/ssolson/upOpt/internal/estate"
)

// Key uniquely identifies a decision variable.
type Key struct {
	UnitID       int64
	CollectionID int
}

// String renders the key the way solver models name their columns.
func (k Key) String() string {
	return fmt.Sprintf("x_%d_%d", k.UnitID, k.CollectionID)
}

// Variable is a candidate (unit, collection) pairing.
type Variable struct {
	UnitID       int64
	CollectionID int
	City         int
	Street       int64
	Yield        float64
	Boost        float64
}

// Key returns the variable's identity.
func (v Variable) Key() Key {
	return Key{UnitID: v.UnitID, CollectionID: v.CollectionID}
}

// Weight is the boosted hourly yield the variable contributes when committed.
func (v Variable) Weight() float64 {
	return v.Boost * v.Yield
}

// StreetKey returns the street the variable's unit sits on.
func (v Variable) StreetKey() estate.StreetKey {
	return estate.StreetKey{City: v.City, Street: v.Street}
}

// Universe is an immutable, ordered set of decision variables. Every
// operation returns a new Universe and leaves its receiver untouched.
type Universe struct {
	vars  []Variable
	index map[Key]int
}

// NewUniverse builds a Universe from vars, keeping the first occurrence of
// each key.
func NewUniverse(vars []Variable) Universe {
	u := Universe{
		vars:  make([]Variable, 0, len(vars)),
		index: make(map[Key]int, len(vars)),
	}
	for _, v := range vars {
		if _, dup := u.index[v.Key()]; dup {
			continue
		}
		u.index[v.Key()] = len(u.vars)
		u.vars = append(u.vars, v)
	}
	return u
}

// Len returns the number of variables.
func (u Universe) Len() int {
	return len(u.vars)
}

// Variables returns a copy of the variables in universe order.
func (u Universe) Variables() []Variable {
	out := make([]Variable, len(u.vars))
	copy(out, u.vars)
	return out
}

// Get returns the variable with the given key.
func (u Universe) Get(k Key) (Variable, bool) {
	i, ok := u.index[k]
	if !ok {
		return Variable{}, false
	}
	return u.vars[i], true
}

// Filter returns the variables for which keep returns true.
func (u Universe) Filter(keep func(Variable) bool) Universe {
	out := make([]Variable, 0, len(u.vars))
	for _, v := range u.vars {
		if keep(v) {
			out = append(out, v)
		}
	}
	return NewUniverse(out)
}

// WithoutUnits drops every variable of the given units.
func (u Universe) WithoutUnits(units map[int64]bool) Universe {
	if len(units) == 0 {
		return u
	}
	return u.Filter(func(v Variable) bool { return !units[v.UnitID] })
}

// Union appends the variables of other that are not already present.
func (u Universe) Union(other Universe) Universe {
	all := make([]Variable, 0, len(u.vars)+len(other.vars))
	all = append(all, u.vars...)
	all = append(all, other.vars...)
	return NewUniverse(all)
}

// Count returns the number of candidates of one collection.
func (u Universe) Count(collectionID int) int {
	n := 0
	for _, v := range u.vars {
		if v.CollectionID == collectionID {
			n++
		}
	}
	return n
}

// ByCollection groups the variables by collection, preserving order.
func (u Universe) ByCollection() map[int][]Variable {
	out := make(map[int][]Variable)
	for _, v := range u.vars {
		out[v.CollectionID] = append(out[v.CollectionID], v)
	}
	return out
}

// ByUnit groups the variables by unit, preserving order.
func (u Universe) ByUnit() map[int64][]Variable {
	out := make(map[int64][]Variable)
	for _, v := range u.vars {
		out[v.UnitID] = append(out[v.UnitID], v)
	}
	return out
}

// CollectionIDs returns the distinct collection ids in ascending order.
func (u Universe) CollectionIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, v := range u.vars {
		if !seen[v.CollectionID] {
			seen[v.CollectionID] = true
			ids = append(ids, v.CollectionID)
		}
	}
	sort.Ints(ids)
	return ids
}

// UnitIDs returns the distinct unit ids in ascending order.
func (u Universe) UnitIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, v := range u.vars {
		if !seen[v.UnitID] {
			seen[v.UnitID] = true
			ids = append(ids, v.UnitID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Drop records a collection removed because it can no longer be filled.
type Drop struct {
	CollectionID int
	Candidates   int
	Required     int
	Stage        string
}

// Error describes the drop as an infeasible-collection condition.
func (d Drop) Error() string {
	return fmt.Sprintf("collection %d has %d candidates, requires %d (%s)", d.CollectionID, d.Candidates, d.Required, d.Stage)
}

// DropUnfillable removes every collection whose candidate count is below its
// required count. Collections missing from the catalog are removed as well.
func DropUnfillable(u Universe, catalog estate.Catalog, stage string) (Universe, []Drop) {
	return dropUnfillable(u, u.CollectionIDs(), catalog, stage)
}

// dropUnfillable checks the given collections, which may include ones that no
// longer have any candidate in u.
func dropUnfillable(u Universe, ids []int, catalog estate.Catalog, stage string) (Universe, []Drop) {
	var drops []Drop
	remove := make(map[int]bool)
	for _, id := range ids {
		def, ok := catalog.Get(id)
		count := u.Count(id)
		if !ok {
			remove[id] = true
			drops = append(drops, Drop{CollectionID: id, Candidates: count, Stage: stage})
			continue
		}
		if count < def.Required {
			remove[id] = true
			drops = append(drops, Drop{CollectionID: id, Candidates: count, Required: def.Required, Stage: stage})
		}
	}
	if len(remove) == 0 {
		return u, nil
	}
	return u.Filter(func(v Variable) bool { return !remove[v.CollectionID] }), drops
}

// rankByYield orders variables by yield descending, ties by ascending unit id.
func rankByYield(vars []Variable) []Variable {
	ranked := make([]Variable, len(vars))
	copy(ranked, vars)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Yield != ranked[j].Yield {
			return ranked[i].Yield > ranked[j].Yield
		}
		return ranked[i].UnitID < ranked[j].UnitID
	})
	return ranked
}

// Groups splits one collection's variables into its exclusivity groups: one
// group per city for city scope, one per street for street scope. Unscoped
// variables form a single group. Groups are ordered by key.
func Groups(scope estate.Scope, vars []Variable) [][]Variable {
	byKey := make(map[estate.StreetKey][]Variable)
	for _, v := range vars {
		var k estate.StreetKey
		switch scope {
		case estate.ScopeCity:
			k = estate.StreetKey{City: v.City}
		case estate.ScopeStreet:
			k = v.StreetKey()
		}
		byKey[k] = append(byKey[k], v)
	}
	keys := make([]estate.StreetKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].City != keys[j].City {
			return keys[i].City < keys[j].City
		}
		return keys[i].Street < keys[j].Street
	})
	groups := make([][]Variable, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byKey[k])
	}
	return groups
}
