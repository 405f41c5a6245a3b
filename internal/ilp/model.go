// Package ilp describes 0/1 integer linear programs and the solver contract
// used to optimize them.
package ilp

import (
	"context"
	"fmt"
)

// Sense is the relation of a linear constraint.
type Sense int

const (
	// LE is Σ a·x ≤ b.
	LE Sense = iota
	// GE is Σ a·x ≥ b.
	GE
	// EQ is Σ a·x = b.
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return fmt.Sprintf("sense(%d)", int(s))
	}
}

// Term is one coefficient of a constraint row.
type Term struct {
	Var   int
	Coeff int
}

// Constraint is a named linear row over binary variables.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   int
}

// Model is a maximization problem over binary variables. Variables are
// addressed by their index in Names.
type Model struct {
	Names       []string
	Objective   []float64
	Constraints []Constraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddVar appends a binary variable with the given objective coefficient and
// returns its index.
func (m *Model) AddVar(name string, objective float64) int {
	m.Names = append(m.Names, name)
	m.Objective = append(m.Objective, objective)
	return len(m.Names) - 1
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int {
	return len(m.Names)
}

// Add appends a constraint. Rows without terms are ignored.
func (m *Model) Add(c Constraint) {
	if len(c.Terms) == 0 {
		return
	}
	m.Constraints = append(m.Constraints, c)
}

// AddAtMostOne constrains at most one of vars to be set.
func (m *Model) AddAtMostOne(name string, vars ...int) {
	m.Add(Constraint{Name: name, Terms: unitTerms(vars), Sense: LE, RHS: 1})
}

// AddSum constrains the plain sum of vars.
func (m *Model) AddSum(name string, sense Sense, rhs int, vars ...int) {
	m.Add(Constraint{Name: name, Terms: unitTerms(vars), Sense: sense, RHS: rhs})
}

// AddImplication adds a → b as b - a ≥ 0.
func (m *Model) AddImplication(name string, a, b int) {
	m.Add(Constraint{Name: name, Terms: []Term{{Var: b, Coeff: 1}, {Var: a, Coeff: -1}}, Sense: GE, RHS: 0})
}

// Validate checks that every term references a declared variable.
func (m *Model) Validate() error {
	if len(m.Objective) != len(m.Names) {
		return fmt.Errorf("model has %d names but %d objective coefficients", len(m.Names), len(m.Objective))
	}
	for _, c := range m.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.Names) {
				return fmt.Errorf("constraint %q references variable %d of %d", c.Name, t.Var, len(m.Names))
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of an assignment.
func (m *Model) Evaluate(values []bool) float64 {
	total := 0.0
	for i, set := range values {
		if set && i < len(m.Objective) {
			total += m.Objective[i]
		}
	}
	return total
}

// Satisfied reports whether an assignment meets every constraint, returning
// the first violated row otherwise.
func (m *Model) Satisfied(values []bool) (bool, string) {
	for _, c := range m.Constraints {
		lhs := 0
		for _, t := range c.Terms {
			if t.Var < len(values) && values[t.Var] {
				lhs += t.Coeff
			}
		}
		var ok bool
		switch c.Sense {
		case LE:
			ok = lhs <= c.RHS
		case GE:
			ok = lhs >= c.RHS
		case EQ:
			ok = lhs == c.RHS
		}
		if !ok {
			return false, c.Name
		}
	}
	return true, ""
}

// Component is an independent part of a model: no constraint links its
// variables to any other part.
type Component struct {
	// Vars[i] is the parent index of component variable i.
	Vars  []int
	Model *Model
}

// Components splits a valid model into its independent parts, ordered by
// their lowest variable. Variables keep their relative order.
func (m *Model) Components() []Component {
	n := m.NumVars()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(v int) int {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}
	for _, c := range m.Constraints {
		root := find(c.Terms[0].Var)
		for _, t := range c.Terms[1:] {
			if r := find(t.Var); r != root {
				parent[r] = root
			}
		}
	}

	part := make(map[int]int)
	local := make([]int, n)
	var out []Component
	for v := 0; v < n; v++ {
		root := find(v)
		i, ok := part[root]
		if !ok {
			i = len(out)
			part[root] = i
			out = append(out, Component{Model: NewModel()})
		}
		local[v] = out[i].Model.AddVar(m.Names[v], m.Objective[v])
		out[i].Vars = append(out[i].Vars, v)
	}
	for _, c := range m.Constraints {
		terms := make([]Term, len(c.Terms))
		for j, t := range c.Terms {
			terms[j] = Term{Var: local[t.Var], Coeff: t.Coeff}
		}
		i := part[find(c.Terms[0].Var)]
		out[i].Model.Add(Constraint{Name: c.Name, Terms: terms, Sense: c.Sense, RHS: c.RHS})
	}
	return out
}

func unitTerms(vars []int) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coeff: 1}
	}
	return terms
}

// Status is the outcome of a solve.
type Status int

const (
	// StatusNotSolved means the solver stopped without finding any assignment.
	StatusNotSolved Status = iota
	// StatusOptimal means the assignment is proven optimal.
	StatusOptimal
	// StatusFeasible means the solve was interrupted after finding an assignment.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective has no finite optimum.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "not solved"
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// HasSolution reports whether Values carry a usable assignment.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Result is the solver's answer for a model.
type Result struct {
	Status Status
	// Values holds one entry per model variable when Status.HasSolution.
	Values    []bool
	Objective float64
}

// Solver optimizes a model. Implementations return a non-nil error only when
// the model could not be handed to the solver at all; infeasibility is a
// status, not an error.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Result, error)
}
