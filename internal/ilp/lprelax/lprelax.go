// Package lprelax solves the linear relaxation of an ilp model with gonum's
// simplex implementation.
package lprelax

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/ssolson/upOpt/internal/ilp"
)

// ErrTooLarge is returned when the model exceeds the configured size limit.
var ErrTooLarge = errors.New("model too large for relaxation")

const (
	tolerance = 1e-10
	// integralTolerance is how far a value may sit from 0 or 1 and still
	// count as integral.
	integralTolerance = 1e-6
)

// Relaxation is the optimum of a model with every binary variable relaxed to
// [0, 1].
type Relaxation struct {
	Objective float64
	Values    []float64
}

// Assignment returns the relaxed optimum as a 0/1 assignment. The second
// return is false when some value is fractional.
func (r *Relaxation) Assignment() ([]bool, bool) {
	values := make([]bool, len(r.Values))
	for i, x := range r.Values {
		switch {
		case math.Abs(x) <= integralTolerance:
		case math.Abs(x-1) <= integralTolerance:
			values[i] = true
		default:
			return nil, false
		}
	}
	return values, true
}

// Bound returns the relaxed optimum, an upper bound on the integer optimum.
// maxVars of zero disables the size check.
func Bound(m *ilp.Model, maxVars int) (float64, error) {
	r, err := Solve(m, maxVars)
	if err != nil {
		return 0, err
	}
	return r.Objective, nil
}

// Solve returns the relaxed optimum of m. The simplex answer is a vertex, so
// models whose rows form a totally unimodular matrix come back integral.
// maxVars of zero disables the size check.
func Solve(m *ilp.Model, maxVars int) (*Relaxation, error) {
	n := m.NumVars()
	if n == 0 {
		return &Relaxation{Values: []float64{}}, nil
	}
	if maxVars > 0 && n > maxVars {
		return nil, fmt.Errorf("%w: %d variables, limit %d", ErrTooLarge, n, maxVars)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	// Standard form: x ≥ 0 and one slack per inequality. Variables already
	// held to one by some row get no explicit upper bound row.
	bounded := impliedBounds(m)
	var free []int
	for v := 0; v < n; v++ {
		if !bounded[v] {
			free = append(free, v)
		}
	}
	slacks := len(free)
	for _, c := range m.Constraints {
		if c.Sense != ilp.EQ {
			slacks++
		}
	}
	rows := len(free) + len(m.Constraints)
	cols := n + slacks
	if rows >= cols {
		return nil, fmt.Errorf("relaxation has %d rows and only %d columns", rows, cols)
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	slack := n
	for row, v := range free {
		a.Set(row, v, 1)
		a.Set(row, slack, 1)
		b[row] = 1
		slack++
	}
	for i, c := range m.Constraints {
		row := len(free) + i
		for _, t := range c.Terms {
			a.Set(row, t.Var, a.At(row, t.Var)+float64(t.Coeff))
		}
		switch c.Sense {
		case ilp.LE:
			a.Set(row, slack, 1)
			slack++
		case ilp.GE:
			a.Set(row, slack, -1)
			slack++
		}
		b[row] = float64(c.RHS)
	}

	obj := make([]float64, cols)
	for i, v := range m.Objective {
		obj[i] = -v
	}

	_, x, err := lp.Simplex(obj, a, b, tolerance, nil)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	r := &Relaxation{Values: make([]float64, n)}
	copy(r.Values, x[:n])
	for i, v := range m.Objective {
		r.Objective += v * r.Values[i]
	}
	return r, nil
}

// impliedBounds marks the variables a ≤ row with non-negative coefficients
// already keeps at or below one.
func impliedBounds(m *ilp.Model) []bool {
	bounded := make([]bool, m.NumVars())
	for _, c := range m.Constraints {
		if c.Sense != ilp.LE || c.RHS < 0 {
			continue
		}
		row := make(map[int]int, len(c.Terms))
		for _, t := range c.Terms {
			row[t.Var] += t.Coeff
		}
		positive := true
		for _, coeff := range row {
			if coeff < 0 {
				positive = false
				break
			}
		}
		if !positive {
			continue
		}
		for v, coeff := range row {
			if coeff > 0 && coeff >= c.RHS {
				bounded[v] = true
			}
		}
	}
	return bounded
}

// Gap is the relative distance between an integer objective and its bound.
func Gap(objective, bound float64) float64 {
	if bound == 0 {
		return 0
	}
	return (bound - objective) / bound
}
