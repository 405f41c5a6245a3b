// Package pbsolver solves ilp models over binary variables. Every independent
// part of a model is tried on its linear relaxation first; parts whose
// relaxed optimum is fractional go to a gophersat pseudo-boolean search.
package pbsolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/crillab/gophersat/solver"
	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/ilp"
	"github.com/ssolson/upOpt/internal/ilp/lprelax"
	"github.com/ssolson/upOpt/pkg/constants"
	"github.com/ssolson/upOpt/pkg/mathutil"
)

// Options tunes the backend.
type Options struct {
	// Scale converts float objective coefficients into integer weights.
	Scale int
	// Timeout bounds a single solve; zero means no limit beyond ctx.
	Timeout time.Duration
	// RelaxationMaxVars is the largest part tried on its linear relaxation.
	// Zero uses the default; a negative value always searches.
	RelaxationMaxVars int
}

// Solver implements ilp.Solver.
type Solver struct {
	logger *zap.Logger
	opts   Options
}

var _ ilp.Solver = (*Solver)(nil)

// New returns a solver backed by gonum's simplex and gophersat.
func New(logger *zap.Logger, opts Options) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Scale <= 0 {
		opts.Scale = constants.DefaultObjectiveScale
	}
	if opts.RelaxationMaxVars == 0 {
		opts.RelaxationMaxVars = constants.DefaultRelaxationMaxVariables
	}
	return &Solver{logger: logger, opts: opts}
}

// outcome is the answer for one part of a model.
type outcome struct {
	status  ilp.Status
	values  []bool
	relaxed bool
	runs    int
}

// Solve maximizes the model objective. Once ctx is done or the timeout
// expires, Solve returns the best assignment found so far with
// StatusFeasible.
//
// A gophersat run cannot be stopped, so an interrupted search keeps its
// goroutine until the run in flight returns and then exits.
func (s *Solver) Solve(ctx context.Context, m *ilp.Model) (*ilp.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	if m.NumVars() == 0 {
		return &ilp.Result{Status: ilp.StatusOptimal, Values: []bool{}}, nil
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	parts := m.Components()
	values := make([]bool, m.NumVars())
	status := ilp.StatusOptimal
	relaxed, runs := 0, 0
	for _, part := range parts {
		out := s.solvePart(ctx, part.Model)
		runs += out.runs
		if out.relaxed {
			relaxed++
		}
		switch out.status {
		case ilp.StatusInfeasible, ilp.StatusNotSolved:
			s.logger.Debug("model part has no assignment",
				zap.String("op", "pbsolver.Solve"),
				zap.Int("variables", part.Model.NumVars()),
				zap.String("status", out.status.String()),
			)
			return &ilp.Result{Status: out.status}, nil
		case ilp.StatusFeasible:
			status = ilp.StatusFeasible
		}
		for i, v := range part.Vars {
			values[v] = out.values[i]
		}
	}

	s.logger.Debug("solve finished",
		zap.String("op", "pbsolver.Solve"),
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", len(m.Constraints)),
		zap.Int("parts", len(parts)),
		zap.Int("relaxed", relaxed),
		zap.Int("runs", runs),
		zap.String("status", status.String()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if ok, row := m.Satisfied(values); !ok {
		return nil, fmt.Errorf("solver returned an assignment violating %q", row)
	}
	return &ilp.Result{Status: status, Values: values, Objective: m.Evaluate(values)}, nil
}

// solvePart solves one independent part of a model.
func (s *Solver) solvePart(ctx context.Context, m *ilp.Model) outcome {
	n := m.NumVars()
	weights := s.weights(m)
	if len(m.Constraints) == 0 {
		values := make([]bool, n)
		for i, w := range weights {
			values[i] = w > 0
		}
		return outcome{status: ilp.StatusOptimal, values: values}
	}

	constrs, feasible := s.encode(m)
	if !feasible {
		return outcome{status: ilp.StatusInfeasible}
	}

	upper := 0
	for _, w := range weights {
		if w > 0 {
			upper += w
		}
	}
	if s.opts.RelaxationMaxVars > 0 && n <= s.opts.RelaxationMaxVars && ctx.Err() == nil {
		relax, err := lprelax.Solve(scaled(m, weights), 0)
		if err != nil {
			s.logger.Debug("relaxation failed",
				zap.String("op", "pbsolver.Solve"),
				zap.Int("variables", n),
				zap.Error(err),
			)
		} else {
			if values, ok := relax.Assignment(); ok {
				if sat, _ := m.Satisfied(values); sat {
					return outcome{status: ilp.StatusOptimal, values: values, relaxed: true}
				}
			}
			slack := 1e-6 * math.Max(1, math.Abs(relax.Objective))
			if bound := int(math.Floor(relax.Objective + slack)); bound < upper {
				upper = bound
			}
		}
	}

	srch := &search{
		constrs: constrs,
		weights: weights,
		upper:   upper,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go srch.run()

	interrupted := false
	select {
	case <-srch.done:
	case <-ctx.Done():
		close(srch.quit)
		select {
		case <-srch.done:
		default:
			interrupted = true
		}
	}

	best, unsat, runs := srch.result()
	out := outcome{runs: runs}
	switch {
	case interrupted && best != nil:
		out.status, out.values = ilp.StatusFeasible, best
	case interrupted:
		// Leaving every commitment off is feasible for most models.
		zero := make([]bool, n)
		if ok, _ := m.Satisfied(zero); ok {
			out.status, out.values = ilp.StatusFeasible, zero
		} else {
			out.status = ilp.StatusNotSolved
		}
	case unsat:
		out.status = ilp.StatusInfeasible
	default:
		out.status, out.values = ilp.StatusOptimal, best
	}
	return out
}

// search maximizes Σ w·x by bisecting on the objective between the best
// assignment found and upper. Every step is a fresh gophersat run over the
// rows plus Σ w·x ≥ target.
type search struct {
	constrs []solver.PBConstr
	weights []int
	upper   int
	quit    chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	best  []bool
	unsat bool
	runs  int
}

func (sr *search) run() {
	defer close(sr.done)

	values, ok := sr.satisfy(nil)
	if !ok {
		sr.mu.Lock()
		sr.unsat = true
		sr.mu.Unlock()
		return
	}
	lo, hi := sr.record(values), sr.upper
	for lo < hi {
		select {
		case <-sr.quit:
			return
		default:
		}
		target := lo + (hi-lo+1)/2
		lits, weights, k := normalize(objectiveRow(sr.weights), target)
		values, ok := sr.satisfy(&objective{lits: lits, weights: weights, k: k})
		if ok {
			lo = sr.record(values)
		} else {
			hi = target - 1
		}
	}
}

type objective struct {
	lits, weights []int
	k             int
}

// satisfy runs one satisfiability check and returns the assignment found.
func (sr *search) satisfy(obj *objective) ([]bool, bool) {
	sr.mu.Lock()
	sr.runs++
	sr.mu.Unlock()

	constrs := sr.constrs
	if obj != nil {
		total := 0
		for _, w := range obj.weights {
			total += w
		}
		if obj.k > total {
			return nil, false
		}
		constrs = append(constrs[:len(constrs):len(constrs)], solver.GtEq(obj.lits, obj.weights, obj.k))
	}
	sat := solver.New(solver.ParsePBConstrs(constrs))
	if sat.Solve() != solver.Sat {
		return nil, false
	}
	model := sat.Model()
	values := make([]bool, len(sr.weights))
	copy(values, model)
	return values, true
}

// record keeps values as the incumbent and returns its scaled objective.
func (sr *search) record(values []bool) int {
	value := 0
	for i, set := range values {
		if set {
			value += sr.weights[i]
		}
	}
	sr.mu.Lock()
	sr.best = values
	sr.mu.Unlock()
	return value
}

func (sr *search) result() (best []bool, unsat bool, runs int) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.best, sr.unsat, sr.runs
}

// encode rewrites every row as Σ w·l ≥ k with positive weights over
// literals. The second return is false when a row can never be satisfied.
func (s *Solver) encode(m *ilp.Model) ([]solver.PBConstr, bool) {
	n := m.NumVars()
	// Anchor so the problem always spans every variable.
	constrs := []solver.PBConstr{solver.GtEq([]int{n + 1}, []int{1}, 1)}

	for _, c := range m.Constraints {
		rows := []map[int]int{merge(c.Terms, 1)}
		rhs := []int{c.RHS}
		switch c.Sense {
		case ilp.LE:
			rows[0] = merge(c.Terms, -1)
			rhs[0] = -c.RHS
		case ilp.EQ:
			rows = append(rows, merge(c.Terms, -1))
			rhs = append(rhs, -c.RHS)
		}
		for i, row := range rows {
			lits, weights, k := normalize(row, rhs[i])
			if k <= 0 {
				continue
			}
			total := 0
			for _, w := range weights {
				total += w
			}
			if k > total {
				s.logger.Debug("constraint cannot be satisfied",
					zap.String("op", "pbsolver.Solve"),
					zap.String("constraint", c.Name),
				)
				return nil, false
			}
			constrs = append(constrs, solver.GtEq(lits, weights, k))
		}
	}
	return constrs, true
}

// merge collapses repeated variables and applies sign to every coefficient.
func merge(terms []ilp.Term, sign int) map[int]int {
	row := make(map[int]int, len(terms))
	for _, t := range terms {
		row[t.Var] += sign * t.Coeff
	}
	return row
}

// normalize turns Σ a·x ≥ b into Σ |a|·l ≥ k where l is x for positive a and
// ¬x for negative a. Literals are ordered by variable.
func normalize(row map[int]int, b int) (lits, weights []int, k int) {
	vars := make([]int, 0, len(row))
	for v, a := range row {
		if a != 0 {
			vars = append(vars, v)
		}
	}
	sort.Ints(vars)

	k = b
	for _, v := range vars {
		a, lit := row[v], v+1
		if a < 0 {
			lit = -lit
			k -= a
			a = -a
		}
		lits = append(lits, lit)
		weights = append(weights, a)
	}
	return lits, weights, k
}

// weights scales the objective into signed integer weights.
func (s *Solver) weights(m *ilp.Model) []int {
	out := make([]int, len(m.Objective))
	for i, c := range m.Objective {
		switch {
		case math.IsNaN(c):
		case c > 0:
			out[i] = mathutil.Scale(c, s.opts.Scale)
		case c < 0:
			out[i] = -mathutil.Scale(-c, s.opts.Scale)
		}
	}
	return out
}

func objectiveRow(weights []int) map[int]int {
	row := make(map[int]int, len(weights))
	for v, w := range weights {
		if w != 0 {
			row[v] = w
		}
	}
	return row
}

// scaled shares m's rows under the integer objective the search optimizes.
func scaled(m *ilp.Model, weights []int) *ilp.Model {
	obj := make([]float64, len(weights))
	for i, w := range weights {
		obj[i] = float64(w)
	}
	return &ilp.Model{Names: m.Names, Objective: obj, Constraints: m.Constraints}
}
