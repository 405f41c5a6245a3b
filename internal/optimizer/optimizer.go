package optimizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/candidate"
	"github.com/ssolson/upOpt/internal/config"
	"github.com/ssolson/upOpt/internal/constraint"
	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/ilp"
	"github.com/ssolson/upOpt/internal/ilp/lprelax"
	"github.com/ssolson/upOpt/internal/solution"
	"github.com/ssolson/upOpt/pkg/optimization"
	"github.com/ssolson/upOpt/pkg/validation"
)

const (
	phaseHighYield = "high-yield"
	phaseLowYield  = "low-yield"
)

// Runner executes the two-phase collection assignment.
type Runner struct {
	logger  *zap.Logger
	conf    *config.Configuration
	solver  ilp.Solver
	dumpDir string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithModelDump writes every phase model to dir in LP format.
func WithModelDump(dir string) Option {
	return func(r *Runner) {
		r.dumpDir = dir
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration, solver ilp.Solver, opts ...Option) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if solver == nil {
		return nil, fmt.Errorf("solver cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if err := conf.Collections.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{logger: logger, conf: conf, solver: solver}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run optimizes the units against the catalog. Phase one commits the
// high-boost unscoped collections; phase two rebuilds the scoped collections
// from the units left over and solves them together with the low-boost ones.
func (r *Runner) Run(ctx context.Context, units []estate.Unit, catalog estate.Catalog) (*solution.Solution, error) {
	if err := validation.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	if err := validation.ValidateUnits(units, catalog); err != nil {
		return nil, err
	}
	catalog = catalog.WithScopes(r.conf.Collections.Scopes())

	cols := r.conf.Collections
	builder := candidate.NewBuilder(r.logger, catalog, candidate.Defaults{
		Starter:      cols.Starter,
		CityWide:     cols.CityWide,
		Resident:     cols.Resident,
		ResidentCity: cols.ResidentCity,
		Street:       cols.Street,
	})
	pruner, err := candidate.NewPruner(r.logger, catalog, candidate.PruneConfig{
		KeepCount:          r.conf.Optimizer.KeepCount,
		RelaxedBonus:       r.conf.Optimizer.RelaxedBonus,
		CapitalCity:        cols.CapitalCity,
		ResidentCollection: cols.Resident,
		ResidentCity:       cols.ResidentCity,
		Capped:             cols.Capped,
		MaxPerStreet:       cols.MaxPerStreet,
		MaxStreetsPerCity:  cols.MaxStreetsPerCity,
	})
	if err != nil {
		return nil, fmt.Errorf("pruner configuration: %w", err)
	}

	universe, drops := builder.Build(units)
	considered := universe.CollectionIDs()
	for _, d := range drops {
		considered = append(considered, d.CollectionID)
	}
	pruned, pruneDrops := pruner.Prune(universe)
	drops = append(drops, pruneDrops...)

	threshold := r.conf.Optimizer.HighYieldThreshold
	unscoped := func(high bool) func(candidate.Variable) bool {
		return func(v candidate.Variable) bool {
			def, _ := catalog.Get(v.CollectionID)
			return def.Scope == estate.ScopeNone && (def.Boost > threshold) == high
		}
	}

	generator := constraint.NewGenerator(r.logger, catalog, r.generatorOptions())

	first, summary1, err := r.solvePhase(ctx, generator, 1, phaseHighYield, pruned.Filter(unscoped(true)))
	if err != nil {
		return nil, err
	}

	committed := make(map[int64]bool, len(first))
	for _, v := range first {
		committed[v.UnitID] = true
	}

	low := pruned.Filter(unscoped(false)).WithoutUnits(committed)
	scoped, scopedDrops := pruner.Prune(universe.Filter(func(v candidate.Variable) bool {
		def, _ := catalog.Get(v.CollectionID)
		return def.Scope != estate.ScopeNone
	}).WithoutUnits(committed))
	residual, residualDrops := candidate.DropUnfillable(low.Union(scoped), catalog, "phase 2")
	drops = append(drops, scopedDrops...)
	drops = append(drops, residualDrops...)

	second, summary2, err := r.solvePhase(ctx, generator, 2, phaseLowYield, residual)
	if err != nil {
		return nil, err
	}

	sol := solution.Assemble(r.logger, solution.Input{
		Catalog:    catalog,
		Units:      units,
		Committed:  append(first, second...),
		Considered: considered,
		Drops:      drops,
		Phases:     []optimization.Summary{summary1, summary2},
	})
	r.logger.Info("optimization finished",
		zap.String("op", "optimizer.Run"),
		zap.Int("units", len(units)),
		zap.Int("committed", sol.CommittedUnits()),
		zap.Int("activeCollections", sol.Earnings.ActiveCollections),
		zap.Float64("monthlyTotal", sol.Earnings.TotalMonthly),
	)
	return sol, nil
}

func (r *Runner) generatorOptions() constraint.Options {
	opts := constraint.Options{Capacity: constraint.AtMost, Exclusivity: constraint.Aggregate}
	if r.conf.Optimizer.Capacity == config.CapacityExact {
		opts.Capacity = constraint.Exact
	}
	if r.conf.Optimizer.Exclusivity == config.ExclusivitySingleGroup {
		opts.Exclusivity = constraint.SingleGroup
	}
	return opts
}

// solvePhase generates and solves one phase model and returns its committed
// candidates. A phase without an assignment aborts the run.
func (r *Runner) solvePhase(ctx context.Context, g *constraint.Generator, phase int, name string, u candidate.Universe) ([]candidate.Variable, optimization.Summary, error) {
	summary := optimization.Summary{Phase: phase, Name: name, Collections: u.CollectionIDs()}
	if u.Len() == 0 {
		summary.Status = ilp.StatusOptimal.String()
		summary.Notes = append(summary.Notes, "no candidates")
		r.logger.Info("phase has no candidates",
			zap.String("op", "optimizer.solvePhase"),
			zap.Int("phase", phase),
			zap.String("name", name),
		)
		return nil, summary, nil
	}

	f := g.Generate(u)
	summary.Variables = f.Model.NumVars()
	summary.Constraints = len(f.Model.Constraints)

	if r.dumpDir != "" {
		if err := r.dumpModel(phase, f.Model); err != nil {
			r.logger.Warn("failed to write phase model",
				zap.String("op", "optimizer.solvePhase"),
				zap.Int("phase", phase),
				zap.Error(err),
			)
		}
	}

	start := time.Now()
	res, err := r.solver.Solve(ctx, f.Model)
	if err != nil {
		return nil, summary, fmt.Errorf("phase %d (%s): %w", phase, name, err)
	}
	summary.Status = res.Status.String()
	if !summary.Solved() {
		err := statusError(res.Status)
		r.logger.Error("phase has no solution",
			zap.String("op", "optimizer.solvePhase"),
			zap.Int("phase", phase),
			zap.String("status", res.Status.String()),
		)
		return nil, summary, &PhaseError{Phase: phase, Name: name, Status: res.Status, Err: err}
	}
	if res.Status == ilp.StatusFeasible {
		summary.Notes = append(summary.Notes, "solve interrupted before optimality was proven")
	}

	committed := f.Committed(res.Values)
	summary.Objective = res.Objective
	summary.Committed = len(committed)

	if r.conf.Optimizer.RelaxationBound {
		r.relaxationBound(&summary, f.Model, res.Objective)
	}

	r.logger.Info("phase solved",
		zap.String("op", "optimizer.solvePhase"),
		zap.Int("phase", phase),
		zap.String("name", name),
		zap.String("status", summary.Status),
		zap.Int("variables", summary.Variables),
		zap.Int("constraints", summary.Constraints),
		zap.Int("committed", summary.Committed),
		zap.Float64("objective", summary.Objective),
		zap.Duration("elapsed", time.Since(start)),
	)
	return committed, summary, nil
}

func (r *Runner) relaxationBound(summary *optimization.Summary, m *ilp.Model, objective float64) {
	bound, err := lprelax.Bound(m, r.conf.Optimizer.RelaxationMaxVariables)
	if err != nil {
		r.logger.Warn("relaxation bound unavailable",
			zap.String("op", "optimizer.solvePhase"),
			zap.Int("phase", summary.Phase),
			zap.Error(err),
		)
		summary.Notes = append(summary.Notes, "relaxation bound unavailable")
		return
	}
	gap := lprelax.Gap(objective, bound)
	summary.Bound = &bound
	summary.Gap = &gap
	r.logger.Debug("relaxation bound",
		zap.String("op", "optimizer.solvePhase"),
		zap.Int("phase", summary.Phase),
		zap.Float64("bound", bound),
		zap.Float64("gap", gap),
	)
}

func (r *Runner) dumpModel(phase int, m *ilp.Model) error {
	if err := os.MkdirAll(r.dumpDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(r.dumpDir, fmt.Sprintf("phase%d.lp", phase))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteLP(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
