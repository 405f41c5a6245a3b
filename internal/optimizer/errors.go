package optimizer

import (
	"errors"
	"fmt"

	"github.com/ssolson/upOpt/internal/ilp"
)

var (
	// ErrSolverInfeasible is returned when a phase model has no feasible assignment.
	ErrSolverInfeasible = errors.New("solver reported the phase infeasible")
	// ErrSolverUnbounded is returned when a phase objective has no finite optimum.
	ErrSolverUnbounded = errors.New("solver reported the phase unbounded")
	// ErrSolverNotSolved is returned when the solver stopped without an assignment.
	ErrSolverNotSolved = errors.New("solver stopped without a solution")
)

// PhaseError reports a phase that produced no usable assignment.
type PhaseError struct {
	Phase  int
	Name   string
	Status ilp.Status
	Err    error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %d (%s) %s: %v", e.Phase, e.Name, e.Status, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func statusError(status ilp.Status) error {
	switch status {
	case ilp.StatusInfeasible:
		return ErrSolverInfeasible
	case ilp.StatusUnbounded:
		return ErrSolverUnbounded
	case ilp.StatusOptimal, ilp.StatusFeasible:
		return nil
	default:
		return ErrSolverNotSolved
	}
}
