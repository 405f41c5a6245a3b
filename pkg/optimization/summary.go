// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single solve phase.
type Summary struct {
	Phase       int      `json:"phase"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Collections []int    `json:"collections"`
	Variables   int      `json:"variables"`
	Constraints int      `json:"constraints"`
	Objective   float64  `json:"objective"`
	Bound       *float64 `json:"bound,omitempty"`
	Gap         *float64 `json:"gap,omitempty"`
	Committed   int      `json:"committed"`
	Notes       []string `json:"notes,omitempty"`
}

// Solved reports whether the phase produced an assignment.
func (s Summary) Solved() bool {
	return s.Status == "optimal" || s.Status == "feasible"
}
