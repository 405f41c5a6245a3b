package solution

import (
	"github.com/ssolson/upOpt/pkg/constants"
	"github.com/ssolson/upOpt/pkg/mathutil"
)

// Enrollment is a unit currently placed in a collection in game.
type Enrollment struct {
	PropID  int64   `json:"prop_id"`
	Address string  `json:"full_address"`
	Boost   float64 `json:"collection_boost"`
}

// Annotate marks every committed unit active when the activity feed shows
// it enrolled with the boost of its committed collection. Enrollments with a
// boost of one are not collection placements and are ignored. It returns the
// number of active units.
func (s *Solution) Annotate(enrollments []Enrollment) int {
	boosts := make(map[int64][]float64)
	for _, e := range enrollments {
		if mathutil.WithinTolerance(e.Boost, 1, constants.YieldTolerance) {
			continue
		}
		boosts[e.PropID] = append(boosts[e.PropID], e.Boost)
	}

	active := 0
	for i := range s.Collections {
		c := &s.Collections[i]
		for j := range c.Units {
			matched := false
			for _, b := range boosts[c.Units[j].PropID] {
				if mathutil.WithinTolerance(b, c.Boost, constants.YieldTolerance) {
					matched = true
					break
				}
			}
			if matched {
				active++
			}
			c.Units[j].Active = &matched
		}
	}
	s.Annotated = true
	return active
}
