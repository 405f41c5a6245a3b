package lprelax

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ssolson/upOpt/internal/ilp"
)

func TestBound(t *testing.T) {
	tests := []struct {
		name  string
		build func() *ilp.Model
		want  float64
	}{
		{
			name: "at most one of three",
			build: func() *ilp.Model {
				m := ilp.NewModel()
				a := m.AddVar("a", 3)
				b := m.AddVar("b", 2)
				c := m.AddVar("c", 1)
				m.AddAtMostOne("one", a, b, c)
				return m
			},
			want: 3,
		},
		{
			name: "odd cycle relaxes to halves",
			build: func() *ilp.Model {
				m := ilp.NewModel()
				a := m.AddVar("a", 1)
				b := m.AddVar("b", 1)
				c := m.AddVar("c", 1)
				m.AddAtMostOne("ab", a, b)
				m.AddAtMostOne("bc", b, c)
				m.AddAtMostOne("ac", a, c)
				return m
			},
			want: 1.5,
		},
		{
			name: "unconstrained takes every positive variable",
			build: func() *ilp.Model {
				m := ilp.NewModel()
				m.AddVar("a", 2)
				m.AddVar("b", 0.5)
				return m
			},
			want: 2.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bound(tt.build(), 0)
			if err != nil {
				t.Fatalf("Bound() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Bound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundTooLarge(t *testing.T) {
	m := ilp.NewModel()
	m.AddVar("a", 1)
	m.AddVar("b", 1)
	if _, err := Bound(m, 1); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Bound() error = %v, want ErrTooLarge", err)
	}
}

func TestGap(t *testing.T) {
	if got := Gap(75, 100); got != 0.25 {
		t.Errorf("Gap(75, 100) = %v, want 0.25", got)
	}
	if got := Gap(0, 0); got != 0 {
		t.Errorf("Gap(0, 0) = %v, want 0", got)
	}
}

func TestSolveAssignment(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *ilp.Model
		want     []bool
		integral bool
	}{
		{
			name: "units against two capped collections",
			build: func() *ilp.Model {
				// Three units, each eligible for collections A (two slots,
				// at most one across its scope) and B (one slot).
				m := ilp.NewModel()
				var a, b []int
				for i, yield := range []float64{5, 4, 3} {
					a = append(a, m.AddVar("a", 1.4*yield))
					b = append(b, m.AddVar("b", 1.1*yield))
					m.AddAtMostOne("unit", a[i], b[i])
				}
				m.AddSum("cap_a", ilp.LE, 2, a...)
				m.AddAtMostOne("excl_a", a...)
				m.AddSum("cap_b", ilp.LE, 1, b...)
				return m
			},
			want:     []bool{true, false, false, true, false, false},
			integral: true,
		},
		{
			name: "odd cycle is fractional",
			build: func() *ilp.Model {
				m := ilp.NewModel()
				a := m.AddVar("a", 1)
				b := m.AddVar("b", 1)
				c := m.AddVar("c", 1)
				m.AddAtMostOne("ab", a, b)
				m.AddAtMostOne("bc", b, c)
				m.AddAtMostOne("ac", a, c)
				return m
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.build()
			r, err := Solve(m, 0)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			got, ok := r.Assignment()
			if ok != tt.integral {
				t.Fatalf("Assignment() integral = %v, want %v (values %v)", ok, tt.integral, r.Values)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Assignment() mismatch (-want +got):\n%s", diff)
			}
			if math.Abs(m.Evaluate(got)-r.Objective) > 1e-6 {
				t.Errorf("Objective = %v, assignment evaluates to %v", r.Objective, m.Evaluate(got))
			}
		})
	}
}
