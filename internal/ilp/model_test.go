package ilp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func smallModel() *Model {
	m := NewModel()
	a := m.AddVar("a", 3)
	b := m.AddVar("b", 1.5)
	m.AddAtMostOne("cap", a, b)
	m.AddImplication("imp", a, b)
	m.AddSum("empty", LE, 1)
	return m
}

func TestWriteLP(t *testing.T) {
	var sb strings.Builder
	if err := smallModel().WriteLP(&sb); err != nil {
		t.Fatalf("WriteLP() error = %v", err)
	}
	want := `\ collection assignment
Maximize
 obj: 3 a + 1.5 b
Subject To
 cap: a + b <= 1
 imp: b - a >= 0
Binaries
 a
 b
End
`
	if got := sb.String(); got != want {
		t.Errorf("WriteLP() =\n%s\nwant\n%s", got, want)
	}
}

func TestSatisfiedAndEvaluate(t *testing.T) {
	m := smallModel()
	tests := []struct {
		name      string
		values    []bool
		wantOK    bool
		violated  string
		objective float64
	}{
		{name: "nothing set", values: []bool{false, false}, wantOK: true},
		{name: "only b", values: []bool{false, true}, wantOK: true, objective: 1.5},
		{name: "only a breaks implication", values: []bool{true, false}, violated: "imp", objective: 3},
		{name: "both break capacity", values: []bool{true, true}, violated: "cap", objective: 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, violated := m.Satisfied(tt.values)
			if ok != tt.wantOK || violated != tt.violated {
				t.Errorf("Satisfied() = %v, %q, want %v, %q", ok, violated, tt.wantOK, tt.violated)
			}
			if got := m.Evaluate(tt.values); got != tt.objective {
				t.Errorf("Evaluate() = %v, want %v", got, tt.objective)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	m := smallModel()
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(m.Constraints) != 2 {
		t.Errorf("empty constraint was kept: %d rows", len(m.Constraints))
	}
	m.Add(Constraint{Name: "bad", Terms: []Term{{Var: 7, Coeff: 1}}, Sense: LE, RHS: 1})
	if err := m.Validate(); err == nil {
		t.Errorf("Validate() expected error for out of range variable")
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []Status{StatusOptimal, StatusFeasible} {
		if !s.HasSolution() {
			t.Errorf("%s.HasSolution() = false", s)
		}
	}
	for _, s := range []Status{StatusNotSolved, StatusInfeasible, StatusUnbounded} {
		if s.HasSolution() {
			t.Errorf("%s.HasSolution() = true", s)
		}
	}
}

func TestComponents(t *testing.T) {
	m := NewModel()
	a := m.AddVar("a", 1)
	b := m.AddVar("b", 2)
	c := m.AddVar("c", 3)
	d := m.AddVar("d", 4)
	e := m.AddVar("e", 5)
	m.AddAtMostOne("ac", a, c)
	m.AddSum("bd", GE, 1, b, d)
	m.AddImplication("ce", c, e)

	parts := m.Components()
	if len(parts) != 2 {
		t.Fatalf("Components() = %d parts, want 2", len(parts))
	}
	tests := []struct {
		vars  []int
		names []string
		rows  []string
	}{
		{vars: []int{a, c, e}, names: []string{"a", "c", "e"}, rows: []string{"ac", "ce"}},
		{vars: []int{b, d}, names: []string{"b", "d"}, rows: []string{"bd"}},
	}
	for i, tt := range tests {
		p := parts[i]
		if diff := cmp.Diff(tt.vars, p.Vars); diff != "" {
			t.Errorf("part %d vars mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(tt.names, p.Model.Names); diff != "" {
			t.Errorf("part %d names mismatch (-want +got):\n%s", i, diff)
		}
		var rows []string
		for _, c := range p.Model.Constraints {
			rows = append(rows, c.Name)
		}
		if diff := cmp.Diff(tt.rows, rows); diff != "" {
			t.Errorf("part %d rows mismatch (-want +got):\n%s", i, diff)
		}
		if err := p.Model.Validate(); err != nil {
			t.Errorf("part %d Validate() error = %v", i, err)
		}
	}
	// c → e lands on local indices 1 and 2 of the first part.
	want := []Term{{Var: 2, Coeff: 1}, {Var: 1, Coeff: -1}}
	if diff := cmp.Diff(want, parts[0].Model.Constraints[1].Terms); diff != "" {
		t.Errorf("remapped terms mismatch (-want +got):\n%s", diff)
	}
}
