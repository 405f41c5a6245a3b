package solution

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/candidate"
	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/pkg/testutil"
)

func fixture(t *testing.T) Input {
	t.Helper()
	catalog := testutil.MustCatalog(t,
		estate.Collection{ID: testutil.StreetID, Name: "King of the Street", Required: 3, Boost: 1.3},
		estate.Collection{ID: testutil.StarterID, Name: "Newbie", Required: 1, Boost: 1.1},
		estate.Collection{ID: 50, Name: "Four Corners", Required: 4, Boost: 1.8},
	)
	units := []estate.Unit{
		testutil.Unit(1, 10, 1, 100),
		testutil.Unit(2, 20, 1, 100),
		testutil.Unit(3, 30, 1, 100),
		testutil.Unit(4, 5, 1, 200),
	}
	variable := func(id int64, collection int, yield, boost float64) candidate.Variable {
		return candidate.Variable{UnitID: id, CollectionID: collection, City: 1, Yield: yield, Boost: boost}
	}
	return Input{
		Catalog: catalog,
		Units:   units,
		Committed: []candidate.Variable{
			variable(1, testutil.StreetID, 10, 1.3),
			variable(3, testutil.StreetID, 30, 1.3),
			variable(4, testutil.StarterID, 5, 1.1),
		},
		Considered: []int{50, testutil.StreetID, testutil.StarterID},
		Drops:      []candidate.Drop{{CollectionID: 50, Candidates: 3, Required: 4, Stage: "prune"}},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssemble(t *testing.T) {
	s := Assemble(zap.NewNop(), fixture(t))

	wantAssignments := map[int][]int64{
		testutil.StreetID:  {3, 1},
		testutil.StarterID: {4},
	}
	if diff := cmp.Diff(wantAssignments, s.Assignments); diff != "" {
		t.Errorf("Assignments mismatch (-want +got):\n%s", diff)
	}

	var ids []int
	for _, c := range s.Collections {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]int{testutil.StreetID, testutil.StarterID, 50}, ids); diff != "" {
		t.Errorf("collection order mismatch (-want +got):\n%s", diff)
	}

	// Street boost: 0.3*(30+10) = 12/h. Starter: 0.1*5 = 0.5/h.
	if !near(s.Earnings.BaseHourly, 65) || !near(s.Earnings.BoostHourly, 12.5) {
		t.Errorf("Earnings = %+v", s.Earnings)
	}
	if !near(s.Earnings.TotalMonthly, 77.5*720) {
		t.Errorf("TotalMonthly = %v, want %v", s.Earnings.TotalMonthly, 77.5*720)
	}
	if s.Earnings.ActiveCollections != 2 {
		t.Errorf("ActiveCollections = %d, want 2", s.Earnings.ActiveCollections)
	}
	if got := s.CommittedUnits(); got != 3 {
		t.Errorf("CommittedUnits() = %d, want 3", got)
	}
}

func TestAssembleUnderfilledAndDropped(t *testing.T) {
	s := Assemble(nil, fixture(t))

	street, ok := s.Collection(testutil.StreetID)
	if !ok {
		t.Fatalf("street collection missing from report")
	}
	if street.Missing != 1 || street.Complete || street.Dropped {
		t.Errorf("street report = missing %d complete %v dropped %v", street.Missing, street.Complete, street.Dropped)
	}
	if street.Units[0].Address != "Unit 3" || street.Units[0].MintPrice != 3000 {
		t.Errorf("street first entry = %+v", street.Units[0])
	}

	dropped, ok := s.Collection(50)
	if !ok {
		t.Fatalf("dropped collection missing from report")
	}
	if !dropped.Dropped || dropped.DropReason == "" || len(dropped.Units) != 0 || dropped.MonthlyBoost != 0 {
		t.Errorf("dropped report = %+v", dropped)
	}

	starter, _ := s.Collection(testutil.StarterID)
	if !starter.Complete || starter.Missing != 0 {
		t.Errorf("starter report = %+v", starter)
	}
}

func TestAnnotate(t *testing.T) {
	s := Assemble(zap.NewNop(), fixture(t))
	active := s.Annotate([]Enrollment{
		{PropID: 1003, Boost: 1.3},
		{PropID: 1001, Boost: 1.1},
		{PropID: 1004, Boost: 1},
	})
	if active != 1 {
		t.Errorf("Annotate() = %d, want 1", active)
	}
	if !s.Annotated {
		t.Errorf("Annotated = false")
	}

	got := make(map[int64]bool)
	for _, c := range s.Collections {
		for _, u := range c.Units {
			if u.Active == nil {
				t.Fatalf("unit %d not annotated", u.UnitID)
			}
			got[u.UnitID] = *u.Active
		}
	}
	want := map[int64]bool{1: false, 3: true, 4: false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("active flags mismatch (-want +got):\n%s", diff)
	}
}
