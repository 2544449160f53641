// README: Destination grouping table tests.
package destgroup

import (
	"reflect"
	"testing"
)

func TestCompatible_Symmetry(t *testing.T) {
	table := Default()
	dests := append(table.Destinations(), "Library", "Hostel Gate")
	for _, a := range dests {
		for _, b := range dests {
			if table.Compatible(a, b) != table.Compatible(b, a) {
				t.Errorf("Compatible(%q, %q) is asymmetric", a, b)
			}
		}
	}
}

func TestCompatible_SameGroup(t *testing.T) {
	table := Default()
	if !table.Compatible("Railway Station", "Bus Stand") {
		t.Error("transport hub members should match")
	}
	if !table.Compatible("PVR Cinemas", "INOX") {
		t.Error("theatre members should match")
	}
}

func TestCompatible_OverlappingGroups(t *testing.T) {
	table := Default()
	if !table.Compatible("Railway Station", "City Center Mall") {
		t.Error("transport hub and shopping overlap, members should match")
	}
	if table.Compatible("Railway Station", "PVR Cinemas") {
		t.Error("transport hub and theatres do not overlap")
	}
}

func TestCompatible_SingletonOnlyMatchesItself(t *testing.T) {
	table := Default()
	if !table.Compatible("Library", "Library") {
		t.Error("singleton should match itself")
	}
	if !table.Compatible("Library", "  library  ") {
		t.Error("singleton match should ignore case and whitespace")
	}
	if table.Compatible("Library", "Railway Station") {
		t.Error("singleton should not match grouped destinations")
	}
	if table.Compatible("Library", "Hostel Gate") {
		t.Error("distinct singletons should not match")
	}
}

func TestCompatible_EmptyNeverMatches(t *testing.T) {
	table := Default()
	if table.Compatible("", "") || table.Compatible("", "Railway Station") {
		t.Error("empty destination must not match anything")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Railway Station", " railway station ") {
		t.Error("expected case/whitespace-insensitive equality")
	}
	if Equal("Railway Station", "Bus Stand") {
		t.Error("distinct names must not be equal")
	}
}

func TestKnownAndGroupNames(t *testing.T) {
	table := Default()
	if !table.Known("d-mart") || table.Known("Library") {
		t.Error("Known should cover grouped names only")
	}
	want := []string{"shopping", "theatres", "transport hub"}
	if got := table.GroupNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("GroupNames = %v, want %v", got, want)
	}
}

func TestSuggest(t *testing.T) {
	table := Default()
	got := table.Suggest("mart")
	want := []string{"D-Mart", "Vijetha Mart"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(mart) = %v, want %v", got, want)
	}
	if res := table.Suggest("  "); res != nil {
		t.Errorf("Suggest(blank) = %v, want nil", res)
	}
	if res := table.Suggest("nowhere"); len(res) != 0 {
		t.Errorf("Suggest(nowhere) = %v, want empty", res)
	}
}
