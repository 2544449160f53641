// README: Destination compatibility resolver backed by a static grouping table.
package destgroup

import (
	"sort"
	"strings"
)

// Table is an immutable destination grouping loaded once at startup and
// injected into the matcher. Two destinations are compatible when they are the
// same string (case-insensitive), share a group, or belong to groups with a
// designated overlap. A destination absent from every group is a singleton and
// only matches itself.
type Table struct {
	groupsOf map[string][]string
	members  map[string][]string
	overlaps map[string]map[string]bool
}

// New builds a Table from group name -> member destinations, plus pairs of
// group names whose members should match across groups.
func New(groups map[string][]string, overlaps [][2]string) *Table {
	t := &Table{
		groupsOf: make(map[string][]string),
		members:  make(map[string][]string, len(groups)),
		overlaps: make(map[string]map[string]bool),
	}
	for name, dests := range groups {
		for _, d := range dests {
			k := norm(d)
			t.groupsOf[k] = append(t.groupsOf[k], name)
			t.members[name] = append(t.members[name], d)
		}
		sort.Strings(t.members[name])
	}
	for _, p := range overlaps {
		a, b := p[0], p[1]
		if t.overlaps[a] == nil {
			t.overlaps[a] = make(map[string]bool)
		}
		if t.overlaps[b] == nil {
			t.overlaps[b] = make(map[string]bool)
		}
		t.overlaps[a][b] = true
		t.overlaps[b][a] = true
	}
	return t
}

// Default is the campus grouping table: destinations near each other
// geographically are matchable even when riders type different names.
func Default() *Table {
	return New(map[string][]string{
		"transport hub": {"Railway Station", "Bus Stand", "Airport Road", "Metro Station"},
		"shopping":      {"Vijetha Mart", "City Center Mall", "Spencer Plaza", "D-Mart"},
		"theatres":      {"PVR Cinemas", "INOX", "Sandhya Theatre"},
	}, [][2]string{
		{"transport hub", "shopping"},
	})
}

// Compatible reports whether two destination strings may share a ride.
// Symmetric by construction.
func (t *Table) Compatible(a, b string) bool {
	na, nb := norm(a), norm(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	ga, gb := t.groupsOf[na], t.groupsOf[nb]
	for _, x := range ga {
		for _, y := range gb {
			if x == y || t.overlaps[x][y] {
				return true
			}
		}
	}
	return false
}

// Equal reports whether two destinations are the same string modulo case and
// surrounding whitespace. The matcher ranks exact matches above group matches.
func Equal(a, b string) bool {
	return norm(a) == norm(b)
}

// Known reports whether the destination appears in any group.
func (t *Table) Known(dest string) bool {
	return len(t.groupsOf[norm(dest)]) > 0
}

// Destinations returns every grouped destination name, sorted.
func (t *Table) Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, dests := range t.members {
		for _, d := range dests {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}

// GroupNames returns the configured group names, sorted.
func (t *Table) GroupNames() []string {
	names := make([]string, 0, len(t.members))
	for name := range t.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suggest returns known destinations whose name contains the query,
// case-insensitively, in sorted order.
func (t *Table) Suggest(query string) []string {
	q := norm(query)
	if q == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, dests := range t.members {
		for _, d := range dests {
			if strings.Contains(norm(d), q) && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
