// Package filter implements the kansenkaart filter engine: the canonical
// filter state, its lossless URL encoding, and the pure predicate chain
// that selects matching directory entries. Every call site (map, list,
// detail navigation, CSV export, JSON API) goes through Apply so the views
// can never drift apart.
package filter

import (
	"sort"
	"strings"

	"kansenkaart/directory"
)

// State is the full filter selection. The zero value means "no
// restriction": all kinds, all facets, no search, no location.
type State struct {
	// Kinds restricts to the given entry kinds; empty means both
	Kinds []directory.Kind `json:"kinds,omitempty"`
	// Facets maps facet name -> selected tags; empty set = facet inactive
	Facets map[string][]string `json:"facets,omitempty"`
	// Municipalities restricts by municipality name
	Municipalities []string `json:"municipalities,omitempty"`
	// Search is matched case-insensitively against name and description
	Search string `json:"search,omitempty"`
	// Location + RadiusKm restrict to entries within the radius
	Location *directory.LatLng `json:"location,omitempty"`
	RadiusKm float64           `json:"radius_km,omitempty"`
}

// IsZero reports whether the state carries no restriction at all
func (s State) IsZero() bool {
	if len(s.Kinds) > 0 || len(s.Municipalities) > 0 || s.Search != "" || s.Location != nil {
		return false
	}
	for _, tags := range s.Facets {
		if len(tags) > 0 {
			return false
		}
	}
	return true
}

// locationActive reports whether the distance predicate applies
func (s State) locationActive() bool {
	return s.Location != nil && s.RadiusKm > 0
}

// Apply returns the entries matching the state, preserving dataset order.
// It is pure: no side effects, identical inputs give identical output.
func Apply(entries []*directory.Entry, s State) []*directory.Entry {
	out := make([]*directory.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, s) {
			out = append(out, e)
		}
	}
	return out
}

// Matches evaluates the predicate chain for a single entry. Predicates run
// in a fixed order and short-circuit on the first failure.
func Matches(e *directory.Entry, s State) bool {
	// 1. Kind restriction
	if len(s.Kinds) > 0 && !containsKind(s.Kinds, e.Kind) {
		return false
	}

	// 2. Facets: OR within a facet, AND across facets
	for name, sel := range s.Facets {
		if len(sel) == 0 {
			continue
		}
		if !intersects(e.Facet(name), sel) {
			return false
		}
	}

	// 3. Municipality: OR within the set
	if len(s.Municipalities) > 0 && !containsString(s.Municipalities, e.Municipality) {
		return false
	}

	// 4. Free-text search against name and description
	if s.Search != "" {
		q := strings.ToLower(s.Search)
		if !strings.Contains(strings.ToLower(e.Name), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) {
			return false
		}
	}

	// 5. Location radius. Entries without usable coordinates cannot be
	// evaluated and are excluded while a location filter is active.
	if s.locationActive() {
		if !e.HasLocation() {
			return false
		}
		if s.Location.DistanceKm(*e.Location) > s.RadiusKm {
			return false
		}
	}

	return true
}

// CountByKind returns the number of matches per kind in the filtered set
func CountByKind(entries []*directory.Entry) (projects, companies int) {
	for _, e := range entries {
		switch e.Kind {
		case directory.KindCompany:
			companies++
		default:
			projects++
		}
	}
	return
}

// Equal compares two states as sets (selection order is irrelevant)
func (s State) Equal(o State) bool {
	if !sameSet(kindStrings(s.Kinds), kindStrings(o.Kinds)) {
		return false
	}
	if !sameSet(s.Municipalities, o.Municipalities) {
		return false
	}
	if s.Search != o.Search {
		return false
	}
	if s.locationActive() != o.locationActive() {
		return false
	}
	if s.locationActive() {
		if *s.Location != *o.Location || s.RadiusKm != o.RadiusKm {
			return false
		}
	}
	names := map[string]bool{}
	for name := range s.Facets {
		names[name] = true
	}
	for name := range o.Facets {
		names[name] = true
	}
	for name := range names {
		if !sameSet(s.Facets[name], o.Facets[name]) {
			return false
		}
	}
	return true
}

func containsKind(kinds []directory.Kind, k directory.Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// intersects reports whether tags and sel share at least one value
func intersects(tags, sel []string) bool {
	for _, t := range tags {
		for _, s := range sel {
			if t == s {
				return true
			}
		}
	}
	return false
}

func kindStrings(kinds []directory.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ac := append([]string(nil), a...)
	bc := append([]string(nil), b...)
	sort.Strings(ac)
	sort.Strings(bc)
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	return true
}
