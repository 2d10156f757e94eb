package filter

import (
	"net/url"
	"strconv"
	"strings"

	"kansenkaart/directory"
)

// URL parameter names: search, types, municipality, lat, lng, radius, plus
// one lower-cased parameter per facet (projecttype, hbmsector, ...). A
// state always round-trips: ParseURL(EncodeURL(s)) is equivalent to s.

// facetParams maps the lower-cased URL parameter back to the facet name
var facetParams = func() map[string]string {
	m := make(map[string]string, len(directory.FacetNames))
	for _, name := range directory.FacetNames {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// ParseURL reconstructs a State from query parameters. Unknown parameters
// are ignored; malformed numbers deactivate the location filter rather
// than failing the whole parse.
func ParseURL(q url.Values) State {
	s := State{Facets: map[string][]string{}}

	s.Search = strings.TrimSpace(q.Get("search"))

	for _, t := range splitList(q.Get("types")) {
		switch directory.Kind(t) {
		case directory.KindProject, directory.KindCompany:
			s.Kinds = append(s.Kinds, directory.Kind(t))
		}
	}

	for param, name := range facetParams {
		if tags := splitList(q.Get(param)); len(tags) > 0 {
			s.Facets[name] = tags
		}
	}

	s.Municipalities = splitList(q.Get("municipality"))

	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr == nil && lngErr == nil {
			s.Location = &directory.LatLng{Lat: lat, Lng: lng}
			s.RadiusKm = 10 // default radius when only a point is given
			if radius, err := strconv.ParseFloat(q.Get("radius"), 64); err == nil && radius > 0 {
				s.RadiusKm = radius
			}
		}
	}

	return s
}

// EncodeURL serializes the state back to query parameters
func (s State) EncodeURL() url.Values {
	q := url.Values{}

	if s.Search != "" {
		q.Set("search", s.Search)
	}
	if len(s.Kinds) > 0 {
		q.Set("types", strings.Join(kindStrings(s.Kinds), ","))
	}
	for name, tags := range s.Facets {
		if len(tags) > 0 {
			q.Set(strings.ToLower(name), strings.Join(tags, ","))
		}
	}
	if len(s.Municipalities) > 0 {
		q.Set("municipality", strings.Join(s.Municipalities, ","))
	}
	if s.Location != nil {
		q.Set("lat", strconv.FormatFloat(s.Location.Lat, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(s.Location.Lng, 'f', -1, 64))
		if s.RadiusKm > 0 {
			q.Set("radius", strconv.FormatFloat(s.RadiusKm, 'f', -1, 64))
		}
	}

	return q
}

// QueryString returns the encoded state with a leading "?", or "" for the
// zero state. Used to build deep links that carry the current filters.
func (s State) QueryString() string {
	enc := s.EncodeURL().Encode()
	if enc == "" {
		return ""
	}
	return "?" + enc
}

// HasURLParams reports whether the query string carries any filter
// parameter at all. Used to decide when last-used-filter restore applies.
// A bare radius does not count: the radius select always submits a value,
// and without coordinates it activates nothing.
func HasURLParams(q url.Values) bool {
	for _, param := range []string{"search", "types", "municipality", "lat", "lng"} {
		if q.Get(param) != "" {
			return true
		}
	}
	for param := range facetParams {
		if q.Get(param) != "" {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
