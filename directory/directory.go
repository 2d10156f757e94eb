// Package directory holds the kansenkaart dataset: the projects and
// companies shown on the map, the filter taxonomy and the municipalities.
// Records are loaded once at startup, geocoded where coordinates are
// missing, and read-only afterwards.
package directory

import (
	"math"
	"strings"
)

// Kind distinguishes the two entry types. Values match the raw feed.
type Kind string

const (
	KindProject Kind = "Project"
	KindCompany Kind = "Bedrijf"
)

// FacetNames are the multi-value facets an entry can carry, in display order.
type FacetName = string

var FacetNames = []string{
	"ProjectType",
	"OrganizationType",
	"OrganizationField",
	"HBMTopic",
	"HBMCharacteristics",
	"HBMSector",
}

// LatLng is a WGS84 coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are usable for plotting. Both
// values must be finite and (0,0) is the feed's sentinel for "unset".
func (l LatLng) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	return !(l.Lat == 0 && l.Lng == 0)
}

// Entry is one project or company in the directory. Name is the unique key
// within a dataset, used for lookups, navigation and deep links.
type Entry struct {
	Name         string              `json:"name"`
	Kind         Kind                `json:"kind"`
	Facets       map[string][]string `json:"facets"`
	Municipality string              `json:"municipality"`
	Location     *LatLng             `json:"location,omitempty"`
	Street       string              `json:"street,omitempty"`
	Zip          string              `json:"zip,omitempty"`
	City         string              `json:"city,omitempty"`
	Description  string              `json:"description,omitempty"`
	ImageURL     string              `json:"image_url,omitempty"`
	LogoURL      string              `json:"logo_url,omitempty"`
}

// HasLocation reports whether the entry can be plotted as a marker
func (e *Entry) HasLocation() bool {
	return e.Location != nil && e.Location.Valid()
}

// Facet returns the entry's tags for the named facet (nil when unset)
func (e *Entry) Facet(name string) []string {
	if e.Facets == nil {
		return nil
	}
	return e.Facets[name]
}

// FullAddress joins the address parts for use as geocoder input
func (e *Entry) FullAddress() string {
	parts := []string{}
	for _, p := range []string{e.Street, e.Zip, e.City} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Municipality is one Dutch or German municipality in the region
type Municipality struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	Code          string   `json:"code,omitempty"`
	Population    int      `json:"population,omitempty"`
	Area          float64  `json:"area,omitempty"`
	LargestPlaces []string `json:"largest_places,omitempty"`
}
