package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The raw feed is loosely shaped: facet values are sometimes a single
// string and sometimes an array, coordinates are sometimes numbers and
// sometimes quoted strings. Everything is normalized here, at the
// ingestion boundary, so the rest of the code never branches on shape.

// stringList accepts "x", ["x","y"] or null
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = nil
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*s = out
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	if single = strings.TrimSpace(single); single != "" {
		*s = []string{single}
	} else {
		*s = nil
	}
	return nil
}

// coord accepts 52.1, "52.1" or null. Unset values decode to 0, which
// LatLng.Valid treats as the sentinel.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = coord(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = coord(f)
	return nil
}

// rawEntry mirrors one record of opportunities.json
type rawEntry struct {
	Name               string     `json:"Name"`
	HBMType            string     `json:"HBMType"`
	ProjectType        stringList `json:"ProjectType"`
	OrganizationType   stringList `json:"OrganizationType"`
	OrganizationField  stringList `json:"OrganizationField"`
	HBMTopic           stringList `json:"HBMTopic"`
	HBMCharacteristics stringList `json:"HBMCharacteristics"`
	HBMSector          stringList `json:"HBMSector"`
	Municipality       string     `json:"Municipality"`
	Latitude           coord      `json:"Latitude"`
	Longitude          coord      `json:"Longitude"`
	Street             string     `json:"Street"`
	Zip                string     `json:"Zip"`
	City               string     `json:"City"`
	Description        string     `json:"Description"`
	Logo               string     `json:"Logo"`
	ProjectImage       string     `json:"ProjectImage"`
}

// DecodeEntries parses the opportunities feed into normalized entries.
// Records without a name are dropped and logged by the caller via the
// returned skip count.
func DecodeEntries(b []byte) ([]*Entry, int, error) {
	var raw []rawEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, 0, fmt.Errorf("parse opportunities: %w", err)
	}

	entries := make([]*Entry, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			skipped++
			continue
		}

		kind := Kind(strings.TrimSpace(r.HBMType))
		if kind != KindProject && kind != KindCompany {
			// Unknown types default to project rather than dropping the record
			kind = KindProject
		}

		e := &Entry{
			Name: name,
			Kind: kind,
			Facets: map[string][]string{
				"ProjectType":        r.ProjectType,
				"OrganizationType":   r.OrganizationType,
				"OrganizationField":  r.OrganizationField,
				"HBMTopic":           r.HBMTopic,
				"HBMCharacteristics": r.HBMCharacteristics,
				"HBMSector":          r.HBMSector,
			},
			Municipality: strings.TrimSpace(r.Municipality),
			Street:       r.Street,
			Zip:          r.Zip,
			City:         r.City,
			Description:  r.Description,
			ImageURL:     r.ProjectImage,
			LogoURL:      r.Logo,
		}

		loc := LatLng{Lat: float64(r.Latitude), Lng: float64(r.Longitude)}
		if loc.Valid() {
			e.Location = &loc
		}

		entries = append(entries, e)
	}
	return entries, skipped, nil
}

// rawMunicipalities mirrors municipalities.json
type rawMunicipalities struct {
	Municipalities []struct {
		Name          string     `json:"name"`
		Country       string     `json:"country"`
		Code          string     `json:"code"`
		Population    int        `json:"population"`
		Area          float64    `json:"area"`
		LargestPlaces stringList `json:"largest_places"`
	} `json:"municipalities"`
}

// DecodeMunicipalities parses the municipalities feed
func DecodeMunicipalities(b []byte) ([]*Municipality, error) {
	var raw rawMunicipalities
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse municipalities: %w", err)
	}
	out := make([]*Municipality, 0, len(raw.Municipalities))
	for _, m := range raw.Municipalities {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		out = append(out, &Municipality{
			Name:          name,
			Country:       m.Country,
			Code:          m.Code,
			Population:    m.Population,
			Area:          m.Area,
			LargestPlaces: m.LargestPlaces,
		})
	}
	return out, nil
}
