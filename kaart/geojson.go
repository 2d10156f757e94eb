package kaart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"kansenkaart/app"
	"kansenkaart/data"
	"kansenkaart/directory"
)

// FeatureCollection is a GeoJSON feature collection. Geometry is carried
// as raw JSON: the boundaries are passed through to Leaflet, not operated
// on.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

var (
	boundaryMu     sync.Mutex
	boundaryCache  []byte
	boundaryLoaded bool
)

// BoundaryHandler serves /gemeenten.geojson: the municipality boundaries
// filtered to visible municipalities. The collection is built lazily on
// the first request and cached for the life of the process; when no
// boundary source is available a minimal set of region outlines is served
// instead of an empty layer.
func BoundaryHandler(w http.ResponseWriter, r *http.Request) {
	boundaryMu.Lock()
	if !boundaryLoaded {
		boundaryCache = buildBoundaries()
		boundaryLoaded = true
	}
	b := boundaryCache
	boundaryMu.Unlock()

	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(b)
}

// buildBoundaries merges the Dutch and German boundary collections,
// keeping only visible municipalities with a resolvable name.
func buildBoundaries() []byte {
	merged := FeatureCollection{Type: "FeatureCollection"}

	// A pre-merged visible set takes precedence when present
	if b, err := data.Load("geojson/visible-municipalities.geojson"); err == nil {
		var fc FeatureCollection
		if err := json.Unmarshal(b, &fc); err != nil {
			app.Log("kaart", "visible-municipalities unreadable: %v (raw: %.200s)", err, string(b))
		} else {
			merged.Features = append(merged.Features, filterFeatures(fc.Features, "name", "")...)
		}
	}

	if len(merged.Features) == 0 {
		if fc, err := loadCollection("geojson/nl-gemeenten.geojson"); err == nil {
			merged.Features = append(merged.Features, filterFeatures(fc.Features, "name", "NL")...)
		} else {
			app.Log("kaart", "nl boundaries unavailable: %v", err)
		}
		if fc, err := loadCollection("geojson/de-gemeenten.geojson"); err == nil {
			merged.Features = append(merged.Features, filterFeatures(fc.Features, "NAME_4", "DE")...)
		} else {
			app.Log("kaart", "de boundaries unavailable: %v", err)
		}
	}

	if len(merged.Features) == 0 {
		app.Log("kaart", "no boundary sources available, serving fallback outlines")
		return []byte(fallbackOutlines)
	}

	b, err := json.Marshal(merged)
	if err != nil {
		app.Log("kaart", "boundary marshal failed: %v", err)
		return []byte(fallbackOutlines)
	}
	app.Log("kaart", "boundary layer built: %d features", len(merged.Features))
	return b
}

func loadCollection(key string) (FeatureCollection, error) {
	var fc FeatureCollection
	b, err := data.Load(key)
	if err != nil {
		return fc, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s (raw: %.200s): %w", key, string(b), err)
	}
	return fc, nil
}

// filterFeatures keeps visible municipalities and normalizes their
// properties to {name, country, region}. Features whose name cannot be
// resolved are skipped and logged, never fatal.
func filterFeatures(features []Feature, nameKey, country string) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		name, _ := f.Properties[nameKey].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			app.Log("kaart", "boundary feature without %s property skipped", nameKey)
			continue
		}
		if !directory.Visible(name) {
			continue
		}
		props := map[string]interface{}{"name": name}
		if country != "" {
			props["country"] = country
		}
		if region, ok := f.Properties["NAME_1"].(string); ok && region != "" {
			props["region"] = region
		}
		out = append(out, Feature{Type: f.Type, Properties: props, Geometry: f.Geometry})
	}
	return out
}

// resetBoundaryCache clears the cached layer. Used by tests.
func resetBoundaryCache() {
	boundaryMu.Lock()
	boundaryCache = nil
	boundaryLoaded = false
	boundaryMu.Unlock()
}

// fallbackOutlines is the degraded-mode boundary layer: rough outlines of
// the Dutch and German halves of the region, served when no boundary
// source can be read.
const fallbackOutlines = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Regio Twente", "country": "NL"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[
          [6.35, 52.05], [7.07, 52.05], [7.07, 52.45], [6.35, 52.45], [6.35, 52.05]
        ]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Münsterland", "country": "DE"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[
          [7.07, 51.85], [8.0, 51.85], [8.0, 52.35], [7.07, 52.35], [7.07, 51.85]
        ]]
      }
    }
  ]
}`
