package kaart

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"kansenkaart/data"
	"kansenkaart/directory"
)

func writeGeoJSON(t *testing.T, key, content string) {
	t.Helper()
	file := filepath.Join(data.Dir(), key)
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setupBoundaries(t *testing.T) {
	t.Helper()
	data.SetDir(t.TempDir())
	resetBoundaryCache()
	t.Cleanup(func() {
		resetBoundaryCache()
		data.SetDir("")
	})
}

func fetchBoundaries(t *testing.T) FeatureCollection {
	t.Helper()
	req := httptest.NewRequest("GET", "/gemeenten.geojson", nil)
	rec := httptest.NewRecorder()
	BoundaryHandler(rec, req)

	var fc FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("response not valid GeoJSON: %v", err)
	}
	return fc
}

const testGeometry = `{"type": "Polygon", "coordinates": [[[6.8,52.2],[6.9,52.2],[6.9,52.3],[6.8,52.3],[6.8,52.2]]]}`

func TestBoundaryMerge(t *testing.T) {
	setupBoundaries(t)
	directory.SetDataset(nil, nil, nil, nil, map[string]bool{
		"Enschede": true,
		"Gronau":   true,
	})

	writeGeoJSON(t, "geojson/nl-gemeenten.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"name": "Enschede"}, "geometry": `+testGeometry+`},
			{"type": "Feature", "properties": {"name": "Verborgen"}, "geometry": `+testGeometry+`}
		]
	}`)
	writeGeoJSON(t, "geojson/de-gemeenten.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"NAME_4": "Gronau", "NAME_1": "Nordrhein-Westfalen"}, "geometry": `+testGeometry+`},
			{"type": "Feature", "properties": {"wrong_key": "Naamloos"}, "geometry": `+testGeometry+`}
		]
	}`)

	fc := fetchBoundaries(t)
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features (hidden + unnamed skipped), got %d", len(fc.Features))
	}

	byName := map[string]Feature{}
	for _, f := range fc.Features {
		name, _ := f.Properties["name"].(string)
		byName[name] = f
	}
	if f, ok := byName["Enschede"]; !ok || f.Properties["country"] != "NL" {
		t.Errorf("Enschede feature wrong: %+v", byName["Enschede"].Properties)
	}
	if f, ok := byName["Gronau"]; !ok || f.Properties["country"] != "DE" || f.Properties["region"] != "Nordrhein-Westfalen" {
		t.Errorf("Gronau feature wrong: %+v", byName["Gronau"].Properties)
	}
}

func TestBoundaryVisibleCollectionPreferred(t *testing.T) {
	setupBoundaries(t)
	directory.SetDataset(nil, nil, nil, nil, nil) // no visibility map: everything visible

	writeGeoJSON(t, "geojson/visible-municipalities.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"name": "Losser"}, "geometry": `+testGeometry+`}
		]
	}`)

	fc := fetchBoundaries(t)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["name"] != "Losser" {
		t.Errorf("feature = %+v", fc.Features[0].Properties)
	}
}

func TestBoundaryFallbackOutlines(t *testing.T) {
	setupBoundaries(t)
	directory.SetDataset(nil, nil, nil, nil, nil)

	// No geojson sources on disk at all
	fc := fetchBoundaries(t)
	if len(fc.Features) == 0 {
		t.Fatal("expected fallback outlines, got empty collection")
	}
	name, _ := fc.Features[0].Properties["name"].(string)
	if name == "" {
		t.Error("fallback features must carry names")
	}
}

func TestBoundaryMalformedSource(t *testing.T) {
	setupBoundaries(t)
	directory.SetDataset(nil, nil, nil, nil, nil)

	writeGeoJSON(t, "geojson/nl-gemeenten.geojson", `{{{ not geojson`)

	// Malformed source is treated as fetch failure: fallback served
	fc := fetchBoundaries(t)
	if len(fc.Features) == 0 {
		t.Fatal("expected fallback outlines for malformed source")
	}
}

func TestBoundaryCachedAfterFirstBuild(t *testing.T) {
	setupBoundaries(t)
	directory.SetDataset(nil, nil, nil, nil, nil)

	writeGeoJSON(t, "geojson/nl-gemeenten.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"name": "Enschede"}, "geometry": `+testGeometry+`}
		]
	}`)

	first := fetchBoundaries(t)

	// Removing the source after the first build must not change responses
	os.Remove(filepath.Join(data.Dir(), "geojson/nl-gemeenten.geojson"))
	second := fetchBoundaries(t)

	if len(first.Features) != len(second.Features) {
		t.Error("boundary layer not cached for the session")
	}
}
