package kaart

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kansenkaart/data"
	"kansenkaart/directory"
	"kansenkaart/filter"
	"kansenkaart/preset"
)

func setupKaart(t *testing.T) {
	t.Helper()
	data.SetDir(t.TempDir())
	t.Cleanup(func() { data.SetDir("") })
}

func defaultDataset() []*directory.Entry {
	entries := []*directory.Entry{}
	for _, name := range []string{"P1", "P2", "P3", "P4", "P5", "P6"} {
		entries = append(entries, &directory.Entry{
			Name: name, Kind: directory.KindProject,
			Location: &directory.LatLng{Lat: 52.2, Lng: 6.9},
		})
	}
	for _, name := range []string{"B1", "B2", "B3", "B4"} {
		entries = append(entries, &directory.Entry{
			Name: name, Kind: directory.KindCompany,
			Location: &directory.LatLng{Lat: 52.3, Lng: 7.0},
		})
	}
	return entries
}

func TestHandlerDefaultLoad(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, map[string][]string{
		"HBMSector": {"X", "Y"},
	}, []string{"HBMSector"}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "10 resultaten") {
		t.Error("expected '10 resultaten' in page")
	}
	if !strings.Contains(body, "Projecten (6)") {
		t.Error("expected project count (6)")
	}
	if !strings.Contains(body, "Bedrijven (4)") {
		t.Error("expected company count (4)")
	}
}

func TestHandlerEmptyGroupPlaceholder(t *testing.T) {
	setupKaart(t)
	// Dataset without any companies
	ds := []*directory.Entry{
		{Name: "P1", Kind: directory.KindProject},
	}
	directory.SetDataset(ds, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/?types=Bedrijf", nil)
	rec := httptest.NewRecorder()
	Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "0 resultaten") {
		t.Error("expected '0 resultaten'")
	}
	if !strings.Contains(body, "Geen resultaten gevonden") {
		t.Error("expected the empty-state placeholder, not a blank list")
	}
}

func TestHandlerCheckboxesReflectState(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, map[string][]string{
		"HBMSector": {"Woningbouw", "Utiliteitsbouw"},
	}, []string{"HBMSector"}, nil)

	req := httptest.NewRequest("GET", "/?hbmsector=Woningbouw", nil)
	rec := httptest.NewRecorder()
	Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `value="Woningbouw" checked`) {
		t.Error("selected facet checkbox not rendered checked")
	}
	if strings.Contains(body, `value="Utiliteitsbouw" checked`) {
		t.Error("unselected facet checkbox rendered checked")
	}
}

func TestHandlerJSON(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/?types=Project", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `"count":6`) {
		t.Errorf("expected count 6 in JSON, got: %.200s", body)
	}
}

func TestBuildMarkersSkipsUnlocated(t *testing.T) {
	results := []*directory.Entry{
		{Name: "Met", Kind: directory.KindProject, Location: &directory.LatLng{Lat: 52, Lng: 6}},
		{Name: "Zonder", Kind: directory.KindProject},
		{Name: "Nul", Kind: directory.KindProject, Location: &directory.LatLng{Lat: 0, Lng: 0}},
	}

	markers := buildMarkers(results, filter.State{})
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].Name != "Met" {
		t.Errorf("marker = %q", markers[0].Name)
	}
	// Index refers to the full filtered sequence
	if markers[0].Index != 0 {
		t.Errorf("index = %d", markers[0].Index)
	}
}

func TestMarkerIndexMatchesFilteredSequence(t *testing.T) {
	results := []*directory.Entry{
		{Name: "Zonder", Kind: directory.KindProject},
		{Name: "Met", Kind: directory.KindProject, Location: &directory.LatLng{Lat: 52, Lng: 6}},
	}

	markers := buildMarkers(results, filter.State{})
	if len(markers) != 1 || markers[0].Index != 1 {
		t.Fatalf("marker index must follow the filtered ordering, got %+v", markers)
	}
}

func TestEntryHandlerNavigation(t *testing.T) {
	setupKaart(t)
	ds := []*directory.Entry{
		{Name: "Eerste", Kind: directory.KindProject},
		{Name: "Tweede", Kind: directory.KindProject},
		{Name: "Derde", Kind: directory.KindProject},
	}
	directory.SetDataset(ds, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/entry?name=Tweede", nil)
	rec := httptest.NewRecorder()
	EntryHandler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "2 van 3") {
		t.Error("expected position indicator '2 van 3'")
	}
	if !strings.Contains(body, "Eerste") || !strings.Contains(body, "Derde") {
		t.Error("expected prev/next links to neighbours")
	}
}

func TestEntryHandlerBoundaries(t *testing.T) {
	setupKaart(t)
	ds := []*directory.Entry{
		{Name: "Enige", Kind: directory.KindProject},
	}
	directory.SetDataset(ds, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/entry?name=Enige", nil)
	rec := httptest.NewRecorder()
	EntryHandler(rec, req)

	body := rec.Body.String()
	// Both ends: navigation renders disabled, not missing
	if strings.Count(body, `class="disabled"`) != 2 {
		t.Errorf("expected disabled prev and next at the boundaries")
	}
}

func TestEntryHandlerRespectsFilters(t *testing.T) {
	setupKaart(t)
	ds := []*directory.Entry{
		{Name: "A", Kind: directory.KindProject, Facets: map[string][]string{"HBMSector": {"X"}}},
		{Name: "B", Kind: directory.KindProject, Facets: map[string][]string{"HBMSector": {"Y"}}},
		{Name: "C", Kind: directory.KindProject, Facets: map[string][]string{"HBMSector": {"X"}}},
	}
	directory.SetDataset(ds, nil, nil, nil, nil)

	// Within the X-filtered sequence, A's next neighbour is C, not B
	req := httptest.NewRequest("GET", "/entry?name=A&hbmsector=X", nil)
	rec := httptest.NewRecorder()
	EntryHandler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "1 van 2") {
		t.Error("expected filtered sequence of length 2")
	}
	if !strings.Contains(body, "name=C") {
		t.Error("next link must point at C within the filtered ordering")
	}
}

func TestHandlerRadiusOptionPreserved(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, nil, nil, nil)

	// A deep-linked radius outside the preset steps stays selectable
	req := httptest.NewRequest("GET", "/?lat=52.2&lng=6.9&radius=15", nil)
	rec := httptest.NewRecorder()
	Handler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `<option value="15" selected>15 km</option>`) {
		t.Error("non-preset radius dropped from the radius select")
	}
}

func TestHandlerRestoreBannerSurvivesRadiusParam(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, nil, nil, nil)

	preset.Touch("v-banner", filter.State{Search: "hout"})

	// The radius select always submits a value; a bare radius must not
	// count as a filter and suppress the restore banner.
	req := httptest.NewRequest("GET", "/?radius=5", nil)
	req.AddCookie(&http.Cookie{Name: "visitor", Value: "v-banner"})
	rec := httptest.NewRecorder()
	Handler(rec, req)

	if !strings.Contains(rec.Body.String(), "Vorige filters terugzetten") {
		t.Error("restore banner missing for a filterless form submit")
	}
}

func TestEntryHandlerNearby(t *testing.T) {
	setupKaart(t)
	ds := []*directory.Entry{
		{Name: "Centrum", Kind: directory.KindProject, Location: &directory.LatLng{Lat: 52.22, Lng: 6.89}},
		{Name: "Buurman", Kind: directory.KindCompany, Location: &directory.LatLng{Lat: 52.23, Lng: 6.9}},
		{Name: "Verweggistan", Kind: directory.KindProject, Location: &directory.LatLng{Lat: 53.5, Lng: 9.9}},
	}
	directory.SetDataset(ds, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/entry?name=Centrum", nil)
	rec := httptest.NewRecorder()
	EntryHandler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "In de buurt") {
		t.Fatal("expected nearby block on a located detail page")
	}
	if !strings.Contains(body, "Buurman") {
		t.Error("entry within range missing from the nearby block")
	}
	if strings.Contains(body, "Verweggistan") {
		t.Error("entry outside the nearby radius listed")
	}
}

func TestEntryHandlerUnknownName(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(nil, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/entry?name=Bestaat+niet", nil)
	rec := httptest.NewRecorder()
	EntryHandler(rec, req)

	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListHandlerCounts(t *testing.T) {
	setupKaart(t)
	directory.SetDataset(defaultDataset(), nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/lijst", nil)
	rec := httptest.NewRecorder()
	ListHandler(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Projecten (6)") || !strings.Contains(body, "Bedrijven (4)") {
		t.Error("expected both group counts on the list page")
	}
}
