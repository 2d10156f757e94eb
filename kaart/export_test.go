package kaart

import (
	"net/http/httptest"
	"strings"
	"testing"

	"kansenkaart/directory"
)

func TestExportCSVHeader(t *testing.T) {
	out := ExportCSV(nil)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
	want := `"Naam","Type Project","Organisatietype","Vakgebied","Thema","Kenmerken","Sector","Type","Beschrijving","Stad","Gemeente","Land","Latitude","Longitude"`
	if lines[0] != want {
		t.Errorf("header = %s", lines[0])
	}
}

func TestExportCSVSingleEntry(t *testing.T) {
	directory.SetDataset(nil, []*directory.Municipality{
		{Name: "Enschede", Country: "NL"},
	}, nil, nil, nil)

	entries := []*directory.Entry{
		{
			Name: "Houtbouw Hal",
			Kind: directory.KindProject,
			Facets: map[string][]string{
				"HBMSector":   {"Woningbouw", "Utiliteitsbouw"},
				"ProjectType": {"Nieuwbouw"},
			},
			Municipality: "Enschede",
			City:         "Enschede",
			Description:  "Een hal van hout",
			Location:     &directory.LatLng{Lat: 52.22, Lng: 6.89},
		},
	}

	out := ExportCSV(entries)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	row := lines[1]
	if !strings.HasPrefix(row, `"Houtbouw Hal",`) {
		t.Errorf("Naam field not quoted exactly: %s", row)
	}
	if !strings.Contains(row, `"Woningbouw; Utiliteitsbouw"`) {
		t.Errorf("multi-value facet not joined with '; ': %s", row)
	}
	if !strings.Contains(row, `"NL"`) {
		t.Errorf("country not resolved from municipality: %s", row)
	}
	if !strings.Contains(row, `"52.22"`) || !strings.Contains(row, `"6.89"`) {
		t.Errorf("coordinates missing: %s", row)
	}
}

func TestExportCSVEscapesQuotes(t *testing.T) {
	entries := []*directory.Entry{
		{Name: `Zaal "De Kans"`, Kind: directory.KindCompany},
	}

	out := ExportCSV(entries)
	if !strings.Contains(out, `"Zaal ""De Kans"""`) {
		t.Errorf("quotes not doubled: %s", out)
	}
}

func TestExportCSVUnlocatedEntry(t *testing.T) {
	entries := []*directory.Entry{
		{Name: "Zonder locatie", Kind: directory.KindProject},
	}

	out := ExportCSV(entries)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if !strings.HasSuffix(lines[1], `"",""`) {
		t.Errorf("expected empty coordinate fields: %s", lines[1])
	}
}

func TestExportHandlerFiltered(t *testing.T) {
	directory.SetDataset([]*directory.Entry{
		{Name: "Past", Kind: directory.KindProject, Facets: map[string][]string{"HBMSector": {"X"}}},
		{Name: "Past niet", Kind: directory.KindProject, Facets: map[string][]string{"HBMSector": {"Y"}}},
	}, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/export?hbmsector=X", nil)
	rec := httptest.NewRecorder()
	ExportHandler(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"Past"`) {
		t.Error("filtered entry missing from export")
	}
	if strings.Contains(body, `"Past niet"`) {
		t.Error("excluded entry present in export")
	}
}
