package kaart

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kansenkaart/app"
	"kansenkaart/directory"
	"kansenkaart/filter"
)

// csvHeader is the fixed export column set
var csvHeader = []string{
	"Naam", "Type Project", "Organisatietype", "Vakgebied", "Thema",
	"Kenmerken", "Sector", "Type", "Beschrijving", "Stad", "Gemeente",
	"Land", "Latitude", "Longitude",
}

// ExportHandler serves /export: the currently filtered subset as CSV
func ExportHandler(w http.ResponseWriter, r *http.Request) {
	state := filter.ParseURL(r.URL.Query())
	results := filter.Apply(directory.Entries(), state)

	filename := fmt.Sprintf("kansenkaart-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	w.Write([]byte(ExportCSV(results)))
	app.Log("kaart", "exported %d entries", len(results))
}

// ExportCSV renders the entries as CSV. Every field is double-quoted and
// multi-value facets are joined with "; ".
func ExportCSV(results []*directory.Entry) string {
	countryByMunicipality := map[string]string{}
	for _, m := range directory.Municipalities() {
		countryByMunicipality[m.Name] = m.Country
	}

	var sb strings.Builder
	writeRow(&sb, csvHeader)

	for _, e := range results {
		lat, lng := "", ""
		if e.HasLocation() {
			lat = strconv.FormatFloat(e.Location.Lat, 'f', -1, 64)
			lng = strconv.FormatFloat(e.Location.Lng, 'f', -1, 64)
		}
		writeRow(&sb, []string{
			e.Name,
			strings.Join(e.Facet("ProjectType"), "; "),
			strings.Join(e.Facet("OrganizationType"), "; "),
			strings.Join(e.Facet("OrganizationField"), "; "),
			strings.Join(e.Facet("HBMTopic"), "; "),
			strings.Join(e.Facet("HBMCharacteristics"), "; "),
			strings.Join(e.Facet("HBMSector"), "; "),
			string(e.Kind),
			e.Description,
			e.City,
			e.Municipality,
			countryByMunicipality[e.Municipality],
			lat,
			lng,
		})
	}
	return sb.String()
}

// writeRow appends one CSV line with all fields quoted. encoding/csv only
// quotes when needed; the export format requires quoting throughout.
func writeRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
}
