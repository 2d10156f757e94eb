package kaart

import (
	"fmt"
	"net/http"
	"strings"

	"kansenkaart/app"
	"kansenkaart/directory"
	"kansenkaart/filter"
)

// ListHandler serves /lijst: the filtered subset as a standalone tabbed
// list, driven by the same URL state and engine as the map.
func ListHandler(w http.ResponseWriter, r *http.Request) {
	state := filter.ParseURL(r.URL.Query())
	results := filter.Apply(directory.Entries(), state)
	projects, companies := filter.CountByKind(results)

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{
			"results":   results,
			"count":     len(results),
			"projects":  projects,
			"companies": companies,
		})
		return
	}

	var sb strings.Builder
	sb.WriteString(`<div class="lijst-page">`)
	sb.WriteString(fmt.Sprintf(`<p class="text-muted"><a href="/%s">&larr; Terug naar de kaart</a></p>`, state.QueryString()))
	sb.WriteString(fmt.Sprintf(`<p id="results-count" class="text-muted">%d resultaten</p>`, len(results)))
	sb.WriteString(renderGroupedLists(results, state, projects, companies))
	sb.WriteString(`</div>`)

	app.Respond(w, r, app.Response{
		Title:       "Lijst",
		Description: "Gefilterde projecten en bedrijven",
		HTML:        sb.String(),
	})
}

// EntryHandler serves /entry: the detail panel for one entry, with
// prev/next navigation over the currently filtered ordering. The filter
// parameters travel along in the URL so the sequence here is exactly the
// sequence behind the markers and the list.
func EntryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		app.BadRequest(w, r, "Geen naam opgegeven.")
		return
	}

	state := filter.ParseURL(q)
	results := filter.Apply(directory.Entries(), state)

	index := -1
	for i, e := range results {
		if e.Name == name {
			index = i
			break
		}
	}

	if index == -1 {
		// Entry exists but falls outside the current filters: show it
		// without navigation rather than a hard 404.
		if e := directory.Get(name); e != nil {
			app.Respond(w, r, app.Response{
				Title:       e.Name,
				Description: e.Description,
				HTML:        renderDetail(e, state, -1, nil),
			})
			return
		}
		http.NotFound(w, r)
		return
	}

	e := results[index]

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{
			"entry": e,
			"index": index,
			"total": len(results),
		})
		return
	}

	app.Respond(w, r, app.Response{
		Title:       e.Name,
		Description: e.Description,
		HTML:        renderDetail(e, state, index, results),
	})
}

const (
	// nearbyRadiusKm bounds the spatial index query behind the detail page
	nearbyRadiusKm = 10
	nearbyLimit    = 5
)

// renderNearby lists the closest other entries around this one, pulled
// from the spatial index. Empty when nothing else is within range.
func renderNearby(e *directory.Entry, state filter.State) string {
	var items []string
	for _, n := range directory.Nearby(e.Location.Lat, e.Location.Lng, nearbyRadiusKm) {
		if n.Entry.Name == e.Name {
			continue
		}
		items = append(items, fmt.Sprintf(
			`<li><a href="/entry%s">%s</a> <span class="text-muted">%.1f km</span></li>`,
			detailQuery(n.Entry.Name, state), escapeHTML(n.Entry.Name), n.DistanceKm,
		))
		if len(items) == nearbyLimit {
			break
		}
	}
	if len(items) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div class="card nearby"><h3>In de buurt</h3><ul>`)
	for _, item := range items {
		sb.WriteString(item)
	}
	sb.WriteString(`</ul></div>`)
	return sb.String()
}

// renderDetail renders the detail panel. index -1 means the entry is not
// part of the current filtered sequence; navigation is omitted then.
func renderDetail(e *directory.Entry, state filter.State, index int, results []*directory.Entry) string {
	total := len(results)
	var sb strings.Builder
	sb.WriteString(`<div class="detail-page">`)
	sb.WriteString(fmt.Sprintf(`<p class="text-muted"><a href="/%s">&larr; Terug naar de kaart</a></p>`, state.QueryString()))

	if index >= 0 {
		sb.WriteString(`<div class="detail-nav">`)
		if index > 0 {
			prev := results[index-1]
			sb.WriteString(fmt.Sprintf(`<a href="/entry%s">&larr; Vorige</a>`, detailQuery(prev.Name, state)))
		} else {
			sb.WriteString(`<span class="disabled">&larr; Vorige</span>`)
		}
		sb.WriteString(fmt.Sprintf(` <span class="text-muted">%d van %d</span> `, index+1, total))
		if index < total-1 {
			next := results[index+1]
			sb.WriteString(fmt.Sprintf(`<a href="/entry%s">Volgende &rarr;</a>`, detailQuery(next.Name, state)))
		} else {
			sb.WriteString(`<span class="disabled">Volgende &rarr;</span>`)
		}
		sb.WriteString(`</div>`)
	}

	kindLabel := "Project"
	if e.Kind == directory.KindCompany {
		kindLabel = "Bedrijf"
	}

	sb.WriteString(`<div class="card detail-card">`)
	if e.LogoURL != "" {
		sb.WriteString(fmt.Sprintf(`<img class="detail-logo" src="%s" alt="">`, escapeHTML(e.LogoURL)))
	}
	sb.WriteString(fmt.Sprintf(`<h2>%s</h2>`, escapeHTML(e.Name)))
	sb.WriteString(fmt.Sprintf(`<p class="text-muted">%s`, kindLabel))
	if e.Municipality != "" {
		sb.WriteString(` &middot; ` + escapeHTML(e.Municipality))
	}
	sb.WriteString(`</p>`)

	if e.ImageURL != "" {
		sb.WriteString(fmt.Sprintf(`<img class="detail-image" src="%s" alt="">`, escapeHTML(e.ImageURL)))
	}
	if e.Description != "" {
		sb.WriteString(fmt.Sprintf(`<p>%s</p>`, escapeHTML(e.Description)))
	}

	for _, facet := range directory.FacetNames {
		tags := e.Facet(facet)
		if len(tags) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<p><b>%s:</b> %s</p>`,
			escapeHTML(facetLabel(facet)), escapeHTML(strings.Join(tags, ", "))))
	}

	if addr := e.FullAddress(); addr != "" {
		sb.WriteString(fmt.Sprintf(`<p class="text-muted">%s</p>`, escapeHTML(addr)))
	}
	sb.WriteString(`</div>`)

	// A small centered map when the entry has coordinates
	if e.HasLocation() {
		sb.WriteString(renderNearby(e, state))
		sb.WriteString(`<div id="detail-map"></div>`)
		sb.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV/XN/WPeE=" crossorigin=""></script>
<script>
(function() {
  var map = L.map('detail-map').setView([%f, %f], 13);
  L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
    maxZoom: 19,
    attribution: '&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>'
  }).addTo(map);
  L.marker([%f, %f]).addTo(map).bindPopup(%s).openPopup();
})();
</script>`,
			e.Location.Lat, e.Location.Lng, e.Location.Lat, e.Location.Lng, jsonStr(escapeHTML(e.Name))))
	}

	sb.WriteString(`</div>`)
	return sb.String()
}
