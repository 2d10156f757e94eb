// Package kaart serves the kansenkaart: the interactive map of building
// projects and companies in the Dutch-German border region, the list and
// detail views, CSV export, presets and the municipality boundary layer.
package kaart

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"kansenkaart/app"
	"kansenkaart/directory"
	"kansenkaart/filter"
	"kansenkaart/preset"
)

// visitorID returns the visitor cookie value, minting one if absent.
// Presets and last-used filters are keyed on it.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("visitor"); err == nil && c.Value != "" {
		return c.Value
	}
	id := preset.NewVisitorID()
	http.SetCookie(w, &http.Cookie{
		Name:     "visitor",
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
	})
	return id
}

// Handler serves the map page (and the filtered JSON API)
func Handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	visitor := visitorID(w, r)
	q := r.URL.Query()
	state := filter.ParseURL(q)

	results := filter.Apply(directory.Entries(), state)
	projects, companies := filter.CountByKind(results)

	// Remember non-default states so a returning visitor can pick up
	// where they left off.
	if !state.IsZero() {
		preset.Touch(visitor, state)
	}

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{
			"results":   results,
			"count":     len(results),
			"projects":  projects,
			"companies": companies,
		})
		return
	}

	// Offer the last-used filter back when the URL itself carries none
	restoreBanner := ""
	if !filter.HasURLParams(q) {
		if last, ok := preset.Recall(visitor); ok && !last.IsZero() {
			restoreBanner = fmt.Sprintf(
				`<div class="card banner">Verder waar je gebleven was? <a href="/%s">Vorige filters terugzetten</a></div>`,
				last.QueryString(),
			)
		}
	}

	var sb strings.Builder
	sb.WriteString(`<div class="kaart-page">`)
	sb.WriteString(restoreBanner)
	sb.WriteString(`<div class="kaart-layout">`)

	sb.WriteString(`<div class="kaart-sidebar">`)
	sb.WriteString(renderFilterForm(state))
	sb.WriteString(renderPresetPanel(visitor, state))
	sb.WriteString(`</div>`)

	sb.WriteString(`<div class="kaart-main">`)
	sb.WriteString(fmt.Sprintf(`<p id="results-count" class="text-muted">%d resultaten</p>`, len(results)))
	sb.WriteString(fmt.Sprintf(`<p class="kaart-actions"><a href="/export%s">Exporteer CSV</a> &middot; <a href="/">Toon alles</a></p>`,
		state.QueryString()))
	sb.WriteString(`<div id="kaart-map"></div>`)
	sb.WriteString(renderMapScript(results, state))
	sb.WriteString(renderGroupedLists(results, state, projects, companies))
	sb.WriteString(`</div>`)

	sb.WriteString(`</div></div>`)

	app.Respond(w, r, app.Response{
		Title:       "Kansenkaart",
		Description: "Kansenkaart van bouwprojecten en bedrijven in de grensregio",
		HTML:        sb.String(),
	})
}

// renderFilterForm renders the sidebar: all filter controls as a single
// GET form. The checkboxes are views over the parsed state; submitting
// rebuilds the URL, which is the canonical state.
func renderFilterForm(state filter.State) string {
	taxonomy, order := directory.Taxonomy()

	var sb strings.Builder
	sb.WriteString(`<form class="filter-form" action="/" method="GET">`)

	sb.WriteString(`<input type="text" name="search" placeholder="Zoeken..." value="` + escapeHTML(state.Search) + `">`)

	sb.WriteString(`<fieldset><legend>Type</legend>`)
	for _, kind := range []struct {
		Value directory.Kind
		Label string
	}{
		{directory.KindProject, "Projecten"},
		{directory.KindCompany, "Bedrijven"},
	} {
		checked := ""
		for _, k := range state.Kinds {
			if k == kind.Value {
				checked = " checked"
			}
		}
		sb.WriteString(fmt.Sprintf(
			`<label><input type="checkbox" name="types" value="%s"%s> %s</label>`,
			kind.Value, checked, kind.Label,
		))
	}
	sb.WriteString(`</fieldset>`)

	for _, name := range order {
		tags := taxonomy[name]
		if len(tags) == 0 {
			continue
		}
		param := strings.ToLower(name)
		sb.WriteString(fmt.Sprintf(`<fieldset><legend>%s</legend>`, escapeHTML(facetLabel(name))))
		selected := state.Facets[name]
		for _, tag := range tags {
			checked := ""
			for _, sel := range selected {
				if sel == tag {
					checked = " checked"
				}
			}
			sb.WriteString(fmt.Sprintf(
				`<label><input type="checkbox" name="%s" value="%s"%s> %s</label>`,
				param, escapeHTML(tag), checked, escapeHTML(tag),
			))
		}
		sb.WriteString(`</fieldset>`)
	}

	muns := directory.Municipalities()
	if len(muns) > 0 {
		sb.WriteString(`<fieldset><legend>Gemeente</legend>`)
		for _, m := range muns {
			checked := ""
			for _, sel := range state.Municipalities {
				if sel == m.Name {
					checked = " checked"
				}
			}
			sb.WriteString(fmt.Sprintf(
				`<label><input type="checkbox" name="municipality" value="%s"%s> %s <span class="text-muted">%s</span></label>`,
				escapeHTML(m.Name), checked, escapeHTML(m.Name), escapeHTML(m.Country),
			))
		}
		sb.WriteString(`</fieldset>`)
	}

	sb.WriteString(`<fieldset><legend>Afstand</legend>`)
	lat, lng := "", ""
	if state.Location != nil {
		lat = fmt.Sprintf("%v", state.Location.Lat)
		lng = fmt.Sprintf("%v", state.Location.Lng)
	}
	sb.WriteString(`<input type="hidden" name="lat" id="filter-lat" value="` + lat + `">`)
	sb.WriteString(`<input type="hidden" name="lng" id="filter-lng" value="` + lng + `">`)
	sb.WriteString(`<select name="radius">`)
	radii := []float64{5, 10, 25, 50, 100}
	if state.RadiusKm > 0 && !containsFloat(radii, state.RadiusKm) {
		// Keep a deep-linked radius selectable instead of dropping it
		radii = append(radii, state.RadiusKm)
		sort.Float64s(radii)
	}
	for _, km := range radii {
		sel := ""
		if state.RadiusKm == km {
			sel = " selected"
		}
		sb.WriteString(fmt.Sprintf(`<option value="%v"%s>%v km</option>`, km, sel, km))
	}
	sb.WriteString(`</select>`)
	sb.WriteString(`<button type="button" onclick="useMyLocation()" class="btn-secondary">Gebruik mijn locatie</button>`)
	sb.WriteString(`</fieldset>`)

	sb.WriteString(`<button type="submit">Filteren</button>`)
	sb.WriteString(`</form>`)
	return sb.String()
}

func containsFloat(list []float64, v float64) bool {
	for _, f := range list {
		if f == v {
			return true
		}
	}
	return false
}

// facetLabel maps facet names to their Dutch display labels
func facetLabel(name string) string {
	switch name {
	case "ProjectType":
		return "Type project"
	case "OrganizationType":
		return "Organisatietype"
	case "OrganizationField":
		return "Vakgebied"
	case "HBMTopic":
		return "Thema"
	case "HBMCharacteristics":
		return "Kenmerken"
	case "HBMSector":
		return "Sector"
	}
	return name
}
