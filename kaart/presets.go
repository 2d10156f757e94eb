package kaart

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"kansenkaart/app"
	"kansenkaart/filter"
	"kansenkaart/preset"
)

// PresetHandler routes /presets requests: listing, saving, loading and
// deleting named filter presets for the current visitor.
func PresetHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/presets":
		handlePresetList(w, r)
	case "/presets/save":
		handlePresetSave(w, r)
	case "/presets/load":
		handlePresetLoad(w, r)
	case "/presets/delete":
		handlePresetDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func handlePresetList(w http.ResponseWriter, r *http.Request) {
	visitor := visitorID(w, r)
	app.RespondJSON(w, map[string]interface{}{
		"presets": preset.List(visitor),
	})
}

// handlePresetSave saves the submitted filter state under a name. The
// state travels in the form's query parameters, exactly as it appears in
// the URL.
func handlePresetSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	visitor := visitorID(w, r)
	r.ParseForm()

	name := strings.TrimSpace(r.Form.Get("preset_name"))
	if name == "" {
		app.BadRequest(w, r, "Geef een naam op voor het filter.")
		return
	}

	state := filter.ParseURL(r.Form)
	saved, err := preset.Save(visitor, name, state)
	if err != nil {
		app.ServerError(w, r, "Filter opslaan mislukt. Probeer het opnieuw of ververs de pagina.")
		return
	}
	app.Log("kaart", "preset %q saved for visitor %.8s", saved.Name, visitor)

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{"preset": saved})
		return
	}
	http.Redirect(w, r, "/"+state.QueryString(), http.StatusSeeOther)
}

// handlePresetLoad redirects to the map with the named preset's state in
// the URL, which re-applies it everywhere at once.
func handlePresetLoad(w http.ResponseWriter, r *http.Request) {
	visitor := visitorID(w, r)
	name := r.URL.Query().Get("name")

	p, ok := preset.Get(visitor, name)
	if !ok {
		app.BadRequest(w, r, "Onbekend filter: "+name)
		return
	}

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{"preset": p})
		return
	}
	http.Redirect(w, r, "/"+p.State.QueryString(), http.StatusSeeOther)
}

func handlePresetDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	visitor := visitorID(w, r)
	r.ParseForm()

	name := r.Form.Get("name")
	if name != "" {
		if err := preset.Delete(visitor, name); err != nil {
			app.ServerError(w, r, "Filter verwijderen mislukt. Probeer het opnieuw.")
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderPresetPanel renders the sidebar preset controls: save the current
// state under a name, and load or delete existing presets.
func renderPresetPanel(visitor string, state filter.State) string {
	var sb strings.Builder
	sb.WriteString(`<div class="preset-panel card"><h4>Opgeslagen filters</h4>`)

	sb.WriteString(`<form action="/presets/save" method="POST" class="preset-save">`)
	for key, vals := range state.EncodeURL() {
		for _, v := range vals {
			sb.WriteString(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`, key, escapeHTML(v)))
		}
	}
	sb.WriteString(`<input type="text" name="preset_name" placeholder="Naam" required>`)
	sb.WriteString(`<button type="submit">Opslaan</button>`)
	sb.WriteString(`</form>`)

	saved := preset.List(visitor)
	if len(saved) == 0 {
		sb.WriteString(`<p class="text-muted">Nog geen opgeslagen filters.</p>`)
	} else {
		sb.WriteString(`<ul class="preset-list">`)
		for _, p := range saved {
			sb.WriteString(fmt.Sprintf(
				`<li><a href="/presets/load?name=%s">%s</a>`+
					`<form action="/presets/delete" method="POST" class="inline">`+
					`<input type="hidden" name="name" value="%s">`+
					`<button type="submit" title="Verwijderen">&times;</button></form></li>`,
				url.QueryEscape(p.Name), escapeHTML(p.Name), escapeHTML(p.Name),
			))
		}
		sb.WriteString(`</ul>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}
