package kaart

import (
	"encoding/json"
	"fmt"
	"strings"

	"kansenkaart/directory"
	"kansenkaart/filter"
)

// clusterZoom is the zoom level above which markers no longer cluster
const clusterZoom = 12

// Default view: the NL/DE border region around Enschede/Münster
const (
	defaultLat  = 52.2
	defaultLng  = 6.9
	defaultZoom = 9
)

// marker is one map marker, carrying enough of its source entry for the
// popup and for prev/next navigation over the filtered ordering.
type marker struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Popup string  `json:"popup"`
	// Index is the entry's position in the full filtered sequence (not
	// just the located subset), shared with the list and detail views.
	Index int `json:"index"`
}

// buildMarkers converts the filtered subset into markers. Only entries
// with usable coordinates become markers; indices still refer to the full
// filtered ordering so popup navigation matches the detail view.
func buildMarkers(results []*directory.Entry, state filter.State) []marker {
	markers := make([]marker, 0, len(results))
	for i, e := range results {
		if !e.HasLocation() {
			continue
		}
		markers = append(markers, marker{
			Name:  e.Name,
			Kind:  string(e.Kind),
			Lat:   e.Location.Lat,
			Lng:   e.Location.Lng,
			Popup: popupHTML(e, state),
			Index: i,
		})
	}
	return markers
}

// popupHTML builds the marker popup: name, kind, municipality and a link
// to the detail page that preserves the current filters.
func popupHTML(e *directory.Entry, state filter.State) string {
	var sb strings.Builder
	sb.WriteString("<b>" + escapeHTML(e.Name) + "</b>")
	label := "Project"
	if e.Kind == directory.KindCompany {
		label = "Bedrijf"
	}
	sb.WriteString("<br><em>" + label)
	if e.Municipality != "" {
		sb.WriteString(" &middot; " + escapeHTML(e.Municipality))
	}
	sb.WriteString("</em>")
	if e.Description != "" {
		desc := e.Description
		if len(desc) > 140 {
			desc = desc[:140] + "..."
		}
		sb.WriteString("<br>" + escapeHTML(desc))
	}
	sb.WriteString(fmt.Sprintf(`<br><a href="/entry%s">Details &rarr;</a>`, detailQuery(e.Name, state)))
	return sb.String()
}

// detailQuery builds the query string for an entry detail link, carrying
// the current filter state so prev/next follow the same ordering.
func detailQuery(name string, state filter.State) string {
	q := state.EncodeURL()
	q.Set("name", name)
	return "?" + q.Encode()
}

// renderMapScript emits the Leaflet initialization for the filtered
// subset: base layers, clustered markers with popup prev/next navigation,
// and the lazily loaded municipality boundary overlay.
func renderMapScript(results []*directory.Entry, state filter.State) string {
	markers := buildMarkers(results, state)
	markersJSON, _ := json.Marshal(markers)

	centerLat, centerLng, zoom := defaultLat, defaultLng, defaultZoom
	if state.Location != nil {
		centerLat, centerLng = state.Location.Lat, state.Location.Lng
		zoom = 11
	}

	var sb strings.Builder
	sb.WriteString(`<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV/XN/WPeE=" crossorigin=""></script>
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css" crossorigin="">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css" crossorigin="">
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js" crossorigin=""></script>
`)

	sb.WriteString("<script>\n")
	sb.WriteString(fmt.Sprintf("var kaartMarkers = %s;\n", markersJSON))
	sb.WriteString(fmt.Sprintf(`(function() {
  var street = L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
    maxZoom: 19,
    attribution: '&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>'
  });
  var satellite = L.tileLayer('https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}', {
    maxZoom: 18,
    attribution: 'Esri'
  });
  var map = L.map('kaart-map', {layers: [street]}).setView([%f, %f], %d);
  L.control.layers({'Kaart': street, 'Satelliet': satellite}).addTo(map);
  window._kaart = map;

  var cluster = L.markerClusterGroup({disableClusteringAtZoom: %d});
  var byIndex = {};
  kaartMarkers.forEach(function(m) {
    var mk = L.marker([m.lat, m.lng], {title: m.name});
    mk.bindTooltip(m.name);
    mk.bindPopup(popupWithNav(m));
    byIndex[m.index] = mk;
    cluster.addLayer(mk);
  });
  map.addLayer(cluster);
  window._kaartByIndex = byIndex;

  // Popup prev/next walk the filtered ordering; at the ends the buttons
  // render disabled instead of wrapping.
  function popupWithNav(m) {
    var pos = kaartMarkers.indexOf(m);
    var prev = pos > 0 ? kaartMarkers[pos-1] : null;
    var next = pos < kaartMarkers.length-1 ? kaartMarkers[pos+1] : null;
    var nav = '<div class="popup-nav">';
    nav += prev
      ? '<button onclick="kaartFocus(' + prev.index + ')">&larr;</button>'
      : '<button disabled>&larr;</button>';
    nav += next
      ? '<button onclick="kaartFocus(' + next.index + ')">&rarr;</button>'
      : '<button disabled>&rarr;</button>';
    nav += '</div>';
    return m.popup + nav;
  }
})();

// kaartFocus recenters on a marker at the current zoom and opens its popup
function kaartFocus(index) {
  var mk = window._kaartByIndex[index];
  if (!mk) { return; }
  var map = window._kaart;
  map.setView(mk.getLatLng(), map.getZoom());
  mk.openPopup();
}

function useMyLocation() {
  if (!navigator.geolocation) {
    alert('Geolocatie wordt niet ondersteund door je browser');
    return;
  }
  navigator.geolocation.getCurrentPosition(function(pos) {
    document.getElementById('filter-lat').value = pos.coords.latitude;
    document.getElementById('filter-lng').value = pos.coords.longitude;
  }, function(err) {
    alert('Locatie ophalen mislukt: ' + err.message);
  });
}
`, centerLat, centerLng, zoom, clusterZoom))

	// Boundary overlay: fetched once on first enable, restyled (not
	// refetched) when the base layer changes.
	sb.WriteString(`
(function() {
  var map = window._kaart;
  var boundaries = null;
  var styles = {
    'Kaart': {color: '#2b6cb0', weight: 1, fillOpacity: 0.05},
    'Satelliet': {color: '#ffffff', weight: 2, fillOpacity: 0.05}
  };
  var baseName = 'Kaart';

  var toggle = L.control({position: 'topright'});
  toggle.onAdd = function() {
    var div = L.DomUtil.create('div', 'leaflet-bar boundary-toggle');
    div.innerHTML = '<a href="#" title="Gemeentegrenzen">G</a>';
    L.DomEvent.on(div, 'click', function(ev) {
      L.DomEvent.stop(ev);
      toggleBoundaries();
    });
    return div;
  };
  toggle.addTo(map);

  function toggleBoundaries() {
    if (boundaries) {
      if (map.hasLayer(boundaries)) { map.removeLayer(boundaries); }
      else { map.addLayer(boundaries); }
      return;
    }
    fetch('/gemeenten.geojson').then(function(r) {
      if (!r.ok) { throw new Error('status ' + r.status); }
      return r.json();
    }).then(function(geo) {
      boundaries = L.geoJSON(geo, {
        style: function() { return styles[baseName]; },
        onEachFeature: function(f, layer) {
          if (f.properties && f.properties.name) {
            layer.bindTooltip(f.properties.name);
          }
        }
      });
      map.addLayer(boundaries);
    }).catch(function(err) {
      alert('Gemeentegrenzen laden mislukt: ' + err + '. Probeer het later opnieuw.');
    });
  }

  map.on('baselayerchange', function(ev) {
    baseName = ev.name;
    if (boundaries) {
      boundaries.setStyle(styles[baseName]);
    }
  });
})();
</script>`)

	return sb.String()
}

// renderGroupedLists renders the filtered subset split into the two fixed
// groups with counts. Empty groups get the informational placeholder, not
// a blank list.
func renderGroupedLists(results []*directory.Entry, state filter.State, projects, companies int) string {
	var sb strings.Builder
	sb.WriteString(`<div class="kaart-lists">`)

	groups := []struct {
		Kind  directory.Kind
		Label string
		Count int
	}{
		{directory.KindProject, "Projecten", projects},
		{directory.KindCompany, "Bedrijven", companies},
	}

	for _, g := range groups {
		sb.WriteString(fmt.Sprintf(`<div class="kaart-group"><h3>%s (%d)</h3>`, g.Label, g.Count))
		if g.Count == 0 {
			sb.WriteString(`<p class="empty">Geen resultaten gevonden. Pas de filters aan om meer te zien.</p>`)
			sb.WriteString(`</div>`)
			continue
		}
		sb.WriteString(`<ul class="entry-list">`)
		for i, e := range results {
			if e.Kind != g.Kind {
				continue
			}
			sb.WriteString(renderListItem(e, i, state))
		}
		sb.WriteString(`</ul></div>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

// renderListItem renders one clickable list row. Clicking recenters the
// map on the entry without changing the filter.
func renderListItem(e *directory.Entry, index int, state filter.State) string {
	var sb strings.Builder
	sb.WriteString(`<li class="entry-item">`)
	if e.HasLocation() {
		sb.WriteString(fmt.Sprintf(
			`<a href="#kaart-map" onclick="kaartFocus(%d)">%s</a>`,
			index, escapeHTML(e.Name),
		))
	} else {
		sb.WriteString(escapeHTML(e.Name))
	}
	if e.Municipality != "" {
		sb.WriteString(` <span class="text-muted">` + escapeHTML(e.Municipality) + `</span>`)
	}
	sb.WriteString(fmt.Sprintf(` <a class="detail-link" href="/entry%s">details</a>`, detailQuery(e.Name, state)))
	sb.WriteString(`</li>`)
	return sb.String()
}

// escapeHTML escapes HTML special characters
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&#34;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}

// jsonStr returns a JSON-encoded string for embedding in JavaScript
func jsonStr(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
