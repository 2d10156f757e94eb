package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kansenkaart/app"
	"kansenkaart/data"
	"kansenkaart/geocode"
)

var (
	mu             sync.RWMutex
	entries        []*Entry
	municipalities []*Municipality
	taxonomy       map[string][]string
	taxonomyOrder  []string
	visibility     map[string]bool
	loaded         bool
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// Load reads all datasets and geocodes entries that are missing
// coordinates. The auxiliary feeds (taxonomy, municipalities, visibility)
// are fetched concurrently and the call only returns once everything is in
// place, so callers can rely on filter options existing before any URL
// state is read. Each feed degrades independently to empty on failure; Load
// never fails the whole startup.
func Load(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		tax   map[string][]string
		order []string
		muns  []*Municipality
		vis   map[string]bool
	)

	g.Go(func() error {
		tax, order = loadTaxonomy(gctx)
		return nil
	})
	g.Go(func() error {
		muns = loadMunicipalities()
		return nil
	})
	g.Go(func() error {
		vis = loadVisibility()
		return nil
	})
	g.Wait()

	ents := loadEntries()

	// Geocode gaps one at a time. The external geocoder is best-effort:
	// a miss leaves the entry without coordinates for the session.
	resolved, missed := 0, 0
	for _, e := range ents {
		if e.HasLocation() {
			continue
		}
		addr := e.FullAddress()
		if addr == "" {
			continue
		}
		lat, lng, err := geocode.Resolve(ctx, addr)
		if err != nil {
			missed++
			app.Log("directory", "geocode miss for %q: %v", e.Name, err)
			continue
		}
		loc := LatLng{Lat: lat, Lng: lng}
		if loc.Valid() {
			e.Location = &loc
			resolved++
		}
	}

	mu.Lock()
	entries = ents
	municipalities = muns
	taxonomy = tax
	taxonomyOrder = order
	visibility = vis
	loaded = true
	mu.Unlock()

	rebuildIndex(ents)

	app.Log("directory", "loaded %d entries (%d geocoded, %d misses), %d municipalities, %d facets",
		len(ents), resolved, missed, len(muns), len(tax))
}

func init() {
	app.RegisterStatus("directory", func() map[string]interface{} {
		mu.RLock()
		defer mu.RUnlock()
		located := 0
		for _, e := range entries {
			if e.HasLocation() {
				located++
			}
		}
		return map[string]interface{}{
			"entries":        len(entries),
			"located":        located,
			"municipalities": len(municipalities),
			"facets":         len(taxonomy),
			"loaded":         loaded,
		}
	})
}

// loadEntries reads and decodes opportunities.json
func loadEntries() []*Entry {
	b, err := data.Load("opportunities.json")
	if err != nil {
		app.Log("directory", "opportunities feed unavailable: %v", err)
		return nil
	}
	ents, skipped, err := DecodeEntries(b)
	if err != nil {
		app.Log("directory", "opportunities feed unreadable: %v (raw: %.200s)", err, string(b))
		return nil
	}
	if skipped > 0 {
		app.Log("directory", "skipped %d unnamed records", skipped)
	}
	return ents
}

// loadTaxonomy returns the facet taxonomy. The admin API is the preferred
// live source when configured; the static file is the fallback.
func loadTaxonomy(ctx context.Context) (map[string][]string, []string) {
	if adminURL := os.Getenv("KANSENKAART_ADMIN_URL"); adminURL != "" {
		if tax, order, err := fetchAdminTaxonomy(ctx, adminURL); err == nil {
			app.Log("directory", "taxonomy loaded from admin api (%d facets)", len(tax))
			return tax, order
		} else {
			app.Log("directory", "admin taxonomy unavailable, using file: %v", err)
		}
	}

	b, err := data.Load("filters.json")
	if err != nil {
		app.Log("directory", "filters feed unavailable: %v", err)
		return map[string][]string{}, nil
	}
	tax, order, err := decodeTaxonomy(b)
	if err != nil {
		app.Log("directory", "filters feed unreadable: %v (raw: %.200s)", err, string(b))
		return map[string][]string{}, nil
	}
	return tax, order
}

// decodeTaxonomy parses a facet-name -> allowed tags mapping, preserving
// the feed's facet order.
func decodeTaxonomy(b []byte) (map[string][]string, []string, error) {
	var tax map[string][]string
	if err := json.Unmarshal(b, &tax); err != nil {
		return nil, nil, fmt.Errorf("parse filters: %w", err)
	}
	// Known facets first, in canonical order, then anything extra
	order := make([]string, 0, len(tax))
	for _, name := range FacetNames {
		if _, ok := tax[name]; ok {
			order = append(order, name)
		}
	}
	for name := range tax {
		known := false
		for _, o := range order {
			if o == name {
				known = true
				break
			}
		}
		if !known {
			order = append(order, name)
		}
	}
	return tax, order, nil
}

func fetchAdminTaxonomy(ctx context.Context, adminURL string) (map[string][]string, []string, error) {
	u := strings.TrimSuffix(adminURL, "/") + "/api/filters"
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, nil, err
	}
	if token := os.Getenv("KANSENKAART_ADMIN_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		app.RecordAPICall("admin", "GET", u, 0, time.Since(start), err)
		return nil, nil, fmt.Errorf("admin filters request: %w", err)
	}
	defer resp.Body.Close()
	app.RecordAPICall("admin", "GET", u, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("admin filters returned status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return decodeTaxonomy(b)
}

func loadMunicipalities() []*Municipality {
	b, err := data.Load("municipalities.json")
	if err != nil {
		app.Log("directory", "municipalities feed unavailable: %v", err)
		return nil
	}
	muns, err := DecodeMunicipalities(b)
	if err != nil {
		app.Log("directory", "municipalities feed unreadable: %v (raw: %.200s)", err, string(b))
		return nil
	}
	return muns
}

// loadVisibility reads municipality-visibility.json. Only explicit true
// entries are visible; absence of the file means everything is visible.
func loadVisibility() map[string]bool {
	var vis map[string]bool
	if err := data.LoadJSON("municipality-visibility.json", &vis); err != nil {
		app.Log("directory", "visibility feed unavailable: %v", err)
		return nil
	}
	return vis
}

// Entries returns the loaded dataset in feed order. The slice is shared
// and must not be mutated.
func Entries() []*Entry {
	mu.RLock()
	defer mu.RUnlock()
	return entries
}

// Get looks up an entry by its unique name
func Get(name string) *Entry {
	mu.RLock()
	defer mu.RUnlock()
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Municipalities returns the loaded municipality list
func Municipalities() []*Municipality {
	mu.RLock()
	defer mu.RUnlock()
	return municipalities
}

// Taxonomy returns the facet taxonomy and its display order
func Taxonomy() (map[string][]string, []string) {
	mu.RLock()
	defer mu.RUnlock()
	return taxonomy, taxonomyOrder
}

// Visible reports whether a municipality should be shown on the map.
// When no visibility map is loaded everything is visible.
func Visible(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	if visibility == nil {
		return true
	}
	return visibility[name]
}

// Loaded reports whether the initial dataset load has completed
func Loaded() bool {
	mu.RLock()
	defer mu.RUnlock()
	return loaded
}

// SetDataset replaces the loaded dataset. Used by tests.
func SetDataset(ents []*Entry, muns []*Municipality, tax map[string][]string, order []string, vis map[string]bool) {
	mu.Lock()
	entries = ents
	municipalities = muns
	taxonomy = tax
	taxonomyOrder = order
	visibility = vis
	loaded = true
	mu.Unlock()
	rebuildIndex(ents)
}
