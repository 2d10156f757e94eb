// Package geocode resolves street addresses to coordinates using the
// Nominatim API. Lookups are best-effort: a miss or timeout leaves an
// entry without coordinates, it never blocks the dataset load for long.
// Results (including misses) are cached in a local SQLite database so
// restarts don't re-hit the geocoder.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kansenkaart/app"
)

// nominatimURL is a variable so tests can point it at a local server
var nominatimURL = "https://nominatim.openstreetmap.org/search"

var httpClient = &http.Client{Timeout: 10 * time.Second}

// nominatimResult is one result row from the Nominatim API
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve geocodes an address. The cache is consulted first; on a cache
// miss a single Nominatim lookup is performed and the outcome (hit or
// miss) is cached. A miss returns an error and no coordinates.
func Resolve(ctx context.Context, address string) (float64, float64, error) {
	if address == "" {
		return 0, 0, fmt.Errorf("empty address")
	}

	if lat, lng, ok, found := cacheGet(address); found {
		if !ok {
			return 0, 0, fmt.Errorf("address not found (cached): %s", address)
		}
		return lat, lng, nil
	}

	lat, lng, err := lookup(ctx, address)
	if err != nil {
		cachePut(address, 0, 0, false)
		return 0, 0, err
	}
	cachePut(address, lat, lng, true)
	return lat, lng, nil
}

// lookup performs a single Nominatim query for the best match
func lookup(ctx context.Context, address string) (float64, float64, error) {
	apiURL := fmt.Sprintf("%s?format=json&q=%s&limit=1", nominatimURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "Kansenkaart/1.0 (https://kansenkaart.eu)")

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		app.RecordAPICall("nominatim", "GET", apiURL, 0, time.Since(start), err)
		return 0, 0, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()
	app.RecordAPICall("nominatim", "GET", apiURL, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, fmt.Errorf("nominatim parse (raw: %.200s): %w", string(body), err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no results for address: %s", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}
	return lat, lng, nil
}
