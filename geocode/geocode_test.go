package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"kansenkaart/data"
)

func setupCache(t *testing.T) {
	t.Helper()
	data.SetDir(t.TempDir())
	resetCache()
	t.Cleanup(func() {
		resetCache()
		data.SetDir("")
	})
}

func TestResolve(t *testing.T) {
	setupCache(t)

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if q := r.URL.Query().Get("q"); q == "" {
			t.Errorf("missing q parameter")
		}
		w.Write([]byte(`[{"lat": "52.2215", "lon": "6.8937"}]`))
	}))
	defer srv.Close()

	orig := nominatimURL
	nominatimURL = srv.URL
	defer func() { nominatimURL = orig }()

	lat, lng, err := Resolve(context.Background(), "Oldenzaalsestraat 100, Enschede")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if lat != 52.2215 || lng != 6.8937 {
		t.Errorf("got %v,%v", lat, lng)
	}

	// A second call for the same address is served from the cache
	if _, _, err := Resolve(context.Background(), "Oldenzaalsestraat 100, Enschede"); err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
}

func TestResolveNoResults(t *testing.T) {
	setupCache(t)

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	orig := nominatimURL
	nominatimURL = srv.URL
	defer func() { nominatimURL = orig }()

	if _, _, err := Resolve(context.Background(), "Nergensstraat 1"); err == nil {
		t.Fatal("expected error for empty result set")
	}

	// The miss is cached: no second upstream call
	if _, _, err := Resolve(context.Background(), "Nergensstraat 1"); err == nil {
		t.Fatal("expected cached miss to keep failing")
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
}

func TestResolveServerError(t *testing.T) {
	setupCache(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	orig := nominatimURL
	nominatimURL = srv.URL
	defer func() { nominatimURL = orig }()

	if _, _, err := Resolve(context.Background(), "Enschede"); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestResolveMalformedResponse(t *testing.T) {
	setupCache(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"this is": "not an array"`))
	}))
	defer srv.Close()

	orig := nominatimURL
	nominatimURL = srv.URL
	defer func() { nominatimURL = orig }()

	if _, _, err := Resolve(context.Background(), "Enschede"); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveEmptyAddress(t *testing.T) {
	setupCache(t)

	if _, _, err := Resolve(context.Background(), ""); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestCacheInitFailureSticks(t *testing.T) {
	// A regular file where the data directory should be makes every init
	// attempt fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	data.SetDir(filepath.Join(blocker, "data"))
	resetCache()
	t.Cleanup(func() {
		resetCache()
		data.SetDir("")
	})

	if err := initCacheDB(); err == nil {
		t.Fatal("expected init to fail under an unusable data dir")
	}
	// The failure must stick: later calls report the same error instead of
	// pretending the cache is healthy over a nil handle.
	if err := initCacheDB(); err == nil {
		t.Fatal("second init call reported success after a failed init")
	}
	if _, _, ok, found := cacheGet("Enschede"); ok || found {
		t.Error("cacheGet must degrade to a miss when the cache is unavailable")
	}
	cachePut("Enschede", 52.2, 6.9, true)
}

func TestCacheStats(t *testing.T) {
	setupCache(t)

	cachePut("hit", 1, 2, true)
	cachePut("miss", 0, 0, false)

	total, hits := CacheStats()
	if total != 2 || hits != 1 {
		t.Errorf("CacheStats = %d/%d, want 2/1", total, hits)
	}
}
