package geocode

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"kansenkaart/app"
	"kansenkaart/data"
)

var (
	cacheDB    *sql.DB
	cacheDBMu  sync.Mutex
	cacheDBOne sync.Once
	cacheDBErr error
)

// initCacheDB opens (or creates) the geocode cache database next to the
// flat-file data store. The outcome is latched: a failed init keeps
// returning its error on every later call instead of a nil handle.
func initCacheDB() error {
	cacheDBOne.Do(func() {
		dbPath := filepath.Join(data.Dir(), "geocode.db")
		os.MkdirAll(filepath.Dir(dbPath), 0700)

		db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000")
		if err != nil {
			cacheDBErr = fmt.Errorf("geocode db open: %w", err)
			return
		}
		db.SetMaxOpenConns(2)
		db.SetMaxIdleConns(2)

		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS geocode (
				address     TEXT PRIMARY KEY,
				lat         REAL NOT NULL DEFAULT 0,
				lng         REAL NOT NULL DEFAULT 0,
				found       INTEGER NOT NULL DEFAULT 0,
				resolved_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
		`)
		if err != nil {
			db.Close()
			cacheDBErr = fmt.Errorf("geocode db schema: %w", err)
			return
		}
		cacheDB = db
	})
	return cacheDBErr
}

// cacheGet returns a cached result for address. found reports whether any
// row exists; ok whether that row was a successful lookup.
func cacheGet(address string) (lat, lng float64, ok, found bool) {
	if err := initCacheDB(); err != nil {
		app.Log("geocode", "cache unavailable: %v", err)
		return 0, 0, false, false
	}
	var foundInt int
	err := cacheDB.QueryRow(
		`SELECT lat, lng, found FROM geocode WHERE address = ?`, address,
	).Scan(&lat, &lng, &foundInt)
	if err != nil {
		return 0, 0, false, false
	}
	return lat, lng, foundInt == 1, true
}

// cachePut upserts a lookup outcome. Failures are logged only; the cache
// is an optimization, never a dependency.
func cachePut(address string, lat, lng float64, found bool) {
	if err := initCacheDB(); err != nil {
		app.Log("geocode", "cache unavailable: %v", err)
		return
	}
	foundInt := 0
	if found {
		foundInt = 1
	}
	cacheDBMu.Lock()
	defer cacheDBMu.Unlock()
	_, err := cacheDB.Exec(`
		INSERT INTO geocode (address, lat, lng, found, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			lat=excluded.lat, lng=excluded.lng,
			found=excluded.found, resolved_at=excluded.resolved_at
	`, address, lat, lng, foundInt, time.Now())
	if err != nil {
		app.Log("geocode", "cache write failed for %q: %v", address, err)
	}
}

// CacheStats returns row counts for the status page
func CacheStats() (total, hits int) {
	if err := initCacheDB(); err != nil {
		return 0, 0
	}
	cacheDB.QueryRow(`SELECT COUNT(*) FROM geocode`).Scan(&total)
	cacheDB.QueryRow(`SELECT COUNT(*) FROM geocode WHERE found = 1`).Scan(&hits)
	return total, hits
}

// resetCache closes and clears the cache handle. Used by tests.
func resetCache() {
	cacheDBMu.Lock()
	defer cacheDBMu.Unlock()
	if cacheDB != nil {
		cacheDB.Close()
	}
	cacheDB = nil
	cacheDBErr = nil
	cacheDBOne = sync.Once{}
}

func init() {
	app.RegisterStatus("geocode", func() map[string]interface{} {
		total, hits := CacheStats()
		return map[string]interface{}{
			"cached": total,
			"hits":   hits,
			"misses": total - hits,
		}
	})
}
