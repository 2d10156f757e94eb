// Package data is the flat-file JSON store backing the kansenkaart datasets
// (opportunities, filters, municipalities, visibility) and the preset store.
// Keys may contain subdirectories ("geojson/nl-gemeenten.geojson").
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	dirMu   sync.RWMutex
	dataDir string
)

// Dir returns the active data directory. Resolution order: SetDir,
// $KANSENKAART_DATA, $HOME/.kansenkaart/data.
func Dir() string {
	dirMu.RLock()
	d := dataDir
	dirMu.RUnlock()
	if d != "" {
		return d
	}
	if env := os.Getenv("KANSENKAART_DATA"); env != "" {
		return env
	}
	return filepath.Join(os.ExpandEnv("$HOME/.kansenkaart"), "data")
}

// SetDir overrides the data directory (used by main and tests).
func SetDir(dir string) {
	dirMu.Lock()
	dataDir = dir
	dirMu.Unlock()
}

// Load reads the raw bytes stored under key
func Load(key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(Dir(), key))
}

// Save writes raw bytes under key, keeping a .bak copy of any previous value
func Save(key string, val []byte) error {
	file := filepath.Join(Dir(), key)
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}
	backup(file)
	return os.WriteFile(file, val, 0644)
}

// LoadJSON reads and unmarshals the value stored under key
func LoadJSON(key string, v interface{}) error {
	b, err := Load(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

// SaveJSON marshals and writes val under key
func SaveJSON(key string, val interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return Save(key, b)
}

// Exists reports whether key is present in the store
func Exists(key string) bool {
	_, err := os.Stat(filepath.Join(Dir(), key))
	return err == nil
}

// backup copies the current file contents to file.bak before an overwrite.
// Best effort: a failed backup never blocks the write.
func backup(file string) {
	b, err := os.ReadFile(file)
	if err != nil {
		return
	}
	os.WriteFile(file+".bak", b, 0644)
}
