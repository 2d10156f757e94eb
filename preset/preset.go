// Package preset stores named filter presets and the last-used filter
// snapshot, keyed per visitor. Presets have their own lifecycle: created
// and deleted by the user, never expired. Last-used snapshots are
// transient and swept weekly.
package preset

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrz1836/go-sanitize"

	"kansenkaart/app"
	"kansenkaart/data"
	"kansenkaart/filter"
)

const (
	presetFile   = "presets.json"
	lastUsedFile = "lastused.json"

	// maxPerVisitor caps the preset list per visitor
	maxPerVisitor = 20

	// RecallWindow is how long a last-used snapshot is offered back
	RecallWindow = 30 * time.Minute

	// sweepAge is when a last-used snapshot is considered stale
	sweepAge = 7 * 24 * time.Hour
)

// Preset is a user-named snapshot of filter state
type Preset struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	State     filter.State `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}

// lastUsed is the most recent non-default filter state for a visitor
type lastUsed struct {
	State  filter.State `json:"state"`
	SeenAt time.Time    `json:"seen_at"`
}

var (
	storeMu   sync.RWMutex
	presets   = map[string][]Preset{} // visitorID -> presets
	snapshots = map[string]lastUsed{} // visitorID -> last used state
)

// Load reads the stores from disk. Unreadable or missing files degrade to
// empty stores, never an error.
func Load() {
	var p map[string][]Preset
	if err := data.LoadJSON(presetFile, &p); err == nil {
		storeMu.Lock()
		presets = p
		storeMu.Unlock()
	} else {
		app.Log("preset", "no preset store: %v", err)
	}

	var s map[string]lastUsed
	if err := data.LoadJSON(lastUsedFile, &s); err == nil {
		storeMu.Lock()
		snapshots = s
		storeMu.Unlock()
	}

	storeMu.RLock()
	count := 0
	for _, list := range presets {
		count += len(list)
	}
	storeMu.RUnlock()
	app.Log("preset", "loaded %d presets", count)
}

// List returns a visitor's presets, newest first
func List(visitorID string) []Preset {
	storeMu.RLock()
	defer storeMu.RUnlock()
	src := presets[visitorID]
	out := make([]Preset, len(src))
	copy(out, src)
	return out
}

// Get returns a visitor's preset by name
func Get(visitorID, name string) (Preset, bool) {
	storeMu.RLock()
	defer storeMu.RUnlock()
	for _, p := range presets[visitorID] {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Save stores the state under the given name, replacing any preset with
// the same name. The write is synchronous so storage failures surface to
// the caller (and from there to the user).
func Save(visitorID, name string, state filter.State) (Preset, error) {
	name = sanitize.XSS(strings.TrimSpace(name))
	if name == "" {
		return Preset{}, fmt.Errorf("naam is verplicht")
	}

	p := Preset{
		ID:        uuid.New().String(),
		Name:      name,
		State:     state,
		CreatedAt: time.Now(),
	}

	storeMu.Lock()
	list := presets[visitorID]
	// Replace by name, otherwise prepend
	replaced := false
	for i, existing := range list {
		if existing.Name == name {
			list[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]Preset{p}, list...)
		if len(list) > maxPerVisitor {
			list = list[:maxPerVisitor]
		}
	}
	presets[visitorID] = list
	storeMu.Unlock()

	if err := persistPresets(); err != nil {
		app.Log("preset", "persist failed: %v", err)
		return Preset{}, fmt.Errorf("filter opslaan mislukt: %w", err)
	}
	return p, nil
}

// Delete removes a visitor's preset by name
func Delete(visitorID, name string) error {
	storeMu.Lock()
	list := presets[visitorID]
	for i, p := range list {
		if p.Name == name {
			presets[visitorID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	storeMu.Unlock()
	return persistPresets()
}

func persistPresets() error {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return data.SaveJSON(presetFile, presets)
}

// Touch records the visitor's current state as the last-used snapshot.
// Only non-default states are recorded. Persisted asynchronously: losing a
// snapshot on crash is harmless.
func Touch(visitorID string, state filter.State) {
	if state.IsZero() {
		return
	}
	storeMu.Lock()
	snapshots[visitorID] = lastUsed{State: state, SeenAt: time.Now()}
	storeMu.Unlock()
	go func() {
		storeMu.RLock()
		defer storeMu.RUnlock()
		data.SaveJSON(lastUsedFile, snapshots)
	}()
}

// Recall returns the visitor's last-used state when it is recent enough
// to offer back (within RecallWindow).
func Recall(visitorID string) (filter.State, bool) {
	storeMu.RLock()
	defer storeMu.RUnlock()
	snap, ok := snapshots[visitorID]
	if !ok || time.Since(snap.SeenAt) > RecallWindow {
		return filter.State{}, false
	}
	return snap.State, true
}

// StartSweep launches the weekly cleanup of stale last-used snapshots.
// Named presets are user-owned and never swept.
func StartSweep() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			sweep(time.Now())
		}
	}()
}

func sweep(now time.Time) {
	storeMu.Lock()
	removed := 0
	for id, snap := range snapshots {
		if now.Sub(snap.SeenAt) > sweepAge {
			delete(snapshots, id)
			removed++
		}
	}
	storeMu.Unlock()
	if removed > 0 {
		app.Log("preset", "swept %d stale snapshots", removed)
		storeMu.RLock()
		data.SaveJSON(lastUsedFile, snapshots)
		storeMu.RUnlock()
	}
}

// NewVisitorID mints an identifier for the visitor cookie
func NewVisitorID() string {
	return uuid.New().String()
}

// reset clears the in-memory stores. Used by tests.
func reset() {
	storeMu.Lock()
	presets = map[string][]Preset{}
	snapshots = map[string]lastUsed{}
	storeMu.Unlock()
}
