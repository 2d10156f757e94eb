package directory

import (
	"math"
	"sort"
	"sync"

	"github.com/asim/quadtree"
)

// Spatial index over located entries. The quadtree gives cheap bounding-box
// candidate lookups; callers get exact haversine distances back.

var (
	indexMu sync.RWMutex
	qtree   *quadtree.QuadTree
)

// DistanceKm returns the great-circle distance in kilometers between two
// points (haversine, Earth radius 6371 km).
func (l LatLng) DistanceKm(o LatLng) float64 {
	const earthRadiusKm = 6371
	lat1 := l.Lat * math.Pi / 180
	lat2 := o.Lat * math.Pi / 180
	dLat := (o.Lat - l.Lat) * math.Pi / 180
	dLng := (o.Lng - l.Lng) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// rebuildIndex replaces the quadtree with one covering the given entries.
func rebuildIndex(ents []*Entry) {
	// World bounds: lat ±90, lng ±180
	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	qt := quadtree.New(quadtree.NewAABB(center, half), 0, nil)

	for _, e := range ents {
		if !e.HasLocation() {
			continue
		}
		qt.Insert(quadtree.NewPoint(e.Location.Lat, e.Location.Lng, e))
	}

	indexMu.Lock()
	qtree = qt
	indexMu.Unlock()
}

// Near is an entry with its distance from a reference point
type Near struct {
	Entry      *Entry
	DistanceKm float64
}

// Nearby returns the located entries within radiusKm of the given point,
// sorted by distance. Returns nil before the index is built.
func Nearby(lat, lng, radiusKm float64) []Near {
	indexMu.RLock()
	qt := qtree
	indexMu.RUnlock()
	if qt == nil {
		return nil
	}

	center := quadtree.NewPoint(lat, lng, nil)
	half := center.HalfPoint(radiusKm * 1000)
	points := qt.Search(quadtree.NewAABB(center, half))

	ref := LatLng{Lat: lat, Lng: lng}
	results := make([]Near, 0, len(points))
	for _, pt := range points {
		e, ok := pt.Data().(*Entry)
		if !ok {
			continue
		}
		dist := ref.DistanceKm(*e.Location)
		if dist > radiusKm {
			continue // bounding box is approximate; filter to actual radius
		}
		results = append(results, Near{Entry: e, DistanceKm: dist})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results
}
