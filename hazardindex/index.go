// hazardindex/index.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hazardindex

import (
	"github.com/mmp/dwr/airway"
	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/log"
	"github.com/mmp/dwr/raster"
)

// Pair is an undirected waypoint-pair, canonicalized so that equality and
// map lookups are orientation-free.
type Pair struct {
	Small, Big airway.ID
}

// NewPair canonicalizes (a, b) into a Pair with Small <= Big.
func NewPair(a, b airway.ID) Pair {
	if a <= b {
		return Pair{Small: a, Big: b}
	}
	return Pair{Small: b, Big: a}
}

// Index maps hazard-raster pixels to the undirected edges whose Bresenham
// rasterization crosses them, and derives the blocked-edge set from a
// hazard raster in time proportional to the number of hazardous pixels.
type Index struct {
	lg           *log.Logger
	wf           WorldFile
	pixelToEdges map[raster.Pixel][]Pair
	blocked      map[Pair]struct{}
}

// NewIndex returns an empty index using wf to project waypoints to pixel
// space. lg may be nil.
func NewIndex(wf WorldFile, lg *log.Logger) *Index {
	return &Index{
		lg:           lg,
		wf:           wf,
		pixelToEdges: make(map[raster.Pixel][]Pair),
		blocked:      make(map[Pair]struct{}),
	}
}

func (ix *Index) recordEdge(a, b *airway.Waypoint) {
	aProj, bProj := a.Point.Project(), b.Point.Project()
	pa := ix.wf.ToPixel(aProj.X, aProj.Y)
	pb := ix.wf.ToPixel(bProj.X, bProj.Y)
	pair := NewPair(a.ID, b.ID)
	for _, p := range raster.Line(pa, pb) {
		ix.pixelToEdges[p] = append(ix.pixelToEdges[p], pair)
	}
}

// Build scans every edge of g once (each endpoint's projected coordinate
// is computed lazily if not already cached), rasterizes it, and records
// the pixel -> edge mapping. It discards any index built previously.
func (ix *Index) Build(g *airway.Graph) {
	ix.pixelToEdges = make(map[raster.Pixel][]Pair)
	g.ForEachEdge(func(a, b *airway.Waypoint, distance float64) {
		if a.ID >= b.ID {
			return // visit each undirected edge once; ForEachEdge reports both directions
		}
		ix.recordEdge(a, b)
	})
	ix.lg.Debugf("hazardindex: built index over %d pixels", len(ix.pixelToEdges))
}

// SingleBuild restricts Build's work to edges incident on one waypoint,
// for use when a waypoint is registered after the index was already
// built; it also back-fills the projected coordinate of every neighbor it
// touches, not merely the named waypoint, since a neighbor added earlier
// as an isolated node would otherwise never get projected.
func (ix *Index) SingleBuild(g *airway.Graph, id airway.ID) {
	wp, ok := g.WaypointFromIdentifier(id)
	if !ok {
		return
	}
	wp.Point.Project()
	for _, nb := range g.Neighbors(id) {
		neighbor, ok := g.WaypointFromIdentifier(nb.To)
		if !ok {
			continue
		}
		neighbor.Point.Project()
		ix.recordEdge(wp, neighbor)
	}
	ix.lg.Debugf("hazardindex: single-built waypoint %d against %d neighbors", id, len(g.Neighbors(id)))
}

// Update clears the blocked-edge set and re-derives it from hz: every
// hazardous pixel contributes the edges the index maps it to.
func (ix *Index) Update(hz *hazard.Raster) {
	ix.blocked = make(map[Pair]struct{})
	hz.ForEachHazardousPixel(func(p raster.Pixel) {
		for _, pair := range ix.pixelToEdges[p] {
			ix.blocked[pair] = struct{}{}
		}
	})
	ix.lg.Debugf("hazardindex: updated blocked set, %d edges blocked", len(ix.blocked))
}

// IsBlocked reports whether the undirected edge (a, b) currently
// intersects a hazardous pixel.
func (ix *Index) IsBlocked(a, b airway.ID) bool {
	_, blocked := ix.blocked[NewPair(a, b)]
	return blocked
}

// LogBlockedEdges writes the current blocked-edge set to lg at Info
// level, for correlating a "no path found" result with the radar frame
// that caused it.
func (ix *Index) LogBlockedEdges(lg *log.Logger) {
	for pair := range ix.blocked {
		lg.Infof("hazardindex: blocked edge %d<->%d", pair.Small, pair.Big)
	}
}

// WorldFile returns the projective transform the index was built with.
func (ix *Index) WorldFile() WorldFile { return ix.wf }
