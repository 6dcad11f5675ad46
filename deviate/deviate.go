// deviate/deviate.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package deviate composes the airway graph's topological A* with the
// raster pathfinder's detour synthesis and the hazard index's
// blocked-edge set into a single "find me a path around the weather"
// operation.
package deviate

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"

	"github.com/mmp/dwr/airway"
	"github.com/mmp/dwr/geo"
	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/hazardindex"
	"github.com/mmp/dwr/log"
	"github.com/mmp/dwr/pathfind"
	"github.com/mmp/dwr/raster"
)

// resultCacheSize bounds the LRU cache of recent find_dynamic_full_path
// results; sized generously since a cached entry is cheap (one Path).
const resultCacheSize = 256

type cacheKey struct {
	origin, dest airway.ID
	generation   uint64
}

// Orchestrator composes an airway.Graph, a hazardindex.Index, and a
// pathfind.Pathfinder to answer find_dynamic_full_path. It caches results
// per hazard-raster generation: a burst of requests against one radar
// frame doesn't re-run A* redundantly, and the whole cache is invalidated
// on every hazard raster replacement.
type Orchestrator struct {
	lg *log.Logger

	graph *airway.Graph
	index *hazardindex.Index

	mu         sync.Mutex
	generation uint64
	pathfinder *pathfind.Pathfinder
	cache      *lru.Cache[cacheKey, airway.Path]
}

// NewOrchestrator returns an Orchestrator over graph and index. lg may be
// nil. The hazard raster must be supplied via SetHazardRaster before the
// first search.
func NewOrchestrator(graph *airway.Graph, index *hazardindex.Index, lg *log.Logger) *Orchestrator {
	cache, err := lru.New[cacheKey, airway.Path](resultCacheSize)
	if err != nil {
		panic(err) // resultCacheSize is a positive compile-time constant
	}
	return &Orchestrator{
		lg:    lg,
		graph: graph,
		index: index,
		cache: cache,
	}
}

// Graph returns the underlying airway graph, so callers (the k-path loop)
// can inspect adjacency without the orchestrator needing to know about
// their algorithm.
func (o *Orchestrator) Graph() *airway.Graph { return o.graph }

// SetHazardRaster replaces the hazard raster, recomputes the blocked-edge
// set via the hazard index, and invalidates every cached search result:
// no stale path can be returned for a radar frame that no longer exists.
func (o *Orchestrator) SetHazardRaster(hz *hazard.Raster) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.index.Update(hz)
	o.pathfinder = pathfind.New(hz)
	o.generation++
	o.cache.Purge()
	o.lg.Debugf("deviate: hazard raster replaced, generation %d", o.generation)
}

// ExtraPredicate is an additional admissibility check folded into the
// composite predicate 4.G specifies, ahead of the blocked-edge/turn/
// detour logic. The k-path loop passes a closure over its forbidden-edge
// set here, so the orchestrator never needs to know about Yen's algorithm.
type ExtraPredicate func(u, v *airway.Waypoint) bool

// FindDynamicFullPath runs the airway graph's A* with the composite
// predicate: accept unblocked edges that pass the turn-angle gate; for
// blocked edges, invoke the raster pathfinder for a detour and splice the
// resulting pixels back in as synthetic waypoints. extra, if non-nil, is
// consulted before all else and can reject an edge outright (used by the
// k-path loop to forbid edges of previously returned paths).
func (o *Orchestrator) FindDynamicFullPath(originID, destID airway.ID, extra ExtraPredicate) airway.Path {
	o.mu.Lock()
	pf := o.pathfinder
	gen := o.generation
	o.mu.Unlock()
	if pf == nil {
		o.lg.Warnf("deviate: FindDynamicFullPath called before a hazard raster was set")
		return airway.Path{}
	}

	if extra == nil {
		key := cacheKey{origin: originID, dest: destID, generation: gen}
		if cached, ok := o.cache.Get(key); ok {
			return cached
		}
		correlation := uuid.New()
		o.lg.Debugf("deviate: search %s origin=%d dest=%d generation=%d", correlation, originID, destID, gen)
		path := o.graph.FindPath(originID, destID, o.predicate(pf, nil))
		o.cache.Add(key, path)
		return path
	}

	correlation := uuid.New()
	o.lg.Debugf("deviate: search %s origin=%d dest=%d generation=%d (uncached, extra predicate)", correlation, originID, destID, gen)
	return o.graph.FindPath(originID, destID, o.predicate(pf, extra))
}

// FindDynamicFullPathFromWaypoint is FindDynamicFullPath's counterpart for
// spurring directly from a waypoint object rather than a registered
// identifier (the k-path loop's requirement, since a spur point taken from
// a previous result may be a synthetic detour waypoint with no identifier
// of its own). Never cached, since a synthetic origin has no identifier to
// key a cache entry on.
func (o *Orchestrator) FindDynamicFullPathFromWaypoint(origin *airway.Waypoint, destID airway.ID, extra ExtraPredicate) airway.Path {
	o.mu.Lock()
	pf := o.pathfinder
	o.mu.Unlock()
	if pf == nil {
		o.lg.Warnf("deviate: FindDynamicFullPathFromWaypoint called before a hazard raster was set")
		return airway.Path{}
	}

	correlation := uuid.New()
	o.lg.Debugf("deviate: search %s origin=%q dest=%d (uncached, waypoint-identity spur)", correlation, origin.Name, destID)
	return o.graph.FindPathFromWaypoint(origin, destID, o.predicate(pf, extra))
}

// predicate implements spec 4.G's composite admissibility callback.
func (o *Orchestrator) predicate(pf *pathfind.Pathfinder, extra ExtraPredicate) airway.Predicate {
	return func(u, v *airway.Waypoint, infoU, infoV airway.NodeInfo) (bool, []*airway.Waypoint) {
		if extra != nil && !extra(u, v) {
			return false, nil
		}

		if !o.index.IsBlocked(u.ID, v.ID) {
			if infoU.Predecessor == nil {
				return true, nil
			}
			infoU.Predecessor.Point.Project()
			u.Point.Project()
			v.Point.Project()
			cos, err := geo.TurnCosine(&infoU.Predecessor.Point, &u.Point, &v.Point)
			if err != nil {
				o.lg.Warnf("deviate: turn check on unblocked edge (%d,%d): %v", u.ID, v.ID, err)
				return false, nil
			}
			return cos > 0, nil
		}

		return o.detour(pf, u, v, infoU)
	}
}

// detour handles a blocked edge by invoking the raster pathfinder between
// the endpoints' projected pixels and lifting the interior of any
// returned polyline into synthetic waypoints.
func (o *Orchestrator) detour(pf *pathfind.Pathfinder, u, v *airway.Waypoint, infoU airway.NodeInfo) (bool, []*airway.Waypoint) {
	wf := o.index.WorldFile()

	uProj := u.Point.Project()
	vProj := v.Point.Project()
	origin := wf.ToPixel(uProj.X, uProj.Y)
	dest := wf.ToPixel(vProj.X, vProj.Y)

	var previousPixel *raster.Pixel
	if infoU.Predecessor != nil {
		pp := infoU.Predecessor.Point.Project()
		px := wf.ToPixel(pp.X, pp.Y)
		previousPixel = &px
	}

	path := pf.FindPathWithAngle(origin, dest, previousPixel)
	if path == nil {
		return false, nil
	}

	inserted := make([]*airway.Waypoint, 0, len(path)-2)
	for _, p := range path[1 : len(path)-1] {
		x, y := wf.ToMercator(p)
		lon, lat := geo.MercToLonLat(x, y)
		name := geo.DegreesString(lon, lat)
		inserted = append(inserted, airway.NewSyntheticWaypoint(name, lon, lat, geo.Projected{X: x, Y: y}))
	}
	return true, inserted
}
