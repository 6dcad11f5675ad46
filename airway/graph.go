// airway/graph.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airway owns the persisted waypoint registry and adjacency list
// for the airway network, and implements the topological A* search with a
// pluggable edge admissibility predicate.
package airway

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/mmp/dwr/geo"
	"github.com/mmp/dwr/log"
	"github.com/mmp/dwr/util"
)

// heuristicFactor is the 0.9 scalar applied to the great-circle heuristic;
// the A* optimality property on an unblocked graph (spec property 7)
// requires the heuristic to stay admissible, which this scalar preserves.
const heuristicFactor = 0.9

// Graph owns the waypoint registry and adjacency lists by value, keyed by
// identifier (an arena rather than the shared/weak-pointer ownership used
// in other ports): adjacency references a neighbor's ID, never the
// *Waypoint directly, so removing a waypoint can never leave a dangling
// back-reference. mu enforces the reader-writer discipline from §5: reads
// (searches, lookups) take the read lock, and add/remove/update take the
// write lock.
type Graph struct {
	lg        *log.Logger
	mu        util.LoggingRWMutex
	waypoints map[ID]*Waypoint
	adjacency map[ID][]Neighbor
}

// NewGraph returns an empty graph. lg may be nil.
func NewGraph(lg *log.Logger) *Graph {
	return &Graph{
		lg:        lg,
		waypoints: make(map[ID]*Waypoint),
		adjacency: make(map[ID][]Neighbor),
	}
}

// AddWaypoint registers a waypoint at (lon, lat) radians under identifier,
// or overwrites its name and location if already registered; an overwrite
// preserves existing adjacency.
func (g *Graph) AddWaypoint(id ID, name string, lon, lat float64) {
	g.mu.Lock(g.lg)
	defer g.mu.Unlock(g.lg)

	if wp, ok := g.waypoints[id]; ok {
		wp.Name = name
		wp.Point = geo.NewPoint(lon, lat)
		return
	}
	g.waypoints[id] = NewWaypoint(id, name, lon, lat)
	if _, ok := g.adjacency[id]; !ok {
		g.adjacency[id] = nil
	}
	g.lg.Debugf("airway: added waypoint %d (%s)", id, name)
}

// RemoveWaypoint removes a waypoint and every edge touching it; it is a
// no-op if id is absent.
func (g *Graph) RemoveWaypoint(id ID) {
	g.mu.Lock(g.lg)
	defer g.mu.Unlock(g.lg)

	if _, ok := g.waypoints[id]; !ok {
		return
	}
	for _, nb := range g.adjacency[id] {
		g.removeFromAdjacency(nb.To, id)
	}
	delete(g.adjacency, id)
	delete(g.waypoints, id)
	g.lg.Debugf("airway: removed waypoint %d", id)
}

func (g *Graph) removeFromAdjacency(from, to ID) {
	nbs := g.adjacency[from]
	for i, nb := range nbs {
		if nb.To == to {
			g.adjacency[from] = append(nbs[:i], nbs[i+1:]...)
			return
		}
	}
}

func (g *Graph) hasEdge(a, b ID) bool {
	for _, nb := range g.adjacency[a] {
		if nb.To == b {
			return true
		}
	}
	return false
}

// AddAirwaySegment inserts an undirected edge between a and b, deduplicated
// (adding an existing edge is a no-op); the distance is recomputed from
// the two endpoints' locations. It is a no-op if either endpoint is
// unregistered.
func (g *Graph) AddAirwaySegment(a, b ID) {
	g.mu.Lock(g.lg)
	defer g.mu.Unlock(g.lg)

	wa, ok := g.waypoints[a]
	if !ok {
		return
	}
	wb, ok := g.waypoints[b]
	if !ok {
		return
	}
	if g.hasEdge(a, b) {
		return
	}

	d := geo.GreatCircleDistance(wa.Point, wb.Point)
	g.adjacency[a] = append(g.adjacency[a], Neighbor{To: b, Distance: d})
	g.adjacency[b] = append(g.adjacency[b], Neighbor{To: a, Distance: d})
	g.lg.Debugf("airway: added segment %d<->%d, distance %.1fm", a, b, d)
}

// RemoveAirwaySegment deletes the undirected edge between a and b, if any.
func (g *Graph) RemoveAirwaySegment(a, b ID) {
	g.mu.Lock(g.lg)
	defer g.mu.Unlock(g.lg)

	g.removeFromAdjacency(a, b)
	g.removeFromAdjacency(b, a)
}

// ForEachEdge visits every edge exactly once per direction (both
// orientations), in a deterministic order, passing both endpoints'
// waypoints directly so a caller never needs to look them up itself
// while the graph's lock is already held.
func (g *Graph) ForEachEdge(fn func(a, b *Waypoint, distance float64)) {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)

	for _, id := range g.allWaypointIdentifiersLocked() {
		nbs := append([]Neighbor(nil), g.adjacency[id]...)
		sort.Slice(nbs, func(i, j int) bool { return nbs[i].To < nbs[j].To })
		for _, nb := range nbs {
			fn(g.waypoints[id], g.waypoints[nb.To], nb.Distance)
		}
	}
}

// AllWaypointIdentifiers returns every registered identifier, sorted, so
// iteration order is reproducible.
func (g *Graph) AllWaypointIdentifiers() []ID {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)
	return g.allWaypointIdentifiersLocked()
}

func (g *Graph) allWaypointIdentifiersLocked() []ID {
	ids := make([]ID, 0, len(g.waypoints))
	for id := range g.waypoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WaypointFromIdentifier looks up a registered waypoint.
func (g *Graph) WaypointFromIdentifier(id ID) (*Waypoint, bool) {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)
	wp, ok := g.waypoints[id]
	return wp, ok
}

// Neighbors returns the (to, distance) adjacency of a registered waypoint.
func (g *Graph) Neighbors(id ID) []Neighbor {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)
	return g.adjacency[id]
}

// Validate checks the graph's internal consistency, recording every
// problem found (rather than stopping at the first) via el: every
// adjacency entry must be reciprocated in both directions, and no
// waypoint may carry an edge to itself. It is meant to be run once after
// Load, before the graph is handed to a hazard index or orchestrator.
func (g *Graph) Validate(el *util.ErrorLogger) {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)

	for _, id := range g.allWaypointIdentifiersLocked() {
		el.Push(fmt.Sprintf("waypoint %d", id))
		for _, nb := range g.adjacency[id] {
			if nb.To == id {
				el.ErrorString("self-loop edge")
				continue
			}
			if !g.hasEdge(nb.To, id) {
				el.ErrorString("edge to %d is not reciprocated", nb.To)
			}
		}
		el.Pop()
	}
}

///////////////////////////////////////////////////////////////////////////
// A*

// NodeInfo is the read-only per-search scratch state exposed to a
// Predicate for one endpoint of a candidate edge.
type NodeInfo struct {
	ActualDistance float64
	Heuristic      float64
	Predecessor    *Waypoint
}

// Predicate decides whether the candidate edge (u, v) may be relaxed. It
// returns false to reject the edge outright. On accept, it may return a
// non-empty ordered list of synthetic waypoints to splice between u and v;
// FindPath threads v's predecessor chain through them.
type Predicate func(u, v *Waypoint, infoU, infoV NodeInfo) (ok bool, inserted []*Waypoint)

type searchNode struct {
	wp          *Waypoint
	actual      float64
	heuristic   float64 // raw great-circle distance to destination
	predecessor *Waypoint
	seq         int
	heapIndex   int
}

func (n *searchNode) estimate() float64 {
	return n.actual + heuristicFactor*n.heuristic
}

func (n *searchNode) view() NodeInfo {
	return NodeInfo{ActualDistance: n.actual, Heuristic: n.heuristic, Predecessor: n.predecessor}
}

type searchHeap []*searchNode

func (h searchHeap) Len() int { return len(h) }
func (h searchHeap) Less(i, j int) bool {
	ei, ej := h[i].estimate(), h[j].estimate()
	if ei != ej {
		return ei < ej
	}
	return h[i].seq < h[j].seq // deterministic tie-break: insertion order
}
func (h searchHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex, h[j].heapIndex = i, j
}
func (h *searchHeap) Push(x any) {
	n := x.(*searchNode)
	n.heapIndex = len(*h)
	*h = append(*h, n)
}
func (h *searchHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// FindPath runs A* from originID to destID, accepting each candidate edge
// through predicate. It returns an empty Path if either endpoint is
// unregistered or no admissible path exists.
func (g *Graph) FindPath(originID, destID ID, predicate Predicate) Path {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)

	origin, ok := g.waypoints[originID]
	if !ok {
		return Path{}
	}
	dest, ok := g.waypoints[destID]
	if !ok {
		return Path{}
	}
	return g.findPathLocked(origin, dest, predicate)
}

// FindPathFromWaypoint runs A* starting directly from origin, rather than
// resolving it from a registered identifier first. This is how Yen's
// k-shortest-paths algorithm must spur from a node partway along a
// previously found path: that node may be a synthetic waypoint spliced in
// by a hazard detour (spec 4.G), and every synthetic waypoint carries the
// same sentinel identifier (NoID), so spurring by identifier would either
// fail to resolve at all or resolve to the wrong node. origin is used as
// given, registered or not; a synthetic origin has no graph adjacency of
// its own, so the search can only succeed if origin happens to coincide
// with destID.
func (g *Graph) FindPathFromWaypoint(origin *Waypoint, destID ID, predicate Predicate) Path {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)

	dest, ok := g.waypoints[destID]
	if !ok {
		return Path{}
	}
	return g.findPathLocked(origin, dest, predicate)
}

func (g *Graph) findPathLocked(origin, dest *Waypoint, predicate Predicate) Path {
	if origin == dest {
		return Path{Waypoints: []*Waypoint{origin}, Distances: []float64{0}}
	}

	info := make(map[*Waypoint]*searchNode)
	seq := 0
	infoFor := func(wp *Waypoint) *searchNode {
		if n, ok := info[wp]; ok {
			return n
		}
		n := &searchNode{wp: wp, actual: math.Inf(1), heuristic: geo.GreatCircleDistance(wp.Point, dest.Point)}
		info[wp] = n
		return n
	}

	originInfo := infoFor(origin)
	originInfo.actual = 0
	seq++
	originInfo.seq = seq

	pq := &searchHeap{originInfo}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*searchNode)
		if current.wp == dest {
			break
		}

		for _, nb := range g.adjacency[current.wp.ID] {
			neighbor, ok := g.waypoints[nb.To]
			if !ok {
				continue
			}
			neighborInfo := infoFor(neighbor)

			ok, inserted := predicate(current.wp, neighbor, current.view(), neighborInfo.view())
			if !ok {
				continue
			}

			through := current.actual
			if len(inserted) > 0 {
				through += geo.GreatCircleDistance(current.wp.Point, inserted[0].Point)
				for i := 1; i < len(inserted); i++ {
					through += geo.GreatCircleDistance(inserted[i-1].Point, inserted[i].Point)
				}
				through += geo.GreatCircleDistance(inserted[len(inserted)-1].Point, neighbor.Point)
			} else {
				through += nb.Distance
			}

			if through < neighborInfo.actual {
				neighborInfo.actual = through
				if len(inserted) == 0 {
					neighborInfo.predecessor = current.wp
				} else {
					threadChain(info, neighbor, current.wp, inserted)
				}
				seq++
				neighborInfo.seq = seq
				heap.Push(pq, neighborInfo)
			}
		}
	}

	return reconstruct(info, dest)
}

// threadChain sets v's predecessor chain to run through inserted, in
// order: the last inserted waypoint becomes v's predecessor, its
// predecessor the second-to-last, and so on, with the first inserted
// waypoint's predecessor set to u.
func threadChain(info map[*Waypoint]*searchNode, v, u *Waypoint, inserted []*Waypoint) {
	nodeFor := func(wp *Waypoint) *searchNode {
		if n, ok := info[wp]; ok {
			return n
		}
		n := &searchNode{wp: wp}
		info[wp] = n
		return n
	}

	current := v
	for i := len(inserted) - 1; i >= 0; i-- {
		nodeFor(current).predecessor = inserted[i]
		current = inserted[i]
	}
	nodeFor(current).predecessor = u
}

// reconstruct walks predecessors from dest back to the origin, reversing
// to obtain the path, and accumulates great-circle distances along the
// reconstructed sequence (rather than trusting any synthetic chain node's
// never-populated actual-distance field).
func reconstruct(info map[*Waypoint]*searchNode, dest *Waypoint) Path {
	destInfo, ok := info[dest]
	if !ok || destInfo.predecessor == nil {
		return Path{}
	}

	var wps []*Waypoint
	for cur := dest; cur != nil; {
		wps = append(wps, cur)
		n, ok := info[cur]
		if !ok {
			break
		}
		cur = n.predecessor
	}
	for i, j := 0, len(wps)-1; i < j; i, j = i+1, j-1 {
		wps[i], wps[j] = wps[j], wps[i]
	}

	dists := make([]float64, len(wps))
	for i := 1; i < len(wps); i++ {
		dists[i] = dists[i-1] + geo.GreatCircleDistance(wps[i-1].Point, wps[i].Point)
	}

	return Path{Waypoints: wps, Distances: dists}
}
