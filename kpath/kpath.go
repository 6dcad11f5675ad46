// kpath/kpath.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package kpath implements Yen's k-shortest-paths algorithm over the
// deviation orchestrator's single-path search, via a forbidden-edge set
// threaded through the predicate rather than graph mutation.
package kpath

import (
	"container/heap"
	"fmt"

	"github.com/mmp/dwr/airway"
	"github.com/mmp/dwr/deviate"
)

// edgeSet is an undirected forbidden-edge set keyed by waypoint identity
// (pointer), not identifier: a spur point taken from a previous result may
// be a synthetic detour waypoint (spec 4.G), and every synthetic waypoint
// shares the same sentinel identifier (airway.NoID), so an identifier-keyed
// set would conflate distinct synthetic waypoints from different candidate
// paths. add/has are symmetric, since the predicate checks both (u, v) and
// (v, u).
type edgeSet map[*airway.Waypoint]map[*airway.Waypoint]bool

func (s edgeSet) add(a, b *airway.Waypoint) {
	if s[a] == nil {
		s[a] = make(map[*airway.Waypoint]bool)
	}
	s[a][b] = true
	if s[b] == nil {
		s[b] = make(map[*airway.Waypoint]bool)
	}
	s[b][a] = true
}

func (s edgeSet) has(a, b *airway.Waypoint) bool {
	return s[a][b]
}

// FindKPath returns up to k shortest paths from originID to destID in
// increasing length order, using o.FindDynamicFullPath as the underlying
// single-path solver. Fewer than k paths are returned if the candidate
// heap drains early. An empty slice is returned if even the first
// (unconstrained) path does not exist.
func FindKPath(o *deviate.Orchestrator, originID, destID airway.ID, k int) []airway.Path {
	if k <= 0 {
		return nil
	}

	first := o.FindDynamicFullPath(originID, destID, nil)
	if first.Empty() {
		return nil
	}
	result := []airway.Path{first}

	candidates := &pathHeap{}
	heap.Init(candidates)
	seen := make(map[string]bool) // dedup candidate paths by waypoint-pointer identity sequence

	for kk := 1; kk < k; kk++ {
		prev := result[kk-1]
		for i := 0; i < len(prev.Waypoints)-1; i++ {
			spur := prev.Waypoints[i]
			rootWaypoints := prev.Waypoints[:i+1]

			forbidden := make(edgeSet)
			for _, path := range result {
				if sharesPrefix(path.Waypoints, rootWaypoints) && len(path.Waypoints) > i+1 {
					forbidden.add(path.Waypoints[i], path.Waypoints[i+1])
				}
			}
			for _, wp := range rootWaypoints[:len(rootWaypoints)-1] {
				if wp == spur || wp.Synthetic {
					continue // no registered identifier, so no graph adjacency to forbid
				}
				for _, nb := range o.Graph().Neighbors(wp.ID) {
					if neighbor, ok := o.Graph().WaypointFromIdentifier(nb.To); ok {
						forbidden.add(wp, neighbor)
					}
				}
			}

			extra := func(u, v *airway.Waypoint) bool {
				return !forbidden.has(u, v)
			}

			spurPath := o.FindDynamicFullPathFromWaypoint(spur, destID, extra)
			if spurPath.Empty() {
				continue
			}

			root := airway.Path{Waypoints: rootWaypoints, Distances: prev.Distances[:i+1]}
			total, err := root.Concat(spurPath)
			if err != nil {
				continue
			}

			key := pathKey(total)
			if seen[key] {
				continue
			}
			seen[key] = true
			heap.Push(candidates, total)
		}

		if candidates.Len() == 0 {
			break
		}
		result = append(result, heap.Pop(candidates).(airway.Path))
	}

	return result
}

func sharesPrefix(path, prefix []*airway.Waypoint) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

// pathKey encodes a path's waypoint-pointer identity sequence for dedup.
// Keying on identifier would conflate distinct synthetic waypoints, which
// all share airway.NoID.
func pathKey(p airway.Path) string {
	var key []byte
	for _, wp := range p.Waypoints {
		key = fmt.Appendf(key, "%p|", wp)
	}
	return string(key)
}

// pathHeap orders candidate total paths by ascending length, per spec
// 4.H's min-heap keyed by total path length.
type pathHeap []airway.Path

func (h pathHeap) Len() int            { return len(h) }
func (h pathHeap) Less(i, j int) bool  { return h[i].Length() < h[j].Length() }
func (h pathHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x any)         { *h = append(*h, x.(airway.Path)) }
func (h *pathHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
