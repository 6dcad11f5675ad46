// pathfind/pathfind.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package pathfind implements the layered geometric A* that synthesizes a
// detour polyline across a hazard raster between two pixels, gated by a
// turn-angle constraint at the origin and at every interior node.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/raster"
)

const (
	// DefaultSegments is N in the spec's "default N = 3" candidate graph
	// construction, giving two intermediate levels between origin and
	// destination.
	DefaultSegments = 3
	// DetourRadiusFactor scales the direct origin-destination distance to
	// get the transverse-line radius for candidate generation.
	DetourRadiusFactor = 0.5
	// heuristicFactor is the 0.9 scalar applied to the Euclidean heuristic;
	// it stays admissible (under the true remaining cost) so the search
	// remains optimal while converging faster under noisy costs.
	heuristicFactor = 0.9
)

// Pathfinder routes detours around the hazardous pixels of a single
// hazard.Raster snapshot. It holds no other state and is safe to reuse
// across searches sequentially.
type Pathfinder struct {
	hz *hazard.Raster
}

// New returns a Pathfinder that treats hz's non-zero pixels as hazardous.
func New(hz *hazard.Raster) *Pathfinder {
	return &Pathfinder{hz: hz}
}

// cosTurnAngle is the pixel-space analogue of geo.TurnCosine: the cosine
// of the turn at current formed by the incoming leg previous->current and
// the outgoing leg current->next.
func cosTurnAngle(previous, current, next raster.Pixel) float64 {
	pcx := float64(current.X - previous.X)
	pcy := float64(current.Y - previous.Y)
	cnx := float64(next.X - current.X)
	cny := float64(next.Y - current.Y)
	return (pcx*cnx + pcy*cny) / (math.Sqrt(pcx*pcx+pcy*pcy) * math.Sqrt(cnx*cnx+cny*cny))
}

// candidateLevels builds the per-level candidate pixel sets between origin
// and destination, per spec 4.D's "candidate graph construction": walk
// inward from both ends of the direct Bresenham line to find the first
// hazardous pixel, then lay down segments-1 perpendicular transverse
// lines between those two pixels, dropping any hazardous pixel from each.
// Returns nil if the direct segment has no hazard (head >= tail), which
// the caller takes as "nothing to route around".
func (pf *Pathfinder) candidateLevels(origin, destination raster.Pixel, segments int) [][]raster.Pixel {
	pixels := raster.Line(origin, destination)
	head, tail := 0, len(pixels)-1
	for head < len(pixels) && !pf.hz.IsHazardous(pixels[head]) {
		head++
	}
	for tail >= 0 && !pf.hz.IsHazardous(pixels[tail]) {
		tail--
	}
	if head >= tail {
		return nil
	}

	direct := raster.Distance(origin, destination)
	radius := direct * DetourRadiusFactor
	levels := raster.PerpendicularEquantLines(pixels[head], pixels[tail], segments, radius)

	result := make([][]raster.Pixel, len(levels))
	for i, lvl := range levels {
		for _, p := range lvl {
			if !pf.hz.IsHazardous(p) {
				result[i] = append(result[i], p)
			}
		}
	}
	return result
}

// checkLine reports whether the Bresenham line between a and b contains no
// hazardous pixel.
func (pf *Pathfinder) checkLine(a, b raster.Pixel) bool {
	for _, p := range raster.Line(a, b) {
		if pf.hz.IsHazardous(p) {
			return false
		}
	}
	return true
}

// node is the per-search A* scratch state for one candidate pixel. Nodes
// live only for the duration of a single FindPathWithAngle call.
type node struct {
	pixel     raster.Pixel
	level     int
	dist      float64
	estimate  float64
	previous  *node
	seq       int
	heapIndex int
}

type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].estimate != q[j].estimate {
		return q[i].estimate < q[j].estimate
	}
	return q[i].seq < q[j].seq // deterministic tie-break: node creation order
}
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex, q[j].heapIndex = i, j
}
func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.heapIndex = len(*q)
	*q = append(*q, n)
}
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// path runs the layered A* over the given candidate levels, accepting an
// edge (u, v) only when canSearch(u, v) allows it and the Bresenham line
// between them is hazard-free. It returns the ordered pixel sequence from
// origin to destination inclusive, or nil on failure.
func (pf *Pathfinder) path(origin, destination raster.Pixel, levels [][]raster.Pixel, canSearch func(u, v *node) bool) []raster.Pixel {
	levelNodes := make([][]*node, len(levels)+2)
	seq := 0
	newNode := func(p raster.Pixel, level int, dist, estimate float64) *node {
		seq++
		return &node{pixel: p, level: level, dist: dist, estimate: estimate, seq: seq}
	}

	origin_ := newNode(origin, 0, 0, heuristicFactor*raster.Distance(origin, destination))
	levelNodes[0] = []*node{origin_}
	destNode := newNode(destination, len(levels)+1, math.Inf(1), 0)
	levelNodes[len(levels)+1] = []*node{destNode}

	for i, lvl := range levels {
		nodes := make([]*node, len(lvl))
		for j, p := range lvl {
			nodes[j] = newNode(p, i+1, math.Inf(1), heuristicFactor*raster.Distance(p, destination))
		}
		levelNodes[i+1] = nodes
	}

	pq := &nodeQueue{origin_}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*node)
		if current.pixel == destination {
			break
		}

		for _, v := range levelNodes[current.level+1] {
			if !canSearch(current, v) {
				continue
			}
			if !pf.checkLine(current.pixel, v.pixel) {
				continue
			}
			through := current.dist + raster.Distance(current.pixel, v.pixel)
			if through < v.dist {
				v.dist = through
				v.previous = current
				v.estimate = v.dist + heuristicFactor*raster.Distance(v.pixel, destination)
				heap.Push(pq, v)
			}
		}
	}

	if destNode.previous == nil {
		return nil
	}

	var result []raster.Pixel
	for n := destNode; n != nil; n = n.previous {
		result = append(result, n.pixel)
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// FindPathWithAngle computes a detour polyline from origin to destination
// that avoids hazardous pixels and respects the turn-angle gate: for the
// origin's outgoing edges, the turn cosine of previousOrigin->origin->next
// must be > 0; previousOrigin == nil disables that check at the origin.
// For every interior node the gate is previous->current->next cosine > 0.
//
// The returned sequence runs from origin to destination inclusive; it is
// empty (nil) both when the direct segment has no hazard to route around
// and when no admissible detour exists. FindPathWithAngle never returns an
// error — an empty result is the sole failure indicator.
func (pf *Pathfinder) FindPathWithAngle(origin, destination raster.Pixel, previousOrigin *raster.Pixel) []raster.Pixel {
	levels := pf.candidateLevels(origin, destination, DefaultSegments)
	if levels == nil {
		return nil
	}

	canSearch := func(u, v *node) bool {
		if u.previous == nil {
			if previousOrigin == nil {
				return true
			}
			return cosTurnAngle(*previousOrigin, u.pixel, v.pixel) > 0
		}
		return cosTurnAngle(u.previous.pixel, u.pixel, v.pixel) > 0
	}

	return pf.path(origin, destination, levels, canSearch)
}
