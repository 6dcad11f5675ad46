// airway/airway_test.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airway

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/mmp/dwr/geo"
	"github.com/mmp/dwr/util"
)

func acceptAll(u, v *Waypoint, infoU, infoV NodeInfo) (bool, []*Waypoint) {
	return true, nil
}

// TestSegmentSymmetry is property 1: after AddAirwaySegment(a, b), b is in
// a's neighbor list with the same distance as a in b's.
func TestSegmentSymmetry(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddAirwaySegment(1, 2)

	nbs1 := g.Neighbors(1)
	nbs2 := g.Neighbors(2)
	if len(nbs1) != 1 || len(nbs2) != 1 {
		t.Fatalf("neighbor counts = %d, %d, want 1, 1", len(nbs1), len(nbs2))
	}
	if nbs1[0].To != 2 || nbs2[0].To != 1 {
		t.Fatalf("neighbor targets = %v, %v, want 2, 1", nbs1[0].To, nbs2[0].To)
	}
	if nbs1[0].Distance != nbs2[0].Distance {
		t.Errorf("distances differ: %v vs %v", nbs1[0].Distance, nbs2[0].Distance)
	}

	// Adding the same segment again must not duplicate it.
	g.AddAirwaySegment(1, 2)
	if len(g.Neighbors(1)) != 1 {
		t.Errorf("duplicate AddAirwaySegment grew the neighbor list")
	}
}

// TestRemoveWaypointClearsIncidentEdges verifies RemoveWaypoint never
// leaves a dangling back-reference.
func TestRemoveWaypointClearsIncidentEdges(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddWaypoint(3, "C", 0.02, 0)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 3)

	g.RemoveWaypoint(2)

	if _, ok := g.WaypointFromIdentifier(2); ok {
		t.Errorf("waypoint 2 still registered after removal")
	}
	if len(g.Neighbors(1)) != 0 {
		t.Errorf("waypoint 1 still references removed waypoint 2")
	}
	if len(g.Neighbors(3)) != 0 {
		t.Errorf("waypoint 3 still references removed waypoint 2")
	}
}

// TestSaveLoadRoundTrip is property 2: load(save(G)) == G, structurally,
// with distances round-tripping bit-for-bit through IEEE-754.
func TestSaveLoadRoundTrip(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "ALPHA", 0, 0)
	g.AddWaypoint(2, "BRAVO", 0.01, 0.005)
	g.AddWaypoint(3, "CHARLIE", -0.02, 0.01)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 3)
	g.AddAirwaySegment(1, 3)

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.bin")
	if !g.Save(path) {
		t.Fatalf("Save failed")
	}

	loaded := NewGraph(nil)
	if !loaded.Load(path) {
		t.Fatalf("Load failed")
	}

	for _, id := range g.AllWaypointIdentifiers() {
		wantWp, _ := g.WaypointFromIdentifier(id)
		gotWp, ok := loaded.WaypointFromIdentifier(id)
		if !ok {
			t.Fatalf("waypoint %d missing after round-trip", id)
		}
		if gotWp.Name != wantWp.Name || gotWp.Point.Lon != wantWp.Point.Lon || gotWp.Point.Lat != wantWp.Point.Lat {
			t.Errorf("waypoint %d round-tripped as %+v, want %+v", id, gotWp, wantWp)
		}

		wantNbs := g.Neighbors(id)
		gotNbs := loaded.Neighbors(id)
		if len(gotNbs) != len(wantNbs) {
			t.Fatalf("waypoint %d neighbor count = %d, want %d", id, len(gotNbs), len(wantNbs))
		}
		for i := range wantNbs {
			if gotNbs[i] != wantNbs[i] {
				t.Errorf("waypoint %d neighbor[%d] = %+v, want %+v", id, i, gotNbs[i], wantNbs[i])
			}
		}
	}
}

func TestLoadMissingFileReturnsFalse(t *testing.T) {
	g := NewGraph(nil)
	if g.Load(filepath.Join(t.TempDir(), "does-not-exist.bin")) {
		t.Errorf("Load of a missing file returned true")
	}
}

func TestSaveUnwritablePathReturnsFalse(t *testing.T) {
	g := NewGraph(nil)
	if g.Save(filepath.Join(t.TempDir(), "no-such-dir", "graph.bin")) {
		t.Errorf("Save to an unwritable path returned true")
	}
}

// TestFindPathTrivialDirect is scenario S1: a two-waypoint graph with one
// edge and no hazards returns the direct path with the expected length.
func TestFindPathTrivialDirect(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddAirwaySegment(1, 2)

	path := g.FindPath(1, 2, acceptAll)
	if path.Empty() {
		t.Fatalf("FindPath(1, 2) returned an empty path")
	}
	if len(path.Waypoints) != 2 || path.Waypoints[0].ID != 1 || path.Waypoints[1].ID != 2 {
		t.Fatalf("FindPath(1, 2) = %v, want [1 2]", path.Waypoints)
	}
	if math.Abs(path.Length()-63781) > 200 {
		t.Errorf("FindPath(1, 2) length = %v, want ~63781m", path.Length())
	}
}

// TestFindPathMissingEndpoint is scenario S2.
func TestFindPathMissingEndpoint(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	path := g.FindPath(1, 999, acceptAll)
	if !path.Empty() {
		t.Errorf("FindPath to an unregistered identifier = %v, want empty", path.Waypoints)
	}
}

// TestFindPathOptimalityUnblocked is property 7: on a graph with no
// hazards and no turn constraints, A* returns the Dijkstra optimum. A
// diamond graph with one short and one long arm makes a wrong search
// trivially detectable.
func TestFindPathOptimalityUnblocked(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "origin", 0, 0)
	g.AddWaypoint(2, "short", 0.01, 0.01)
	g.AddWaypoint(3, "long", -0.05, -0.05)
	g.AddWaypoint(4, "dest", 0.02, 0)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 4)
	g.AddAirwaySegment(1, 3)
	g.AddAirwaySegment(3, 4)

	path := g.FindPath(1, 4, acceptAll)
	if path.Empty() {
		t.Fatalf("FindPath(1, 4) returned an empty path")
	}
	if path.Waypoints[1].ID != 2 {
		t.Errorf("FindPath(1, 4) took the long arm through waypoint %d, want the short arm through 2", path.Waypoints[1].ID)
	}
}

// TestFindPathConsistency is property 5: consecutive waypoint distances
// sum to the cumulative length within 1e-6 relative.
func TestFindPathConsistency(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddWaypoint(3, "C", 0.02, 0.01)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 3)

	path := g.FindPath(1, 3, acceptAll)
	if path.Empty() {
		t.Fatalf("FindPath(1, 3) returned an empty path")
	}

	var sum float64
	for i := 1; i < len(path.Distances); i++ {
		sum += path.Distances[i] - path.Distances[i-1]
	}
	rel := math.Abs(sum-path.Length()) / path.Length()
	if rel > 1e-6 {
		t.Errorf("summed segment distances = %v, cumulative length = %v (relative error %v)", sum, path.Length(), rel)
	}
}

// TestFindPathRejectsPredicate confirms a predicate that always declines
// produces no path even when connectivity exists.
func TestFindPathRejectsPredicate(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddAirwaySegment(1, 2)

	reject := func(u, v *Waypoint, infoU, infoV NodeInfo) (bool, []*Waypoint) { return false, nil }
	path := g.FindPath(1, 2, reject)
	if !path.Empty() {
		t.Errorf("FindPath with an all-rejecting predicate = %v, want empty", path.Waypoints)
	}
}

// TestValidateCleanGraph confirms a graph built purely through
// AddAirwaySegment never trips the reciprocation or self-loop checks.
func TestValidateCleanGraph(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddWaypoint(3, "C", 0.02, 0)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 3)

	var el util.ErrorLogger
	g.Validate(&el)
	if el.HaveErrors() {
		t.Errorf("Validate on a clean graph reported errors:\n%s", el.String())
	}
}

// TestValidateCatchesOneSidedEdge confirms Validate detects an adjacency
// entry with no reciprocal edge, as can arise from a hand-edited or
// corrupted graph file.
func TestValidateCatchesOneSidedEdge(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.adjacency[1] = append(g.adjacency[1], Neighbor{To: 2, Distance: 1000})
	// No reciprocal edge added to g.adjacency[2].

	var el util.ErrorLogger
	g.Validate(&el)
	if !el.HaveErrors() {
		t.Errorf("Validate missed a one-sided edge")
	}
}

// TestFindPathSyntheticInsertion exercises the synthetic-waypoint
// predecessor-chain threading: a predicate that always splices one
// synthetic waypoint between every edge.
func TestFindPathSyntheticInsertion(t *testing.T) {
	g := NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.01, 0)
	g.AddWaypoint(3, "C", 0.02, 0)
	g.AddAirwaySegment(1, 2)
	g.AddAirwaySegment(2, 3)

	insertBetween := func(u, v *Waypoint, infoU, infoV NodeInfo) (bool, []*Waypoint) {
		mid := NewSyntheticWaypoint("detour", (u.Point.Lon+v.Point.Lon)/2, (u.Point.Lat+v.Point.Lat)/2+0.001,
			geo.Projected{})
		return true, []*Waypoint{mid}
	}

	path := g.FindPath(1, 3, insertBetween)
	if path.Empty() {
		t.Fatalf("FindPath with synthetic insertion returned an empty path")
	}
	var syntheticCount int
	for _, wp := range path.Waypoints {
		if wp.Synthetic {
			syntheticCount++
		}
	}
	if syntheticCount == 0 {
		t.Errorf("FindPath with an always-inserting predicate produced no synthetic waypoints")
	}
	if path.Waypoints[0].ID != 1 || path.Waypoints[len(path.Waypoints)-1].ID != 3 {
		t.Errorf("path endpoints = %d, %d, want 1, 3", path.Waypoints[0].ID, path.Waypoints[len(path.Waypoints)-1].ID)
	}
}

