// hazardindex/hazardindex_test.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hazardindex

import (
	"strings"
	"testing"

	"github.com/mmp/dwr/airway"
	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/raster"
)

// identityWorldFile scales Mercator metres down to a small pixel grid (one
// pixel per kilometre), so the Bresenham rasterizations used in tests stay
// short.
func identityWorldFile() WorldFile {
	return WorldFile{A: 1000, B: 0, C: 0, D: 0, E: 1000, F: 0}
}

func TestParseWorldFileOrder(t *testing.T) {
	// Lines in file order A, B, D, E, C, F.
	text := "2.0\n0.0\n0.0\n-3.0\n100.0\n200.0\n"
	w, err := ParseWorldFile(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseWorldFile failed: %v", err)
	}
	want := WorldFile{A: 2.0, B: 0.0, D: 0.0, E: -3.0, C: 100.0, F: 200.0}
	if w != want {
		t.Errorf("ParseWorldFile = %+v, want %+v", w, want)
	}
}

func TestWorldFileRoundTrip(t *testing.T) {
	w := WorldFile{A: 2.0, B: 0.1, D: -0.1, E: -3.0, C: 100.0, F: 200.0}
	p := raster.Pixel{X: 37, Y: -12}
	x, y := w.ToMercator(p)
	got := w.ToPixel(x, y)
	if got != p {
		t.Errorf("ToPixel(ToMercator(%v)) = %v, want %v", p, got, p)
	}
}

// TestBlockedEdgeCompleteness is property 6: an edge is in the blocked set
// iff at least one pixel on its Bresenham rasterization is hazardous.
func TestBlockedEdgeCompleteness(t *testing.T) {
	g := airway.NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.001, 0)
	g.AddAirwaySegment(1, 2)

	wf := identityWorldFile()
	ix := NewIndex(wf, nil)
	ix.Build(g)

	wa, _ := g.WaypointFromIdentifier(1)
	wb, _ := g.WaypointFromIdentifier(2)
	aProj := wa.Point.Project()
	bProj := wb.Point.Project()
	pa := wf.ToPixel(aProj.X, aProj.Y)
	pb := wf.ToPixel(bProj.X, bProj.Y)
	line := raster.Line(pa, pb)
	if len(line) < 2 {
		t.Fatalf("Bresenham line between waypoints has only %d pixels", len(line))
	}
	mid := line[len(line)/2]

	// No hazard yet: the edge must not be blocked.
	clear := hazard.New(200, 200, make([]byte, 200*200))
	ix.Update(clear)
	if ix.IsBlocked(1, 2) {
		t.Fatalf("edge reported blocked before any hazard was applied")
	}

	// Mark a single pixel on the rasterized edge as hazardous.
	data := make([]byte, 200*200)
	if mid.X >= 0 && mid.X < 200 && mid.Y >= 0 && mid.Y < 200 {
		data[mid.Y*200+mid.X] = 1
	}
	hz := hazard.New(200, 200, data)
	ix.Update(hz)
	if !ix.IsBlocked(1, 2) {
		t.Errorf("edge not blocked after marking a pixel on its rasterization hazardous")
	}
}

func TestUpdateClearsPreviousBlockedSet(t *testing.T) {
	g := airway.NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.001, 0)
	g.AddAirwaySegment(1, 2)

	wf := identityWorldFile()
	ix := NewIndex(wf, nil)
	ix.Build(g)

	data := make([]byte, 200*200)
	for i := range data {
		data[i] = 1
	}
	ix.Update(hazard.New(200, 200, data))
	if !ix.IsBlocked(1, 2) {
		t.Fatalf("edge should be blocked when every pixel is hazardous")
	}

	ix.Update(hazard.New(200, 200, make([]byte, 200*200)))
	if ix.IsBlocked(1, 2) {
		t.Errorf("edge still blocked after an Update with no hazards")
	}
}

func TestSingleBuildIndexesNewWaypoint(t *testing.T) {
	g := airway.NewGraph(nil)
	g.AddWaypoint(1, "A", 0, 0)
	g.AddWaypoint(2, "B", 0.001, 0)
	g.AddAirwaySegment(1, 2)

	wf := identityWorldFile()
	ix := NewIndex(wf, nil)
	ix.Build(g)

	g.AddWaypoint(3, "C", 0.002, 0)
	g.AddAirwaySegment(2, 3)
	ix.SingleBuild(g, 3)

	data := make([]byte, 200*200)
	for i := range data {
		data[i] = 1
	}
	ix.Update(hazard.New(200, 200, data))
	if !ix.IsBlocked(2, 3) {
		t.Errorf("SingleBuild did not index the newly added edge (2, 3)")
	}
}
