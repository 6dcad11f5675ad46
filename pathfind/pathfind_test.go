// pathfind/pathfind_test.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pathfind

import (
	"testing"

	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/raster"
)

// gridRaster builds a width x height grid in which pixel (x, y) is
// hazardous exactly when hazardous(x, y) reports true.
func gridRaster(width, height int, hazardous func(x, y int) bool) *hazard.Raster {
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if hazardous(x, y) {
				data[y*width+x] = 1
			}
		}
	}
	return hazard.New(width, height, data)
}

func TestFindPathWithAngleNoHazardReturnsEmpty(t *testing.T) {
	hz := gridRaster(100, 100, func(x, y int) bool { return false })
	pf := New(hz)
	path := pf.FindPathWithAngle(raster.Pixel{X: 0, Y: 50}, raster.Pixel{X: 99, Y: 50}, nil)
	if path != nil {
		t.Errorf("FindPathWithAngle on a clear raster = %v, want nil", path)
	}
}

func TestFindPathWithAngleDetour(t *testing.T) {
	// Hazard blocks a vertical band across the direct horizontal line, but
	// a detour well above the line is open.
	hz := gridRaster(100, 100, func(x, y int) bool {
		return x >= 40 && x <= 60 && y >= 45 && y <= 55
	})
	pf := New(hz)
	origin := raster.Pixel{X: 0, Y: 50}
	dest := raster.Pixel{X: 99, Y: 50}
	path := pf.FindPathWithAngle(origin, dest, nil)
	if path == nil {
		t.Fatalf("FindPathWithAngle found no detour around a narrow hazard band")
	}
	if path[0] != origin {
		t.Errorf("path[0] = %v, want origin %v", path[0], origin)
	}
	if path[len(path)-1] != dest {
		t.Errorf("path[last] = %v, want destination %v", path[len(path)-1], dest)
	}
	for _, p := range path {
		if hz.IsHazardous(p) {
			t.Errorf("path passes through hazardous pixel %v", p)
		}
	}
}

func TestFindPathWithAngleFullyBlocked(t *testing.T) {
	// Hazard fills the whole corridor with no detour available.
	hz := gridRaster(100, 100, func(x, y int) bool {
		return x >= 40 && x <= 60
	})
	pf := New(hz)
	path := pf.FindPathWithAngle(raster.Pixel{X: 0, Y: 50}, raster.Pixel{X: 99, Y: 50}, nil)
	if path != nil {
		t.Errorf("FindPathWithAngle on a fully-blocked corridor = %v, want nil", path)
	}
}

func TestCosTurnAngle(t *testing.T) {
	straight := cosTurnAngle(raster.Pixel{X: 0, Y: 0}, raster.Pixel{X: 1, Y: 0}, raster.Pixel{X: 2, Y: 0})
	if straight < 0.999 {
		t.Errorf("cosTurnAngle on a straight line = %v, want ~1", straight)
	}

	reversal := cosTurnAngle(raster.Pixel{X: 0, Y: 0}, raster.Pixel{X: 1, Y: 0}, raster.Pixel{X: 0, Y: 0})
	if reversal > -0.999 {
		t.Errorf("cosTurnAngle on a full reversal = %v, want ~-1", reversal)
	}
}
