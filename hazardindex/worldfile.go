// hazardindex/worldfile.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package hazardindex maps hazard-raster pixels to the airway edges whose
// Bresenham rasterization crosses them, so that a radar update can
// recompute the blocked-edge set in time proportional to the number of
// hazardous pixels rather than the number of edges.
package hazardindex

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mmp/dwr/raster"
)

// WorldFile holds the six ESRI world-file coefficients defining the
// forward affine transform pixel -> Mercator: x = A*px + B*py + C,
// y = D*px + E*py + F.
//
// The six lines of the file are read in the order A, B, D, E, C, F — not
// the conventional ESRI line order (A, D, B, E, C, F) — because that is
// the order the system this module replaces actually reads them in. This
// may be a historical inversion in that system's map tiles, or a
// deliberate convention; either way it is preserved here rather than
// "corrected", since silently reordering it would make this module
// disagree with the world files already in use.
type WorldFile struct {
	A, B, C, D, E, F float64
}

// ParseWorldFile reads six whitespace-separated floating point values in
// the order A, B, D, E, C, F from r.
func ParseWorldFile(r io.Reader) (WorldFile, error) {
	var w WorldFile
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)

	read := func(name string) (float64, error) {
		if !s.Scan() {
			if err := s.Err(); err != nil {
				return 0, fmt.Errorf("world file: reading %s: %w", name, err)
			}
			return 0, fmt.Errorf("world file: reading %s: unexpected end of input", name)
		}
		var v float64
		if _, err := fmt.Sscanf(s.Text(), "%g", &v); err != nil {
			return 0, fmt.Errorf("world file: parsing %s: %w", name, err)
		}
		return v, nil
	}

	var err error
	if w.A, err = read("A"); err != nil {
		return WorldFile{}, err
	}
	if w.B, err = read("B"); err != nil {
		return WorldFile{}, err
	}
	if w.D, err = read("D"); err != nil {
		return WorldFile{}, err
	}
	if w.E, err = read("E"); err != nil {
		return WorldFile{}, err
	}
	if w.C, err = read("C"); err != nil {
		return WorldFile{}, err
	}
	if w.F, err = read("F"); err != nil {
		return WorldFile{}, err
	}
	return w, nil
}

// ToPixel applies the inverse affine transform, converting a Mercator
// coordinate to a raster pixel. Both directions are exposed because the
// orchestrator needs the forward direction too, to place a detour pixel
// back in Mercator space before reprojecting it to lon/lat for a synthetic
// waypoint's name.
//
// The float-to-int conversion truncates toward zero rather than rounding
// to nearest, matching the direct assignment into an int the system this
// module replaces performs at this same point.
func (w WorldFile) ToPixel(x, y float64) raster.Pixel {
	det := w.A*w.E - w.D*w.B
	px := (w.E*x - w.B*y + w.B*w.F - w.E*w.C) / det
	py := (-w.D*x + w.A*y + w.D*w.C - w.A*w.F) / det
	return raster.Pixel{X: int(px), Y: int(py)}
}

// ToMercator applies the forward affine transform, converting a raster
// pixel to a Mercator coordinate.
func (w WorldFile) ToMercator(p raster.Pixel) (x, y float64) {
	px, py := float64(p.X), float64(p.Y)
	x = w.A*px + w.B*py + w.C
	y = w.D*px + w.E*py + w.F
	return x, y
}
