// raster/raster.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package raster provides the pixel-space geometry the raster pathfinder
// builds on: integer pixel coordinates, Bresenham line rasterization, and
// the perpendicular "equant line" construction used to generate detour
// candidates across a hazard field.
package raster

import "math"

// Pixel is an integer raster coordinate.
type Pixel struct {
	X, Y int
}

// Distance returns the Euclidean distance between two pixels.
func Distance(a, b Pixel) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

// Line rasterizes the classical 8-connected Bresenham line from start to
// end, inclusive of both endpoints, preserving their order (the result is
// not just the unordered pixel set).
func Line(start, end Pixel) []Pixel {
	x0, y0 := start.X, start.Y
	x1, y1 := end.X, end.Y

	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}

	reverse := x0 > x1
	if reverse {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}

	deltax := x1 - x0
	deltay := abs(y1 - y0)
	errAcc := deltax / 2
	yy := y0
	ystep := 1
	if y0 >= y1 {
		ystep = -1
	}

	result := make([]Pixel, 0, x1-x0+1)
	for xx := x0; xx <= x1; xx++ {
		if steep {
			result = append(result, Pixel{X: yy, Y: xx})
		} else {
			result = append(result, Pixel{X: xx, Y: yy})
		}
		errAcc -= deltay
		if errAcc < 0 {
			yy += ystep
			errAcc += deltax
		}
	}

	if reverse {
		reversePixels(result)
	}
	return result
}

func reversePixels(p []Pixel) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PerpendicularEquantLines computes segments-1 interior subdivision points
// along the line from start to end and, at each, a Bresenham-rasterized
// transverse line of length 2*radius centered on the subdivision point and
// perpendicular to the original segment. The implementation is symmetric
// under axis swap: when the segment is more vertical than horizontal, the
// perpendicular direction is computed in the transposed frame and mapped
// back.
func PerpendicularEquantLines(start, end Pixel, segments int, radius float64) [][]Pixel {
	x0, y0 := start.X, start.Y
	x1, y1 := end.X, end.Y

	// Note: this "steep" test is the opposite sense from Line's — here it
	// flags a segment that is more horizontal than vertical, so that the
	// swapped frame is always the one in which the perpendicular slope k
	// below is well defined (y1 != y0 after the swap whenever start != end
	// and the segment isn't degenerate).
	steep := abs(y1-y0) < abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}

	k := -float64(x1-x0) / float64(y1-y0)
	dx := int(math.Round(math.Sqrt(1.0/(k*k+1)) * radius))
	dy := int(math.Round(k * float64(dx)))

	segmentDx := float64(x1-x0) / float64(segments)
	segmentDy := float64(y1-y0) / float64(segments)

	result := make([][]Pixel, 0, segments-1)
	for i := 1; i < segments; i++ {
		px := x0 + int(segmentDx*float64(i))
		py := y0 + int(segmentDy*float64(i))

		var vStart, vEnd Pixel
		if steep {
			vStart = Pixel{X: py - dy, Y: px - dx}
			vEnd = Pixel{X: py + dy, Y: px + dx}
		} else {
			vStart = Pixel{X: px - dx, Y: py - dy}
			vEnd = Pixel{X: px + dx, Y: py + dy}
		}
		result = append(result, Line(vStart, vEnd))
	}
	return result
}
