// hazard/hazard.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package hazard owns the radar hazard raster: a width x height byte grid
// where zero means clear and non-zero means hazardous.
package hazard

import "github.com/mmp/dwr/raster"

// Raster stores a hazard mask by value. It is replaced wholesale on every
// radar update; there is no partial mutation.
type Raster struct {
	Width, Height int
	data          []byte
}

// New builds a Raster from a caller-supplied byte grid; data must have
// length width*height, row-major, and is copied.
func New(width, height int, data []byte) *Raster {
	if len(data) != width*height {
		panic("hazard: data length does not match width*height")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Raster{Width: width, Height: height, data: cp}
}

// Get returns the raster value at pixel, or 0 if pixel is out of bounds.
func (r *Raster) Get(p raster.Pixel) byte {
	if r == nil || p.X < 0 || p.X >= r.Width || p.Y < 0 || p.Y >= r.Height {
		return 0
	}
	return r.data[p.Y*r.Width+p.X]
}

// IsHazardous reports whether the pixel at p is non-zero.
func (r *Raster) IsHazardous(p raster.Pixel) bool {
	return r.Get(p) > 0
}

// ForEachHazardousPixel calls fn once for every hazardous pixel in the
// raster, in row-major order.
func (r *Raster) ForEachHazardousPixel(fn func(raster.Pixel)) {
	if r == nil {
		return
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.data[y*r.Width+x] > 0 {
				fn(raster.Pixel{X: x, Y: y})
			}
		}
	}
}
