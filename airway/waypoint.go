// airway/waypoint.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airway

import (
	"math"

	"github.com/mmp/dwr/geo"
)

// ID identifies a waypoint registered in a Graph. NoID is the sentinel
// value denoting a synthetic (user-inserted) waypoint that was never
// registered.
type ID uint32

// NoID is the identity carried by every synthetic waypoint produced as a
// detour result; synthetic waypoints are distinguished from one another
// by pointer identity, never by ID.
const NoID ID = math.MaxUint32

// Waypoint is a named geographic point participating in the airway
// network, or a synthetic detour point spliced into a path by the
// deviation orchestrator.
type Waypoint struct {
	ID        ID
	Name      string
	Point     geo.Point
	Synthetic bool
}

// NewWaypoint builds a registered waypoint at (lon, lat) in radians.
func NewWaypoint(id ID, name string, lon, lat float64) *Waypoint {
	return &Waypoint{ID: id, Name: name, Point: geo.NewPoint(lon, lat)}
}

// NewSyntheticWaypoint builds an unregistered detour waypoint whose
// projected coordinate is already known (it was produced by back-
// projecting a raster pixel), per spec 4.G.
func NewSyntheticWaypoint(name string, lon, lat float64, proj geo.Projected) *Waypoint {
	p := geo.NewPoint(lon, lat)
	p.SetProjected(proj)
	return &Waypoint{ID: NoID, Name: name, Point: p, Synthetic: true}
}

// Neighbor is a directed back-reference from one waypoint to another,
// with the precomputed great-circle distance between them.
type Neighbor struct {
	To       ID
	Distance float64
}

///////////////////////////////////////////////////////////////////////////
// Path

// Path is an ordered sequence of waypoints plus a parallel sequence of
// cumulative distances: the first entry is zero, the last is the total
// length. Both sequences always have equal length.
type Path struct {
	Waypoints []*Waypoint
	Distances []float64
}

// Empty reports whether the path carries no waypoints, the sole failure
// indicator for FindPath and the raster pathfinder alike.
func (p Path) Empty() bool {
	return len(p.Waypoints) == 0
}

// Length returns the path's total length, or zero for an empty path.
func (p Path) Length() float64 {
	if len(p.Distances) == 0 {
		return 0
	}
	return p.Distances[len(p.Distances)-1]
}

// Concat appends other to p. It requires the tail of p to coincide with
// the head of other (the same *Waypoint, not merely an equal identifier,
// since synthetic waypoints share the sentinel ID); otherwise it fails
// with a *geo.PreconditionError. Other's cumulative distances are offset
// by p's total length.
func (p Path) Concat(other Path) (Path, error) {
	if p.Empty() || other.Empty() {
		return Path{}, &geo.PreconditionError{Op: "Concat", Msg: "cannot concatenate an empty path"}
	}
	if p.Waypoints[len(p.Waypoints)-1] != other.Waypoints[0] {
		return Path{}, &geo.PreconditionError{Op: "Concat", Msg: "tail of first path does not coincide with head of second"}
	}

	offset := p.Length()
	wps := make([]*Waypoint, 0, len(p.Waypoints)+len(other.Waypoints)-1)
	wps = append(wps, p.Waypoints...)
	wps = append(wps, other.Waypoints[1:]...)

	dists := make([]float64, 0, len(p.Distances)+len(other.Distances)-1)
	dists = append(dists, p.Distances...)
	for _, d := range other.Distances[1:] {
		dists = append(dists, d+offset)
	}

	return Path{Waypoints: wps, Distances: dists}, nil
}
