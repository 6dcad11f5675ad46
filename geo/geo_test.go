// geo/geo_test.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestMercatorRoundTrip(t *testing.T) {
	tests := []struct {
		lon, lat float64
	}{
		{0, 0},
		{0.01, 0},
		{-1.2, 0.5},
		{2.9, -1.0},
		{0.3, 1.4},
	}
	for _, tc := range tests {
		x, y := LonLatToMerc(tc.lon, tc.lat)
		lon, lat := MercToLonLat(x, y)
		if !approxEqual(lon, tc.lon, 1e-9) || !approxEqual(lat, tc.lat, 1e-9) {
			t.Errorf("LonLatToMerc(%v,%v)->MercToLonLat round trip = (%v,%v), want (%v,%v)",
				tc.lon, tc.lat, lon, lat, tc.lon, tc.lat)
		}
	}
}

func TestGreatCircleDistance(t *testing.T) {
	// Roughly 0.01 radians of longitude at the equator.
	a := NewPoint(0, 0)
	b := NewPoint(0.01, 0)
	d := GreatCircleDistance(a, b)
	if !approxEqual(d, 63781.37, 1) {
		t.Errorf("GreatCircleDistance = %v, want ~63781.37", d)
	}

	// Distance to self is zero.
	if d := GreatCircleDistance(a, a); d != 0 {
		t.Errorf("GreatCircleDistance(a, a) = %v, want 0", d)
	}
}

func TestTurnCosinePrecondition(t *testing.T) {
	prev := NewPoint(0, 0)
	cur := NewPoint(0.01, 0)
	next := NewPoint(0.02, 0)

	if _, err := TurnCosine(&prev, &cur, &next); err == nil {
		t.Fatalf("TurnCosine with unprojected points: got nil error, want *PreconditionError")
	} else if _, ok := err.(*PreconditionError); !ok {
		t.Fatalf("TurnCosine error type = %T, want *PreconditionError", err)
	}
}

func TestTurnCosineStraightLine(t *testing.T) {
	prev := NewPoint(0, 0)
	cur := NewPoint(0.01, 0)
	next := NewPoint(0.02, 0)
	prev.Project()
	cur.Project()
	next.Project()

	cos, err := TurnCosine(&prev, &cur, &next)
	if err != nil {
		t.Fatalf("TurnCosine: unexpected error %v", err)
	}
	if !approxEqual(cos, 1, 1e-6) {
		t.Errorf("TurnCosine on a straight segment = %v, want ~1", cos)
	}
}

func TestTurnCosineReversal(t *testing.T) {
	prev := NewPoint(0, 0)
	cur := NewPoint(0.01, 0)
	next := NewPoint(0, 0) // doubles back to the origin longitude
	prev.Project()
	cur.Project()
	next.Project()

	cos, err := TurnCosine(&prev, &cur, &next)
	if err != nil {
		t.Fatalf("TurnCosine: unexpected error %v", err)
	}
	if cos >= 0 {
		t.Errorf("TurnCosine on a reversal = %v, want < 0", cos)
	}
}

func TestDegreesString(t *testing.T) {
	tests := []struct {
		lon, lat float64
		want     string
	}{
		{1.0 / radToDeg, 2.0 / radToDeg, "1.00E2.00N"},
		{-1.0 / radToDeg, -2.0 / radToDeg, "1.00W2.00S"},
	}
	for _, tc := range tests {
		got := DegreesString(tc.lon, tc.lat)
		if got != tc.want {
			t.Errorf("DegreesString(%v, %v) = %q, want %q", tc.lon, tc.lat, got, tc.want)
		}
	}
}
