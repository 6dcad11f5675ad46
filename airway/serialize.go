// airway/serialize.go
// Copyright(c) 2023 Matt Pharr, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airway

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// Save writes the graph to path in the binary format: a u32 waypoint
// count, then per waypoint a u32 identifier, a u32-length-prefixed UTF-8
// name, and f64 longitude/latitude (radians); followed by, per waypoint
// again in the same order, a u32 identifier and u32 neighbor count, then
// per neighbor a u32 identifier and f64 distance. It returns false (with
// no partial file left open) if path cannot be created.
func (g *Graph) Save(path string) bool {
	g.mu.RLock(g.lg)
	defer g.mu.RUnlock(g.lg)

	f, err := os.Create(path)
	if err != nil {
		g.lg.Errorf("airway: create %q: %v", path, err)
		return false
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ids := g.AllWaypointIdentifiers()

	if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
		g.lg.Errorf("airway: write waypoint count: %v", err)
		return false
	}
	for _, id := range ids {
		wp := g.waypoints[id]
		if err := writeWaypointRecord(w, wp); err != nil {
			g.lg.Errorf("airway: write waypoint %d: %v", id, err)
			return false
		}
	}
	for _, id := range ids {
		nbs := g.adjacency[id]
		if err := binary.Write(w, binary.LittleEndian, uint32(id)); err != nil {
			return false
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(nbs))); err != nil {
			return false
		}
		for _, nb := range nbs {
			if err := binary.Write(w, binary.LittleEndian, uint32(nb.To)); err != nil {
				return false
			}
			if err := binary.Write(w, binary.LittleEndian, nb.Distance); err != nil {
				return false
			}
		}
	}

	if err := w.Flush(); err != nil {
		g.lg.Errorf("airway: flush %q: %v", path, err)
		return false
	}
	g.lg.Infof("airway: saved %d waypoints to %q", len(ids), path)
	return true
}

func writeWaypointRecord(w io.Writer, wp *Waypoint) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(wp.ID)); err != nil {
		return err
	}
	name := []byte(wp.Name)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(name))); err != nil {
		return err
	}
	if _, err := w.Write(name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, wp.Point.Lon); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, wp.Point.Lat)
}

// Load replaces the graph's contents with the graph read from path. On
// any failure (missing file, truncated or malformed data, or a neighbor
// referencing an identifier absent from the waypoint block) it leaves the
// graph untouched and returns false: no partial state is ever committed.
func (g *Graph) Load(path string) bool {
	g.mu.Lock(g.lg)
	defer g.mu.Unlock(g.lg)

	f, err := os.Open(path)
	if err != nil {
		g.lg.Errorf("airway: open %q: %v", path, err)
		return false
	}
	defer f.Close()

	r := bufio.NewReader(f)
	waypoints, order, err := readWaypoints(r)
	if err != nil {
		g.lg.Errorf("airway: read waypoints from %q: %v", path, err)
		return false
	}
	adjacency, err := readAdjacency(r, waypoints, len(order))
	if err != nil {
		g.lg.Errorf("airway: read adjacency from %q: %v", path, err)
		return false
	}

	g.waypoints = waypoints
	g.adjacency = adjacency
	g.lg.Infof("airway: loaded %d waypoints from %q", len(order), path)
	return true
}

func readWaypoints(r io.Reader) (map[ID]*Waypoint, []ID, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, err
	}

	waypoints := make(map[ID]*Waypoint, n)
	order := make([]ID, 0, n)
	for i := uint32(0); i < n; i++ {
		var rawID, nameLen uint32
		if err := binary.Read(r, binary.LittleEndian, &rawID); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, nil, err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, nil, err
		}
		var lon, lat float64
		if err := binary.Read(r, binary.LittleEndian, &lon); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &lat); err != nil {
			return nil, nil, err
		}

		id := ID(rawID)
		waypoints[id] = NewWaypoint(id, string(name), lon, lat)
		order = append(order, id)
	}
	return waypoints, order, nil
}

func readAdjacency(r io.Reader, waypoints map[ID]*Waypoint, n int) (map[ID][]Neighbor, error) {
	adjacency := make(map[ID][]Neighbor, n)
	for i := 0; i < n; i++ {
		var rawID, neighborCount uint32
		if err := binary.Read(r, binary.LittleEndian, &rawID); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &neighborCount); err != nil {
			return nil, err
		}
		id := ID(rawID)
		if _, ok := waypoints[id]; !ok {
			return nil, &serializeError{"adjacency references unknown waypoint identifier"}
		}

		nbs := make([]Neighbor, neighborCount)
		for j := uint32(0); j < neighborCount; j++ {
			var to uint32
			var dist float64
			if err := binary.Read(r, binary.LittleEndian, &to); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &dist); err != nil {
				return nil, err
			}
			if _, ok := waypoints[ID(to)]; !ok {
				return nil, &serializeError{"neighbor references unknown waypoint identifier"}
			}
			nbs[j] = Neighbor{To: ID(to), Distance: dist}
		}
		adjacency[id] = nbs
	}
	return adjacency, nil
}

type serializeError struct{ msg string }

func (e *serializeError) Error() string { return e.msg }
