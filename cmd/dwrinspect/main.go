// cmd/dwrinspect/main.go

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/mmp/dwr/airway"
	"github.com/mmp/dwr/deviate"
	"github.com/mmp/dwr/hazard"
	"github.com/mmp/dwr/hazardindex"
	"github.com/mmp/dwr/kpath"
	"github.com/mmp/dwr/util"
)

func main() {
	graphPath := flag.String("graph", "", "airway graph file (binary format)")
	worldPath := flag.String("world", "", "world file (six-line ESRI text format)")
	rasterPath := flag.String("raster", "", "raw hazard raster bytes, width*height, row-major")
	width := flag.Int("width", 0, "hazard raster width in pixels")
	height := flag.Int("height", 0, "hazard raster height in pixels")
	zstdCompressed := flag.Bool("zstd", false, "the raster file is zstd-compressed")
	origin := flag.Uint("origin", 0, "origin waypoint identifier")
	dest := flag.Uint("dest", 0, "destination waypoint identifier")
	k := flag.Int("k", 1, "number of paths to find; k=1 runs a single find_dynamic_full_path")
	validate := flag.Bool("validate", false, "check the loaded graph for adjacency consistency and exit")
	flag.Parse()

	if *graphPath == "" || (!*validate && (*worldPath == "" || *rasterPath == "" || *width == 0 || *height == 0)) {
		fmt.Println("usage: dwrinspect -graph <file> -world <file> -raster <file> -width <w> -height <h> -origin <id> -dest <id> [-k <n>] [-zstd]")
		fmt.Println("       dwrinspect -graph <file> -validate")
		flag.PrintDefaults()
		os.Exit(1)
	}

	g := airway.NewGraph(nil)
	if !g.Load(*graphPath) {
		fmt.Printf("%s: failed to load airway graph\n", *graphPath)
		os.Exit(1)
	}

	if *validate {
		var el util.ErrorLogger
		g.Validate(&el)
		if el.HaveErrors() {
			el.PrintErrors(nil)
			os.Exit(1)
		}
		fmt.Println("graph is consistent")
		return
	}

	wf, err := readWorldFile(*worldPath)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	hz, err := readHazardRaster(*rasterPath, *width, *height, *zstdCompressed)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	ix := hazardindex.NewIndex(wf, nil)
	ix.Build(g)
	o := deviate.NewOrchestrator(g, ix, nil)
	o.SetHazardRaster(hz)

	originID := airway.ID(*origin)
	destID := airway.ID(*dest)

	if *k <= 1 {
		path := o.FindDynamicFullPath(originID, destID, nil)
		printPath("path", path)
		if path.Empty() {
			os.Exit(1)
		}
		return
	}

	paths := kpath.FindKPath(o, originID, destID, *k)
	if len(paths) == 0 {
		fmt.Println("no path found")
		os.Exit(1)
	}
	for i, p := range paths {
		printPath(fmt.Sprintf("path %d", i), p)
	}
}

func readWorldFile(path string) (hazardindex.WorldFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return hazardindex.WorldFile{}, err
	}
	defer f.Close()
	return hazardindex.ParseWorldFile(f)
}

func readHazardRaster(path string, width, height int, compressed bool) (*hazard.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%s: raster has %d bytes, want %d (%d x %d)", path, len(data), width*height, width, height)
	}
	return hazard.New(width, height, data), nil
}

func printPath(label string, p airway.Path) {
	if p.Empty() {
		fmt.Printf("%s: no path\n", label)
		return
	}
	fmt.Printf("%s: length %.1fm\n", label, p.Length())
	for i, wp := range p.Waypoints {
		marker := ""
		if wp.Synthetic {
			marker = " (synthetic)"
		}
		fmt.Printf("  [%d] %s%s  lon=%.6f lat=%.6f  cumulative=%.1fm\n", i, wp.Name, marker, wp.Point.Lon, wp.Point.Lat, p.Distances[i])
	}
}
