package rasterize

import (
	"fmt"

	"github.com/meridian-air/oirindex/morton"
)

// ProcessPolygon runs the full C3-C5 pipeline spec.md §4 describes:
// bounding-box analysis, boundary rasterization of every edge (including
// the closing edge from the last vertex back to the first), and interior
// fill by connected-component classification. It returns the covering
// set of Geohash cells, sorted, with no duplicates.
//
// vertices must describe a simple polygon with at least 3 points; it is
// not required to be explicitly closed (the last-to-first edge is always
// rasterized). When debug is true, the second return value carries
// spec.md §4.5's full per-cell classification trace; otherwise it is
// nil and no debug bookkeeping is done.
func ProcessPolygon(vertices []Vertex, precision int, debug bool) ([]morton.Geohash, *DebugTrace, error) {
	bbox, err := ComputeBoundingBox(vertices, precision)
	if err != nil {
		return nil, nil, err
	}

	cs := make(CellSet)
	n := len(vertices)
	for i := 0; i < n; i++ {
		v1 := vertices[i]
		v2 := vertices[(i+1)%n]
		if err := RasterizeEdge(cs, v1, v2, precision); err != nil {
			return nil, nil, fmt.Errorf("rasterize: edge %d: %w", i, err)
		}
	}

	var trace *DebugTrace
	if debug {
		trace = &DebugTrace{}
	}
	if err := FillInterior(cs, vertices, bbox, precision, trace); err != nil {
		return nil, nil, fmt.Errorf("rasterize: fill: %w", err)
	}

	codes := cs.Slice()
	out := make([]morton.Geohash, len(codes))
	for i, c := range codes {
		out[i] = c.Geohash()
	}
	return out, trace, nil
}
