// Package rasterize implements the polygon-to-geohash rasterizer:
// bounding-box analysis (C3), edge rasterization (C4), the two-pass fill
// engine (C5), and the orchestrator (C6) that drives them, per spec.md §4.
package rasterize

import (
	"fmt"

	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/morton"
)

// Vertex is a polygon vertex in fixed-point lat/lon.
type Vertex struct {
	Lat, Lon *fixedpoint.Coord
}

// BoundingBox is the C3 output: the extreme corners of a vertex set,
// their Morton codes, and the grid width/height in cells.
type BoundingBox struct {
	MinLat, MaxLat, MinLon, MaxLon *fixedpoint.Coord
	BL, TL, TR                     morton.Code
	Width, Height                  int
}

// maxGridSteps bounds the neighbor-stepping loops in ComputeBoundingBox
// against runaway iteration; no valid bounding box at precision P should
// ever need more than 2^P steps along an axis.
func maxGridSteps(precision int) int {
	return 1 << uint(precision)
}

// ComputeBoundingBox computes the min/max extent of vertices and the
// corner codes/grid dimensions per spec.md §4.2. vertices must have at
// least 3 entries.
func ComputeBoundingBox(vertices []Vertex, precision int) (BoundingBox, error) {
	if len(vertices) < 3 {
		return BoundingBox{}, fmt.Errorf("rasterize: polygon needs at least 3 vertices, got %d", len(vertices))
	}

	minLat, maxLat := vertices[0].Lat, vertices[0].Lat
	minLon, maxLon := vertices[0].Lon, vertices[0].Lon
	for _, v := range vertices[1:] {
		if v.Lat.Cmp(minLat) < 0 {
			minLat = v.Lat
		}
		if v.Lat.Cmp(maxLat) > 0 {
			maxLat = v.Lat
		}
		if v.Lon.Cmp(minLon) < 0 {
			minLon = v.Lon
		}
		if v.Lon.Cmp(maxLon) > 0 {
			maxLon = v.Lon
		}
	}

	bl, err := morton.LatLonToMorton(minLat, minLon, precision)
	if err != nil {
		return BoundingBox{}, err
	}
	tl, err := morton.LatLonToMorton(maxLat, minLon, precision)
	if err != nil {
		return BoundingBox{}, err
	}
	tr, err := morton.LatLonToMorton(maxLat, maxLon, precision)
	if err != nil {
		return BoundingBox{}, err
	}

	height, err := countSteps(bl, tl, precision, morton.Up)
	if err != nil {
		return BoundingBox{}, err
	}
	width, err := countSteps(tl, tr, precision, morton.Right)
	if err != nil {
		return BoundingBox{}, err
	}

	return BoundingBox{
		MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon,
		BL: bl, TL: tl, TR: tr,
		Width:  width + 1,
		Height: height + 1,
	}, nil
}

// countSteps walks from start to target one cell at a time in dir,
// counting steps, per spec.md §4.2's "single-stepping until equal"
// definition of width/height.
func countSteps(start, target morton.Code, precision int, dir morton.Direction) (int, error) {
	cur := start
	steps := 0
	limit := maxGridSteps(precision) + 1
	for cur != target {
		var err error
		cur, err = morton.Step(cur, precision, dir)
		if err != nil {
			return 0, err
		}
		steps++
		if steps > limit {
			return 0, fmt.Errorf("rasterize: bounding box %s-stepping did not converge", dir)
		}
	}
	return steps, nil
}
