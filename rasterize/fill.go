package rasterize

import (
	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/morton"
)

// buildGrid materializes the bbox.Width x bbox.Height block of Morton
// codes, row 0 = the BL corner's row, by single-stepping Right across
// each row and Up between rows. Built once per polygon and reused by
// both the interior labeler and the final output walk.
func buildGrid(bbox BoundingBox, precision int) ([][]morton.Code, error) {
	codes := make([][]morton.Code, bbox.Height)
	rowStart := bbox.BL
	for r := 0; r < bbox.Height; r++ {
		row := make([]morton.Code, bbox.Width)
		row[0] = rowStart
		cur := rowStart
		for c := 1; c < bbox.Width; c++ {
			var err error
			cur, err = morton.Step(cur, precision, morton.Right)
			if err != nil {
				return nil, err
			}
			row[c] = cur
		}
		codes[r] = row
		if r+1 < bbox.Height {
			var err error
			rowStart, err = morton.Step(rowStart, precision, morton.Up)
			if err != nil {
				return nil, err
			}
		}
	}
	return codes, nil
}

// labelComponents runs the two-pass connected-component labeling over
// the grid's non-boundary cells per spec.md §4.4.2: a raster-order first
// pass assigns provisional labels from left/top neighbors and records
// equivalences; each equivalence is resolved into a flattened parent
// array immediately (an O(n) pass over every known label), rather than
// deferring to path compression on lookup. label 0 marks boundary cells
// (and grid edges, which behave identically — no label propagates
// through either).
//
// Returns the final (resolved) label grid, the original (pass-1,
// pre-resolve) label grid, and the terminal equivalence map (index i
// is the label assigned during pass 1, value is its terminal
// representative) — spec.md §4.5's debug payload wants all three.
func labelComponents(codes [][]morton.Code, boundary CellSet) (final, original [][]int, equivalence []int) {
	height := len(codes)
	width := 0
	if height > 0 {
		width = len(codes[0])
	}
	labels := make([][]int, height)
	for r := range labels {
		labels[r] = make([]int, width)
	}

	parent := []int{0}
	nextLabel := 1

	resolve := func(l int) int {
		for parent[l] != l {
			l = parent[l]
		}
		return l
	}
	union := func(a, b int) {
		ra, rb := resolve(a), resolve(b)
		if ra == rb {
			return
		}
		lo, hi := ra, rb
		if lo > hi {
			lo, hi = hi, lo
		}
		parent[hi] = lo
		for i := 1; i < len(parent); i++ {
			if parent[i] == hi {
				parent[i] = lo
			}
		}
	}

	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if boundary.Has(codes[r][c]) {
				continue
			}
			var left, top int
			if c > 0 {
				left = labels[r][c-1]
			}
			if r > 0 {
				top = labels[r-1][c]
			}
			switch {
			case left == 0 && top == 0:
				labels[r][c] = nextLabel
				parent = append(parent, nextLabel)
				nextLabel++
			case left != 0 && top == 0:
				labels[r][c] = left
			case left == 0 && top != 0:
				labels[r][c] = top
			default:
				labels[r][c] = left
				union(left, top)
			}
		}
	}

	original = make([][]int, height)
	for r := range labels {
		original[r] = make([]int, width)
		copy(original[r], labels[r])
	}

	for r := range labels {
		for c := range labels[r] {
			if labels[r][c] != 0 {
				labels[r][c] = resolve(labels[r][c])
			}
		}
	}

	equivalence = make([]int, len(parent))
	for l := range parent {
		equivalence[l] = resolve(l)
	}

	return labels, original, equivalence
}

// isInside runs the standard ray-casting point-in-polygon test against a
// horizontal ray from (lat, lon), per spec.md §4.4.3, using exact integer
// cross products instead of a division-based x-intercept so no edge ever
// needs floating point or fixedpoint.RoundedDiv's rounding.
func isInside(lat, lon *fixedpoint.Coord, vertices []Vertex) bool {
	inside := false
	n := len(vertices)
	for i := 0; i < n; i++ {
		vi := vertices[i]
		vj := vertices[(i+n-1)%n]

		yiAbove := vi.Lat.Cmp(lat) > 0
		yjAbove := vj.Lat.Cmp(lat) > 0
		if yiAbove == yjAbove {
			continue
		}

		denom := fixedpoint.Sub(vj.Lat, vi.Lat)
		lhs := fixedpoint.Mul(fixedpoint.Sub(lon, vi.Lon), denom)
		rhs := fixedpoint.Mul(fixedpoint.Sub(lat, vi.Lat), fixedpoint.Sub(vj.Lon, vi.Lon))

		var crosses bool
		if denom.Sign() > 0 {
			crosses = lhs.Cmp(rhs) < 0
		} else {
			crosses = lhs.Cmp(rhs) > 0
		}
		if crosses {
			inside = !inside
		}
	}
	return inside
}

// DebugCell records spec.md §4.5's per-cell debug classification for one
// grid cell visited during a rasterization call: the label CCL's first
// pass gave it, the label it resolved to, whether it was decided inside
// the polygon, and whether it's a boundary/edge cell that labeling
// never classified at all (it keeps whatever RasterizeEdge decided).
type DebugCell struct {
	Code          morton.Code
	OriginalLabel int
	FinalLabel    int
	IsInside      bool
	IsEdge        bool
}

// DebugTrace is the optional payload processPolygon(..., debug=true)
// returns per spec.md §4.5: every visited grid cell's classification,
// the CCL equivalence map (index is the pass-1 label, value its
// terminal representative), and the bounding box the grid was built
// over. Index 0 of Equivalence is always 0 — label 0 is the boundary
// sentinel, never a real component.
type DebugTrace struct {
	Cells       []DebugCell
	Equivalence []int
	BBox        BoundingBox
}

// FillInterior classifies every non-boundary cell of the bbox grid by
// connected component, tests one representative cell per component with
// isInside, and adds every cell of an inside component to cs. cs must
// already contain the boundary cells from RasterizeEdge; FillInterior
// only ever adds cells, never removes the boundary. When trace is
// non-nil, it is populated with the full per-cell debug classification
// spec.md §4.5 describes.
func FillInterior(cs CellSet, vertices []Vertex, bbox BoundingBox, precision int, trace *DebugTrace) error {
	codes, err := buildGrid(bbox, precision)
	if err != nil {
		return err
	}
	finalLabels, originalLabels, equivalence := labelComponents(codes, cs)

	insideLabel := make(map[int]bool)
	decided := make(map[int]bool)
	for r := range codes {
		for c := range codes[r] {
			label := finalLabels[r][c]
			if label == 0 || decided[label] {
				continue
			}
			decided[label] = true
			lat, lon, err := morton.MortonToLatLon(codes[r][c], precision)
			if err != nil {
				return err
			}
			insideLabel[label] = isInside(lat, lon, vertices)
		}
	}

	for r := range codes {
		for c := range codes[r] {
			label := finalLabels[r][c]
			if label != 0 && insideLabel[label] {
				cs.Add(codes[r][c])
			}
		}
	}

	if trace != nil {
		trace.BBox = bbox
		trace.Equivalence = equivalence
		trace.Cells = make([]DebugCell, 0, bbox.Width*bbox.Height)
		for r := range codes {
			for c := range codes[r] {
				code := codes[r][c]
				trace.Cells = append(trace.Cells, DebugCell{
					Code:          code,
					OriginalLabel: originalLabels[r][c],
					FinalLabel:    finalLabels[r][c],
					IsInside:      cs.Has(code),
					IsEdge:        finalLabels[r][c] == 0,
				})
			}
		}
	}
	return nil
}
