package rasterize

import (
	"slices"

	"github.com/meridian-air/oirindex/morton"
)

// CellSet is the covering-set scratch spec.md §3.3 requires be local to a
// single rasterization call and reset on exit. It is a plain map kept
// package-private to callers of ProcessPolygon, which always hands back a
// snapshot slice instead of the live set.
type CellSet map[morton.Code]struct{}

// Add marks cell as covered.
func (c CellSet) Add(cell morton.Code) { c[cell] = struct{}{} }

// Has reports whether cell is marked.
func (c CellSet) Has(cell morton.Code) bool {
	_, ok := c[cell]
	return ok
}

// Slice snapshots the set into a deterministically ordered slice (sorted
// by the cell's raw 256-bit value) so callers get stable output without
// the index ever needing to care about map iteration order.
func (c CellSet) Slice() []morton.Code {
	out := make([]morton.Code, 0, len(c))
	for cell := range c {
		out = append(out, cell)
	}
	slices.SortFunc(out, compareCodes)
	return out
}

func compareCodes(a, b morton.Code) int {
	for i := 3; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func codeLess(a, b morton.Code) bool { return compareCodes(a, b) < 0 }
