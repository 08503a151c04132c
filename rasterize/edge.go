package rasterize

import (
	"fmt"
	"math/big"

	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/morton"
)

// cellSize returns the exact cell extent along one axis at precision,
// given the axis's total span (MaxLat-MinLat or MaxLon-MinLon). The world
// extents are divisible by 2^20, comfortably more than MaxPrecision
// halvings, so this shift is always exact.
func cellSize(span *big.Int, precision int) *big.Int {
	return new(big.Int).Rsh(span, uint(precision))
}

// floorDiv returns floor(a/b) for b > 0, via Euclidean division (whose
// remainder is always non-negative for a positive divisor).
func floorDiv(a, b *big.Int) *big.Int {
	q, m := new(big.Int), new(big.Int)
	q.DivMod(a, b, m)
	return q
}

// gridBoundary returns origin + idx*size.
func gridBoundary(origin, size, idx *big.Int) *big.Int {
	return new(big.Int).Add(origin, new(big.Int).Mul(idx, size))
}

// crossingParam returns (boundary-start)/delta as an exact rational, the
// DDA parameter t at which the segment crosses one grid line. delta must
// be non-zero.
func crossingParam(boundary, start, delta *big.Int) *big.Rat {
	num := new(big.Int).Sub(boundary, start)
	return new(big.Rat).SetFrac(num, delta)
}

// beyondParam is a sentinel greater than any valid crossing parameter in
// [0,1], used to mark an axis that has already reached its target index
// and should never again be chosen as "next to cross".
func beyondParam() *big.Rat { return big.NewRat(2, 1) }

// RasterizeEdge walks the grid cells a segment from v1 to v2 passes
// through at the given precision, per spec.md §4.3, adding each to cs.
// Endpoints are always marked. Axis-aligned and degenerate (point)
// segments are handled directly; the general case uses an exact
// rational DDA so no grid-line crossing is ever approximated.
func RasterizeEdge(cs CellSet, v1, v2 Vertex, precision int) error {
	startCell, err := morton.LatLonToMorton(v1.Lat, v1.Lon, precision)
	if err != nil {
		return err
	}
	endCell, err := morton.LatLonToMorton(v2.Lat, v2.Lon, precision)
	if err != nil {
		return err
	}

	dLat := fixedpoint.Sub(v2.Lat, v1.Lat)
	dLon := fixedpoint.Sub(v2.Lon, v1.Lon)

	if dLat.Sign() == 0 && dLon.Sign() == 0 {
		cs.Add(startCell)
		return nil
	}
	if dLat.Sign() == 0 {
		dir := morton.Right
		if dLon.Sign() < 0 {
			dir = morton.Left
		}
		return walkAndMark(cs, startCell, endCell, precision, dir)
	}
	if dLon.Sign() == 0 {
		dir := morton.Up
		if dLat.Sign() < 0 {
			dir = morton.Down
		}
		return walkAndMark(cs, startCell, endCell, precision, dir)
	}

	return rasterizeDiagonal(cs, v1, v2, dLat, dLon, startCell, endCell, precision)
}

// walkAndMark marks start, then single-steps toward target in dir,
// marking every visited cell, until target is reached.
func walkAndMark(cs CellSet, start, target morton.Code, precision int, dir morton.Direction) error {
	cs.Add(start)
	cur := start
	limit := maxGridSteps(precision) + 1
	for steps := 0; cur != target; steps++ {
		if steps > limit {
			return fmt.Errorf("rasterize: edge %s-walk did not converge", dir)
		}
		var err error
		cur, err = morton.Step(cur, precision, dir)
		if err != nil {
			return err
		}
		cs.Add(cur)
	}
	return nil
}

func rasterizeDiagonal(cs CellSet, v1, v2 Vertex, dLat, dLon *fixedpoint.Coord, startCell, endCell morton.Code, precision int) error {
	latSize := cellSize(fixedpoint.Sub(fixedpoint.MaxLat, fixedpoint.MinLat), precision)
	lonSize := cellSize(fixedpoint.Sub(fixedpoint.MaxLon, fixedpoint.MinLon), precision)

	latDir, latStep := morton.Up, big.NewInt(1)
	if dLat.Sign() < 0 {
		latDir, latStep = morton.Down, big.NewInt(-1)
	}
	lonDir, lonStep := morton.Right, big.NewInt(1)
	if dLon.Sign() < 0 {
		lonDir, lonStep = morton.Left, big.NewInt(-1)
	}

	curLatIdx := floorDiv(fixedpoint.Sub(v1.Lat, fixedpoint.MinLat), latSize)
	curLonIdx := floorDiv(fixedpoint.Sub(v1.Lon, fixedpoint.MinLon), lonSize)
	endLatIdx := floorDiv(fixedpoint.Sub(v2.Lat, fixedpoint.MinLat), latSize)
	endLonIdx := floorDiv(fixedpoint.Sub(v2.Lon, fixedpoint.MinLon), lonSize)

	cur := startCell
	cs.Add(cur)

	limit := 2*(maxGridSteps(precision)+1) + 4
	for steps := 0; curLatIdx.Cmp(endLatIdx) != 0 || curLonIdx.Cmp(endLonIdx) != 0; steps++ {
		if steps > limit {
			return fmt.Errorf("rasterize: diagonal edge walk did not converge")
		}

		tLat, tLon := beyondParam(), beyondParam()
		latIdxNext := new(big.Int)
		if curLatIdx.Cmp(endLatIdx) != 0 {
			latIdxNext.Add(curLatIdx, latStep)
			edgeIdx := curLatIdx
			if dLat.Sign() > 0 {
				edgeIdx = latIdxNext
			}
			boundary := gridBoundary(fixedpoint.MinLat, latSize, edgeIdx)
			tLat = crossingParam(boundary, v1.Lat, dLat)
		}
		lonIdxNext := new(big.Int)
		if curLonIdx.Cmp(endLonIdx) != 0 {
			lonIdxNext.Add(curLonIdx, lonStep)
			edgeIdx := curLonIdx
			if dLon.Sign() > 0 {
				edgeIdx = lonIdxNext
			}
			boundary := gridBoundary(fixedpoint.MinLon, lonSize, edgeIdx)
			tLon = crossingParam(boundary, v1.Lon, dLon)
		}

		cmp := tLat.Cmp(tLon)
		switch {
		case cmp < 0:
			var err error
			cur, err = morton.Step(cur, precision, latDir)
			if err != nil {
				return err
			}
			curLatIdx = latIdxNext
			cs.Add(cur)
		case cmp > 0:
			var err error
			cur, err = morton.Step(cur, precision, lonDir)
			if err != nil {
				return err
			}
			curLonIdx = lonIdxNext
			cs.Add(cur)
		default:
			// Exact corner crossing: the segment passes through a grid
			// vertex shared by four cells. Mark all four so neither
			// diagonal neighbor is missed.
			latOnly, err := morton.Step(cur, precision, latDir)
			if err != nil {
				return err
			}
			lonOnly, err := morton.Step(cur, precision, lonDir)
			if err != nil {
				return err
			}
			both, err := morton.Step(latOnly, precision, lonDir)
			if err != nil {
				return err
			}
			cs.Add(latOnly)
			cs.Add(lonOnly)
			cs.Add(both)
			cur = both
			curLatIdx = latIdxNext
			curLonIdx = lonIdxNext
		}
	}

	cs.Add(endCell)
	return nil
}
