// Package fixedpoint implements the fixed-precision scalar types the
// rasterizer and index operate on. All coordinate math is exact integer
// arithmetic: spec.md names floating-point coordinates as a non-goal.
package fixedpoint

import "math/big"

// Coord is a latitude or longitude scaled by DecimalsFactor. A base value
// (±180·10^18) already needs ~68 bits, more than int64 holds, and products
// of two Coord differences (used throughout the DDA and ray-casting math)
// reach ~10^41 (~137 bits), more than 128 bits hold. math/big.Int is the one
// representation that holds both without overflow; no third-party
// arbitrary-precision package appears anywhere in the retrieval pack (see
// DESIGN.md), so this is the correct stdlib fit rather than a gap.
//
// Coord values are always treated as immutable: arithmetic helpers below
// allocate a fresh result rather than mutating an operand in place, so a
// Coord can be freely shared once constructed.
type Coord = big.Int

// DecimalsFactor is the implicit scale applied to every Coord.
var DecimalsFactor = big.NewInt(1_000_000_000_000_000_000)

var (
	MinLat = scaleDegrees(-90)
	MaxLat = scaleDegrees(90)
	MinLon = scaleDegrees(-180)
	MaxLon = scaleDegrees(180)
)

func scaleDegrees(deg int64) *Coord {
	return new(big.Int).Mul(big.NewInt(deg), DecimalsFactor)
}

// MaxPrecision bounds the grid resolution; 2*MaxPrecision must fit in the
// 256-bit MortonCode's meaningful low bits.
const MaxPrecision = 16

// FromInt64Degrees scales a whole-number degree value exactly.
func FromInt64Degrees(deg int64) *Coord { return scaleDegrees(deg) }

// FromFraction scales a rational degree value (numDeg/denDeg degrees),
// rounding to the nearest representable Coord when the fraction does not
// divide the scale factor evenly. Used by tests to build fractional
// coordinates (e.g. 22.5 degrees) without floating point.
func FromFraction(numDeg, denDeg int64) *Coord {
	n := new(big.Int).Mul(big.NewInt(numDeg), DecimalsFactor)
	d := big.NewInt(denDeg)
	return RoundedDiv(n, d)
}

// ValidLat reports whether lat is within the documented latitude range.
func ValidLat(lat *Coord) bool { return lat.Cmp(MinLat) >= 0 && lat.Cmp(MaxLat) <= 0 }

// ValidLon reports whether lon is within the documented longitude range.
func ValidLon(lon *Coord) bool { return lon.Cmp(MinLon) >= 0 && lon.Cmp(MaxLon) <= 0 }

// Add returns a+b as a new Coord.
func Add(a, b *Coord) *Coord { return new(big.Int).Add(a, b) }

// Sub returns a-b as a new Coord.
func Sub(a, b *Coord) *Coord { return new(big.Int).Sub(a, b) }

// Mul returns the exact product of two Coord values.
func Mul(a, b *Coord) *big.Int { return new(big.Int).Mul(a, b) }

// Half returns a/2. Callers must only use this where a is known to be
// exactly even (true throughout the bisection in morton.LatLonToMorton,
// since the world extent is divisible by 2^20, comfortably more than
// MaxPrecision halvings).
func Half(a *Coord) *Coord { return new(big.Int).Quo(a, big.NewInt(2)) }

// Cmp0 reports the sign of a (negative, zero, positive) as -1/0/1.
func Cmp0(a *Coord) int { return a.Sign() }

// RoundedDiv returns round(num/den), rounding half away from zero. den
// must be non-zero.
func RoundedDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() == 0 {
		return q
	}
	twiceR := new(big.Int).Abs(r)
	twiceR.Lsh(twiceR, 1)
	if twiceR.Cmp(new(big.Int).Abs(den)) >= 0 {
		if (num.Sign() < 0) != (den.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

// CrossProduct2D computes aDiff*bDiff - cDiff*dDiff exactly, used by the
// ray-casting region test in rasterize.isInside (spec.md §4.4.3).
func CrossProduct2D(aDiff, bDiff, cDiff, dDiff *Coord) *big.Int {
	left := Mul(aDiff, bDiff)
	right := Mul(cDiff, dDiff)
	return left.Sub(left, right)
}

// SquaredDistance2D returns dx^2+dy^2 exactly.
func SquaredDistance2D(dx, dy *Coord) *big.Int {
	dxp := Mul(dx, dx)
	dyp := Mul(dy, dy)
	return dxp.Add(dxp, dyp)
}
