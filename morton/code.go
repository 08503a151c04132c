// Package morton implements the Z-order (Morton) grid codec: encoding a
// lat/lon pair into a fixed-precision grid cell, decoding a cell back to
// its centroid, and single-step neighbor arithmetic on the grid.
//
// Code is modeled as a 4x uint64 array (256 bits), the same "pack a
// recursively-bisected coordinate into a comparable, zero-allocation
// array key" technique as aclivo/lattice's Addr type — the one repo in
// the retrieval pack solving the identical representation problem,
// generalizing its N-dimension interleaver down to the fixed
// two-dimension (lat, lon) case spec.md requires, with the
// carry-propagating neighbor step lattice.Addr does not attempt.
package morton

import (
	"fmt"

	"github.com/meridian-air/oirindex/fixedpoint"
)

// Code is a 256-bit unsigned Z-order value. Only the low 2*precision bits
// are meaningful for a given precision; the rest are always zero. Code is
// a plain comparable array, safe to use as a map key.
type Code [4]uint64

// Geohash is the opaque 32-byte cell identifier spec.md §3.1 names. Packing
// a Code into the low bits of a Geohash, most-significant word first, is
// the encoding this module uses (spec.md explicitly allows this choice and
// forbids base32 geohash strings).
type Geohash [32]byte

// Geohash packs c into a big-endian 32-byte array: word[3] (most
// significant 64 bits) occupies bytes 0-7, down to word[0] in bytes 24-31.
func (c Code) Geohash() Geohash {
	var g Geohash
	for w := 0; w < 4; w++ {
		word := c[3-w]
		for b := 0; b < 8; b++ {
			g[w*8+b] = byte(word >> (56 - 8*b))
		}
	}
	return g
}

// FromGeohash unpacks a Geohash produced by Code.Geohash back into a Code.
// Per spec.md's design note, the index accepts any Geohash-typed key, not
// only ones this module produced; FromGeohash is provided for callers that
// want to interpret a Geohash as a grid cell (e.g. for debug tooling), not
// because the index itself requires it.
func FromGeohash(g Geohash) Code {
	var c Code
	for w := 0; w < 4; w++ {
		var word uint64
		for b := 0; b < 8; b++ {
			word = word<<8 | uint64(g[w*8+b])
		}
		c[3-w] = word
	}
	return c
}

// bit returns bit i (0 = least significant) of c.
func (c Code) bit(i int) uint64 {
	return (c[i/64] >> uint(i%64)) & 1
}

// setBit sets bit i of c to v (0 or 1).
func (c *Code) setBit(i int, v uint64) {
	mask := uint64(1) << uint(i%64)
	if v != 0 {
		c[i/64] |= mask
	} else {
		c[i/64] &^= mask
	}
}

// group returns the 2-bit group at groupIdx (0 = least significant, the
// finest grid level) as a value in [0,3].
func (c Code) group(groupIdx int) uint64 {
	base := groupIdx * 2
	return c.bit(base) | c.bit(base+1)<<1
}

// setGroup overwrites the 2-bit group at groupIdx with v (a value in [0,3]).
func (c *Code) setGroup(groupIdx int, v uint64) {
	base := groupIdx * 2
	c.setBit(base, v&1)
	c.setBit(base+1, (v>>1)&1)
}

// shiftLeft2Or shifts c left by 2 bits and ORs in the low 2 bits of v.
func (c *Code) shiftLeft2Or(v uint64) {
	carry := uint64(0)
	for w := 0; w < 4; w++ {
		newCarry := c[w] >> 62
		c[w] = c[w]<<2 | carry
		carry = newCarry
	}
	c[0] |= v & 0b11
}

// quadrant codes, per spec.md §4.1's table. The high bit of each code is
// the latitude selector (0 = upper/>=mid half, 1 = lower/<mid half); the
// low bit is the longitude selector (0 = left/<mid half, 1 = right/>=mid
// half).
const (
	quadUpperLeft  = 0b00
	quadUpperRight = 0b01
	quadLowerLeft  = 0b10
	quadLowerRight = 0b11
)

// LatLonToMorton encodes (lat, lon) into a Code at the given precision,
// per spec.md §4.1. Ties at a midpoint resolve to the upper/right half.
func LatLonToMorton(lat, lon *fixedpoint.Coord, precision int) (Code, error) {
	if !fixedpoint.ValidLat(lat) {
		return Code{}, fmt.Errorf("morton: latitude %s out of range", lat)
	}
	if !fixedpoint.ValidLon(lon) {
		return Code{}, fmt.Errorf("morton: longitude %s out of range", lon)
	}
	if precision < 1 || precision > fixedpoint.MaxPrecision {
		return Code{}, fmt.Errorf("morton: precision %d out of range [1,%d]", precision, fixedpoint.MaxPrecision)
	}

	down, up := fixedpoint.MinLat, fixedpoint.MaxLat
	left, right := fixedpoint.MinLon, fixedpoint.MaxLon

	var code Code
	for i := 0; i < precision; i++ {
		midLat := fixedpoint.Add(down, fixedpoint.Half(fixedpoint.Sub(up, down)))
		midLon := fixedpoint.Add(left, fixedpoint.Half(fixedpoint.Sub(right, left)))

		latGE := lat.Cmp(midLat) >= 0
		lonGE := lon.Cmp(midLon) >= 0

		var quad uint64
		switch {
		case latGE && !lonGE:
			quad = quadUpperLeft
			down, right = midLat, midLon
		case latGE && lonGE:
			quad = quadUpperRight
			down, left = midLat, midLon
		case !latGE && !lonGE:
			quad = quadLowerLeft
			up, right = midLat, midLon
		default: // !latGE && lonGE
			quad = quadLowerRight
			up, left = midLat, midLon
		}
		code.shiftLeft2Or(quad)
	}
	return code, nil
}

// MortonToLatLon decodes code at the given precision back to the centroid
// (midpoint) of the cell it identifies, per spec.md §4.1.
func MortonToLatLon(code Code, precision int) (lat, lon *fixedpoint.Coord, err error) {
	minLat, maxLat, minLon, maxLon, err := CellBounds(code, precision)
	if err != nil {
		return nil, nil, err
	}
	lat = fixedpoint.Add(minLat, fixedpoint.Half(fixedpoint.Sub(maxLat, minLat)))
	lon = fixedpoint.Add(minLon, fixedpoint.Half(fixedpoint.Sub(maxLon, minLon)))
	return lat, lon, nil
}

// CellBounds returns the exact rectangle a cell occupies, used by tests
// that check a centroid lies within the cell's own bounds (spec.md §8
// property 1).
func CellBounds(code Code, precision int) (minLat, maxLat, minLon, maxLon *fixedpoint.Coord, err error) {
	if precision < 1 || precision > fixedpoint.MaxPrecision {
		return nil, nil, nil, nil, fmt.Errorf("morton: precision %d out of range [1,%d]", precision, fixedpoint.MaxPrecision)
	}
	down, up := fixedpoint.MinLat, fixedpoint.MaxLat
	left, right := fixedpoint.MinLon, fixedpoint.MaxLon
	// Iteration 1 (coarsest) sits at group index precision-1 (most
	// significant of the meaningful bits); iteration precision (finest)
	// sits at group index 0. Walk in original iteration order.
	for i := precision - 1; i >= 0; i-- {
		quad := code.group(i)
		midLat := fixedpoint.Add(down, fixedpoint.Half(fixedpoint.Sub(up, down)))
		midLon := fixedpoint.Add(left, fixedpoint.Half(fixedpoint.Sub(right, left)))
		switch quad {
		case quadUpperLeft:
			down, right = midLat, midLon
		case quadUpperRight:
			down, left = midLat, midLon
		case quadLowerLeft:
			up, right = midLat, midLon
		case quadLowerRight:
			up, left = midLat, midLon
		}
	}
	return down, up, left, right, nil
}
