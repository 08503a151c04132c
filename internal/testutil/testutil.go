// Package testutil provides shared test helpers and fixtures used
// across the module's package tests, trimmed from the teacher's
// HTTP-centric helpers down to the domain-relevant ones this module's
// tests actually need.
package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/index"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Degrees builds a *fixedpoint.Coord from a whole-number degree value.
func Degrees(deg int64) *fixedpoint.Coord { return fixedpoint.FromInt64Degrees(deg) }

// DegreesFrac builds a *fixedpoint.Coord from numDeg/denDeg degrees,
// for fixtures needing a fractional coordinate (e.g. 22.5 degrees).
func DegreesFrac(numDeg, denDeg int64) *fixedpoint.Coord {
	return fixedpoint.FromFraction(numDeg, denDeg)
}

// Principal builds an index.Principal from a single repeated byte, for
// short, readable test fixtures (Principal(1) != Principal(2)).
func Principal(b byte) index.Principal {
	var p index.Principal
	for i := range p {
		p[i] = b
	}
	return p
}

// OirId builds an index.OirId from a single repeated byte, the same
// convention as Principal.
func OirId(b byte) index.OirId {
	var id index.OirId
	for i := range id {
		id[i] = b
	}
	return id
}

// RandomOirId fills an index.OirId with two concatenated random UUIDs,
// for tests needing a large pool of distinct ids (bulk fixtures, cache
// eviction pressure) where the repeated-byte convention above would
// collide.
func RandomOirId() index.OirId {
	var id index.OirId
	copy(id[:16], uuid.New()[:])
	copy(id[16:], uuid.New()[:])
	return id
}
