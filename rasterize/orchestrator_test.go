package rasterize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-air/oirindex/morton"
)

func contains(cells []morton.Geohash, target morton.Geohash) bool {
	for _, c := range cells {
		if c == target {
			return true
		}
	}
	return false
}

func cellOf(t *testing.T, lat, lon int64, precision int) morton.Geohash {
	t.Helper()
	code, err := morton.LatLonToMorton(deg(lat), deg(lon), precision)
	require.NoError(t, err)
	return code.Geohash()
}

// Scenario S1 (spec.md §8): small triangle at precision 2.
func TestProcessPolygon_S1Triangle(t *testing.T) {
	t.Parallel()
	precision := 2
	vertices := []Vertex{
		{Lat: deg(0), Lon: deg(0)},
		{Lat: deg(45), Lon: deg(0)},
		{Lat: deg(0), Lon: deg(45)},
	}
	cells, trace, err := ProcessPolygon(vertices, precision, false)
	require.NoError(t, err)
	assert.Greater(t, len(cells), 0)
	assert.Nil(t, trace)

	assert.True(t, contains(cells, cellOf(t, 0, 0, precision)))
	assert.True(t, contains(cells, cellOf(t, 22, 22, precision)), "midpoint-ish interior cell should be covered")
	assert.False(t, contains(cells, cellOf(t, 60, 60, precision)), "far corner outside bbox should be excluded")
}

// spec.md §4.5: processPolygon(..., debug=true) returns a full per-cell
// classification trace alongside the covering set.
func TestProcessPolygon_DebugTrace(t *testing.T) {
	t.Parallel()
	precision := 5
	vertices := []Vertex{
		{Lat: deg(0), Lon: deg(0)},
		{Lat: deg(45), Lon: deg(0)},
		{Lat: deg(0), Lon: deg(45)},
	}
	_, trace, err := ProcessPolygon(vertices, precision, true)
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.NotEmpty(t, trace.Cells)
	assert.Equal(t, trace.BBox.Width*trace.BBox.Height, len(trace.Cells))

	var sawEdge, sawInterior bool
	for _, dc := range trace.Cells {
		if dc.IsEdge {
			sawEdge = true
			assert.Equal(t, 0, dc.FinalLabel)
			continue
		}
		sawInterior = true
		assert.Equal(t, trace.Equivalence[dc.OriginalLabel], dc.FinalLabel)
	}
	assert.True(t, sawEdge, "a triangle's bbox grid always touches its boundary")
	assert.True(t, sawInterior)
}

func TestProcessPolygon_TooFewVertices(t *testing.T) {
	t.Parallel()
	_, _, err := ProcessPolygon([]Vertex{{Lat: deg(0), Lon: deg(0)}, {Lat: deg(1), Lon: deg(1)}}, 4, false)
	assert.Error(t, err)
}

// Property 3 (spec.md §8): edge rasterization is symmetric.
func TestRasterizeEdge_Symmetry(t *testing.T) {
	t.Parallel()
	precision := 6
	v1 := Vertex{Lat: deg(-10), Lon: deg(5)}
	v2 := Vertex{Lat: deg(15), Lon: deg(-20)}

	forward := make(CellSet)
	require.NoError(t, RasterizeEdge(forward, v1, v2, precision))

	backward := make(CellSet)
	require.NoError(t, RasterizeEdge(backward, v2, v1, precision))

	assert.ElementsMatch(t, forward.Slice(), backward.Slice())
}

func TestRasterizeEdge_Point(t *testing.T) {
	t.Parallel()
	precision := 4
	v := Vertex{Lat: deg(1), Lon: deg(1)}
	cs := make(CellSet)
	require.NoError(t, RasterizeEdge(cs, v, v, precision))
	assert.Len(t, cs, 1)
}

func TestRasterizeEdge_Horizontal(t *testing.T) {
	t.Parallel()
	precision := 4
	v1 := Vertex{Lat: deg(10), Lon: deg(-10)}
	v2 := Vertex{Lat: deg(10), Lon: deg(10)}
	cs := make(CellSet)
	require.NoError(t, RasterizeEdge(cs, v1, v2, precision))
	assert.True(t, cs.Has(cellOfCode(t, v1, precision)))
	assert.True(t, cs.Has(cellOfCode(t, v2, precision)))
}

func cellOfCode(t *testing.T, v Vertex, precision int) morton.Code {
	t.Helper()
	code, err := morton.LatLonToMorton(v.Lat, v.Lon, precision)
	require.NoError(t, err)
	return code
}
