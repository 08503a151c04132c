package oir_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oir "github.com/meridian-air/oirindex"
	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/host"
	"github.com/meridian-air/oirindex/index"
	"github.com/meridian-air/oirindex/internal/config"
	"github.com/meridian-air/oirindex/internal/testutil"
)

func principal(b byte) index.Principal { return testutil.Principal(b) }

func oirID(b byte) index.OirId { return testutil.OirId(b) }

func deg(d int64) *fixedpoint.Coord { return testutil.Degrees(d) }

func newSystem(t *testing.T, owner index.Principal, allowed ...index.Principal) *oir.System {
	t.Helper()
	sys, err := oir.NewSystem(oir.Options{
		Precision:      6,
		Storage:        host.NewMemory(),
		InitialOwner:   owner,
		InitialAllowed: allowed,
	})
	require.NoError(t, err)
	return sys
}

func TestNewSystem_RejectsInvalidPrecision(t *testing.T) {
	t.Parallel()
	_, err := oir.NewSystem(oir.Options{Precision: 0, Storage: host.NewMemory()})
	require.Error(t, err)
	var oe *oir.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, oir.InvalidArgument, oe.Kind)
}

func TestNewSystem_RequiresStorage(t *testing.T) {
	t.Parallel()
	_, err := oir.NewSystem(oir.Options{Precision: 6})
	assert.Error(t, err)
}

func TestProcessPolygon_ThenUpsertAndQuery(t *testing.T) {
	t.Parallel()
	owner := principal(1)
	sys := newSystem(t, owner)

	lats := []*fixedpoint.Coord{deg(0), deg(10), deg(0)}
	lons := []*fixedpoint.Coord{deg(0), deg(0), deg(10)}
	cells, trace, err := sys.ProcessPolygon(lats, lons, false)
	require.NoError(t, err)
	require.NotEmpty(t, cells)
	assert.Nil(t, trace, "debug=false must not build a trace")

	id := oirID(1)
	require.NoError(t, sys.Upsert(owner, id, cells, 0, 400, 1000, 2000, "https://example.test/a", 1))

	urls, _, ids, err := sys.GetByCell(cells[0], 0, 400, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, []index.OirId{id}, ids)
	assert.Equal(t, []string{"https://example.test/a"}, urls)
}

// spec.md §4.5/§6.3: processPolygon(..., debug=true) returns the full
// per-cell classification trace alongside the covering set.
func TestProcessPolygon_DebugTrace(t *testing.T) {
	t.Parallel()
	sys := newSystem(t, principal(1))

	lats := []*fixedpoint.Coord{deg(0), deg(10), deg(0)}
	lons := []*fixedpoint.Coord{deg(0), deg(0), deg(10)}
	cells, trace, err := sys.ProcessPolygon(lats, lons, true)
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.NotEmpty(t, trace.Cells)
	assert.NotEmpty(t, trace.Equivalence)
	assert.Equal(t, 0, trace.Equivalence[0], "label 0 is the boundary sentinel and must map to itself")

	insideCells := make(map[string]bool, len(cells))
	for _, c := range cells {
		insideCells[string(c[:])] = true
	}
	for _, dc := range trace.Cells {
		g := dc.Code.Geohash()
		assert.Equal(t, insideCells[string(g[:])], dc.IsInside, "trace IsInside must agree with the final covering set")
		if dc.IsEdge {
			assert.Equal(t, 0, dc.FinalLabel)
		}
	}
}

// C11: Precision and the rest of System's immutable startup parameters
// are read once at construction from a SystemConfig, the same shape
// spec.md §3.1/§4.7 describe.
func TestNewSystemFromConfig_MapsAllFields(t *testing.T) {
	t.Parallel()
	owner := principal(9)
	allowed := principal(8)

	cfg := config.EmptyConfig()
	precision := 7
	cacheSize := 32
	cfg.Precision = &precision
	cfg.CacheSize = &cacheSize
	ownerHex := hex.EncodeToString(owner[:])
	cfg.InitialOwnerHex = &ownerHex
	cfg.InitialAllowedHex = []string{hex.EncodeToString(allowed[:])}

	sys, err := oir.NewSystemFromConfig(cfg, host.NewMemory(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, owner, sys.Owner())
	assert.True(t, sys.IsAllowed(allowed))

	lats := []*fixedpoint.Coord{deg(0), deg(10), deg(0)}
	lons := []*fixedpoint.Coord{deg(0), deg(0), deg(10)}
	cells, _, err := sys.ProcessPolygon(lats, lons, false)
	require.NoError(t, err)
	assert.NotEmpty(t, cells, "precision 7 from cfg must actually drive rasterization")
}

func TestUpsert_RejectsUnauthorizedCaller(t *testing.T) {
	t.Parallel()
	owner := principal(1)
	mallory := principal(2)
	sys := newSystem(t, owner)

	err := sys.Upsert(mallory, oirID(1), []index.Geohash{{1}}, 0, 10, 0, 1, "u", 1)
	require.Error(t, err)
	var oe *oir.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, oir.Unauthorized, oe.Kind)
	assert.True(t, err.(*oir.Error).Is(oir.ErrUnauthorized))
}

// Scenario S5 (spec.md §8): two collaborators editing the same record.
func TestS5_CollaborativeEdit(t *testing.T) {
	t.Parallel()
	owner, alice := principal(1), principal(2)
	sys := newSystem(t, owner, alice)

	id := oirID(7)
	c1 := index.Geohash{0x11}

	require.NoError(t, sys.Upsert(owner, id, []index.Geohash{c1}, 0, 100, 0, 1000, "v1", 1))
	require.NoError(t, sys.Upsert(alice, id, []index.Geohash{c1}, 0, 200, 0, 1000, "v2", 1))

	urls, _, ids, err := sys.GetByCell(c1, 0, 200, 0, 1000)
	require.NoError(t, err)
	require.Equal(t, []index.OirId{id}, ids)
	assert.Equal(t, []string{"v2"}, urls, "alice's edit must win as the latest write")
}

func TestAllow_OnlyOwner(t *testing.T) {
	t.Parallel()
	owner, alice, mallory := principal(1), principal(2), principal(3)
	sys := newSystem(t, owner)

	err := sys.Allow(mallory, alice)
	require.Error(t, err)

	require.NoError(t, sys.Allow(owner, alice))
	assert.True(t, sys.IsAllowed(alice))
}

func TestGetByCell_CacheServesRepeatedQueries(t *testing.T) {
	t.Parallel()
	owner := principal(1)
	sys, err := oir.NewSystem(oir.Options{
		Precision:    6,
		Storage:      host.NewMemory(),
		InitialOwner: owner,
		CacheSize:    16,
	})
	require.NoError(t, err)

	id := oirID(3)
	c1 := index.Geohash{0x22}
	require.NoError(t, sys.Upsert(owner, id, []index.Geohash{c1}, 0, 100, 0, 1000, "cached", 1))

	_, _, ids1, err := sys.GetByCell(c1, 0, 100, 0, 1000)
	require.NoError(t, err)
	_, _, ids2, err := sys.GetByCell(c1, 0, 100, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, ids1, ids2)

	require.NoError(t, sys.Delete(owner, []index.OirId{id}))
	_, _, ids3, err := sys.GetByCell(c1, 0, 100, 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, ids3, "cache must be invalidated by the delete event")
}

func TestBuildVersion(t *testing.T) {
	t.Parallel()
	ver, sha := oir.BuildVersion()
	assert.NotEmpty(t, ver)
	assert.NotEmpty(t, sha)
}

func TestGetByCell_InvalidRange(t *testing.T) {
	t.Parallel()
	sys := newSystem(t, principal(1))
	_, _, _, err := sys.GetByCell(index.Geohash{1}, 10, 5, 0, 1)
	assert.Error(t, err)
}
