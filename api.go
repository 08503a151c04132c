package oir

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridian-air/oirindex/authz"
	"github.com/meridian-air/oirindex/fixedpoint"
	"github.com/meridian-air/oirindex/index"
	"github.com/meridian-air/oirindex/internal/cache"
	"github.com/meridian-air/oirindex/internal/config"
	"github.com/meridian-air/oirindex/internal/metrics"
	"github.com/meridian-air/oirindex/internal/monitoring"
	"github.com/meridian-air/oirindex/internal/version"
	"github.com/meridian-air/oirindex/rasterize"
)

// System is the facade a host binds against (C9): the rasterizer, the
// OIR index, and the authorization state, combined behind the entry
// points spec.md §6.3 names.
type System struct {
	precision int
	idx       *index.Index
	authz     *authz.State
	cache     *cache.Cache
	metrics   *metrics.Metrics
}

// Options configures a new System.
type Options struct {
	// Precision is the immutable Morton grid precision (1-16).
	Precision int
	// Storage is the host-persisted transactional store.
	Storage index.Storage
	// InitialOwner is the deployer principal.
	InitialOwner index.Principal
	// InitialAllowed seeds the allow-list beyond the owner.
	InitialAllowed []index.Principal
	// ExternalEvents receives every emitted Event, e.g. the host's
	// append-only ledger log. May be nil.
	ExternalEvents index.EventSink
	// CacheSize bounds the C14 query cache; 0 disables it.
	CacheSize int
	// Registry is where C13 metrics are registered. A nil Registry
	// gets a private one.
	Registry *prometheus.Registry
}

// NewSystem builds a System per opts.
func NewSystem(opts Options) (*System, error) {
	if opts.Precision < 1 || opts.Precision > fixedpoint.MaxPrecision {
		return nil, &Error{Kind: InvalidArgument, Op: "NewSystem",
			Err: fmt.Errorf("precision %d out of range [1,%d]", opts.Precision, fixedpoint.MaxPrecision)}
	}
	if opts.Storage == nil {
		return nil, &Error{Kind: InvalidArgument, Op: "NewSystem", Err: fmt.Errorf("storage is required")}
	}

	var c *cache.Cache
	if opts.CacheSize > 0 {
		var err error
		c, err = cache.New(opts.CacheSize)
		if err != nil {
			return nil, &Error{Kind: Internal, Op: "NewSystem", Err: err}
		}
	}

	sink := index.EventSinkFunc(func(e index.Event) {
		if opts.ExternalEvents != nil {
			opts.ExternalEvents.Emit(e)
		}
		c.Invalidate(e.Cell)
	})

	az := authz.New(opts.InitialOwner, opts.InitialAllowed...)
	m := metrics.New(opts.Registry)

	monitoring.Logf("oir: system started, version=%s sha=%s precision=%d cacheSize=%d owner=%s", version.Version, version.GitSHA, opts.Precision, opts.CacheSize, opts.InitialOwner)

	return &System{
		precision: opts.Precision,
		idx:       index.New(opts.Storage, sink),
		authz:     az,
		cache:     c,
		metrics:   m,
	}, nil
}

// NewSystemFromConfig builds a System from a loaded SystemConfig (C11),
// the way the teacher's cmd/radar main builds its pipeline from a
// LoadTuningConfig result: cfg supplies everything spec.md §3.1/§4.7
// call immutable startup parameters (Precision is read once here and
// never changes thereafter), while storage, externalEvents, and
// registry are host-supplied dependencies a JSON file can't describe.
func NewSystemFromConfig(cfg *config.SystemConfig, storage index.Storage, externalEvents index.EventSink, registry *prometheus.Registry) (*System, error) {
	owner, err := cfg.GetInitialOwner()
	if err != nil {
		return nil, &Error{Kind: InvalidArgument, Op: "NewSystemFromConfig", Err: err}
	}
	allowed, err := cfg.GetInitialAllowed()
	if err != nil {
		return nil, &Error{Kind: InvalidArgument, Op: "NewSystemFromConfig", Err: err}
	}
	return NewSystem(Options{
		Precision:      cfg.GetPrecision(),
		Storage:        storage,
		InitialOwner:   owner,
		InitialAllowed: allowed,
		ExternalEvents: externalEvents,
		CacheSize:      cfg.GetCacheSize(),
		Registry:       registry,
	})
}

// ProcessPolygon rasterizes the simple polygon described by parallel
// lats/lons arrays (spec.md §6.3's processPolygon) at the System's
// configured precision, returning the covering cell set. Read-only:
// never touches index state. When debug is true, the second return
// value carries spec.md §4.5's full per-cell classification trace;
// otherwise it is nil.
func (s *System) ProcessPolygon(lats, lons []*fixedpoint.Coord, debug bool) ([]index.Geohash, *rasterize.DebugTrace, error) {
	if len(lats) != len(lons) {
		return nil, nil, &Error{Kind: InvalidArgument, Op: "ProcessPolygon",
			Err: fmt.Errorf("lats/lons length mismatch: %d vs %d", len(lats), len(lons))}
	}
	vertices := make([]rasterize.Vertex, len(lats))
	for i := range lats {
		vertices[i] = rasterize.Vertex{Lat: lats[i], Lon: lons[i]}
	}

	start := time.Now()
	codes, trace, err := rasterize.ProcessPolygon(vertices, s.precision, debug)
	s.metrics.RasterizeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// spec.md §7: the rasterizer fails with InvalidArgument on
		// malformed polygons (e.g. fewer than 3 vertices).
		return nil, nil, &Error{Kind: InvalidArgument, Op: "ProcessPolygon", Err: err}
	}

	cells := make([]index.Geohash, len(codes))
	for i, g := range codes {
		cells[i] = index.Geohash(g)
	}
	return cells, trace, nil
}

// Upsert implements spec.md §4.6/§6.3's upsert. caller must be in the
// allow-list.
func (s *System) Upsert(caller index.Principal, id index.OirId, cells []index.Geohash, minH, maxH uint16, tStart, tEnd uint64, url string, entity uint16) error {
	if err := s.authz.RequireAllowed(caller); err != nil {
		wrapped := wrapErr("Upsert", err)
		s.metrics.ObserveUpsert(wrapped)
		monitoring.Logf("oir: upsert rejected: caller=%s id=%x err=%v", caller, id, wrapped)
		return wrapped
	}
	err := s.idx.Upsert(caller, id, cells, minH, maxH, tStart, tEnd, url, entity)
	wrapped := wrapErr("Upsert", err)
	s.metrics.ObserveUpsert(wrapped)
	if wrapped != nil {
		monitoring.Logf("oir: upsert failed: caller=%s id=%x err=%v", caller, id, wrapped)
	}
	return wrapped
}

// Delete implements spec.md §4.6/§6.3's delete. caller must be in the
// allow-list. Unknown ids are silently ignored.
func (s *System) Delete(caller index.Principal, ids []index.OirId) error {
	if err := s.authz.RequireAllowed(caller); err != nil {
		wrapped := wrapErr("Delete", err)
		s.metrics.ObserveDelete(wrapped)
		monitoring.Logf("oir: delete rejected: caller=%s err=%v", caller, wrapped)
		return wrapped
	}
	err := s.idx.Delete(caller, ids)
	wrapped := wrapErr("Delete", err)
	s.metrics.ObserveDelete(wrapped)
	if wrapped != nil {
		monitoring.Logf("oir: delete failed: caller=%s err=%v", caller, wrapped)
	}
	return wrapped
}

// GetByCell implements spec.md §4.6/§6.3's read query. No authorization
// required. Reads through the C14 cache when enabled.
func (s *System) GetByCell(cell index.Geohash, minH, maxH uint16, tStart, tEnd uint64) ([]string, []uint16, []index.OirId, error) {
	s.metrics.CellQueriesTotal.Inc()
	if maxH < minH || tStart >= tEnd {
		return nil, nil, nil, wrapErr("GetByCell", fmt.Errorf("%w: invalid altitude/time range", index.ErrInvalidArgument))
	}

	if records, ok := s.cache.Get(cell); ok {
		urls, entities, ids, err := index.FilterRecords(records, minH, maxH, tStart, tEnd)
		return urls, entities, ids, wrapErr("GetByCell", err)
	}

	records, err := s.idx.RecordsForCell(cell)
	if err != nil {
		return nil, nil, nil, wrapErr("GetByCell", err)
	}
	s.cache.Put(cell, records)

	urls, entities, ids, err := index.FilterRecords(records, minH, maxH, tStart, tEnd)
	return urls, entities, ids, wrapErr("GetByCell", err)
}

// Allow adds addr to the allow-list. Owner only.
func (s *System) Allow(caller, addr index.Principal) error {
	return wrapErr("Allow", s.authz.Allow(caller, addr))
}

// Disallow removes addr from the allow-list. Owner only.
func (s *System) Disallow(caller, addr index.Principal) error {
	return wrapErr("Disallow", s.authz.Disallow(caller, addr))
}

// TransferOwnership moves ownership to newOwner. Owner only.
func (s *System) TransferOwnership(caller, newOwner index.Principal) error {
	return wrapErr("TransferOwnership", s.authz.TransferOwnership(caller, newOwner))
}

// Owner returns the current owner principal.
func (s *System) Owner() index.Principal { return s.authz.Owner() }

// IsAllowed reports whether p may call mutating operations.
func (s *System) IsAllowed(p index.Principal) bool { return s.authz.IsAllowed(p) }
