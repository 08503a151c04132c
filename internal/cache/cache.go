// Package cache implements the bounded LRU query cache (C14) sitting in
// front of System.GetByCell, grounded on beetlebugorg/s57's ChartCache
// pattern (an LRU in front of a spatial index) and built on
// hashicorp/golang-lru/v2, the same library repeatedly used across the
// retrieval pack for exactly this shape of read-through cache.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meridian-air/oirindex/index"
)

// Cache caches the unfiltered record set index.Index.RecordsForCell
// returns for a cell. Caching the unfiltered set (rather than one entry
// per altitude/time filter combination) means a single invalidation per
// mutating event is always correct, and a single entry serves every
// distinct query against that cell.
type Cache struct {
	lru *lru.Cache[index.Geohash, []index.Record]
}

// New builds a Cache holding at most size entries. size must be > 0.
func New(size int) (*Cache, error) {
	l, err := lru.New[index.Geohash, []index.Record](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached record set for cell, if present.
func (c *Cache) Get(cell index.Geohash) ([]index.Record, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(cell)
}

// Put stores records for cell.
func (c *Cache) Put(cell index.Geohash, records []index.Record) {
	if c == nil {
		return
	}
	c.lru.Add(cell, records)
}

// Invalidate evicts cell's cached entry. Called for every event
// (DataAdded/DataUpdated/DataDeleted) touching that cell, since the
// event log is already the authoritative change feed.
func (c *Cache) Invalidate(cell index.Geohash) {
	if c == nil {
		return
	}
	c.lru.Remove(cell)
}
