// Package host ships the reference Storage adapters spec.md §6.1 leaves
// to the embedding host: an in-process mutex-guarded map store (this
// file) and a SQLite-backed store (host/sqlite).
package host

import (
	"sync"

	"github.com/meridian-air/oirindex/index"
)

// Memory is an in-process index.Storage backed by plain maps under one
// mutex, the simplest realization of spec.md §5's "single coarse-grained
// write lock" model. It is the adapter every package's tests embed.
type Memory struct {
	mu         sync.Mutex
	records    map[index.OirId]index.Record
	idToCells  map[index.OirId][]index.Geohash
	cellToIds  map[index.Geohash][]index.OirId
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		records:   make(map[index.OirId]index.Record),
		idToCells: make(map[index.OirId][]index.Geohash),
		cellToIds: make(map[index.Geohash][]index.OirId),
	}
}

func (m *Memory) View(fn func(index.Reader) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(memoryTx{m})
}

func (m *Memory) Update(fn func(index.Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Snapshot everything so a mid-transaction error rolls back to
	// exactly the prior state (spec.md §7's all-or-nothing commit).
	savedRecords := cloneRecords(m.records)
	savedIdToCells := cloneCellLists(m.idToCells)
	savedCellToIds := cloneIdLists(m.cellToIds)

	if err := fn(memoryTx{m}); err != nil {
		m.records = savedRecords
		m.idToCells = savedIdToCells
		m.cellToIds = savedCellToIds
		return err
	}
	return nil
}

func cloneRecords(src map[index.OirId]index.Record) map[index.OirId]index.Record {
	dst := make(map[index.OirId]index.Record, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneCellLists(src map[index.OirId][]index.Geohash) map[index.OirId][]index.Geohash {
	dst := make(map[index.OirId][]index.Geohash, len(src))
	for k, v := range src {
		cp := make([]index.Geohash, len(v))
		copy(cp, v)
		dst[k] = cp
	}
	return dst
}

func cloneIdLists(src map[index.Geohash][]index.OirId) map[index.Geohash][]index.OirId {
	dst := make(map[index.Geohash][]index.OirId, len(src))
	for k, v := range src {
		cp := make([]index.OirId, len(v))
		copy(cp, v)
		dst[k] = cp
	}
	return dst
}

// memoryTx implements both index.Reader and index.Writer directly
// against the Memory store; the mutex is already held by whichever of
// View/Update constructed it.
type memoryTx struct{ m *Memory }

func (t memoryTx) GetRecord(id index.OirId) (index.Record, bool, error) {
	rec, ok := t.m.records[id]
	return rec, ok, nil
}

func (t memoryTx) GetCells(id index.OirId) ([]index.Geohash, error) {
	cells := t.m.idToCells[id]
	out := make([]index.Geohash, len(cells))
	copy(out, cells)
	return out, nil
}

func (t memoryTx) GetIdsForCell(cell index.Geohash) ([]index.OirId, error) {
	ids := t.m.cellToIds[cell]
	out := make([]index.OirId, len(ids))
	copy(out, ids)
	return out, nil
}

func (t memoryTx) PutRecord(id index.OirId, rec index.Record) error {
	t.m.records[id] = rec
	return nil
}

func (t memoryTx) DeleteRecord(id index.OirId) error {
	delete(t.m.records, id)
	return nil
}

func (t memoryTx) AddCell(id index.OirId, cell index.Geohash) error {
	t.m.idToCells[id] = append(t.m.idToCells[id], cell)
	t.m.cellToIds[cell] = append(t.m.cellToIds[cell], id)
	return nil
}

// RemoveCell implements spec.md §9's swap-with-last + pop removal on
// both sides, then deletes the record once idToCells[id] is empty
// (spec.md §3.2 invariant 3).
func (t memoryTx) RemoveCell(id index.OirId, cell index.Geohash) error {
	swapRemoveCell(t.m.idToCells, id, cell)
	swapRemoveId(t.m.cellToIds, cell, id)
	if len(t.m.idToCells[id]) == 0 {
		delete(t.m.idToCells, id)
		delete(t.m.records, id)
	}
	if len(t.m.cellToIds[cell]) == 0 {
		delete(t.m.cellToIds, cell)
	}
	return nil
}

func swapRemoveCell(m map[index.OirId][]index.Geohash, id index.OirId, cell index.Geohash) {
	list := m[id]
	for i, c := range list {
		if c == cell {
			last := len(list) - 1
			list[i] = list[last]
			m[id] = list[:last]
			return
		}
	}
}

func swapRemoveId(m map[index.Geohash][]index.OirId, cell index.Geohash, id index.OirId) {
	list := m[cell]
	for i, v := range list {
		if v == id {
			last := len(list) - 1
			list[i] = list[last]
			m[cell] = list[:last]
			return
		}
	}
}
