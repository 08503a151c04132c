package index

import "fmt"

// Index drives the upsert/delete/query operations of spec.md §4.6 over
// a Storage adapter, emitting Events to an EventSink. It holds no state
// of its own beyond the two handles — all persisted state lives in
// Storage.
type Index struct {
	storage Storage
	events  EventSink
}

// New builds an Index over storage, emitting to sink. A nil sink is
// replaced with NopEventSink.
func New(storage Storage, sink EventSink) *Index {
	if sink == nil {
		sink = NopEventSink
	}
	return &Index{storage: storage, events: sink}
}

func dedupeCells(cells []Geohash) []Geohash {
	seen := make(map[Geohash]bool, len(cells))
	out := make([]Geohash, 0, len(cells))
	for _, c := range cells {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Upsert implements spec.md §4.6. caller must already be known to be in
// the allow-list — authorization is enforced by the authz package one
// layer up, not here (C7 and C8 are independent per spec.md §2).
func (ix *Index) Upsert(caller Principal, id OirId, cells []Geohash, minH, maxH uint16, tStart, tEnd uint64, url string, entity uint16) error {
	if len(cells) == 0 {
		return fmt.Errorf("%w: upsert requires at least one cell", ErrInvalidArgument)
	}
	rec := Record{
		Id: id, MinHeight: minH, MaxHeight: maxH,
		StartTime: tStart, EndTime: tEnd,
		EntityNumber: entity, URL: url,
	}
	if err := rec.validate(); err != nil {
		return err
	}
	uniqueCells := dedupeCells(cells)

	var pending []Event
	emit := func(kind EventKind, cell Geohash) {
		pending = append(pending, Event{Kind: kind, Id: id, Cell: cell, By: caller})
	}

	err := ix.storage.Update(func(w Writer) error {
		existing, ok, err := w.GetRecord(id)
		if err != nil {
			return err
		}
		if !ok {
			rec.CreatedBy = caller
			rec.LastUpdatedBy = caller
			if err := w.PutRecord(id, rec); err != nil {
				return err
			}
			for _, cell := range uniqueCells {
				if err := w.AddCell(id, cell); err != nil {
					return err
				}
				emit(DataAdded, cell)
			}
			return nil
		}

		oldCells, err := w.GetCells(id)
		if err != nil {
			return err
		}
		rec.CreatedBy = existing.CreatedBy
		rec.LastUpdatedBy = caller
		if err := w.PutRecord(id, rec); err != nil {
			return err
		}

		oldSet := make(map[Geohash]bool, len(oldCells))
		for _, c := range oldCells {
			oldSet[c] = true
		}
		kept := make(map[Geohash]bool, len(uniqueCells))
		for _, cell := range uniqueCells {
			kept[cell] = true
			if oldSet[cell] {
				emit(DataUpdated, cell)
				continue
			}
			if err := w.AddCell(id, cell); err != nil {
				return err
			}
			emit(DataAdded, cell)
		}
		for _, cell := range oldCells {
			if kept[cell] {
				continue
			}
			if err := w.RemoveCell(id, cell); err != nil {
				return err
			}
			emit(DataDeleted, cell)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range pending {
		ix.events.Emit(e)
	}
	return nil
}

// Delete implements spec.md §4.6's delete. Unknown ids are silently
// ignored, per spec.md §7.
func (ix *Index) Delete(caller Principal, ids []OirId) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: delete requires at least one id", ErrInvalidArgument)
	}

	var pending []Event
	err := ix.storage.Update(func(w Writer) error {
		for _, id := range ids {
			cells, err := w.GetCells(id)
			if err != nil {
				return err
			}
			for _, cell := range cells {
				if err := w.RemoveCell(id, cell); err != nil {
					return err
				}
				pending = append(pending, Event{Kind: DataDeleted, Id: id, Cell: cell, By: caller})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range pending {
		ix.events.Emit(e)
	}
	return nil
}

// RecordsForCell returns every record currently associated with cell,
// unfiltered by altitude or time. It is the read System.GetByCell's
// query cache (C14) sits in front of: caching the unfiltered set lets
// a single cache entry serve any altitude/time filter on that cell.
func (ix *Index) RecordsForCell(cell Geohash) ([]Record, error) {
	var out []Record
	err := ix.storage.View(func(r Reader) error {
		ids, err := r.GetIdsForCell(cell)
		if err != nil {
			return err
		}
		out = make([]Record, 0, len(ids))
		for _, id := range ids {
			rec, ok, err := r.GetRecord(id)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

// GetByCell implements spec.md §4.6's read query: no authorization
// required, half-open time overlap, closed altitude overlap. Matches
// two-pass (count then fill) to allocate the result slices exactly
// once, as spec.md's implementation notes prescribe.
func (ix *Index) GetByCell(cell Geohash, minH, maxH uint16, tStart, tEnd uint64) (urls []string, entities []uint16, ids []OirId, err error) {
	if maxH < minH {
		return nil, nil, nil, fmt.Errorf("%w: maxHeight %d < minHeight %d", ErrInvalidArgument, maxH, minH)
	}
	if tStart >= tEnd {
		return nil, nil, nil, fmt.Errorf("%w: startTime %d >= endTime %d", ErrInvalidArgument, tStart, tEnd)
	}

	candidates, err := ix.RecordsForCell(cell)
	if err != nil {
		return nil, nil, nil, err
	}
	return FilterRecords(candidates, minH, maxH, tStart, tEnd)
}

// FilterRecords applies spec.md §4.6's overlap predicate to a candidate
// record set, two-pass (count then fill) so each result slice is
// allocated exactly once. Exported so System.GetByCell can reuse it
// against a cached candidate set without re-querying storage.
func FilterRecords(candidates []Record, minH, maxH uint16, tStart, tEnd uint64) (urls []string, entities []uint16, ids []OirId, err error) {
	matched := 0
	for _, rec := range candidates {
		if rec.Overlaps(minH, maxH, tStart, tEnd) {
			matched++
		}
	}
	urls = make([]string, 0, matched)
	entities = make([]uint16, 0, matched)
	ids = make([]OirId, 0, matched)
	for _, rec := range candidates {
		if rec.Overlaps(minH, maxH, tStart, tEnd) {
			urls = append(urls, rec.URL)
			entities = append(entities, rec.EntityNumber)
			ids = append(ids, rec.Id)
		}
	}
	return urls, entities, ids, nil
}
