// Package sqlite implements a host.Memory-equivalent index.Storage
// adapter backed by modernc.org/sqlite (pure Go, no cgo) and migrated
// with golang-migrate, grounded on the teacher's own database/sql +
// modernc.org/sqlite + golang-migrate persistence layer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meridian-air/oirindex/index"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed index.Storage. Every Update call runs inside
// one database/sql transaction (spec.md §5's single write-lock model);
// SQLite's own writer serialization handles the rest.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path, enables
// WAL mode for concurrent readers during a writer transaction, and
// applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers on one *sql.DB

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) View(fn func(index.Reader) error) error {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("sqlite: begin read: %w", err)
	}
	defer tx.Rollback()
	return fn(sqlTx{tx})
}

func (s *Store) Update(fn func(index.Writer) error) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin write: %w", err)
	}
	if err := fn(sqlTx{tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// sqlTx implements index.Reader and index.Writer against one
// database/sql transaction.
type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) GetRecord(id index.OirId) (index.Record, bool, error) {
	row := t.tx.QueryRow(`SELECT id, created_by, last_updated_by, min_height, max_height, start_time, end_time, entity_number, url
		FROM oir_records WHERE id = ?`, id[:])
	var rec index.Record
	var idBytes, createdBy, updatedBy []byte
	err := row.Scan(&idBytes, &createdBy, &updatedBy, &rec.MinHeight, &rec.MaxHeight, &rec.StartTime, &rec.EndTime, &rec.EntityNumber, &rec.URL)
	if err == sql.ErrNoRows {
		return index.Record{}, false, nil
	}
	if err != nil {
		return index.Record{}, false, fmt.Errorf("sqlite: get record: %w", err)
	}
	copy(rec.Id[:], idBytes)
	copy(rec.CreatedBy[:], createdBy)
	copy(rec.LastUpdatedBy[:], updatedBy)
	return rec, true, nil
}

func (t sqlTx) GetCells(id index.OirId) ([]index.Geohash, error) {
	rows, err := t.tx.Query(`SELECT cell FROM oir_cells WHERE id = ? ORDER BY rowid`, id[:])
	if err != nil {
		return nil, fmt.Errorf("sqlite: get cells: %w", err)
	}
	defer rows.Close()
	var out []index.Geohash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("sqlite: scan cell: %w", err)
		}
		var g index.Geohash
		copy(g[:], b)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (t sqlTx) GetIdsForCell(cell index.Geohash) ([]index.OirId, error) {
	rows, err := t.tx.Query(`SELECT id FROM oir_cell_index WHERE cell = ? ORDER BY rowid`, cell[:])
	if err != nil {
		return nil, fmt.Errorf("sqlite: get ids for cell: %w", err)
	}
	defer rows.Close()
	var out []index.OirId
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("sqlite: scan id: %w", err)
		}
		var id index.OirId
		copy(id[:], b)
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t sqlTx) PutRecord(id index.OirId, rec index.Record) error {
	_, err := t.tx.Exec(`INSERT INTO oir_records (id, created_by, last_updated_by, min_height, max_height, start_time, end_time, entity_number, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_updated_by = excluded.last_updated_by,
			min_height = excluded.min_height,
			max_height = excluded.max_height,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			entity_number = excluded.entity_number,
			url = excluded.url`,
		id[:], rec.CreatedBy[:], rec.LastUpdatedBy[:], rec.MinHeight, rec.MaxHeight, rec.StartTime, rec.EndTime, rec.EntityNumber, rec.URL)
	if err != nil {
		return fmt.Errorf("sqlite: put record: %w", err)
	}
	return nil
}

func (t sqlTx) DeleteRecord(id index.OirId) error {
	_, err := t.tx.Exec(`DELETE FROM oir_records WHERE id = ?`, id[:])
	if err != nil {
		return fmt.Errorf("sqlite: delete record: %w", err)
	}
	return nil
}

func (t sqlTx) AddCell(id index.OirId, cell index.Geohash) error {
	if _, err := t.tx.Exec(`INSERT INTO oir_cells (id, cell) VALUES (?, ?)`, id[:], cell[:]); err != nil {
		return fmt.Errorf("sqlite: add cell (oir_cells): %w", err)
	}
	if _, err := t.tx.Exec(`INSERT INTO oir_cell_index (cell, id) VALUES (?, ?)`, cell[:], id[:]); err != nil {
		return fmt.Errorf("sqlite: add cell (oir_cell_index): %w", err)
	}
	return nil
}

func (t sqlTx) RemoveCell(id index.OirId, cell index.Geohash) error {
	if _, err := t.tx.Exec(`DELETE FROM oir_cells WHERE id = ? AND cell = ?`, id[:], cell[:]); err != nil {
		return fmt.Errorf("sqlite: remove cell (oir_cells): %w", err)
	}
	if _, err := t.tx.Exec(`DELETE FROM oir_cell_index WHERE cell = ? AND id = ?`, cell[:], id[:]); err != nil {
		return fmt.Errorf("sqlite: remove cell (oir_cell_index): %w", err)
	}
	var remaining int
	if err := t.tx.QueryRow(`SELECT COUNT(*) FROM oir_cells WHERE id = ?`, id[:]).Scan(&remaining); err != nil {
		return fmt.Errorf("sqlite: count remaining cells: %w", err)
	}
	if remaining == 0 {
		return t.DeleteRecord(id)
	}
	return nil
}
