// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// CellResolution is the H3 resolution stored next to every located record
// (~5 km² hexagons).
const CellResolution = 7

// Repository persists a directory table.
type Repository interface {
	// CreateSchema creates the pharmacies tables
	CreateSchema() error

	// ReplaceAll atomically swaps the stored directory for table. progress,
	// when not nil, is called once per stored record.
	ReplaceAll(table *Table, progress func()) error

	// LoadTable reads the stored directory in its original order
	LoadTable() (*Table, error)

	// Count returns the number of stored records and how many of them have
	// usable coordinates
	Count() (total int, located int, err error)
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a DuckDB backed repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS pharmacy_columns (
			row_index INTEGER PRIMARY KEY,
			name VARCHAR NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pharmacies (
			row_index INTEGER PRIMARY KEY,
			name VARCHAR NOT NULL,
			latitude VARCHAR NOT NULL,
			longitude VARCHAR NOT NULL,
			fields VARCHAR NOT NULL,
			h3_res7 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlRepository) ReplaceAll(table *Table, progress func()) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM pharmacies"); err != nil {
		return fmt.Errorf("clearing pharmacies: %w", err)
	}

	if _, err = tx.Exec("DELETE FROM pharmacy_columns"); err != nil {
		return fmt.Errorf("clearing columns: %w", err)
	}

	for i, column := range table.Columns() {
		if _, err = tx.Exec("INSERT INTO pharmacy_columns (row_index, name) VALUES (?, ?)", i, column); err != nil {
			return fmt.Errorf("inserting column %q: %w", column, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pharmacies (row_index, name, latitude, longitude, fields, h3_res7)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range table.All() {
		fields, jerr := json.Marshal(record.Fields)
		if jerr != nil {
			return fmt.Errorf("encoding fields of %q: %w", record.Name, jerr)
		}

		var cell sql.NullInt64

		if p, perr := record.Point(); perr == nil {
			c, cerr := p.Cell(CellResolution)
			if cerr != nil {
				return cerr
			}

			cell = sql.NullInt64{Int64: int64(c), Valid: true}
		}

		if _, err = stmt.Exec(i, record.Name, record.Latitude, record.Longitude, string(fields), cell); err != nil {
			return fmt.Errorf("inserting %q: %w", record.Name, err)
		}

		if progress != nil {
			progress()
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing directory: %w", err)
	}

	return nil
}

func (r *sqlRepository) LoadTable() (*Table, error) {
	columns, err := r.loadColumns()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT name, latitude, longitude, fields
		FROM pharmacies
		ORDER BY row_index
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pharmacies: %w", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			record Record
			fields string
		)

		if err := rows.Scan(&record.Name, &record.Latitude, &record.Longitude, &fields); err != nil {
			return nil, fmt.Errorf("scanning pharmacy: %w", err)
		}

		if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %q: %w", record.Name, err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pharmacies: %w", err)
	}

	return NewTable(columns, records), nil
}

func (r *sqlRepository) loadColumns() ([]string, error) {
	rows, err := r.db.Query("SELECT name FROM pharmacy_columns ORDER BY row_index")
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}

		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func (r *sqlRepository) Count() (int, int, error) {
	var total, located int

	err := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(h3_res7) FROM pharmacies
	`).Scan(&total, &located)
	if err != nil {
		return 0, 0, fmt.Errorf("counting pharmacies: %w", err)
	}

	return total, located, nil
}
