// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package store exports search runs to a DuckDB file for offline analysis.
// The export is append-only; aptsearch never reads it back.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/google/uuid"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
)

// H3Resolution is the resolution of the exported h3 cell column.
const H3Resolution = 8

// Run describes one search invocation.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Provider  string
	Address   string
	Center    spatial.Point
	Filter    string
}

// NewRun stamps a run with a fresh random id.
func NewRun(providerName, address string, center spatial.Point, filter string) Run {
	return Run{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Provider:  providerName,
		Address:   address,
		Center:    center,
		Filter:    filter,
	}
}

// Exporter writes runs and their listings.
type Exporter struct {
	db *sql.DB
}

func NewExporter(db *sql.DB) *Exporter {
	return &Exporter{db: db}
}

func (e *Exporter) CreateSchema() error {
	_, err := e.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			provider VARCHAR NOT NULL,
			center_address VARCHAR,
			center_lat DOUBLE,
			center_lon DOUBLE,
			filter VARCHAR
		);

		CREATE TABLE IF NOT EXISTS listings (
			run_id VARCHAR NOT NULL,
			position INTEGER NOT NULL,
			source VARCHAR NOT NULL,
			id VARCHAR NOT NULL,
			title VARCHAR,
			description VARCHAR,
			address VARCHAR,
			neighborhood VARCHAR,
			zipcode VARCHAR,
			lat DOUBLE,
			lon DOUBLE,
			wkt VARCHAR,
			h3_res8 UBIGINT,
			price DOUBLE,
			bedrooms DOUBLE,
			bathrooms DOUBLE,
			distance_km DOUBLE,
			url VARCHAR,
			raw VARCHAR
		);
	`)

	return err
}

func nve(v string) any {
	if v == "" {
		return nil
	}

	return v
}

func nvf(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

// SaveRun inserts run and its listings in one transaction.
func (e *Exporter) SaveRun(run Run, listings []*listing.Listing) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction for run %s: %w", run.ID, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction for run %s: %v", run.ID, err)
		}
	}()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, started_at, provider, center_address, center_lat, center_lon, filter)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.StartedAt, run.Provider, nve(run.Address), run.Center.Lat, run.Center.Lng, nve(run.Filter),
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO listings (
			run_id, position, source, id, title, description, address, neighborhood, zipcode,
			lat, lon, wkt, h3_res8, price, bedrooms, bathrooms, distance_km, url, raw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, l := range listings {
		var lat, lon, wkt, cell any
		if l.HasLocation() {
			lat, lon = l.Location.Lat, l.Location.Lng
			cell = l.H3Cell(H3Resolution)

			if wkt, err = l.Location.Value(); err != nil {
				return fmt.Errorf("encoding location of %s: %w", l.Key(), err)
			}
		}

		var raw any
		if len(l.Raw) > 0 {
			raw = string(l.Raw)
		}

		if _, err := stmt.Exec(
			run.ID.String(), i, l.Source, l.ID, nve(l.Title), nve(l.Description), nve(l.Address),
			nve(l.Neighborhood), nve(l.Zipcode),
			lat, lon, wkt, cell,
			nvf(l.Price), nvf(l.Bedrooms), nvf(l.Bathrooms), nvf(l.DistanceKm), nve(l.URL), raw,
		); err != nil {
			return fmt.Errorf("inserting listing %s: %w", l.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.ID, err)
	}

	return nil
}

// Export appends run to the DuckDB database at path, creating it if needed.
func Export(path string, run Run, listings []*listing.Listing) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	e := NewExporter(db)
	if err := e.CreateSchema(); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	if err := e.SaveRun(run, listings); err != nil {
		return err
	}

	log.Printf("💾 Exported %d listings to %s (run %s)", len(listings), path, run.ID)

	return nil
}
