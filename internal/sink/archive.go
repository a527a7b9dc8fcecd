package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// Archive appends every fetched measurement to a SQLite table, one row per record per run.
type Archive struct {
	db *sql.DB
}

func NewArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("warning: could not set WAL mode:", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS measurements (
		run_at TEXT NOT NULL,
		region TEXT NOT NULL,
		measurement_id TEXT,
		latitude TEXT,
		longitude TEXT,
		value TEXT,
		unit TEXT,
		captured_at TEXT,
		device_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_measurements_run ON measurements(run_at);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Write(ctx context.Context, b Batch) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO measurements
		(run_at, region, measurement_id, latitude, longitude, value, unit, captured_at, device_id)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	runAt := b.At.UTC().Format(time.RFC3339)
	for _, region := range b.Results.Regions() {
		for _, m := range b.Results.Get(region) {
			if _, err := stmt.ExecContext(ctx, runAt, region,
				m.ID.String(), m.Latitude.String(), m.Longitude.String(), m.Value.String(),
				m.UnitOrDefault(), m.CapturedAtOrDefault(), m.DeviceID.String()); err != nil {
				return fmt.Errorf("archive insert %s: %w", region, err)
			}
		}
	}
	return tx.Commit()
}

// Count returns the number of archived rows, optionally for one region.
func (a *Archive) Count(ctx context.Context, region string) (int, error) {
	var n int
	var err error
	if region == "" {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`).Scan(&n)
	} else {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements WHERE region = ?`, region).Scan(&n)
	}
	return n, err
}

func (a *Archive) Close() error { return a.db.Close() }
