package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/panchorivasf/tidyacoustics/models"
)

// RecordScan persists one completed integrity scan (summary row, day
// summaries and moves) in a single transaction and returns its id.
func RecordScan(ctx context.Context, db *sql.DB, rep *models.ScanReport) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scans (root, scanned_at, file_count, total_size_bytes, median_size_mb)
		VALUES (?, ?, ?, ?, ?)
	`, rep.Root, rep.ScannedAt.Unix(), rep.FileCount, rep.TotalSizeBytes, rep.ThresholdMB)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan id: %w", err)
	}

	dayStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO day_summaries (scan_id, day, mean_size_mb, file_count, corrupted)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare day statement: %w", err)
	}
	defer dayStmt.Close()

	for _, d := range rep.Days {
		corrupted := 0
		if rep.IsCorrupted(d.Date) {
			corrupted = 1
		}
		if _, err := dayStmt.ExecContext(ctx,
			scanID, d.Date.Format("2006-01-02"), d.MeanSizeMB, d.FileCount, corrupted); err != nil {
			return 0, fmt.Errorf("failed to insert day summary: %w", err)
		}
	}

	moveStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO moves (scan_id, kind, source, dest) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare move statement: %w", err)
	}
	defer moveStmt.Close()

	for _, m := range rep.Moves {
		if _, err := moveStmt.ExecContext(ctx, scanID, string(m.Kind), m.Source, m.Dest); err != nil {
			return 0, fmt.Errorf("failed to insert move: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}
	return scanID, nil
}

// RecordFolderSummaries persists one folder range summary run.
func RecordFolderSummaries(ctx context.Context, db *sql.DB, root string, scannedAt int64, sums []models.FolderSummary) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO folder_scans (root, scanned_at) VALUES (?, ?)
	`, root, scannedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert folder scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get folder scan id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO folder_summaries (
			folder_scan_id, folder_path, sensor_id,
			start_utc, end_utc, file_count, total_size_mb
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare folder statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range sums {
		var sensor sql.NullString
		if s.SensorID != nil {
			sensor = sql.NullString{String: *s.SensorID, Valid: true}
		}
		var start, end sql.NullInt64
		if s.Start != nil {
			start = sql.NullInt64{Int64: s.Start.Unix(), Valid: true}
		}
		if s.End != nil {
			end = sql.NullInt64{Int64: s.End.Unix(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			id, s.FolderPath, sensor, start, end, s.FileCount, s.TotalSizeMB); err != nil {
			return 0, fmt.Errorf("failed to insert folder summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit folder scan: %w", err)
	}
	return id, nil
}
