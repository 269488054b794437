package database

import (
	"context"
	"fmt"
	"time"
)

// IntervalReport is one row of interval_reports.
type IntervalReport struct {
	RunID            string
	ClientName       string
	Host             string
	CompressionLevel int

	Interval int
	Of       int

	Count     uint64
	Delta     uint64
	Size      uint64
	SizeDelta uint64
	Skipped   uint64

	ReportedAt time.Time
}

// InsertReport stores one interval report.
func (db *DB) InsertReport(ctx context.Context, r IntervalReport) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO interval_reports (
			run_id, client_name, host, compression_level,
			interval_no, interval_total,
			msg_count, msg_delta, size_bytes, size_delta, skipped,
			reported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ClientName, r.Host, r.CompressionLevel,
		r.Interval, r.Of,
		// #nosec G115 -- SQLite INTEGER is signed 64-bit; counters stay far below the limit
		int64(r.Count), int64(r.Delta), int64(r.Size), int64(r.SizeDelta), int64(r.Skipped),
		r.ReportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting interval report: %w", err)
	}
	return nil
}

// RunReports returns the reports of one run in interval order.
func (db *DB) RunReports(ctx context.Context, runID string) ([]IntervalReport, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, client_name, host, compression_level,
		       interval_no, interval_total,
		       msg_count, msg_delta, size_bytes, size_delta, skipped,
		       reported_at
		FROM interval_reports
		WHERE run_id = ?
		ORDER BY interval_no`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying interval reports: %w", err)
	}
	defer rows.Close()

	var reports []IntervalReport
	for rows.Next() {
		var (
			r          IntervalReport
			reportedAt string
		)
		if err := rows.Scan(
			&r.RunID, &r.ClientName, &r.Host, &r.CompressionLevel,
			&r.Interval, &r.Of,
			&r.Count, &r.Delta, &r.Size, &r.SizeDelta, &r.Skipped,
			&reportedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning interval report: %w", err)
		}
		r.ReportedAt, err = time.Parse(time.RFC3339Nano, reportedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing reported_at %q: %w", reportedAt, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interval reports: %w", err)
	}
	return reports, nil
}
