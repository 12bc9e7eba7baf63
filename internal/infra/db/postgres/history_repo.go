package postgres

import (
	"context"
	"database/sql"

	"github.com/verilens/verilens/internal/domain/history"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Save inserts or updates one analysis record.
func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	const q = `
INSERT INTO analysis_history
(id, created_at, category, file_name, size_bytes,
 is_deepfake, confidence, analysis_time_ms, demo_mode, report_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 is_deepfake = EXCLUDED.is_deepfake,
 confidence = EXCLUDED.confidence,
 analysis_time_ms = EXCLUDED.analysis_time_ms,
 demo_mode = EXCLUDED.demo_mode,
 report_url = EXCLUDED.report_url;`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.CreatedAt, rec.Category, rec.FileName, rec.SizeBytes,
		rec.IsDeepfake, rec.Confidence, rec.AnalysisTimeMS, rec.DemoMode, rec.ReportURL,
	)
	return err
}

// Get one record by ID.
func (r *HistoryRepository) Get(ctx context.Context, id string) (*history.Record, error) {
	const q = `
SELECT id, created_at, category, file_name, size_bytes,
       is_deepfake, confidence, analysis_time_ms, demo_mode, report_url
FROM analysis_history
WHERE id=$1
LIMIT 1;`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

// Latest returns the most recent records, newest first.
func (r *HistoryRepository) Latest(ctx context.Context, limit int) ([]*history.Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
SELECT id, created_at, category, file_name, size_bytes,
       is_deepfake, confidence, analysis_time_ms, demo_mode, report_url
FROM analysis_history
ORDER BY created_at DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*history.Record, error) {
	var rec history.Record
	if err := row.Scan(
		&rec.ID, &rec.CreatedAt, &rec.Category, &rec.FileName, &rec.SizeBytes,
		&rec.IsDeepfake, &rec.Confidence, &rec.AnalysisTimeMS, &rec.DemoMode, &rec.ReportURL,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
