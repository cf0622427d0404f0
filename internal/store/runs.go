package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/doctran/internal"
)

// RecordRun appends run to the audit log, assigning an id and timestamp
// when missing.
func (s *Store) RecordRun(ctx context.Context, run internal.TranslationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_runs (id, source_url, target_url, target_lang, backend, status, stage, error, blocks, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceURL, run.TargetURL, run.TargetLang, run.Backend, run.Status, run.Stage, run.Error,
		run.Blocks, run.Duration.Milliseconds(), run.Timestamp)
	return err
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.TranslationRun, error) {
	query := `SELECT id, source_url, COALESCE(target_url, ''), target_lang, COALESCE(backend, ''), status,
		COALESCE(stage, ''), COALESCE(error, ''), blocks, duration_ms, created_at
		FROM translation_runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.TranslationRun
	for rows.Next() {
		var (
			r  internal.TranslationRun
			ms sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.SourceURL, &r.TargetURL, &r.TargetLang, &r.Backend, &r.Status,
			&r.Stage, &r.Error, &r.Blocks, &ms, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms.Int64) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}
