package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ImportLog represents a single history import's outcome.
type ImportLog struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	WorkoutsReceived int       `json:"workouts_received"`
	WorkoutsInserted int       `json:"workouts_inserted"`
	WorkoutsSkipped  int       `json:"workouts_skipped"`
	SetsInserted     int       `json:"sets_inserted"`
	DurationMs       *int      `json:"duration_ms"`
	ErrorMessage     *string   `json:"error_message"`
}

// InsertImportLog records an import outcome.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := db.SQL.ExecContext(ctx,
		db.rebind(`INSERT INTO import_logs (created_at, source, status, workouts_received, workouts_inserted,
		 workouts_skipped, sets_inserted, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		log.CreatedAt.UTC(), log.Source, log.Status, log.WorkoutsReceived, log.WorkoutsInserted,
		log.WorkoutsSkipped, log.SetsInserted, nullInt(log.DurationMs), nullString(log.ErrorMessage))
	if err != nil {
		return fmt.Errorf("inserting import log: %w", err)
	}
	return nil
}

// GetImportLogs returns the most recent import logs.
func (db *DB) GetImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT id, created_at, source, status, workouts_received, workouts_inserted,
		 workouts_skipped, sets_inserted, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var (
			l        ImportLog
			duration sql.NullInt64
			errMsg   sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status, &l.WorkoutsReceived,
			&l.WorkoutsInserted, &l.WorkoutsSkipped, &l.SetsInserted, &duration, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.DurationMs = intPtr(duration)
		if errMsg.Valid {
			l.ErrorMessage = &errMsg.String
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
