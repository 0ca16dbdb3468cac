package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// GetWorkoutStats aggregates finished workouts started in [start, end).
// Abandoned workouts (no ended_at) are excluded.
func (db *DB) GetWorkoutStats(ctx context.Context, start, end time.Time) (*models.WorkoutStats, error) {
	stats := &models.WorkoutStats{}

	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT started_at, ended_at FROM completed_workouts
		 WHERE ended_at IS NOT NULL AND started_at >= ? AND started_at < ?`),
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying workout durations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var started, ended time.Time
		if err := rows.Scan(&started, &ended); err != nil {
			return nil, fmt.Errorf("scanning workout duration: %w", err)
		}
		stats.Workouts++
		stats.TotalSeconds += ended.Sub(started).Seconds()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var (
		reps   sql.NullInt64
		volume sql.NullFloat64
	)
	err = db.SQL.QueryRowContext(ctx,
		db.rebind(`SELECT COUNT(*),
		        CAST(SUM(s.reps) AS INTEGER),
		        SUM(COALESCE(s.weight, 0) * COALESCE(s.reps, 0))
		 FROM completed_sets s
		 JOIN completed_exercises e ON e.id = s.exercise_id
		 JOIN completed_workouts w ON w.id = e.workout_id
		 WHERE w.ended_at IS NOT NULL AND w.started_at >= ? AND w.started_at < ?`),
		start.UTC(), end.UTC(),
	).Scan(&stats.Sets, &reps, &volume)
	if err != nil {
		return nil, fmt.Errorf("querying set totals: %w", err)
	}
	stats.Reps = int(reps.Int64)
	stats.VolumeKg = volume.Float64
	return stats, nil
}
