package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// InsertCompletedWorkout writes a workout, its exercises and its sets in a
// single transaction. Either the whole tree is visible afterwards or none of
// it is. Missing IDs are generated and positions are taken from slice order.
func (db *DB) InsertCompletedWorkout(ctx context.Context, w *models.CompletedWorkout) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.StartedAt = w.StartedAt.UTC()
	if w.EndedAt != nil {
		ended := w.EndedAt.UTC()
		w.EndedAt = &ended
	}
	if w.Date == "" {
		w.Date = w.StartedAt.Format(models.DateLayout)
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		var endedAt sql.NullTime
		if w.EndedAt != nil {
			endedAt = sql.NullTime{Time: *w.EndedAt, Valid: true}
		}
		var templateID uuid.NullUUID
		if w.TemplateID != nil {
			// The template may have been deleted while the session ran.
			var n int
			if err := tx.QueryRowContext(ctx,
				db.rebind(`SELECT COUNT(*) FROM workout_templates WHERE id = ?`), *w.TemplateID,
			).Scan(&n); err != nil {
				return fmt.Errorf("checking template: %w", err)
			}
			if n > 0 {
				templateID = uuid.NullUUID{UUID: *w.TemplateID, Valid: true}
			} else {
				w.TemplateID = nil
			}
		}

		if _, err := tx.ExecContext(ctx,
			db.rebind(`INSERT INTO completed_workouts (id, name, template_id, workout_date, started_at, ended_at, is_ad_hoc)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			w.ID, w.Name, templateID, w.Date, w.StartedAt, endedAt, w.IsAdHoc); err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}

		for i := range w.Exercises {
			ex := &w.Exercises[i]
			if ex.ID == uuid.Nil {
				ex.ID = uuid.New()
			}
			ex.Position = i
			if _, err := tx.ExecContext(ctx,
				db.rebind(`INSERT INTO completed_exercises (id, workout_id, name, position) VALUES (?, ?, ?, ?)`),
				ex.ID, w.ID, ex.Name, ex.Position); err != nil {
				return fmt.Errorf("inserting exercise %q: %w", ex.Name, err)
			}
			for j := range ex.Sets {
				s := &ex.Sets[j]
				s.Position = j
				if _, err := tx.ExecContext(ctx,
					db.rebind(`INSERT INTO completed_sets (exercise_id, position, weight, reps) VALUES (?, ?, ?, ?)`),
					ex.ID, s.Position, nullFloat(s.Weight), nullInt(s.Reps)); err != nil {
					return fmt.Errorf("inserting set %d of %q: %w", j, ex.Name, err)
				}
			}
		}
		return nil
	})
}

// GetCompletedWorkout loads a single workout with all exercises and sets.
func (db *DB) GetCompletedWorkout(ctx context.Context, id uuid.UUID) (*models.CompletedWorkout, error) {
	w := &models.CompletedWorkout{}
	var (
		templateID uuid.NullUUID
		endedAt    sql.NullTime
	)
	err := db.SQL.QueryRowContext(ctx,
		db.rebind(`SELECT id, name, template_id, workout_date, started_at, ended_at, is_ad_hoc
		 FROM completed_workouts WHERE id = ?`), id,
	).Scan(&w.ID, &w.Name, &templateID, &w.Date, &w.StartedAt, &endedAt, &w.IsAdHoc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	if templateID.Valid {
		w.TemplateID = &templateID.UUID
	}
	if endedAt.Valid {
		w.EndedAt = &endedAt.Time
	}

	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT e.id, e.name, e.position, s.position, s.weight, s.reps
		 FROM completed_exercises e
		 LEFT JOIN completed_sets s ON s.exercise_id = e.id
		 WHERE e.workout_id = ?
		 ORDER BY e.position ASC, s.position ASC`), id)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			exID   uuid.UUID
			name   string
			exPos  int
			setPos sql.NullInt64
			weight sql.NullFloat64
			reps   sql.NullInt64
		)
		if err := rows.Scan(&exID, &name, &exPos, &setPos, &weight, &reps); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		if n := len(w.Exercises); n == 0 || w.Exercises[n-1].ID != exID {
			w.Exercises = append(w.Exercises, models.CompletedExercise{ID: exID, Name: name, Position: exPos})
		}
		if setPos.Valid {
			ex := &w.Exercises[len(w.Exercises)-1]
			ex.Sets = append(ex.Sets, models.CompletedSet{
				Position: int(setPos.Int64),
				Weight:   floatPtr(weight),
				Reps:     intPtr(reps),
			})
		}
	}
	return w, rows.Err()
}

// ListCompletedWorkouts returns workout summaries started in [start, end),
// newest first. Abandoned workouts are included; callers can tell them apart
// by a nil EndedAt.
func (db *DB) ListCompletedWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutSummary, error) {
	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT w.id, w.name, w.workout_date, w.started_at, w.ended_at, w.is_ad_hoc,
		        (SELECT COUNT(*) FROM completed_exercises e WHERE e.workout_id = w.id),
		        (SELECT COUNT(*) FROM completed_sets s
		           JOIN completed_exercises e ON e.id = s.exercise_id
		          WHERE e.workout_id = w.id)
		 FROM completed_workouts w
		 WHERE w.started_at >= ? AND w.started_at < ?
		 ORDER BY w.started_at DESC`),
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSummary
	for rows.Next() {
		var (
			s       models.WorkoutSummary
			endedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Date, &s.StartedAt, &endedAt, &s.IsAdHoc,
			&s.ExerciseCount, &s.SetCount); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeleteCompletedWorkout removes a workout; exercises and sets cascade.
func (db *DB) DeleteCompletedWorkout(ctx context.Context, id uuid.UUID) error {
	res, err := db.SQL.ExecContext(ctx, db.rebind(`DELETE FROM completed_workouts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	return nil
}

// HasCompletedWorkout reports whether a workout with this name already
// started at exactly this time. Used to make history imports idempotent.
func (db *DB) HasCompletedWorkout(ctx context.Context, name string, startedAt time.Time) (bool, error) {
	var count int
	err := db.SQL.QueryRowContext(ctx,
		db.rebind(`SELECT COUNT(*) FROM completed_workouts WHERE name = ? AND started_at = ?`),
		name, startedAt.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking workout: %w", err)
	}
	return count > 0, nil
}
