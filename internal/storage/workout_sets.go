package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// latestExerciseQuery selects the first exercise with an exact name match in
// the most recently started finished workout.
const latestExerciseQuery = `SELECT e.id
	 FROM completed_exercises e
	 JOIN completed_workouts w ON w.id = e.workout_id
	 WHERE e.name = ? AND w.ended_at IS NOT NULL
	 ORDER BY w.started_at DESC, e.position ASC
	 LIMIT 1`

// PreviousSetAt returns the weight/reps logged at position for the named
// exercise in the most recent finished workout that contains it. A miss
// (no history, or fewer sets than position) returns nil without error.
func (db *DB) PreviousSetAt(ctx context.Context, exerciseName string, position int) (*models.Previous, error) {
	var (
		weight sql.NullFloat64
		reps   sql.NullInt64
	)
	err := db.SQL.QueryRowContext(ctx,
		db.rebind(`SELECT weight, reps FROM completed_sets
		 WHERE exercise_id = (`+latestExerciseQuery+`) AND position = ?`),
		exerciseName, position,
	).Scan(&weight, &reps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying previous set: %w", err)
	}
	return &models.Previous{Weight: floatPtr(weight), Reps: intPtr(reps)}, nil
}

// PreviousSets returns every set, in order, of the named exercise from the
// most recent finished workout that contains it. Empty when there is no history.
func (db *DB) PreviousSets(ctx context.Context, exerciseName string) ([]models.Previous, error) {
	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT weight, reps FROM completed_sets
		 WHERE exercise_id = (`+latestExerciseQuery+`)
		 ORDER BY position ASC`),
		exerciseName)
	if err != nil {
		return nil, fmt.Errorf("querying previous sets: %w", err)
	}
	defer rows.Close()

	var result []models.Previous
	for rows.Next() {
		var (
			weight sql.NullFloat64
			reps   sql.NullInt64
		)
		if err := rows.Scan(&weight, &reps); err != nil {
			return nil, fmt.Errorf("scanning previous set: %w", err)
		}
		result = append(result, models.Previous{Weight: floatPtr(weight), Reps: intPtr(reps)})
	}
	return result, rows.Err()
}

// ExerciseHistory returns the sets logged for an exercise in finished
// workouts, most recent workout first, limited to limit workouts.
func (db *DB) ExerciseHistory(ctx context.Context, exerciseName string, limit int) ([]models.ExerciseHistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT w.id, w.name, w.started_at, e.id, s.position, s.weight, s.reps
		 FROM completed_exercises e
		 JOIN completed_workouts w ON w.id = e.workout_id
		 JOIN completed_sets s ON s.exercise_id = e.id
		 WHERE e.name = ? AND w.ended_at IS NOT NULL
		   AND w.id IN (
		     SELECT w2.id FROM completed_workouts w2
		     JOIN completed_exercises e2 ON e2.workout_id = w2.id
		     WHERE e2.name = ? AND w2.ended_at IS NOT NULL
		     GROUP BY w2.id, w2.started_at
		     ORDER BY w2.started_at DESC
		     LIMIT ?)
		 ORDER BY w.started_at DESC, e.position ASC, s.position ASC`),
		exerciseName, exerciseName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseHistoryEntry
	var lastExercise uuid.UUID
	for rows.Next() {
		var (
			workoutID uuid.UUID
			name      string
			startedAt time.Time
			exID      uuid.UUID
			pos       int
			weight    sql.NullFloat64
			reps      sql.NullInt64
		)
		if err := rows.Scan(&workoutID, &name, &startedAt, &exID, &pos, &weight, &reps); err != nil {
			return nil, fmt.Errorf("scanning exercise history: %w", err)
		}
		// A workout that repeats an exercise yields one entry per occurrence.
		if len(result) == 0 || exID != lastExercise {
			result = append(result, models.ExerciseHistoryEntry{
				WorkoutID:   workoutID,
				WorkoutName: name,
				StartedAt:   startedAt,
			})
			lastExercise = exID
		}
		entry := &result[len(result)-1]
		entry.Sets = append(entry.Sets, models.CompletedSet{
			Position: pos,
			Weight:   floatPtr(weight),
			Reps:     intPtr(reps),
		})
	}
	return result, rows.Err()
}

// ExerciseNames returns distinct exercise names from history and templates
// starting with prefix (case-insensitive), most used first.
func (db *DB) ExerciseNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := escapeLike(strings.ToLower(prefix)) + "%"
	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT name, CAST(SUM(uses) AS INTEGER) AS total FROM (
		   SELECT name, COUNT(*) AS uses FROM completed_exercises GROUP BY name
		   UNION ALL
		   SELECT name, COUNT(*) AS uses FROM template_exercises GROUP BY name
		 ) names
		 WHERE LOWER(name) LIKE ? ESCAPE '\' AND name <> ''
		 GROUP BY name
		 ORDER BY total DESC, name ASC
		 LIMIT ?`),
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise names: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var (
			name  string
			total int
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scanning exercise name: %w", err)
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
