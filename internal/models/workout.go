package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the format of CompletedWorkout.Date.
const DateLayout = "2006-01-02"

// CompletedWorkout is the durable record of a finished (or abandoned) session.
// A nil EndedAt marks an abandoned workout; those rows never feed statistics
// or previous-value lookups.
type CompletedWorkout struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	TemplateID *uuid.UUID          `json:"template_id,omitempty"`
	Date       string              `json:"date"`
	StartedAt  time.Time           `json:"started_at"`
	EndedAt    *time.Time          `json:"ended_at,omitempty"`
	IsAdHoc    bool                `json:"is_ad_hoc"`
	Exercises  []CompletedExercise `json:"exercises"`
}

// Finished reports whether the workout was completed rather than abandoned.
func (w *CompletedWorkout) Finished() bool {
	return w.EndedAt != nil
}

// Duration returns the wall-clock length of a finished workout, or zero.
func (w *CompletedWorkout) Duration() time.Duration {
	if w.EndedAt == nil {
		return 0
	}
	return w.EndedAt.Sub(w.StartedAt)
}

// CompletedExercise is one exercise of a CompletedWorkout.
type CompletedExercise struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Position int            `json:"position"`
	Sets     []CompletedSet `json:"sets"`
}

// CompletedSet is one logged set. Weight and Reps are nil when the user left
// them blank or typed something that did not parse.
type CompletedSet struct {
	Position int      `json:"position"`
	Weight   *float64 `json:"weight,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
}

// Previous is the most recent historical weight/reps for an exercise at a
// given set position.
type Previous struct {
	Weight *float64 `json:"weight,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
}

// WorkoutSummary is a list row for completed workouts.
type WorkoutSummary struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Date          string     `json:"date"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	IsAdHoc       bool       `json:"is_ad_hoc"`
	ExerciseCount int        `json:"exercise_count"`
	SetCount      int        `json:"set_count"`
}

// WorkoutStats aggregates finished workouts in a range.
type WorkoutStats struct {
	Workouts     int     `json:"workouts"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	VolumeKg     float64 `json:"volume_kg"`
	TotalSeconds float64 `json:"total_seconds"`
}

// ExerciseHistoryEntry is one past performance of an exercise.
type ExerciseHistoryEntry struct {
	WorkoutID   uuid.UUID      `json:"workout_id"`
	WorkoutName string         `json:"workout_name"`
	StartedAt   time.Time      `json:"started_at"`
	Sets        []CompletedSet `json:"sets"`
}
