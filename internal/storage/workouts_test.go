package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedWorkout(name string, started time.Time, exercises ...models.CompletedExercise) *models.CompletedWorkout {
	ended := started.Add(45 * time.Minute)
	return &models.CompletedWorkout{
		Name:      name,
		StartedAt: started,
		EndedAt:   &ended,
		IsAdHoc:   true,
		Exercises: exercises,
	}
}

func exercise(name string, sets ...models.CompletedSet) models.CompletedExercise {
	return models.CompletedExercise{Name: name, Sets: sets}
}

func set(weight float64, reps int) models.CompletedSet {
	return models.CompletedSet{Weight: ptrF(weight), Reps: ptrI(reps)}
}

// TestInsertAndGetCompletedWorkout verifies the full tree round-trips with
// order, nullable values and positions preserved.
func TestInsertAndGetCompletedWorkout(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)

	w := finishedWorkout("Push", started,
		exercise("Bench Press", set(80, 8), set(82.5, 6), models.CompletedSet{Reps: ptrI(5)}),
		exercise("Dips", models.CompletedSet{}),
	)
	require.NoError(t, db.InsertCompletedWorkout(ctx, w))
	require.NotEqual(t, uuid.Nil, w.ID)

	got, err := db.GetCompletedWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push", got.Name)
	assert.Equal(t, "2026-03-02", got.Date)
	assert.True(t, got.StartedAt.Equal(started))
	require.NotNil(t, got.EndedAt)
	assert.Nil(t, got.TemplateID)

	require.Len(t, got.Exercises, 2)
	assert.Equal(t, "Bench Press", got.Exercises[0].Name)
	assert.Equal(t, "Dips", got.Exercises[1].Name)

	bench := got.Exercises[0].Sets
	require.Len(t, bench, 3)
	for i, s := range bench {
		assert.Equal(t, i, s.Position)
	}
	assert.Equal(t, 82.5, *bench[1].Weight)
	assert.Nil(t, bench[2].Weight)
	assert.Equal(t, 5, *bench[2].Reps)

	dips := got.Exercises[1].Sets
	require.Len(t, dips, 1)
	assert.Nil(t, dips[0].Weight)
	assert.Nil(t, dips[0].Reps)
}

// TestInsertCompletedWorkoutAtomic verifies that a failure partway through a
// multi-exercise insert leaves no rows of that workout behind.
func TestInsertCompletedWorkoutAtomic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)

	w := finishedWorkout("Legs", started,
		exercise("Squat", set(100, 5), set(100, 5)),
		exercise("Leg Press", set(200, 10), models.CompletedSet{Reps: ptrI(-1)}),
	)
	err := db.InsertCompletedWorkout(ctx, w)
	require.Error(t, err)

	_, err = db.GetCompletedWorkout(ctx, w.ID)
	require.True(t, errors.Is(err, ErrNotFound))

	for _, table := range []string{"completed_workouts", "completed_exercises", "completed_sets"} {
		var n int
		require.NoError(t, db.SQL.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

// TestDeleteCompletedWorkoutCascades verifies children go with the parent.
func TestDeleteCompletedWorkoutCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := finishedWorkout("Pull", time.Now(), exercise("Row", set(60, 10)))
	require.NoError(t, db.InsertCompletedWorkout(ctx, w))
	require.NoError(t, db.DeleteCompletedWorkout(ctx, w.ID))

	var n int
	require.NoError(t, db.SQL.QueryRowContext(ctx, "SELECT COUNT(*) FROM completed_sets").Scan(&n))
	assert.Zero(t, n)

	err := db.DeleteCompletedWorkout(ctx, w.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestListCompletedWorkouts verifies range filtering, ordering and counts.
func TestListCompletedWorkouts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertCompletedWorkout(ctx, finishedWorkout("A", base, exercise("X", set(1, 1), set(1, 1)))))
	require.NoError(t, db.InsertCompletedWorkout(ctx, finishedWorkout("B", base.AddDate(0, 0, 2), exercise("X", set(1, 1)), exercise("Y", set(1, 1)))))
	require.NoError(t, db.InsertCompletedWorkout(ctx, finishedWorkout("C", base.AddDate(0, 1, 0))))

	list, err := db.ListCompletedWorkouts(ctx, base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)
	assert.Equal(t, 2, list[0].ExerciseCount)
	assert.Equal(t, 2, list[0].SetCount)
	assert.Equal(t, "A", list[1].Name)
	assert.Equal(t, 2, list[1].SetCount)
}

// TestHasCompletedWorkout verifies duplicate detection used by imports.
func TestHasCompletedWorkout(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 2, 19, 16, 54, 0, 0, time.UTC)

	require.NoError(t, db.InsertCompletedWorkout(ctx, finishedWorkout("Legs", started)))

	ok, err := db.HasCompletedWorkout(ctx, "Legs", started)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasCompletedWorkout(ctx, "Legs", started.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestWorkoutStatsExcludesAbandoned verifies abandoned workouts never count.
func TestWorkoutStatsExcludesAbandoned(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertCompletedWorkout(ctx, finishedWorkout("Done", base, exercise("Squat", set(100, 5), set(100, 3)))))
	abandoned := &models.CompletedWorkout{
		Name:      "Abandoned",
		StartedAt: base.Add(time.Hour),
		Exercises: []models.CompletedExercise{exercise("Squat", set(500, 50))},
	}
	require.NoError(t, db.InsertCompletedWorkout(ctx, abandoned))

	stats, err := db.GetWorkoutStats(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Workouts)
	assert.Equal(t, 2, stats.Sets)
	assert.Equal(t, 8, stats.Reps)
	assert.InDelta(t, 800.0, stats.VolumeKg, 0.001)
	assert.InDelta(t, 45*60, stats.TotalSeconds, 1)
}
