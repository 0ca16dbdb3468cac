package alpha

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

type memStore struct {
	workouts []*models.CompletedWorkout
}

func (m *memStore) HasCompletedWorkout(_ context.Context, name string, startedAt time.Time) (bool, error) {
	for _, w := range m.workouts {
		if w.Name == name && w.StartedAt.Equal(startedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertCompletedWorkout(_ context.Context, w *models.CompletedWorkout) error {
	m.workouts = append(m.workouts, w)
	return nil
}

type countingCache struct{ purges int }

func (c *countingCache) Invalidate() { c.purges++ }

func newTestProvider(store Store, cache Invalidator) *Provider {
	return NewProvider(store, cache, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestToWorkoutDropsWarmups verifies only working sets become history and the
// end time comes from the export's duration.
func TestToWorkoutDropsWarmups(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV), time.UTC)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	w := ToWorkout(sessions[0])
	if !w.IsAdHoc || w.EndedAt == nil {
		t.Fatalf("workout = %+v, want finished ad-hoc", w)
	}
	if got := w.Duration(); got != 62*time.Minute {
		t.Errorf("duration = %v, want 1h2m", got)
	}
	if w.Date != "2026-02-19" {
		t.Errorf("date = %q", w.Date)
	}
	if len(w.Exercises) != 6 {
		t.Fatalf("exercises = %d, want 6", len(w.Exercises))
	}
	hack := w.Exercises[0]
	if hack.Name != "Hack Squats" || len(hack.Sets) != 3 {
		t.Errorf("hack squats = %q with %d sets, want 3 working sets", hack.Name, len(hack.Sets))
	}
	if *hack.Sets[1].Weight != 115 || *hack.Sets[1].Reps != 10 || hack.Sets[1].Position != 1 {
		t.Errorf("hack squats set 2 = %+v", hack.Sets[1])
	}
	hyper := w.Exercises[2]
	if *hyper.Sets[0].Weight != 35 {
		t.Errorf("bodyweight-plus load = %v, want 35", *hyper.Sets[0].Weight)
	}
}

// TestIngestSkipsDuplicates verifies re-importing the same export inserts nothing.
func TestIngestSkipsDuplicates(t *testing.T) {
	store := &memStore{}
	cache := &countingCache{}
	p := newTestProvider(store, cache)
	ctx := context.Background()

	first, err := p.Ingest(ctx, strings.NewReader(sampleCSV), false)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.WorkoutsReceived != 2 || first.WorkoutsInserted != 2 {
		t.Errorf("first = %+v, want 2 received and inserted", first)
	}
	if first.SetsInserted != 20 {
		t.Errorf("sets inserted = %d, want 20", first.SetsInserted)
	}
	if cache.purges != 1 {
		t.Errorf("purges = %d, want 1", cache.purges)
	}

	second, err := p.Ingest(ctx, strings.NewReader(sampleCSV), false)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.WorkoutsInserted != 0 || second.WorkoutsSkipped != 2 {
		t.Errorf("second = %+v, want all skipped", second)
	}
	if len(store.workouts) != 2 {
		t.Errorf("stored = %d, want 2", len(store.workouts))
	}
	if cache.purges != 1 {
		t.Errorf("purges = %d, want 1", cache.purges)
	}
}

// TestIngestDryRun verifies counts are reported without writing.
func TestIngestDryRun(t *testing.T) {
	store := &memStore{}
	p := newTestProvider(store, nil)

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.DryRun || res.WorkoutsInserted != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(store.workouts) != 0 {
		t.Errorf("dry run stored %d workouts", len(store.workouts))
	}
}

// TestIngestMalformed verifies parse errors are returned before any write.
func TestIngestMalformed(t *testing.T) {
	store := &memStore{}
	p := newTestProvider(store, nil)
	_, err := p.Ingest(context.Background(), strings.NewReader("1;100;5;1\n"), false)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.workouts) != 0 {
		t.Errorf("stored = %d, want 0", len(store.workouts))
	}
}
