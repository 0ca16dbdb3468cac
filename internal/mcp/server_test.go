package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// TestDefaultTimeRange verifies time range defaults (last 30 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to last 30 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 24*29 || diff.Hours() > 24*31 {
		t.Errorf("default range = %.0f hours, want ~720", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

// fakeSource records what the tools asked for.
type fakeSource struct {
	DataSource
	prev      []models.Previous
	err       error
	gotName   string
	gotLimit  int
	gotPrefix string
}

func (f *fakeSource) AllPrevious(_ context.Context, name string) ([]models.Previous, error) {
	f.gotName = name
	return f.prev, f.err
}

func (f *fakeSource) History(_ context.Context, name string, limit int) ([]models.ExerciseHistoryEntry, error) {
	f.gotName, f.gotLimit = name, limit
	return []models.ExerciseHistoryEntry{{WorkoutName: "Push", StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}}, f.err
}

func (f *fakeSource) Suggest(_ context.Context, prefix string, limit int) ([]string, error) {
	f.gotPrefix, f.gotLimit = prefix, limit
	return nil, f.err
}

func (f *fakeSource) GetCompletedWorkout(_ context.Context, id uuid.UUID) (*models.CompletedWorkout, error) {
	return &models.CompletedWorkout{ID: id, Name: "Legs"}, f.err
}

func newTestHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestGetPreviousSetsTool(t *testing.T) {
	reps := 8
	ds := &fakeSource{prev: []models.Previous{{Reps: &reps}}}
	h := newTestHandlers(ds)

	res, err := h.getPreviousSets(context.Background(), callRequest(map[string]any{"exercise": "Bench Press"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if ds.gotName != "Bench Press" {
		t.Errorf("name = %q, want Bench Press", ds.gotName)
	}
	var prev []models.Previous
	if err := json.Unmarshal([]byte(resultText(t, res)), &prev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prev) != 1 || *prev[0].Reps != 8 {
		t.Errorf("prev = %+v, want one set of 8 reps", prev)
	}
}

func TestGetPreviousSetsMissing(t *testing.T) {
	h := newTestHandlers(&fakeSource{})

	res, err := h.getPreviousSets(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("missing exercise should be a tool error")
	}

	res, _ = h.getPreviousSets(context.Background(), callRequest(map[string]any{"exercise": "Curl"}))
	if res.IsError {
		t.Errorf("unknown exercise should not be an error: %s", resultText(t, res))
	}
}

func TestExerciseHistoryLimit(t *testing.T) {
	ds := &fakeSource{}
	h := newTestHandlers(ds)

	if _, err := h.getExerciseHistory(context.Background(), callRequest(map[string]any{"exercise": "Squat"})); err != nil {
		t.Fatal(err)
	}
	if ds.gotLimit != 20 {
		t.Errorf("default limit = %d, want 20", ds.gotLimit)
	}

	if _, err := h.getExerciseHistory(context.Background(), callRequest(map[string]any{"exercise": "Squat", "limit": float64(5)})); err != nil {
		t.Fatal(err)
	}
	if ds.gotLimit != 5 {
		t.Errorf("limit = %d, want 5", ds.gotLimit)
	}
}

func TestSuggestExercisesTool(t *testing.T) {
	ds := &fakeSource{}
	h := newTestHandlers(ds)

	res, err := h.suggestExercises(context.Background(), callRequest(map[string]any{"prefix": "ben"}))
	if err != nil {
		t.Fatal(err)
	}
	if ds.gotPrefix != "ben" || ds.gotLimit != 10 {
		t.Errorf("got prefix %q limit %d", ds.gotPrefix, ds.gotLimit)
	}
	if got := resultText(t, res); got != "[]" {
		t.Errorf("result = %s, want []", got)
	}

	ds.err = errors.New("database is locked")
	res, _ = h.suggestExercises(context.Background(), callRequest(map[string]any{"prefix": "ben"}))
	if !res.IsError {
		t.Error("store failure should be a tool error")
	}
}

func TestGetWorkoutInvalidID(t *testing.T) {
	h := newTestHandlers(&fakeSource{})

	res, _ := h.getWorkout(context.Background(), callRequest(map[string]any{"id": "nope"}))
	if !res.IsError {
		t.Error("invalid id should be a tool error")
	}

	id := uuid.New()
	res, _ = h.getWorkout(context.Background(), callRequest(map[string]any{"id": id.String()}))
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var w models.CompletedWorkout
	if err := json.Unmarshal([]byte(resultText(t, res)), &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.ID != id {
		t.Errorf("id = %s, want %s", w.ID, id)
	}
}
