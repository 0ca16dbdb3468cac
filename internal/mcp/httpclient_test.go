package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListCompletedWorkouts verifies the time range is sent as RFC 3339 and
// the API key header is attached.
func TestListCompletedWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("start"); got != "2026-01-01T00:00:00Z" {
				t.Errorf("start=%q, want 2026-01-01T00:00:00Z", got)
			}
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("api key=%q, want k", got)
			}
			writeTestJSON(t, w, []models.WorkoutSummary{{Name: "Push", SetCount: 12}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL+"/", "k")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	workouts, err := client.ListCompletedWorkouts(context.Background(), start, start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 || workouts[0].SetCount != 12 {
		t.Errorf("workouts = %+v, want one with 12 sets", workouts)
	}
}

// TestGetCompletedWorkout verifies the workout ID is part of the path.
func TestGetCompletedWorkout(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.CompletedWorkout{ID: id, Name: "Legs"})
		},
	})
	defer ts.Close()

	w, err := NewHTTPClient(ts.URL, "").GetCompletedWorkout(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if w.Name != "Legs" {
		t.Errorf("name=%q, want Legs", w.Name)
	}
}

// TestExerciseQueries verifies name, prefix and limit parameters.
func TestExerciseQueries(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises/previous": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("name"); got != "Bench Press" {
				t.Errorf("name=%q, want Bench Press", got)
			}
			reps := 5
			writeTestJSON(t, w, []models.Previous{{Reps: &reps}})
		},
		"/api/v1/exercises/history": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "3" {
				t.Errorf("limit=%q, want 3", got)
			}
			writeTestJSON(t, w, []models.ExerciseHistoryEntry{{WorkoutName: "Push"}})
		},
		"/api/v1/exercises/suggest": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("prefix"); got != "be" {
				t.Errorf("prefix=%q, want be", got)
			}
			writeTestJSON(t, w, []string{"Bench Press", "Bent-over Row"})
		},
	})
	defer ts.Close()
	client := NewHTTPClient(ts.URL, "")
	ctx := context.Background()

	prev, err := client.AllPrevious(ctx, "Bench Press")
	if err != nil {
		t.Fatal(err)
	}
	if len(prev) != 1 || *prev[0].Reps != 5 {
		t.Errorf("prev = %+v", prev)
	}

	entries, err := client.History(ctx, "Bench Press", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}

	names, err := client.Suggest(ctx, "be", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}
}

// TestHTTPClientErrorStatus verifies non-200 responses become errors that
// carry the response body.
func TestHTTPClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/stats": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "bad").GetWorkoutStats(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "invalid API key") {
		t.Errorf("error = %v, want status and body", err)
	}
}
