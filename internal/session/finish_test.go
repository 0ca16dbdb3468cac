package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"100", 100, true},
		{"82.5", 82.5, true},
		{"82,5", 82.5, true},
		{" 60 ", 60, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"heavy", 0, false},
		{"-20", 0, false},
		{"1,2,3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		got := parseWeight(tt.input)
		if !tt.ok {
			if got != nil {
				t.Errorf("parseWeight(%q) = %v, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseWeight(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseReps(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"5", 5, true},
		{" 12", 12, true},
		{"0", 0, true},
		{"", 0, false},
		{"8.5", 0, false},
		{"ten", 0, false},
		{"-1", 0, false},
	}

	for _, tt := range tests {
		got := parseReps(tt.input)
		if !tt.ok {
			if got != nil {
				t.Errorf("parseReps(%q) = %v, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseReps(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCompletedWorkout(t *testing.T) {
	tmpl := uuid.New()
	started := time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)
	s := &Session{
		Name:       "Pull",
		StartedAt:  started,
		TemplateID: &tmpl,
		Exercises: []Exercise{
			{Name: "Row", Sets: []Set{{Weight: "60", Reps: "10"}, {Weight: "", Reps: "x"}}},
			{Name: "  ", Sets: []Set{{Weight: "20", Reps: "20"}}},
			{Name: "Curl", Sets: []Set{{Weight: "12,5", Reps: "8"}}},
		},
	}

	w := completedWorkout(s, started.Add(50*time.Minute))
	if w.Date != "2026-03-14" || w.IsAdHoc || w.TemplateID == nil || *w.TemplateID != tmpl {
		t.Fatalf("unexpected header: %+v", w)
	}
	if w.Duration() != 50*time.Minute {
		t.Errorf("duration = %v", w.Duration())
	}
	if len(w.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(w.Exercises))
	}
	row, curl := w.Exercises[0], w.Exercises[1]
	if row.Name != "Row" || curl.Name != "Curl" || curl.Position != 1 {
		t.Errorf("unexpected exercises: %+v", w.Exercises)
	}
	if row.Sets[1].Position != 1 || row.Sets[1].Weight != nil || row.Sets[1].Reps != nil {
		t.Errorf("blank set = %+v, want nil values", row.Sets[1])
	}
	if *curl.Sets[0].Weight != 12.5 {
		t.Errorf("curl weight = %v", *curl.Sets[0].Weight)
	}
}

func TestCompletedWorkoutEmpty(t *testing.T) {
	s := &Session{Name: "Quick", StartedAt: time.Now()}
	w := completedWorkout(s, time.Now())
	if !w.IsAdHoc || len(w.Exercises) != 0 || !w.Finished() {
		t.Errorf("unexpected workout: %+v", w)
	}
}
