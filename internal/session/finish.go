package session

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// completedWorkout materializes a session into the record written on finish.
// Exercises with a blank name are dropped; the rest keep their relative order.
func completedWorkout(s *Session, endedAt time.Time) *models.CompletedWorkout {
	w := &models.CompletedWorkout{
		ID:        uuid.New(),
		Name:      s.Name,
		Date:      s.StartedAt.Format(models.DateLayout),
		StartedAt: s.StartedAt,
		EndedAt:   &endedAt,
		IsAdHoc:   s.TemplateID == nil,
	}
	if s.TemplateID != nil {
		id := *s.TemplateID
		w.TemplateID = &id
	}
	for _, ex := range s.Exercises {
		if isBlank(ex.Name) {
			continue
		}
		ce := models.CompletedExercise{
			ID:       uuid.New(),
			Name:     ex.Name,
			Position: len(w.Exercises),
		}
		for i, set := range ex.Sets {
			ce.Sets = append(ce.Sets, models.CompletedSet{
				Position: i,
				Weight:   parseWeight(set.Weight),
				Reps:     parseReps(set.Reps),
			})
		}
		w.Exercises = append(w.Exercises, ce)
	}
	return w
}

// parseWeight accepts a comma as decimal separator. Blank, unparsable and
// negative input yields nil.
func parseWeight(text string) *float64 {
	text = strings.TrimSpace(strings.Replace(text, ",", ".", 1))
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseReps(text string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
