package alpha

import (
	"github.com/claude/liftlog/internal/models"
)

// ToWorkout converts a parsed session into a finished ad-hoc workout. Only
// working sets are kept; warmups never feed previous values. Bodyweight-plus
// sets record the added load.
func ToWorkout(s models.AlphaSession) *models.CompletedWorkout {
	ended := s.StartedAt.Add(s.Duration)
	w := &models.CompletedWorkout{
		Name:      s.Name,
		Date:      s.StartedAt.Format(models.DateLayout),
		StartedAt: s.StartedAt,
		EndedAt:   &ended,
		IsAdHoc:   true,
	}
	for _, ex := range s.Exercises {
		working := ex.WorkingSets()
		if len(working) == 0 || ex.Name == "" {
			continue
		}
		ce := models.CompletedExercise{Name: ex.Name, Position: len(w.Exercises)}
		for i, set := range working {
			weight, reps := set.WeightKg, set.Reps
			ce.Sets = append(ce.Sets, models.CompletedSet{
				Position: i,
				Weight:   &weight,
				Reps:     &reps,
			})
		}
		w.Exercises = append(w.Exercises, ce)
	}
	return w
}

func countSets(w *models.CompletedWorkout) int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}
