package session

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/google/uuid"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrSessionActive    = errors.New("a session is already active")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSetNotFound      = errors.New("set not found")
	ErrPersist          = errors.New("saving workout failed")
)

// Session is the in-progress workout. Values handed out by the engine are
// snapshots and must be treated as read-only.
type Session struct {
	Name           string           `json:"name"`
	Exercises      []Exercise       `json:"exercises"`
	ElapsedSeconds int              `json:"elapsed_seconds"`
	StartedAt      time.Time        `json:"started_at"`
	TemplateID     *uuid.UUID       `json:"template_id,omitempty"`
	RestTimer      resttimer.Status `json:"rest_timer"`
}

// Exercise always holds at least one set.
type Exercise struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Sets []Set     `json:"sets"`
}

// Set keeps weight and reps as the raw typed text; they are parsed only when
// the workout is finished. A set's position is its index in Exercise.Sets.
type Set struct {
	ID        uuid.UUID        `json:"id"`
	Weight    string           `json:"weight"`
	Reps      string           `json:"reps"`
	Completed bool             `json:"completed"`
	Previous  *models.Previous `json:"previous,omitempty"`
}

// Clone returns a deep copy. Previous values are shared since they are
// replaced, never modified.
func (s *Session) Clone() *Session {
	c := *s
	if s.TemplateID != nil {
		id := *s.TemplateID
		c.TemplateID = &id
	}
	c.Exercises = make([]Exercise, len(s.Exercises))
	for i, ex := range s.Exercises {
		ex.Sets = append([]Set(nil), ex.Sets...)
		c.Exercises[i] = ex
	}
	return &c
}

func (s *Session) exercise(id uuid.UUID) (*Exercise, error) {
	for i := range s.Exercises {
		if s.Exercises[i].ID == id {
			return &s.Exercises[i], nil
		}
	}
	return nil, ErrExerciseNotFound
}

func (ex *Exercise) set(index int) (*Set, error) {
	if index < 0 || index >= len(ex.Sets) {
		return nil, ErrSetNotFound
	}
	return &ex.Sets[index], nil
}

func newSet() Set {
	return Set{ID: uuid.New()}
}

func newExercise(name string) Exercise {
	return Exercise{ID: uuid.New(), Name: name, Sets: []Set{newSet()}}
}

// adHocName labels a quick workout by the time of day it started.
func adHocName(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Morning Workout"
	case h >= 12 && h < 17:
		return "Afternoon Workout"
	case h >= 17 && h < 21:
		return "Evening Workout"
	default:
		return "Night Workout"
	}
}

// fromTemplate builds a session from a template, prefilling each set with the
// template's targets and previous values from prev, keyed by exercise name.
func fromTemplate(t *models.Template, now time.Time, prev map[string][]models.Previous) *Session {
	id := t.ID
	s := &Session{Name: t.Name, StartedAt: now, TemplateID: &id}
	for _, te := range t.Exercises {
		ex := Exercise{ID: uuid.New(), Name: te.Name}
		history := prev[te.Name]
		for i, ts := range te.Sets {
			set := newSet()
			if ts.Weight != nil {
				set.Weight = strconv.FormatFloat(*ts.Weight, 'f', -1, 64)
			}
			if ts.Reps != nil {
				set.Reps = strconv.Itoa(*ts.Reps)
			}
			if i < len(history) {
				p := history[i]
				set.Previous = &p
			}
			ex.Sets = append(ex.Sets, set)
		}
		if len(ex.Sets) == 0 {
			ex.Sets = []Set{newSet()}
		}
		s.Exercises = append(s.Exercises, ex)
	}
	return s
}

// Transforms below mutate a clone owned by the engine and return an error,
// without side effects, when the target does not exist.

func setExerciseName(s *Session, exerciseID uuid.UUID, name string) (changed bool, err error) {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return false, err
	}
	if ex.Name == name {
		return false, nil
	}
	ex.Name = name
	for i := range ex.Sets {
		ex.Sets[i].Previous = nil
	}
	return true, nil
}

func addSet(s *Session, exerciseID uuid.UUID) (index int, id uuid.UUID, err error) {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return 0, uuid.Nil, err
	}
	set := newSet()
	ex.Sets = append(ex.Sets, set)
	return len(ex.Sets) - 1, set.ID, nil
}

// removeSet is a no-op on the last remaining set.
func removeSet(s *Session, exerciseID uuid.UUID, index int) error {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return err
	}
	if _, err := ex.set(index); err != nil {
		return err
	}
	if len(ex.Sets) == 1 {
		return nil
	}
	ex.Sets = append(ex.Sets[:index], ex.Sets[index+1:]...)
	return nil
}

func setWeight(s *Session, exerciseID uuid.UUID, index int, value string) error {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return err
	}
	set, err := ex.set(index)
	if err != nil {
		return err
	}
	set.Weight = value
	return nil
}

func setReps(s *Session, exerciseID uuid.UUID, index int, value string) error {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return err
	}
	set, err := ex.set(index)
	if err != nil {
		return err
	}
	set.Reps = value
	return nil
}

// setValues updates whichever of weight and reps is non-nil.
func setValues(s *Session, exerciseID uuid.UUID, index int, weight, reps *string) error {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return err
	}
	set, err := ex.set(index)
	if err != nil {
		return err
	}
	if weight != nil {
		set.Weight = *weight
	}
	if reps != nil {
		set.Reps = *reps
	}
	return nil
}

func toggleSetCompleted(s *Session, exerciseID uuid.UUID, index int) (completed bool, err error) {
	ex, err := s.exercise(exerciseID)
	if err != nil {
		return false, err
	}
	set, err := ex.set(index)
	if err != nil {
		return false, err
	}
	set.Completed = !set.Completed
	return set.Completed, nil
}

func addExercise(s *Session) uuid.UUID {
	ex := newExercise("")
	s.Exercises = append(s.Exercises, ex)
	return ex.ID
}

func removeExercise(s *Session, exerciseID uuid.UUID) error {
	for i := range s.Exercises {
		if s.Exercises[i].ID == exerciseID {
			s.Exercises = append(s.Exercises[:i], s.Exercises[i+1:]...)
			return nil
		}
	}
	return ErrExerciseNotFound
}

func moveExercise(s *Session, from, to int) error {
	n := len(s.Exercises)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrExerciseNotFound
	}
	ex := s.Exercises[from]
	s.Exercises = append(s.Exercises[:from], s.Exercises[from+1:]...)
	s.Exercises = append(s.Exercises[:to], append([]Exercise{ex}, s.Exercises[to:]...)...)
	return nil
}

// applyPrevious merges resolved previous values into the sets whose IDs were
// captured at dispatch. It reports false when the exercise is gone or renamed,
// in which case nothing is applied.
func applyPrevious(s *Session, exerciseID uuid.UUID, name string, setIDs []uuid.UUID, prev []models.Previous, offset int) bool {
	ex, err := s.exercise(exerciseID)
	if err != nil || ex.Name != name {
		return false
	}
	applied := false
	for i, id := range setIDs {
		pos := offset + i
		if pos >= len(ex.Sets) || ex.Sets[pos].ID != id {
			continue
		}
		applied = true
		if i < len(prev) {
			p := prev[i]
			ex.Sets[pos].Previous = &p
		}
	}
	return applied
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
