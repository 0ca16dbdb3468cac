package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a saved, reusable workout blueprint.
type Template struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one exercise of a template.
type TemplateExercise struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Position int           `json:"position"`
	Sets     []TemplateSet `json:"sets"`
}

// TemplateSet holds the target values a session set is prefilled with.
type TemplateSet struct {
	Position int      `json:"position"`
	Weight   *float64 `json:"weight,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
}
