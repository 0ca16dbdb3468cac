package models

import "time"

// DefaultRestTimerSeconds is used until the user picks a rest duration.
const DefaultRestTimerSeconds = 90

// Profile is the single local user.
type Profile struct {
	Name             string    `json:"name"`
	RestTimerSeconds int       `json:"rest_timer_seconds"`
	UpdatedAt        time.Time `json:"updated_at"`
}
