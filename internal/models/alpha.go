package models

import "time"

// AlphaSession is one workout parsed from an Alpha Progression CSV export.
type AlphaSession struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Exercises []AlphaExercise
}

// AlphaExercise is a single exercise within a session.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []AlphaSet
}

// AlphaSet is a working or warmup set. For bodyweight-plus sets WeightKg is
// the added load.
type AlphaSet struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}

// WorkingSets returns the sets that count toward history, in order.
func (e AlphaExercise) WorkingSets() []AlphaSet {
	var sets []AlphaSet
	for _, s := range e.Sets {
		if !s.IsWarmup {
			sets = append(sets, s)
		}
	}
	return sets
}
