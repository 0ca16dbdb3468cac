package ingest

// Result holds the outcome of a history import.
type Result struct {
	WorkoutsReceived int  `json:"workouts_received"`
	WorkoutsInserted int  `json:"workouts_inserted"`
	WorkoutsSkipped  int  `json:"workouts_skipped"`
	SetsReceived     int  `json:"sets_received"`
	SetsInserted     int  `json:"sets_inserted"`
	DryRun           bool `json:"dry_run,omitempty"`

	Message string `json:"message,omitempty"`
}

// Add accumulates another result into r.
func (r *Result) Add(o *Result) {
	r.WorkoutsReceived += o.WorkoutsReceived
	r.WorkoutsInserted += o.WorkoutsInserted
	r.WorkoutsSkipped += o.WorkoutsSkipped
	r.SetsReceived += o.SetsReceived
	r.SetsInserted += o.SetsInserted
}
