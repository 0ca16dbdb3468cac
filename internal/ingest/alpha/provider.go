package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
)

// Store is where imported workouts go.
type Store interface {
	HasCompletedWorkout(ctx context.Context, name string, startedAt time.Time) (bool, error)
	InsertCompletedWorkout(ctx context.Context, w *models.CompletedWorkout) error
}

// Invalidator is notified after new history has been written.
type Invalidator interface {
	Invalidate()
}

// Provider imports Alpha Progression CSV exports.
type Provider struct {
	store Store
	cache Invalidator
	loc   *time.Location
	log   *slog.Logger
}

// NewProvider creates a provider. cache may be nil. Session times in the
// export are local wall-clock times in loc.
func NewProvider(store Store, cache Invalidator, loc *time.Location, log *slog.Logger) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{store: store, cache: cache, loc: loc, log: log.With("component", "alpha")}
}

// Ingest parses an export and stores each session as a completed workout.
// Sessions already present (same name and start) are skipped, so re-importing
// an export is harmless. With dryRun nothing is written.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, dryRun bool) (*ingest.Result, error) {
	sessions, err := Parse(r, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{DryRun: dryRun, WorkoutsReceived: len(sessions)}
	for _, s := range sessions {
		w := ToWorkout(s)
		sets := countSets(w)
		result.SetsReceived += sets

		exists, err := p.store.HasCompletedWorkout(ctx, w.Name, w.StartedAt)
		if err != nil {
			return result, err
		}
		if exists {
			result.WorkoutsSkipped++
			p.log.Debug("skipping known session", "name", w.Name, "started_at", w.StartedAt)
			continue
		}
		if dryRun {
			result.WorkoutsInserted++
			result.SetsInserted += sets
			continue
		}
		if err := p.store.InsertCompletedWorkout(ctx, w); err != nil {
			return result, fmt.Errorf("storing session %q on %s: %w", w.Name, w.Date, err)
		}
		result.WorkoutsInserted++
		result.SetsInserted += sets
	}

	if result.WorkoutsInserted > 0 && !dryRun && p.cache != nil {
		p.cache.Invalidate()
	}
	p.log.Info("alpha import",
		"received", result.WorkoutsReceived,
		"inserted", result.WorkoutsInserted,
		"skipped", result.WorkoutsSkipped,
		"dry_run", dryRun,
	)
	return result, nil
}
