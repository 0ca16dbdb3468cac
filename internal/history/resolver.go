// Package history answers "what did I do last time" questions for the
// session engine and any history view. It never writes.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSuggestCacheSize bounds the autocomplete cache when none is configured.
const DefaultSuggestCacheSize = 256

// Store is the read-only query surface the resolver needs.
type Store interface {
	PreviousSetAt(ctx context.Context, exerciseName string, position int) (*models.Previous, error)
	PreviousSets(ctx context.Context, exerciseName string) ([]models.Previous, error)
	ExerciseHistory(ctx context.Context, exerciseName string, limit int) ([]models.ExerciseHistoryEntry, error)
	ExerciseNames(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Resolver looks up previous performance by exact, case-sensitive exercise name.
type Resolver struct {
	store   Store
	log     *slog.Logger
	suggest *lru.Cache[string, []string]
}

// NewResolver creates a Resolver with an autocomplete cache of cacheSize entries.
func NewResolver(store Store, cacheSize int, log *slog.Logger) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultSuggestCacheSize
	}
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating suggestion cache: %w", err)
	}
	return &Resolver{store: store, log: log.With("component", "history"), suggest: cache}, nil
}

// PreviousAtPosition returns the values logged at position the last time the
// exercise was performed, or nil if there is no such set.
func (r *Resolver) PreviousAtPosition(ctx context.Context, name string, position int) (*models.Previous, error) {
	if strings.TrimSpace(name) == "" || position < 0 {
		return nil, nil
	}
	prev, err := r.store.PreviousSetAt(ctx, name, position)
	if err != nil {
		return nil, err
	}
	observeLookup(prev != nil)
	return prev, nil
}

// AllPrevious returns every set from the last time the exercise was performed.
func (r *Resolver) AllPrevious(ctx context.Context, name string) ([]models.Previous, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	prev, err := r.store.PreviousSets(ctx, name)
	if err != nil {
		return nil, err
	}
	observeLookup(len(prev) > 0)
	return prev, nil
}

// History returns recent performances of an exercise, newest first.
func (r *Resolver) History(ctx context.Context, name string, limit int) ([]models.ExerciseHistoryEntry, error) {
	return r.store.ExerciseHistory(ctx, name, limit)
}

// Suggest returns exercise names starting with prefix, most used first.
// Results are cached per lowercased prefix until Invalidate is called.
func (r *Resolver) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	key := fmt.Sprintf("%d:%s", limit, strings.ToLower(strings.TrimSpace(prefix)))
	if names, ok := r.suggest.Get(key); ok {
		metrics.SuggestCacheHits.Inc()
		return slices.Clone(names), nil
	}
	metrics.SuggestCacheMisses.Inc()

	names, err := r.store.ExerciseNames(ctx, strings.TrimSpace(prefix), limit)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	r.suggest.Add(key, slices.Clone(names))
	return names, nil
}

// Invalidate drops cached suggestions. Call after history changes.
func (r *Resolver) Invalidate() {
	r.suggest.Purge()
	r.log.Debug("suggestion cache purged")
}

func observeLookup(hit bool) {
	if hit {
		metrics.PreviousLookups.WithLabelValues("hit").Inc()
		return
	}
	metrics.PreviousLookups.WithLabelValues("miss").Inc()
}
