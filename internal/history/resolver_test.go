package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	sets      map[string][]models.Previous
	names     []string
	nameCalls int
	err       error
}

func (f *fakeStore) PreviousSetAt(_ context.Context, name string, position int) (*models.Previous, error) {
	if f.err != nil {
		return nil, f.err
	}
	sets := f.sets[name]
	if position >= len(sets) {
		return nil, nil
	}
	p := sets[position]
	return &p, nil
}

func (f *fakeStore) PreviousSets(_ context.Context, name string) ([]models.Previous, error) {
	return f.sets[name], f.err
}

func (f *fakeStore) ExerciseHistory(context.Context, string, int) ([]models.ExerciseHistoryEntry, error) {
	return nil, f.err
}

func (f *fakeStore) ExerciseNames(_ context.Context, _ string, _ int) ([]string, error) {
	f.nameCalls++
	return f.names, f.err
}

func newTestResolver(t *testing.T, store Store) *Resolver {
	t.Helper()
	r, err := NewResolver(store, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func weight(v float64) *float64 { return &v }

// TestPreviousAtPosition verifies hits, misses, and blank-name short-circuit.
func TestPreviousAtPosition(t *testing.T) {
	store := &fakeStore{sets: map[string][]models.Previous{
		"Bench": {{Weight: weight(80)}, {Weight: weight(82.5)}},
	}}
	r := newTestResolver(t, store)
	ctx := context.Background()

	p, err := r.PreviousAtPosition(ctx, "Bench", 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 82.5, *p.Weight)

	p, err = r.PreviousAtPosition(ctx, "Bench", 2)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = r.PreviousAtPosition(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Nil(t, p)
}

// TestAllPreviousPropagatesErrors verifies store failures reach the caller.
func TestAllPreviousPropagatesErrors(t *testing.T) {
	r := newTestResolver(t, &fakeStore{err: errors.New("db down")})
	_, err := r.AllPrevious(context.Background(), "Bench")
	assert.Error(t, err)
}

// TestSuggestCachesUntilInvalidated verifies the LRU avoids repeat queries
// for the same prefix and is cleared by Invalidate.
func TestSuggestCachesUntilInvalidated(t *testing.T) {
	store := &fakeStore{names: []string{"Bench Press"}}
	r := newTestResolver(t, store)
	ctx := context.Background()

	for _, prefix := range []string{"be", "BE", " be "} {
		names, err := r.Suggest(ctx, prefix, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bench Press"}, names)
	}
	assert.Equal(t, 1, store.nameCalls)

	r.Invalidate()
	_, err := r.Suggest(ctx, "be", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, store.nameCalls)
}

// TestSuggestEmptyIsNotNil verifies JSON-friendly empty results.
func TestSuggestEmptyIsNotNil(t *testing.T) {
	r := newTestResolver(t, &fakeStore{})
	names, err := r.Suggest(context.Background(), "zz", 5)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

// TestSuggestResultIsPrivate verifies callers cannot alter cached entries.
func TestSuggestResultIsPrivate(t *testing.T) {
	store := &fakeStore{names: []string{"Bench Press", "Bent Over Row"}}
	r := newTestResolver(t, store)
	ctx := context.Background()

	first, err := r.Suggest(ctx, "be", 5)
	require.NoError(t, err)
	first[0] = "Curl"

	second, err := r.Suggest(ctx, "be", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench Press", "Bent Over Row"}, second)
	assert.Equal(t, 1, store.nameCalls)

	second[1] = "Dips"
	third, err := r.Suggest(ctx, "be", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench Press", "Bent Over Row"}, third)
}
