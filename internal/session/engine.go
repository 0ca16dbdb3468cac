// Package session runs the active workout: an in-memory session edited through
// serialized commands, an elapsed-time ticker, previous-value lookups merged
// in as they arrive, and the final atomic write of the completed workout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Store loads templates and persists finished workouts.
type Store interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	InsertCompletedWorkout(ctx context.Context, w *models.CompletedWorkout) error
}

// Resolver looks up previous performance by exercise name.
type Resolver interface {
	PreviousAtPosition(ctx context.Context, name string, position int) (*models.Previous, error)
	AllPrevious(ctx context.Context, name string) ([]models.Previous, error)
}

// invalidator is implemented by resolvers that cache derived history.
type invalidator interface {
	Invalidate()
}

// RestTimer is the part of the rest timer the engine drives.
type RestTimer interface {
	StartDefault() resttimer.Status
	Skip() resttimer.Status
	Status() resttimer.Status
	Reset(ctx context.Context) error
	Subscribe() (<-chan resttimer.Status, func())
}

// EventKind classifies engine events.
type EventKind string

const (
	EventUpdated      EventKind = "updated"
	EventEnded        EventKind = "ended"
	EventCancelled    EventKind = "cancelled"
	EventFinishFailed EventKind = "finish_failed"
)

// Event is published after every state change. Session is nil once the
// session has ended or been cancelled.
type Event struct {
	Kind      EventKind  `json:"kind"`
	Session   *Session   `json:"session,omitempty"`
	WorkoutID *uuid.UUID `json:"workout_id,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Engine owns the active session. All commands are serialized.
type Engine struct {
	store    Store
	resolver Resolver
	timer    RestTimer
	clock    clock.Clock
	log      *slog.Logger

	mu         sync.Mutex
	cur        *Session
	sessCtx    context.Context
	sessCancel context.CancelFunc
	ticker     clock.Ticker
	tickCancel context.CancelFunc
	subs       map[chan Event]struct{}
	closed     bool

	unsubTimer func()
	tasks      sync.WaitGroup
	resolves   sync.WaitGroup
}

// NewEngine creates an engine and starts mirroring the rest timer into the
// active session.
func NewEngine(store Store, resolver Resolver, timer RestTimer, clk clock.Clock, log *slog.Logger) *Engine {
	e := &Engine{
		store:    store,
		resolver: resolver,
		timer:    timer,
		clock:    clk,
		log:      log.With("component", "session"),
		subs:     make(map[chan Event]struct{}),
	}
	statuses, unsub := timer.Subscribe()
	e.unsubTimer = unsub
	e.tasks.Add(1)
	go e.mirrorTimer(statuses)
	return e
}

// Close ends any active session without saving and stops background work.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.cur != nil {
		e.stopSession()
		e.cur = nil
	}
	e.mu.Unlock()

	e.unsubTimer()
	e.tasks.Wait()
	e.resolves.Wait()

	e.mu.Lock()
	for ch := range e.subs {
		close(ch)
	}
	e.subs = nil
	e.mu.Unlock()
}

// Snapshot returns a copy of the active session, or nil.
func (e *Engine) Snapshot() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return nil
	}
	return e.cur.Clone()
}

// Subscribe returns a channel of events, starting with the current session
// if one is active. A slow subscriber misses intermediate events but always
// receives the latest.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	if e.cur != nil {
		deliver(ch, Event{Kind: EventUpdated, Session: e.cur})
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if _, ok := e.subs[ch]; ok {
				delete(e.subs, ch)
				close(ch)
			}
		})
	}
}

// StartAdHoc starts an empty session named after the time of day.
func (e *Engine) StartAdHoc(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.canStart(); err != nil {
		return nil, err
	}
	now := e.clock.Now()
	s := &Session{Name: adHocName(now), StartedAt: now}
	e.begin(ctx, s, "ad_hoc")
	return s.Clone(), nil
}

// StartFromTemplate starts a session prefilled from a saved template, with
// previous values seeded from history before it is returned.
func (e *Engine) StartFromTemplate(ctx context.Context, templateID uuid.UUID) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.canStart(); err != nil {
		return nil, err
	}

	t, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}

	prev := make(map[string][]models.Previous)
	for _, te := range t.Exercises {
		if _, done := prev[te.Name]; done || isBlank(te.Name) {
			continue
		}
		values, err := e.resolver.AllPrevious(ctx, te.Name)
		if err != nil {
			e.log.Warn("previous lookup failed", "exercise", te.Name, "error", err)
		}
		prev[te.Name] = values
	}

	s := fromTemplate(t, e.clock.Now(), prev)
	e.begin(ctx, s, "template")
	return s.Clone(), nil
}

func (e *Engine) canStart() error {
	if e.closed {
		return ErrNoSession
	}
	if e.cur != nil {
		return ErrSessionActive
	}
	return nil
}

// begin installs s as the active session. Caller holds mu.
func (e *Engine) begin(ctx context.Context, s *Session, kind string) {
	if err := e.timer.Reset(ctx); err != nil {
		e.log.Warn("resetting rest timer", "error", err)
	}
	s.RestTimer = e.timer.Status()
	e.sessCtx, e.sessCancel = context.WithCancel(context.Background())
	e.cur = s
	e.startTicker()
	metrics.SessionsStarted.WithLabelValues(kind).Inc()
	e.log.Info("session started", "name", s.Name, "kind", kind, "exercises", len(s.Exercises))
	e.publish(Event{Kind: EventUpdated, Session: s})
}

// SetName renames the session.
func (e *Engine) SetName(name string) (*Session, error) {
	return e.update(func(s *Session) error {
		s.Name = name
		return nil
	})
}

// SetExerciseName renames an exercise. Previous values for all of its sets
// are cleared and, for a non-blank name, looked up again in the background.
func (e *Engine) SetExerciseName(exerciseID uuid.UUID, name string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var changed bool
	s, err := e.apply(func(s *Session) (err error) {
		changed, err = setExerciseName(s, exerciseID, name)
		return err
	})
	if err != nil || !changed || isBlank(name) {
		return s, err
	}

	ex, _ := e.cur.exercise(exerciseID)
	ids := make([]uuid.UUID, len(ex.Sets))
	for i, set := range ex.Sets {
		ids[i] = set.ID
	}
	e.resolve(exerciseID, name, ids, 0, func(ctx context.Context) ([]models.Previous, error) {
		return e.resolver.AllPrevious(ctx, name)
	})
	return s, nil
}

// AddSet appends a blank set and looks up its previous value in the background.
func (e *Engine) AddSet(exerciseID uuid.UUID) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var (
		index int
		setID uuid.UUID
	)
	s, err := e.apply(func(s *Session) (err error) {
		index, setID, err = addSet(s, exerciseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ex, _ := e.cur.exercise(exerciseID)
	if name := ex.Name; !isBlank(name) {
		e.resolve(exerciseID, name, []uuid.UUID{setID}, index, func(ctx context.Context) ([]models.Previous, error) {
			p, err := e.resolver.PreviousAtPosition(ctx, name, index)
			if p == nil || err != nil {
				return nil, err
			}
			return []models.Previous{*p}, nil
		})
	}
	return s, nil
}

// RemoveSet removes the set at index. Removing the only set does nothing.
func (e *Engine) RemoveSet(exerciseID uuid.UUID, index int) (*Session, error) {
	return e.update(func(s *Session) error {
		return removeSet(s, exerciseID, index)
	})
}

// SetWeight stores the typed weight text.
func (e *Engine) SetWeight(exerciseID uuid.UUID, index int, value string) (*Session, error) {
	return e.update(func(s *Session) error {
		return setWeight(s, exerciseID, index, value)
	})
}

// SetReps stores the typed reps text.
func (e *Engine) SetReps(exerciseID uuid.UUID, index int, value string) (*Session, error) {
	return e.update(func(s *Session) error {
		return setReps(s, exerciseID, index, value)
	})
}

// SetValues stores typed weight and reps text in one step. Nil leaves a
// field as it is.
func (e *Engine) SetValues(exerciseID uuid.UUID, index int, weight, reps *string) (*Session, error) {
	return e.update(func(s *Session) error {
		return setValues(s, exerciseID, index, weight, reps)
	})
}

// ToggleSetCompleted flips a set's completion. Completing a set starts the
// rest timer with the default duration.
func (e *Engine) ToggleSetCompleted(exerciseID uuid.UUID, index int) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var completed bool
	s, err := e.apply(func(s *Session) (err error) {
		completed, err = toggleSetCompleted(s, exerciseID, index)
		return err
	})
	if err != nil || !completed {
		return s, err
	}
	status := e.timer.StartDefault()
	return e.apply(func(s *Session) error {
		s.RestTimer = status
		return nil
	})
}

// AddExercise appends an unnamed exercise with one blank set.
func (e *Engine) AddExercise() (*Session, error) {
	return e.update(func(s *Session) error {
		addExercise(s)
		return nil
	})
}

// RemoveExercise drops an exercise and its sets.
func (e *Engine) RemoveExercise(exerciseID uuid.UUID) (*Session, error) {
	return e.update(func(s *Session) error {
		return removeExercise(s, exerciseID)
	})
}

// MoveExercise moves the exercise at index from to index to.
func (e *Engine) MoveExercise(from, to int) (*Session, error) {
	return e.update(func(s *Session) error {
		return moveExercise(s, from, to)
	})
}

// Cancel discards the session without saving.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return ErrNoSession
	}
	e.stopSession()
	e.timer.Skip()
	e.log.Info("session cancelled", "name", e.cur.Name, "elapsed", e.cur.ElapsedSeconds)
	e.cur = nil
	metrics.SessionsCancelled.Inc()
	e.publish(Event{Kind: EventCancelled})
	return nil
}

// Finish writes the session as a completed workout in one transaction and
// ends it. On failure the session stays active so the caller can retry, and
// the returned error wraps ErrPersist.
func (e *Engine) Finish(ctx context.Context) (uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return uuid.Nil, ErrNoSession
	}

	e.stopTicker()
	e.timer.Skip()

	w := completedWorkout(e.cur, e.clock.Now())
	start := time.Now()
	err := e.store.InsertCompletedWorkout(ctx, w)
	metrics.FinishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FinishFailures.Inc()
		e.log.Warn("finishing session", "name", e.cur.Name, "error", err)
		e.startTicker()
		e.publish(Event{Kind: EventFinishFailed, Session: e.cur, Error: err.Error()})
		return uuid.Nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	e.stopSession()
	e.cur = nil
	metrics.SessionsFinished.Inc()
	if inv, ok := e.resolver.(invalidator); ok {
		inv.Invalidate()
	}
	e.log.Info("session finished", "workout_id", w.ID, "exercises", len(w.Exercises))
	id := w.ID
	e.publish(Event{Kind: EventEnded, WorkoutID: &id})
	return w.ID, nil
}

// update applies fn to a copy of the active session under the lock.
func (e *Engine) update(fn func(*Session) error) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(fn)
}

// apply swaps in fn's result and publishes it. On error the session is left
// untouched. Caller holds mu.
func (e *Engine) apply(fn func(*Session) error) (*Session, error) {
	if e.cur == nil {
		return nil, ErrNoSession
	}
	next := e.cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	e.cur = next
	e.publish(Event{Kind: EventUpdated, Session: next})
	return next.Clone(), nil
}

// resolve runs a previous-value lookup in the background and merges the
// result only if the exercise still has the same name and the captured sets
// are still at their positions. Caller holds mu.
func (e *Engine) resolve(exerciseID uuid.UUID, name string, setIDs []uuid.UUID, offset int, lookup func(context.Context) ([]models.Previous, error)) {
	ctx := e.sessCtx
	e.resolves.Add(1)
	go func() {
		defer e.resolves.Done()
		prev, err := lookup(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.log.Warn("previous lookup failed", "exercise", name, "error", err)
			}
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if ctx.Err() != nil || e.cur == nil {
			metrics.StaleResolves.Inc()
			return
		}
		next := e.cur.Clone()
		if !applyPrevious(next, exerciseID, name, setIDs, prev, offset) {
			metrics.StaleResolves.Inc()
			e.log.Debug("dropping stale previous values", "exercise", name)
			return
		}
		e.cur = next
		e.publish(Event{Kind: EventUpdated, Session: next})
	}()
}

// startTicker runs the elapsed-time ticker until stopTicker. Caller holds mu.
func (e *Engine) startTicker() {
	ctx, cancel := context.WithCancel(e.sessCtx)
	t := e.clock.NewTicker(time.Second)
	e.ticker, e.tickCancel = t, cancel
	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C():
				e.mu.Lock()
				if ctx.Err() == nil && e.cur != nil {
					elapsed := max(e.cur.ElapsedSeconds+1, int(now.Sub(e.cur.StartedAt)/time.Second))
					_, _ = e.apply(func(s *Session) error {
						s.ElapsedSeconds = elapsed
						return nil
					})
				}
				e.mu.Unlock()
			}
		}
	}()
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.tickCancel()
		e.ticker.Stop()
		e.ticker, e.tickCancel = nil, nil
	}
}

// stopSession stops the ticker and abandons pending lookups. Caller holds mu.
func (e *Engine) stopSession() {
	e.stopTicker()
	if e.sessCancel != nil {
		e.sessCancel()
		e.sessCtx, e.sessCancel = nil, nil
	}
}

func (e *Engine) mirrorTimer(statuses <-chan resttimer.Status) {
	defer e.tasks.Done()
	for st := range statuses {
		e.mu.Lock()
		if e.cur != nil && e.cur.RestTimer != st {
			_, _ = e.apply(func(s *Session) error {
				s.RestTimer = st
				return nil
			})
		}
		e.mu.Unlock()
	}
}

// publish fans an event out to subscribers. Caller holds mu.
func (e *Engine) publish(ev Event) {
	for ch := range e.subs {
		deliver(ch, ev)
	}
}

// terminal reports whether the event ends or fails to end a session.
func (ev Event) terminal() bool {
	return ev.Kind == EventEnded || ev.Kind == EventCancelled || ev.Kind == EventFinishFailed
}

// deliver sends without blocking. When the buffer is full the queued events
// are dropped, except the latest terminal one, which is requeued ahead of ev.
func deliver(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	var keep *Event
	for drained := false; !drained; {
		select {
		case old := <-ch:
			if old.terminal() {
				keep = &old
			}
		default:
			drained = true
		}
	}
	if keep != nil {
		select {
		case ch <- *keep:
		default:
		}
	}
	select {
	case ch <- ev:
	default:
	}
}
