package resttimer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	seconds int
	err     error
}

func (m *memStore) RestTimerSeconds(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seconds, m.err
}

func (m *memStore) SetRestTimerSeconds(_ context.Context, s int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seconds = s
	return nil
}

type countingAlerter struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (c *countingAlerter) Alert(context.Context) error {
	c.calls.Add(1)
	if c.panic {
		panic("no vibration motor")
	}
	return c.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	progress []int
	clears   int
}

func (r *recordingNotifier) Progress(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, s.RemainingSeconds)
}

func (r *recordingNotifier) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

type fixture struct {
	clk      *clock.Manual
	store    *memStore
	alerter  *countingAlerter
	notifier *recordingNotifier
	timer    *Timer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clk:      clock.NewManual(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)),
		store:    &memStore{seconds: 90},
		alerter:  &countingAlerter{},
		notifier: &recordingNotifier{},
	}
	f.timer = New(f.clk, f.store, f.alerter, f.notifier, 90, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(f.timer.Close)
	return f
}

func next(t *testing.T, ch <-chan Status) Status {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no status published")
		return Status{}
	}
}

// TestCountdownMonotonic verifies start(60) counts down one per tick to zero,
// alerts exactly once and goes idle.
func TestCountdownMonotonic(t *testing.T) {
	f := newFixture(t)
	sub, cancel := f.timer.Subscribe()
	defer cancel()
	assert.False(t, next(t, sub).Running)

	st := f.timer.Start(60)
	require.Equal(t, Status{DurationSeconds: 60, RemainingSeconds: 60, Running: true}, st)
	require.Equal(t, 60, next(t, sub).RemainingSeconds)

	for want := 59; want >= 1; want-- {
		f.clk.Tick()
		s := next(t, sub)
		require.Equal(t, want, s.RemainingSeconds)
		require.True(t, s.Running)
	}
	assert.Zero(t, f.alerter.calls.Load())

	f.clk.Tick()
	final := next(t, sub)
	assert.Zero(t, final.RemainingSeconds)
	assert.False(t, final.Running)

	require.Eventually(t, func() bool { return f.alerter.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.clk.Tickers())
	assert.Equal(t, int32(1), f.alerter.calls.Load())

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	assert.Len(t, f.notifier.progress, 60)
	assert.GreaterOrEqual(t, f.notifier.clears, 1)
}

// TestSkipSuppressesAlert verifies skip before expiry never alerts.
func TestSkipSuppressesAlert(t *testing.T) {
	f := newFixture(t)
	f.timer.Start(30)
	for i := 0; i < 5; i++ {
		f.clk.Tick()
	}

	st := f.timer.Skip()
	assert.Zero(t, st.RemainingSeconds)
	assert.False(t, st.Running)
	assert.Equal(t, 0, f.clk.Tickers())

	f.clk.Tick()
	f.timer.Close()
	assert.Zero(t, f.alerter.calls.Load())
}

// TestStartRestartsCountdown verifies a second start replaces the first.
func TestStartRestartsCountdown(t *testing.T) {
	f := newFixture(t)
	f.timer.Start(30)
	f.clk.Tick()
	f.clk.Tick()

	st := f.timer.Start(45)
	assert.Equal(t, 45, st.RemainingSeconds)
	assert.Equal(t, 1, f.clk.Tickers())

	f.clk.Tick()
	assert.Equal(t, 44, f.timer.Status().RemainingSeconds)
}

// TestStartNonPositiveStaysIdle verifies a zero-length rest is a no-op.
func TestStartNonPositiveStaysIdle(t *testing.T) {
	f := newFixture(t)
	st := f.timer.Start(0)
	assert.False(t, st.Running)
	assert.Equal(t, 0, f.clk.Tickers())
}

// TestSetDefaultDoesNotAffectRunning verifies the new default only applies
// to later countdowns and is persisted.
func TestSetDefaultDoesNotAffectRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.timer.Start(60)

	require.NoError(t, f.timer.SetDefaultDuration(ctx, 120))
	st := f.timer.Status()
	assert.Equal(t, 60, st.DurationSeconds)
	assert.Equal(t, 60, st.RemainingSeconds)
	assert.Equal(t, 120, f.timer.DefaultDuration())

	secs, _ := f.store.RestTimerSeconds(ctx)
	assert.Equal(t, 120, secs)

	f.timer.Skip()
	st = f.timer.StartDefault()
	assert.Equal(t, 120, st.RemainingSeconds)

	assert.ErrorIs(t, f.timer.SetDefaultDuration(ctx, 0), ErrInvalidDuration)
}

// TestSetDefaultPersistFailure verifies a store error leaves the default unchanged.
func TestSetDefaultPersistFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("disk full")
	assert.Error(t, f.timer.SetDefaultDuration(context.Background(), 30))
	assert.Equal(t, 90, f.timer.DefaultDuration())
}

// TestResetLoadsPersistedDefault verifies a new session starts idle with the
// stored default.
func TestResetLoadsPersistedDefault(t *testing.T) {
	f := newFixture(t)
	f.store.seconds = 75
	f.timer.Start(10)

	require.NoError(t, f.timer.Reset(context.Background()))
	st := f.timer.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 75, st.DurationSeconds)
	assert.Equal(t, 75, f.timer.DefaultDuration())
}

// TestAlertFailureSwallowed verifies failing or panicking alerters still let
// the countdown finish and go idle.
func TestAlertFailureSwallowed(t *testing.T) {
	for _, tc := range []struct {
		name    string
		alerter *countingAlerter
	}{
		{"error", &countingAlerter{err: errors.New("sound device busy")}},
		{"panic", &countingAlerter{panic: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.timer.alerter = tc.alerter

			f.timer.Start(2)
			f.clk.Tick()
			f.clk.Tick()

			require.Eventually(t, func() bool { return tc.alerter.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
			st := f.timer.Status()
			assert.False(t, st.Running)
			assert.Zero(t, st.RemainingSeconds)

			// Still usable afterwards.
			assert.True(t, f.timer.Start(5).Running)
		})
	}
}

// TestUnsubscribeClosesChannel verifies subscriptions end cleanly.
func TestUnsubscribeClosesChannel(t *testing.T) {
	f := newFixture(t)
	sub, cancel := f.timer.Subscribe()
	next(t, sub)
	cancel()
	cancel()

	_, ok := <-sub
	assert.False(t, ok)
}

// TestCommandsAfterClose verifies calls on a closed timer do not block.
func TestCommandsAfterClose(t *testing.T) {
	f := newFixture(t)
	f.timer.Close()
	assert.Equal(t, Status{}, f.timer.Start(10))
	assert.Equal(t, Status{}, f.timer.Skip())
}
