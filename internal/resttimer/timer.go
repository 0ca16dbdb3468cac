// Package resttimer runs the countdown between sets. A single goroutine owns
// the timer state; everything else talks to it over channels and observes it
// through subscriptions, so the countdown keeps going no matter which (if any)
// view is attached.
package resttimer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/metrics"
)

// alertTimeout bounds a single alert so a stuck sound device cannot pile up goroutines.
const alertTimeout = 10 * time.Second

const subscriberBuffer = 64

// ErrInvalidDuration is returned for non-positive default durations.
var ErrInvalidDuration = errors.New("rest duration must be positive")

// Status is a snapshot of the rest timer. RemainingSeconds is zero when idle.
type Status struct {
	DurationSeconds  int  `json:"duration_seconds"`
	RemainingSeconds int  `json:"remaining_seconds"`
	Running          bool `json:"running"`
}

// DefaultStore persists the user's default rest duration.
type DefaultStore interface {
	RestTimerSeconds(ctx context.Context) (int, error)
	SetRestTimerSeconds(ctx context.Context, seconds int) error
}

// Alerter produces the expiry alert (tone plus vibration). Failures are
// logged and otherwise ignored.
type Alerter interface {
	Alert(ctx context.Context) error
}

// Notifier renders the persistent progress indicator while a countdown runs.
// Implementations must not block.
type Notifier interface {
	Progress(Status)
	Clear()
}

type op int

const (
	opStart op = iota
	opStartDefault
	opSkip
	opReset
	opSetDefault
	opStatus
	opSubscribe
	opUnsubscribe
)

type command struct {
	op      op
	seconds int
	sub     chan Status
	reply   chan reply
}

type reply struct {
	status     Status
	defSeconds int
}

// Timer is the rest countdown actor.
type Timer struct {
	clock    clock.Clock
	store    DefaultStore
	alerter  Alerter
	notifier Notifier
	log      *slog.Logger

	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	alerts    sync.WaitGroup

	// Owned by the run goroutine.
	status     Status
	defSeconds int
	subs       map[chan Status]struct{}
}

// New starts a rest timer with the given default duration. Call LoadDefault
// to replace it with the persisted value.
func New(clk clock.Clock, store DefaultStore, alerter Alerter, notifier Notifier, defaultSeconds int, log *slog.Logger) *Timer {
	if defaultSeconds <= 0 {
		defaultSeconds = 90
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	t := &Timer{
		clock:      clk,
		store:      store,
		alerter:    alerter,
		notifier:   notifier,
		log:        log.With("component", "resttimer"),
		cmds:       make(chan command),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		status:     Status{DurationSeconds: defaultSeconds},
		defSeconds: defaultSeconds,
		subs:       make(map[chan Status]struct{}),
	}
	go t.run()
	return t
}

// Start cancels any running countdown and starts a new one of the given length.
// A non-positive duration leaves the timer idle.
func (t *Timer) Start(seconds int) Status {
	return t.send(command{op: opStart, seconds: seconds}).status
}

// StartDefault starts a countdown of the current default duration.
func (t *Timer) StartDefault() Status {
	return t.send(command{op: opStartDefault}).status
}

// Skip cancels the countdown without alerting.
func (t *Timer) Skip() Status {
	return t.send(command{op: opSkip}).status
}

// Dismiss clears the timer after the user acknowledges it. Same as Skip.
func (t *Timer) Dismiss() Status {
	return t.Skip()
}

// Status returns the current snapshot.
func (t *Timer) Status() Status {
	return t.send(command{op: opStatus}).status
}

// DefaultDuration returns the duration StartDefault will use.
func (t *Timer) DefaultDuration() int {
	return t.send(command{op: opStatus}).defSeconds
}

// SetDefaultDuration persists a new default. A countdown already running is
// not affected.
func (t *Timer) SetDefaultDuration(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	if err := t.store.SetRestTimerSeconds(ctx, seconds); err != nil {
		return fmt.Errorf("persisting rest default: %w", err)
	}
	t.send(command{op: opSetDefault, seconds: seconds})
	return nil
}

// LoadDefault reads the persisted default duration.
func (t *Timer) LoadDefault(ctx context.Context) error {
	seconds, err := t.store.RestTimerSeconds(ctx)
	if err != nil {
		return fmt.Errorf("loading rest default: %w", err)
	}
	if seconds > 0 {
		t.send(command{op: opSetDefault, seconds: seconds})
	}
	return nil
}

// Reset returns the timer to idle without counting a skip and reloads the
// persisted default. Called when a new session starts.
func (t *Timer) Reset(ctx context.Context) error {
	t.send(command{op: opReset})
	return t.LoadDefault(ctx)
}

// Subscribe returns a channel of status updates starting with the current
// status, and a function that ends the subscription. Slow subscribers miss
// intermediate updates but always see the latest one.
func (t *Timer) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, subscriberBuffer)
	t.send(command{op: opSubscribe, sub: ch})
	var once sync.Once
	return ch, func() {
		once.Do(func() { t.send(command{op: opUnsubscribe, sub: ch}) })
	}
}

// Close stops the countdown goroutine and waits for in-flight alerts.
func (t *Timer) Close() {
	t.closeOnce.Do(func() { close(t.quit) })
	<-t.done
	t.alerts.Wait()
}

func (t *Timer) send(cmd command) reply {
	cmd.reply = make(chan reply, 1)
	select {
	case t.cmds <- cmd:
	case <-t.done:
		return reply{}
	}
	select {
	case r := <-cmd.reply:
		return r
	case <-t.done:
		return reply{}
	}
}

func (t *Timer) run() {
	defer close(t.done)

	var ticker clock.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer func() {
		stopTicker()
		for ch := range t.subs {
			close(ch)
		}
	}()

	for {
		select {
		case <-t.quit:
			return

		case cmd := <-t.cmds:
			switch cmd.op {
			case opStart, opStartDefault:
				stopTicker()
				seconds := cmd.seconds
				if cmd.op == opStartDefault {
					seconds = t.defSeconds
				}
				if seconds <= 0 {
					t.toIdle()
					break
				}
				t.status = Status{DurationSeconds: seconds, RemainingSeconds: seconds, Running: true}
				ticker = t.clock.NewTicker(time.Second)
				tick = ticker.C()
				metrics.RestTimers.WithLabelValues("started").Inc()
				t.log.Debug("rest timer started", "seconds", seconds)
				t.notifier.Progress(t.status)
				t.publish()

			case opSkip:
				if t.status.Running {
					metrics.RestTimers.WithLabelValues("skipped").Inc()
					t.log.Debug("rest timer skipped", "remaining", t.status.RemainingSeconds)
				}
				stopTicker()
				t.toIdle()

			case opReset:
				stopTicker()
				t.toIdle()

			case opSetDefault:
				t.defSeconds = cmd.seconds
				if !t.status.Running {
					t.status.DurationSeconds = cmd.seconds
					t.publish()
				}

			case opSubscribe:
				t.subs[cmd.sub] = struct{}{}
				deliver(cmd.sub, t.status)

			case opUnsubscribe:
				if _, ok := t.subs[cmd.sub]; ok {
					delete(t.subs, cmd.sub)
					close(cmd.sub)
				}
			}
			cmd.reply <- reply{status: t.status, defSeconds: t.defSeconds}

		case <-tick:
			t.status.RemainingSeconds--
			if t.status.RemainingSeconds > 0 {
				t.notifier.Progress(t.status)
				t.publish()
				continue
			}
			stopTicker()
			metrics.RestTimers.WithLabelValues("expired").Inc()
			t.log.Info("rest timer expired", "seconds", t.status.DurationSeconds)
			t.fireAlert()
			t.toIdle()
		}
	}
}

// toIdle clears the countdown and notification and publishes the idle status.
func (t *Timer) toIdle() {
	t.status = Status{DurationSeconds: t.defSeconds}
	t.notifier.Clear()
	t.publish()
}

func (t *Timer) fireAlert() {
	if t.alerter == nil {
		return
	}
	t.alerts.Add(1)
	go func() {
		defer t.alerts.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.AlertFailures.Inc()
				t.log.Warn("rest alert panicked", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if err := t.alerter.Alert(ctx); err != nil {
			metrics.AlertFailures.Inc()
			t.log.Warn("rest alert failed", "error", err)
		}
	}()
}

func (t *Timer) publish() {
	for ch := range t.subs {
		deliver(ch, t.status)
	}
}

// deliver sends without blocking, dropping the oldest queued update if full.
func deliver(ch chan Status, s Status) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
