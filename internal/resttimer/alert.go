package resttimer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultVibrationPattern is the pulse spacing used when none is configured.
var DefaultVibrationPattern = []time.Duration{0, 400 * time.Millisecond, 400 * time.Millisecond}

// PulsePattern returns a pattern of n pulses 400ms apart. n <= 0 yields
// DefaultVibrationPattern.
func PulsePattern(n int) []time.Duration {
	if n <= 0 {
		return DefaultVibrationPattern
	}
	pattern := make([]time.Duration, n)
	for i := 1; i < n; i++ {
		pattern[i] = 400 * time.Millisecond
	}
	return pattern
}

// BellAlerter rings the terminal bell once per pulse of a vibration-style
// pattern. Each entry is the pause before that pulse.
type BellAlerter struct {
	W       io.Writer
	Pattern []time.Duration

	mu sync.Mutex
}

// Alert writes the bell pattern, stopping early if ctx is done.
func (b *BellAlerter) Alert(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pattern := b.Pattern
	if len(pattern) == 0 {
		pattern = DefaultVibrationPattern
	}
	for _, pause := range pattern {
		if pause > 0 {
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if _, err := b.W.Write([]byte{'\a'}); err != nil {
			return fmt.Errorf("ringing bell: %w", err)
		}
	}
	return nil
}

// MultiAlerter runs every alerter and joins their errors.
type MultiAlerter []Alerter

// Alert runs each alerter in order; one failing does not stop the rest.
func (m MultiAlerter) Alert(ctx context.Context) error {
	var errs []error
	for _, a := range m {
		if err := a.Alert(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogAlerter records the alert in the structured log.
type LogAlerter struct {
	Log *slog.Logger
}

// Alert logs that the rest period is over.
func (l LogAlerter) Alert(context.Context) error {
	l.Log.Info("rest over")
	return nil
}

// LogNotifier logs countdown progress every Every seconds.
type LogNotifier struct {
	Log   *slog.Logger
	Every int
}

// Progress logs the remaining time on multiples of Every and at start.
func (n LogNotifier) Progress(s Status) {
	every := n.Every
	if every <= 0 {
		every = 15
	}
	if s.RemainingSeconds == s.DurationSeconds || s.RemainingSeconds%every == 0 {
		n.Log.Info("resting", "remaining", s.RemainingSeconds, "of", s.DurationSeconds)
	}
}

// Clear logs that the indicator was removed.
func (n LogNotifier) Clear() {
	n.Log.Debug("rest indicator cleared")
}

// NopNotifier discards progress.
type NopNotifier struct{}

func (NopNotifier) Progress(Status) {}
func (NopNotifier) Clear()          {}
