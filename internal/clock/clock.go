package clock

import (
	"sync"
	"time"
)

// Clock provides the current time and one-second tickers for the periodic
// tasks of a workout session. This interface allows ticks to be driven by
// hand in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real provides actual system time.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Manual is a Clock whose tickers only fire when Tick is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManual returns a Manual clock set to the given time.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTicker registers a ticker that fires on Tick.
func (m *Manual) NewTicker(time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time), done: make(chan struct{})}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t
}

// Tick advances the clock by one second and delivers a tick to every live
// ticker. Each delivery blocks until the ticker's owner receives it or the
// ticker is stopped.
func (m *Manual) Tick() {
	m.mu.Lock()
	m.now = m.now.Add(time.Second)
	now := m.now
	live := m.tickers[:0]
	for _, t := range m.tickers {
		if !t.stopped() {
			live = append(live, t)
		}
	}
	m.tickers = live
	tickers := append([]*manualTicker(nil), live...)
	m.mu.Unlock()

	for _, t := range tickers {
		select {
		case t.c <- now:
		case <-t.done:
		}
	}
}

// Tickers reports how many tickers are still running.
func (m *Manual) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		if !t.stopped() {
			n++
		}
	}
	return n
}

type manualTicker struct {
	c    chan time.Time
	done chan struct{}
	once sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.done) })
}

func (t *manualTicker) stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
