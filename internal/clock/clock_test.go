package clock

import (
	"testing"
	"time"
)

// TestManualTickDelivers verifies that Tick blocks until a live ticker
// receives and advances Now by one second.
func TestManualTickDelivers(t *testing.T) {
	start := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	m := NewManual(start)
	tk := m.NewTicker(time.Second)

	got := make(chan time.Time, 1)
	go func() { got <- <-tk.C() }()

	m.Tick()
	select {
	case ts := <-got:
		if !ts.Equal(start.Add(time.Second)) {
			t.Errorf("tick time = %v, want %v", ts, start.Add(time.Second))
		}
	case <-time.After(time.Second):
		t.Fatal("tick was not delivered")
	}
	if !m.Now().Equal(start.Add(time.Second)) {
		t.Errorf("Now() = %v, want %v", m.Now(), start.Add(time.Second))
	}
}

// TestManualTickSkipsStopped verifies that stopped tickers never block Tick.
func TestManualTickSkipsStopped(t *testing.T) {
	m := NewManual(time.Now())
	tk := m.NewTicker(time.Second)
	if m.Tickers() != 1 {
		t.Fatalf("Tickers() = %d, want 1", m.Tickers())
	}
	tk.Stop()
	tk.Stop()

	m.Tick()
	if m.Tickers() != 0 {
		t.Errorf("Tickers() = %d, want 0", m.Tickers())
	}
}
