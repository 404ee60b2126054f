package util

import "time"

// Ticker is the part of *time.Ticker that periodic workers depend on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker firing every d. Tests swap in a manual ticker.
type TickerFunc func(d time.Duration) Ticker

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

type timeTicker struct {
	t *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }

func (t *timeTicker) Stop() { t.t.Stop() }

// NowUTC is the default clock of services and the refresh cycle. Readings
// and events are stamped in UTC and only localized for display.
func NowUTC() time.Time {
	return time.Now().UTC()
}
