// Package clocktest provides a clock which records sleeps instead of blocking
package clocktest

import (
	"sync"
	"time"

	"github.com/xmidt-org/webpa-common/clock"
)

// Fake is a clock.Interface whose Sleep advances a virtual time and returns immediately.
// An optional hook runs on every sleep, which tests use to interleave events with a dwell.
// Tickers and timers are backed by the time package.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	OnSleep func(time.Duration)
}

var _ clock.Interface = (*Fake)(nil)

// New returns a Fake starting at the given time
func New(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.sleeps = append(f.sleeps, d)
	hook := f.OnSleep
	f.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}

func (f *Fake) NewTicker(d time.Duration) clock.Ticker {
	return clock.WrapTicker(time.NewTicker(d))
}

func (f *Fake) NewTimer(d time.Duration) clock.Timer {
	return clock.WrapTimer(time.NewTimer(d))
}

// Sleeps returns a copy of every duration passed to Sleep so far
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}
