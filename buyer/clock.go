package buyer

import (
	"context"
	"time"
)

// Clock is the loop's source of time. Tests swap in a fake so nothing sleeps
// for real.
type Clock interface {
	Now() time.Time

	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock is the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pacer keeps successive calls at least interval apart.
type pacer struct {
	clock    Clock
	interval time.Duration
	last     time.Time
	used     bool
}

func newPacer(c Clock, interval time.Duration) *pacer {
	return &pacer{clock: c, interval: interval}
}

// Wait blocks until interval has passed since the previous Wait returned.
func (p *pacer) Wait(ctx context.Context) error {
	if p.used {
		if gap := p.interval - p.clock.Now().Sub(p.last); gap > 0 {
			if err := p.clock.Sleep(ctx, gap); err != nil {
				return err
			}
		}
	}
	p.used = true
	p.last = p.clock.Now()
	return nil
}
