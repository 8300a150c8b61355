package transport

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer holds back each operation until Interval has passed since the
// previous one finished, as reported by Done. The first Wait returns
// immediately. A Pacer is not safe for concurrent use.
type Pacer struct {
	limit    rate.Limit
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer returns a pacer for the given interval. A non-positive interval
// never blocks.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		limit:    limit,
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Interval returns the configured pause.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next operation may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Done marks the end of an operation. The next Wait blocks for the full
// interval counted from now, however long the operation took.
func (p *Pacer) Done() {
	if p == nil {
		return
	}
	p.limiter = rate.NewLimiter(p.limit, 1)
	p.limiter.Allow()
}
