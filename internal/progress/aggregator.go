package progress

import (
	"context"
	"sync/atomic"
	"time"
)

// Aggregator is a concurrency-safe running total of received bytes.
type Aggregator struct {
	received atomic.Int64
	total    atomic.Int64
}

func NewAggregator(total int64) *Aggregator {
	a := &Aggregator{}
	a.total.Store(total)
	return a
}

func (a *Aggregator) Add(n int64) {
	a.received.Add(n)
}

// SetTotal updates the expected size, e.g. once a single-stream response
// reveals a Content-Length the probe did not see.
func (a *Aggregator) SetTotal(total int64) {
	a.total.Store(total)
}

func (a *Aggregator) Snapshot() (received, total int64) {
	return a.received.Load(), a.total.Load()
}

// Watch calls fn every interval while the received count changes, and once
// more with the final values after ctx is done. It blocks until then.
func Watch(ctx context.Context, agg *Aggregator, interval time.Duration, fn func(received, total int64)) {
	if fn == nil {
		<-ctx.Done()
		return
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastReceived := int64(-1)
	for {
		select {
		case <-ctx.Done():
			fn(agg.Snapshot())
			return
		case <-ticker.C:
			received, total := agg.Snapshot()
			if received != lastReceived {
				fn(received, total)
				lastReceived = received
			}
		}
	}
}
