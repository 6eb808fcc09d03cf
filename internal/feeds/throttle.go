package feeds

import (
	"context"
	"sync"
	"time"
)

// hostThrottle spaces consecutive requests to one host by at least gap.
type hostThrottle struct {
	gap time.Duration

	mu   sync.Mutex
	next map[string]time.Time // earliest start for the next request per host
}

func newHostThrottle(gap time.Duration) *hostThrottle {
	return &hostThrottle{gap: gap, next: make(map[string]time.Time)}
}

// wait reserves the next slot for host and sleeps until it opens, or returns
// ctx's error if ctx ends first.
func (h *hostThrottle) wait(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	now := time.Now()
	slot := h.next[host]
	if slot.Before(now) {
		slot = now
	}
	h.next[host] = slot.Add(h.gap)
	h.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
