package engine

import (
	"context"
	"time"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/infra/metrics"
)

// Wait blocks until the request is resolved, fails, or timeout elapses. On
// success the result is popped (exactly-once delivery). On timeout the entry
// is removed here rather than left for the sweep, so a late callback is
// discarded as an unknown id. Errors map the three outcomes:
// ErrExternalTimeout (no callback), ErrDispatchFailed (entry marked failed)
// and ErrExternalRejected (resolved without a usable result).
func (r *Registry) Wait(ctx context.Context, id string, timeout time.Duration) (*Result, error) {
	start := time.Now()
	done, st, ok := r.entry(id)
	if !ok {
		return nil, domain.ErrExternalTimeout
	}
	if st == statusPending {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			r.Drop(id)
			metrics.ObserveWait(time.Since(start), "timeout")
			return nil, domain.ErrExternalTimeout
		case <-ctx.Done():
			r.Drop(id)
			return nil, ctx.Err()
		}
	}

	st, ok = r.statusOf(id)
	if ok && st == statusFailed {
		r.Drop(id)
		metrics.ObserveWait(time.Since(start), "failed")
		return nil, domain.ErrDispatchFailed
	}
	res := r.Take(id)
	if res == nil {
		// Swept or raced away between wake-up and pickup.
		r.Drop(id)
		metrics.ObserveWait(time.Since(start), "lost")
		return nil, domain.ErrExternalTimeout
	}
	if !res.Success {
		metrics.ObserveWait(time.Since(start), "rejected")
		return nil, domain.ErrExternalRejected
	}
	metrics.ObserveWait(time.Since(start), "ok")
	return res, nil
}
