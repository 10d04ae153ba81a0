package reliability

import (
	"context"
	"time"
)

// DefaultTimeout is the deadline applied to an operation when neither the
// caller's context nor an explicit override supplies one, matching
// engine.DefaultRequestTimeout so a bare reliability.Do and a full engine
// round-trip time out at the same point.
const DefaultTimeout = 30 * time.Second

// WithDeadline wraps fn in a context that expires after d (or inherits
// the parent's deadline if it is sooner), returning the tighter of the
// two errors — ctx.Err() takes precedence over fn's own error so callers
// can distinguish "ran out of time" from "failed for a domain reason".
func WithDeadline(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		d = DefaultTimeout
	}
	dctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(dctx)
	}()

	select {
	case err := <-done:
		return err
	case <-dctx.Done():
		return dctx.Err()
	}
}
