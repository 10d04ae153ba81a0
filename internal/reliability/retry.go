package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffKind selects how delay grows between retry attempts.
type BackoffKind int

const (
	BackoffFixed BackoffKind = iota
	BackoffExponential
	BackoffAdaptive
)

// Jitter selects how randomness is applied on top of the computed delay,
// matching the four strategies spec.md §7 names.
type Jitter int

const (
	JitterNone Jitter = iota
	JitterFull
	JitterEqual
	JitterDecorrelated
)

// RetryConfig configures a Policy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Backoff     BackoffKind
	Jitter      Jitter

	// Retryable decides whether a given error should be retried at all.
	// A nil Retryable retries every non-nil error.
	Retryable func(err error) bool
}

// DefaultRetryConfig matches the teacher's circuit breaker timeout
// scale: three attempts, exponential backoff starting at 200ms, capped at
// 5s, full jitter to avoid synchronized retries across many clients.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Backoff:     BackoffExponential,
		Jitter:      JitterFull,
	}
}

// Policy executes an operation with retry, backoff, and jitter applied
// between attempts.
type Policy struct {
	cfg RetryConfig
}

// NewPolicy builds a Policy from cfg, filling any zero fields from
// DefaultRetryConfig.
func NewPolicy(cfg RetryConfig) *Policy {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	return &Policy{cfg: cfg}
}

// Do runs fn, retrying on failure per the policy until MaxAttempts is
// exhausted, ctx is cancelled, or fn's error is classified non-retryable.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.cfg.Retryable != nil && !p.cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}
		delay := p.nextDelay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Join(ErrRetriesExhausted, lastErr)
}

// ErrRetriesExhausted wraps the final error once every attempt a Policy
// allows has been spent.
var ErrRetriesExhausted = errors.New("reliability: retries exhausted")

func (p *Policy) nextDelay(attempt int) time.Duration {
	var base time.Duration
	switch p.cfg.Backoff {
	case BackoffFixed:
		base = p.cfg.BaseDelay
	case BackoffAdaptive:
		// Adaptive backoff widens faster than exponential once several
		// attempts have already failed, on the theory that a peer still
		// unhealthy after 2+ retries needs more room to recover, not a
		// tighter retry loop.
		base = time.Duration(float64(p.cfg.BaseDelay) * math.Pow(2.5, float64(attempt-1)))
	default: // BackoffExponential
		base = time.Duration(float64(p.cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	}
	if base > p.cfg.MaxDelay {
		base = p.cfg.MaxDelay
	}

	return p.applyJitter(base)
}

func (p *Policy) applyJitter(base time.Duration) time.Duration {
	switch p.cfg.Jitter {
	case JitterFull:
		if base <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(base)))
	case JitterEqual:
		half := base / 2
		if half <= 0 {
			return base
		}
		return half + time.Duration(rand.Int64N(int64(half)))
	case JitterDecorrelated:
		// D·(1+(U−½)·½), U~Uniform[0,1): a narrow ±25% spread around the
		// current base delay, not a function of any prior delay.
		d := base + time.Duration(float64(base)*(rand.Float64()-0.5)*0.5)
		if d > p.cfg.MaxDelay {
			d = p.cfg.MaxDelay
		}
		return d
	default: // JitterNone
		return base
	}
}
