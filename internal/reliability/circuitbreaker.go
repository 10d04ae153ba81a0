// Package reliability implements the retry, circuit-breaker, deadline, and
// bulk-recovery policies every transport call in this SDK is wrapped
// with, independent of which MCP method or adapter is being called.
package reliability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when a CircuitBreaker is Open and rejects a
// call without ever invoking it.
var ErrCircuitOpen = errors.New("reliability: circuit breaker is open")

// BreakerState mirrors gobreaker's three states under MCP-flavored names
// so callers never need to import gobreaker directly.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies this breaker in logs and metrics — typically the
	// downstream peer or tool name it guards.
	Name string

	// MaxFailures is the number of consecutive failures required to trip
	// the circuit open.
	MaxFailures uint32

	// Timeout is how long the circuit stays Open before allowing a
	// half-open probe.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes
	// required in half-open to close the circuit again.
	HalfOpenMaxSuccesses uint32

	// OnStateChange is invoked whenever the breaker transitions, letting
	// callers feed Prometheus metrics or structured logs.
	OnStateChange func(name string, from, to BreakerState)
}

// DefaultCircuitBreakerConfig matches the teacher's LLM circuit breaker
// defaults, which this SDK reuses for every downstream MCP peer a
// connection pool or client dials.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                 name,
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	}
}

// CircuitBreaker wraps gobreaker the way the teacher's LLM circuit
// breaker does, generalized from LLM calls to any MCP call (tool
// invocation, transport send, downstream dial) and reporting state
// transitions in MCP-flavored BreakerState terms.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	config  CircuitBreakerConfig

	mu      sync.RWMutex
	metrics Metrics
}

// NewCircuitBreaker builds a CircuitBreaker from config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{config: config}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange != nil {
				config.OnStateChange(name, fromGobreaker(from), fromGobreaker(to))
			}
		},
	}
	cb.breaker = gobreaker.NewCircuitBreaker(settings)
	return cb
}

func fromGobreaker(s gobreaker.State) BreakerState {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Execute runs fn through the breaker. A nil fn error records a success;
// a non-nil error records a failure and, if the breaker is Open, is
// replaced with ErrCircuitOpen — mapped by callers onto
// protocol.CodeCircuitOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	select {
	case <-ctx.Done():
		cb.recordFailure()
		return nil, ctx.Err()
	default:
	}

	result, err := cb.breaker.Execute(func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn(ctx)
	})

	if err != nil {
		cb.recordFailure()
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	cb.recordSuccess()
	return result, nil
}

// State reports the breaker's current BreakerState.
func (cb *CircuitBreaker) State() BreakerState {
	return fromGobreaker(cb.breaker.State())
}

// Metrics is the point-in-time counters a CircuitBreaker exposes.
// Collector does not read them; it follows breaker state through
// ObserveStateChange.
type Metrics struct {
	TotalRequests        uint64
	TotalSuccesses        uint64
	TotalFailures        uint64
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Metrics returns the breaker's current Metrics snapshot.
func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	counts := cb.breaker.Counts()
	return Metrics{
		TotalRequests:        cb.metrics.TotalRequests,
		TotalSuccesses:       cb.metrics.TotalSuccesses,
		TotalFailures:        cb.metrics.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics.TotalRequests++
	cb.metrics.TotalSuccesses++
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics.TotalRequests++
	cb.metrics.TotalFailures++
}
