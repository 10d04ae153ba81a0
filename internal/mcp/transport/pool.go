package transport

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Health is a pooled member's liveness classification, mirrored from the
// original connection pool's health model (original_source's
// shared/connection_pool.rs): a member degrades before it is taken out of
// rotation entirely, giving transient failures a chance to recover
// without a full connection churn.
type Health int

const (
	HealthHealthy Health = iota
	HealthDegraded
	HealthUnhealthy
	HealthChecking
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	case HealthChecking:
		return "checking"
	default:
		return "unknown"
	}
}

// Strategy picks which pool member serves the next call.
type Strategy int

const (
	StrategyRoundRobin Strategy = iota
	StrategyLeastActive
	StrategyWeighted
	StrategyRandom
)

// member wraps one pooled Transport with the bookkeeping the pool needs to
// score and select it, modeled on the weight/active-count fields the
// original connection pool tracks per entry.
type member struct {
	mu     sync.Mutex
	dialer Dialer
	conn   Transport
	health Health
	weight int
	active int
}

// Pool is a Transport that load-balances Send/Receive calls across a set
// of underlying transports, re-dialing unhealthy members in the
// background the way the teacher's connection manager replaces a broken
// pooled resource rather than failing the caller outright.
//
// Pool itself does not implement a receive loop shared across members:
// each pooled Transport is expected to serve a single independent logical
// session (one client connection per upstream), so Receive simply blocks
// on the member selected at the time of the call. Pool does not expose
// its members, so it offers no way to run one receive loop per member.
type Pool struct {
	mu       sync.Mutex
	members  []*member
	strategy Strategy
	rrCursor int

	healthCheckInterval time.Duration
	cancel              context.CancelFunc
}

// NewPool builds a Pool from a set of dialers, all dialed eagerly so the
// pool starts with live connections rather than lazily discovering dead
// ones on first use.
func NewPool(ctx context.Context, strategy Strategy, weights []int, dialers ...Dialer) (*Pool, error) {
	if len(dialers) == 0 {
		return nil, fmt.Errorf("transport: pool requires at least one dialer")
	}
	p := &Pool{strategy: strategy, healthCheckInterval: 15 * time.Second}
	for i, d := range dialers {
		w := 1
		if i < len(weights) {
			w = weights[i]
		}
		conn, err := d.Dial(ctx)
		m := &member{dialer: d, weight: w}
		if err != nil {
			m.health = HealthUnhealthy
		} else {
			m.conn = conn
			m.health = HealthHealthy
		}
		p.members = append(p.members, m)
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.healthLoop(hbCtx)
	return p, nil
}

func (p *Pool) Kind() Kind { return KindPool }

func (p *Pool) IsConnected() bool {
	for _, m := range p.snapshot() {
		m.mu.Lock()
		ok := m.conn != nil && m.conn.IsConnected()
		m.mu.Unlock()
		if ok {
			return true
		}
	}
	return false
}

func (p *Pool) snapshot() []*member {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*member, len(p.members))
	copy(out, p.members)
	return out
}

// Send picks a member per the configured Strategy and forwards frame to
// it, marking the member Degraded on failure so the next selection round
// favors a healthier peer instead of retrying the same broken connection.
func (p *Pool) Send(ctx context.Context, frame []byte) error {
	m, err := p.pick()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.active++
	conn := m.conn
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if conn == nil {
		p.markUnhealthy(m)
		return fmt.Errorf("transport: pool: selected member has no live connection")
	}
	if err := conn.Send(ctx, frame); err != nil {
		p.markDegraded(m)
		return fmt.Errorf("transport: pool send: %w", err)
	}
	return nil
}

// Receive picks a member per Strategy and waits for its next frame. Most
// pooled deployments pin request/response correlation at a higher layer,
// so Receive is mainly useful for pools of size one or for polling a
// round-robin member for unsolicited server notifications.
func (p *Pool) Receive(ctx context.Context) ([]byte, error) {
	m, err := p.pick()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		p.markUnhealthy(m)
		return nil, fmt.Errorf("transport: pool: selected member has no live connection")
	}
	frame, err := conn.Receive(ctx)
	if err != nil {
		p.markDegraded(m)
		return nil, err
	}
	return frame, nil
}

func (p *Pool) Close() error {
	p.cancel()
	var firstErr error
	for _, m := range p.snapshot() {
		m.mu.Lock()
		if m.conn != nil {
			if err := m.conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		m.mu.Unlock()
	}
	return firstErr
}

func (p *Pool) markDegraded(m *member) {
	m.mu.Lock()
	if m.health == HealthHealthy {
		m.health = HealthDegraded
	} else {
		m.health = HealthUnhealthy
	}
	m.mu.Unlock()
}

func (p *Pool) markUnhealthy(m *member) {
	m.mu.Lock()
	m.health = HealthUnhealthy
	m.mu.Unlock()
}

// pick selects among the Healthy members using the configured Strategy,
// falling back to the Degraded ones when no member is Healthy.
func (p *Pool) pick() (*member, error) {
	members := p.snapshot()
	var healthy, degraded []*member
	for _, m := range members {
		m.mu.Lock()
		h := m.health
		m.mu.Unlock()
		switch h {
		case HealthHealthy:
			healthy = append(healthy, m)
		case HealthDegraded:
			degraded = append(degraded, m)
		}
	}
	eligible := healthy
	if len(eligible) == 0 {
		eligible = degraded
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("transport: pool: no healthy members available")
	}

	switch p.strategy {
	case StrategyLeastActive:
		best := eligible[0]
		bestActive := -1
		for _, m := range eligible {
			m.mu.Lock()
			a := m.active
			m.mu.Unlock()
			if bestActive == -1 || a < bestActive {
				bestActive = a
				best = m
			}
		}
		return best, nil
	case StrategyWeighted:
		total := 0
		for _, m := range eligible {
			m.mu.Lock()
			total += m.weight
			m.mu.Unlock()
		}
		if total <= 0 {
			return eligible[0], nil
		}
		r := rand.IntN(total)
		for _, m := range eligible {
			m.mu.Lock()
			w := m.weight
			m.mu.Unlock()
			if r < w {
				return m, nil
			}
			r -= w
		}
		return eligible[len(eligible)-1], nil
	case StrategyRandom:
		return eligible[rand.IntN(len(eligible))], nil
	default: // StrategyRoundRobin
		p.mu.Lock()
		idx := p.rrCursor % len(eligible)
		p.rrCursor++
		p.mu.Unlock()
		return eligible[idx], nil
	}
}

// healthLoop periodically re-dials Unhealthy members, promoting them back
// to Healthy on success — the same self-healing behavior the original
// connection pool performs via its background health-check task.
func (p *Pool) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(p.healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range p.snapshot() {
				m.mu.Lock()
				needsRedial := m.health == HealthUnhealthy || (m.conn != nil && !m.conn.IsConnected())
				m.mu.Unlock()
				if !needsRedial {
					continue
				}
				m.mu.Lock()
				m.health = HealthChecking
				m.mu.Unlock()

				dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				conn, err := m.dialer.Dial(dialCtx)
				cancel()

				m.mu.Lock()
				if err != nil {
					m.health = HealthUnhealthy
				} else {
					m.conn = conn
					m.health = HealthHealthy
				}
				m.mu.Unlock()
			}
		}
	}
}
