package reliability

import (
	"sync"
	"time"
)

// CascadeDetector watches failures reported against named peers (pooled
// connections, downstream tools) and flags when enough of them fail
// within a short window to suggest a shared root cause — a downstream
// dependency outage — rather than independent, unrelated faults. A caller
// can consult IsCascading to decide whether to keep retrying individual
// members or back off the whole dependency; no other package in this
// module calls it.
type CascadeDetector struct {
	mu     sync.Mutex
	window time.Duration
	// threshold is the fraction (0..1) of tracked peers that must be
	// failing within window for IsCascading to report true.
	threshold float64
	failures  map[string]time.Time
	peers     map[string]struct{}
}

// NewCascadeDetector builds a detector over a window with the given
// failure-fraction threshold (e.g. 0.5 means "half or more of all known
// peers failing recently").
func NewCascadeDetector(window time.Duration, threshold float64) *CascadeDetector {
	return &CascadeDetector{
		window:    window,
		threshold: threshold,
		failures:  make(map[string]time.Time),
		peers:     make(map[string]struct{}),
	}
}

// Track registers peer as a known dependency, counted in the denominator
// of IsCascading's fraction even if it has never failed.
func (d *CascadeDetector) Track(peer string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[peer] = struct{}{}
}

// RecordFailure notes that peer failed at time at.
func (d *CascadeDetector) RecordFailure(peer string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[peer] = struct{}{}
	d.failures[peer] = at
}

// RecordSuccess clears peer's most recent failure, since a success proves
// it has recovered.
func (d *CascadeDetector) RecordSuccess(peer string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.failures, peer)
}

// IsCascading reports whether the fraction of tracked peers with a
// failure inside window, as of now, meets or exceeds threshold.
func (d *CascadeDetector) IsCascading(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.peers) == 0 {
		return false
	}
	failing := 0
	for peer := range d.peers {
		if ts, ok := d.failures[peer]; ok && now.Sub(ts) <= d.window {
			failing++
		}
	}
	return float64(failing)/float64(len(d.peers)) >= d.threshold
}

// FailingPeers returns the names currently counted as failing, for
// inclusion in a cascade-detected log line or alert.
func (d *CascadeDetector) FailingPeers(now time.Time) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for peer, ts := range d.failures {
		if now.Sub(ts) <= d.window {
			out = append(out, peer)
		}
	}
	return out
}
