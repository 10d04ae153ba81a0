package server

import "sync"

// logLevels mirrors the RFC 5424 severity names MCP's logging/setLevel and
// notifications/message use, ordered least to most severe.
var logLevels = []string{"debug", "info", "notice", "warning", "error", "critical", "alert", "emergency"}

func logLevelRank(level string) int {
	for i, l := range logLevels {
		if l == level {
			return i
		}
	}
	return -1
}

// LevelGate tracks the minimum severity a server will forward through
// notifications/message, set by logging/setLevel. The zero value forwards
// everything (rank 0, "debug").
type LevelGate struct {
	mu   sync.Mutex
	rank int
}

// SetLevel validates level against the known severity names and, if
// valid, raises or lowers the gate.
func (g *LevelGate) SetLevel(level string) bool {
	rank := logLevelRank(level)
	if rank < 0 {
		return false
	}
	g.mu.Lock()
	g.rank = rank
	g.mu.Unlock()
	return true
}

// Allows reports whether a message at level should be forwarded.
func (g *LevelGate) Allows(level string) bool {
	rank := logLevelRank(level)
	if rank < 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return rank >= g.rank
}
