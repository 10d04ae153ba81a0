package reliability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/mcpcore/internal/reliability"
)

func TestCascadeDetector_BelowThresholdNotCascading(t *testing.T) {
	d := reliability.NewCascadeDetector(time.Minute, 0.5)
	d.Track("peer-a")
	d.Track("peer-b")
	d.Track("peer-c")
	now := time.Now()
	d.RecordFailure("peer-a", now)
	assert.False(t, d.IsCascading(now))
}

func TestCascadeDetector_AtThresholdIsCascading(t *testing.T) {
	d := reliability.NewCascadeDetector(time.Minute, 0.5)
	d.Track("peer-a")
	d.Track("peer-b")
	d.Track("peer-c")
	d.Track("peer-d")
	now := time.Now()
	d.RecordFailure("peer-a", now)
	d.RecordFailure("peer-b", now)
	assert.True(t, d.IsCascading(now))
	assert.ElementsMatch(t, []string{"peer-a", "peer-b"}, d.FailingPeers(now))
}

func TestCascadeDetector_FailuresOutsideWindowDoNotCount(t *testing.T) {
	d := reliability.NewCascadeDetector(time.Second, 0.5)
	d.Track("peer-a")
	d.Track("peer-b")
	old := time.Now().Add(-time.Hour)
	d.RecordFailure("peer-a", old)
	d.RecordFailure("peer-b", old)
	assert.False(t, d.IsCascading(time.Now()))
}

func TestCascadeDetector_RecordSuccessClearsFailure(t *testing.T) {
	d := reliability.NewCascadeDetector(time.Minute, 0.5)
	d.Track("peer-a")
	d.Track("peer-b")
	d.Track("peer-c")
	now := time.Now()
	d.RecordFailure("peer-a", now)
	d.RecordFailure("peer-b", now)
	d.RecordSuccess("peer-a")
	assert.False(t, d.IsCascading(now))
}

func TestCascadeDetector_NoPeersNeverCascades(t *testing.T) {
	d := reliability.NewCascadeDetector(time.Minute, 0.1)
	assert.False(t, d.IsCascading(time.Now()))
}
