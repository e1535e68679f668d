package metrics

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorLifecycle(t *testing.T) {
	c := NewCollector("Go", nil)

	c.Start()
	assert.Greater(t, c.PeakMemoryMB(), 0.0, "initial sample should be taken on Start")
	assert.Equal(t, 1, c.SampleCount())

	current := c.Sample()
	assert.Greater(t, current, 0.0)
	assert.Equal(t, 2, c.SampleCount())

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	assert.Greater(t, c.Duration(), time.Duration(0))
}

func TestDurationRequiresBothTimestamps(t *testing.T) {
	c := NewCollector("Go", nil)
	assert.Equal(t, time.Duration(0), c.Duration(), "no timestamps yet")

	c.Start()
	assert.Equal(t, time.Duration(0), c.Duration(), "started but not stopped")

	c.Stop()
	assert.GreaterOrEqual(t, c.Duration(), time.Duration(0))
}

func TestPeakNeverDecreases(t *testing.T) {
	c := NewCollector("Go", nil)
	c.Start()

	c.mu.Lock()
	c.peakMB = 1 << 40
	c.mu.Unlock()

	c.Sample()
	assert.Equal(t, float64(1<<40), c.PeakMemoryMB(),
		"a lower reading must not lower the recorded peak")
}

func TestSummaryFormat(t *testing.T) {
	c := NewCollector("Go", nil)
	now := time.Now()
	c.mu.Lock()
	c.startTime = now.Add(-2 * time.Minute)
	c.endTime = now
	c.peakMB = 123.456
	c.mu.Unlock()

	summary := c.Summary()
	lines := strings.Split(summary, "\n")

	// Leading blank line, three 60-char rules, trailing blank line.
	require.Len(t, lines, 9)
	assert.Equal(t, "", lines[0])
	rule := strings.Repeat("=", 60)
	assert.Equal(t, rule, lines[1])
	assert.Equal(t, "Pipeline Execution Summary (Go)", lines[2])
	assert.Equal(t, rule, lines[3])
	assert.Equal(t, "Duration: 120.00 seconds (2.00 minutes)", lines[4])
	assert.Equal(t, "Peak Memory: 123.46 MB (0.12 GB)", lines[5])
	assert.Equal(t, rule, lines[6])
	assert.Equal(t, "", lines[7])
	assert.Equal(t, "", lines[8])
}

func TestSummaryLabel(t *testing.T) {
	c := NewCollector("Go Streaming", nil)
	assert.Contains(t, c.Summary(), "Pipeline Execution Summary (Go Streaming)")
}

// TestSummaryParsesLikeHarness applies the same extraction the
// benchmark runner uses on subprocess output: the substring between
// "Peak Memory:" and "MB", trimmed and parsed as a float.
func TestSummaryParsesLikeHarness(t *testing.T) {
	c := NewCollector("Go", nil)
	c.mu.Lock()
	c.peakMB = 987.654
	c.mu.Unlock()

	summary := c.Summary()

	_, after, found := strings.Cut(summary, "Peak Memory:")
	require.True(t, found)
	numeric, _, found := strings.Cut(after, "MB")
	require.True(t, found)

	value, err := strconv.ParseFloat(strings.TrimSpace(numeric), 64)
	require.NoError(t, err)
	assert.InDelta(t, 987.65, value, 0.001)
}
