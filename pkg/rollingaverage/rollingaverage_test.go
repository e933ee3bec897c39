package rollingaverage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

func windows() []model.TimeWindow {
	return []model.TimeWindow{
		{Name: "1m", Duration: time.Minute, MinSamples: 3},
		{Name: "5m", Duration: 5 * time.Minute, MinSamples: 5},
	}
}

func TestCalculatorComputesMeanPerWindow(t *testing.T) {
	base := time.Now()
	c := New(windows(), time.Second)

	for i := 0; i < 4; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		c.Observe(model.FeeDataPoint{
			Fee:       uint64(100 * (i + 1)),
			Timestamp: ts,
		}, ts)
	}

	results := c.Compute(base.Add(40 * time.Second))
	require.Contains(t, results, "1m")

	oneMin := results["1m"]
	assert.Equal(t, 4, oneMin.SampleCount)
	assert.InDelta(t, 250.0, oneMin.Value, 0.001)
	assert.False(t, oneMin.IsPartial)
}

func TestCalculatorMarksPartialBelowMinSamples(t *testing.T) {
	base := time.Now()
	c := New(windows(), time.Second)

	c.Observe(model.FeeDataPoint{Fee: 100, Timestamp: base}, base)

	results := c.Compute(base.Add(time.Second))
	assert.True(t, results["1m"].IsPartial)
	assert.True(t, results["5m"].IsPartial)
}

func TestCalculatorExcludesSamplesOutsideWindow(t *testing.T) {
	base := time.Now()
	c := New(windows(), time.Second)

	c.Observe(model.FeeDataPoint{Fee: 1000, Timestamp: base}, base)
	c.Observe(model.FeeDataPoint{Fee: 100, Timestamp: base.Add(2 * time.Minute)}, base.Add(2*time.Minute))
	c.Observe(model.FeeDataPoint{Fee: 200, Timestamp: base.Add(2*time.Minute + time.Second)}, base.Add(2*time.Minute+time.Second))

	results := c.Compute(base.Add(2*time.Minute + 2*time.Second))
	oneMin := results["1m"]
	assert.Equal(t, 2, oneMin.SampleCount)
	assert.InDelta(t, 150.0, oneMin.Value, 0.001)
}

func TestCalculatorDropsSamplesOlderThanLongestWindow(t *testing.T) {
	base := time.Now()
	c := New(windows(), time.Second)

	// Longest configured window is 5m; this point is already 10m stale as
	// of the "now" passed to Observe, so it can never surface in Compute.
	c.Observe(model.FeeDataPoint{Fee: 999, Timestamp: base.Add(-10 * time.Minute)}, base)

	results := c.Compute(base)
	assert.Equal(t, 0, results["5m"].SampleCount)
}

func TestCalculatorZeroSamplesYieldsZeroValue(t *testing.T) {
	base := time.Now()
	c := New(windows(), time.Second)

	results := c.Compute(base)
	assert.Equal(t, 0, results["1m"].SampleCount)
	assert.Equal(t, 0.0, results["1m"].Value)
	assert.True(t, results["1m"].IsPartial)
}
