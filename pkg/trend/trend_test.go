package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

func TestAnalyzerReturnsNoneWithoutSpikes(t *testing.T) {
	a := New(time.Hour, 10)
	result := a.Analyze(nil, 0, false, time.Now())

	assert.Equal(t, model.TrendNone, result.CurrentTrend)
	assert.Equal(t, 0.0, result.TrendStrength)
	assert.Nil(t, result.PredictedDuration)
}

func TestAnalyzerClassifiesRisingWhenLatterHalfHasMoreSpikes(t *testing.T) {
	now := time.Now()
	a := New(time.Hour, 10)

	spikes := []model.FeeSpike{
		{StartTime: now.Add(-50 * time.Minute), Duration: time.Minute, SpikeRatio: 2},
		{StartTime: now.Add(-10 * time.Minute), Duration: time.Minute, SpikeRatio: 3},
		{StartTime: now.Add(-5 * time.Minute), Duration: time.Minute, SpikeRatio: 4},
	}

	result := a.Analyze(spikes, 0, false, now)
	assert.Equal(t, model.TrendRising, result.CurrentTrend)
	assert.NotNil(t, result.PredictedDuration)
}

func TestAnalyzerClassifiesEasingWhenFormerHalfHasMoreSpikes(t *testing.T) {
	now := time.Now()
	a := New(time.Hour, 10)

	spikes := []model.FeeSpike{
		{StartTime: now.Add(-55 * time.Minute), Duration: time.Minute, SpikeRatio: 2},
		{StartTime: now.Add(-50 * time.Minute), Duration: time.Minute, SpikeRatio: 3},
		{StartTime: now.Add(-5 * time.Minute), Duration: time.Minute, SpikeRatio: 4},
	}

	result := a.Analyze(spikes, 0, false, now)
	assert.Equal(t, model.TrendEasing, result.CurrentTrend)
	assert.Nil(t, result.PredictedDuration)
}

func TestAnalyzerTrendStrengthIsClampedToOne(t *testing.T) {
	now := time.Now()
	a := New(time.Hour, 0.001)

	spikes := []model.FeeSpike{
		{StartTime: now.Add(-5 * time.Minute), Duration: 30 * time.Minute, SpikeRatio: 20},
	}

	result := a.Analyze(spikes, 0, false, now)
	assert.Equal(t, 1.0, result.TrendStrength)
}

func TestAnalyzerFiltersSpikesOutsideCongestionWindow(t *testing.T) {
	now := time.Now()
	a := New(10*time.Minute, 10)

	spikes := []model.FeeSpike{
		{StartTime: now.Add(-2 * time.Hour), Duration: time.Minute, SpikeRatio: 5},
	}

	result := a.Analyze(spikes, 0, false, now)
	assert.Equal(t, model.TrendNone, result.CurrentTrend)
	assert.Empty(t, result.RecentSpikes)
}
