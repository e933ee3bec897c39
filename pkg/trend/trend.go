// Package trend aggregates recently closed fee spikes into a single
// congestion signal, the windowed-aggregation style naive/scores.go uses to
// roll per-block scores into a trailing summary.
package trend

import (
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Analyzer derives CongestionTrend from the spikes closed within the
// configured congestion window. It holds no mutable state of its own; all
// history lives in the spike detector.
type Analyzer struct {
	congestionWindow     time.Duration
	normalizationConstant float64
}

// New creates an Analyzer. normalizationConstant must be positive; it
// calibrates trend_strength into [0,1] (spec §4.5).
func New(congestionWindow time.Duration, normalizationConstant float64) *Analyzer {
	if normalizationConstant <= 0 {
		normalizationConstant = 1
	}
	return &Analyzer{
		congestionWindow:      congestionWindow,
		normalizationConstant: normalizationConstant,
	}
}

// Analyze computes the congestion trend as of now from allSpikes (the
// spike detector's full historical deque) and the currently open spike's
// duration, if any.
func (a *Analyzer) Analyze(allSpikes []model.FeeSpike, openDuration time.Duration, hasOpen bool, now time.Time) model.CongestionTrend {
	recent := a.withinWindow(allSpikes, now)

	if len(recent) == 0 && !hasOpen {
		return model.CongestionTrend{
			CurrentTrend:  model.TrendNone,
			RecentSpikes:  []model.FeeSpike{},
			TrendStrength: 0,
		}
	}

	currentTrend := a.classifyDirection(recent, now)
	strength := a.trendStrength(recent)

	var predicted *time.Duration
	if currentTrend == model.TrendRising || currentTrend == model.TrendSustained {
		d := a.predictDuration(recent, openDuration, hasOpen, strength)
		predicted = &d
	}

	return model.CongestionTrend{
		CurrentTrend:      currentTrend,
		RecentSpikes:      recent,
		TrendStrength:     strength,
		PredictedDuration: predicted,
	}
}

func (a *Analyzer) withinWindow(spikes []model.FeeSpike, now time.Time) []model.FeeSpike {
	cutoff := now.Add(-a.congestionWindow)
	out := make([]model.FeeSpike, 0, len(spikes))
	for _, s := range spikes {
		if s.StartTime.After(cutoff) || s.StartTime.Equal(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// classifyDirection splits the window in half by elapsed time and compares
// spike counts in each half (spec §4.5).
func (a *Analyzer) classifyDirection(recent []model.FeeSpike, now time.Time) model.Trend {
	if len(recent) == 0 {
		return model.TrendNone
	}

	midpoint := now.Add(-a.congestionWindow / 2)
	var former, latter int
	for _, s := range recent {
		if s.StartTime.Before(midpoint) {
			former++
		} else {
			latter++
		}
	}

	switch {
	case latter > former:
		return model.TrendRising
	case former > latter:
		return model.TrendEasing
	default:
		return model.TrendSustained
	}
}

func (a *Analyzer) trendStrength(recent []model.FeeSpike) float64 {
	var weighted float64
	for _, s := range recent {
		durationWeight := float64(s.Duration) / float64(a.congestionWindow)
		weighted += s.SpikeRatio * durationWeight
	}

	strength := weighted / a.normalizationConstant
	if strength > 1.0 {
		strength = 1.0
	}
	if strength < 0 {
		strength = 0
	}
	return strength
}

func (a *Analyzer) predictDuration(recent []model.FeeSpike, openDuration time.Duration, hasOpen bool, strength float64) time.Duration {
	var total time.Duration
	count := 0
	for _, s := range recent {
		total += s.Duration
		count++
	}
	if hasOpen {
		total += openDuration
		count++
	}
	if count == 0 {
		return 0
	}

	mean := total / time.Duration(count)
	return time.Duration(float64(mean) * (1 + strength))
}
