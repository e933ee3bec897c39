package model

import "time"

// Trend classifies the direction of congestion over the recent window.
type Trend string

const (
	TrendNone      Trend = "None"
	TrendRising    Trend = "Rising"
	TrendSustained Trend = "Sustained"
	TrendEasing    Trend = "Easing"
)

// CongestionTrend is the derived congestion signal for the current tick.
type CongestionTrend struct {
	CurrentTrend      Trend          `json:"current_trend"`
	RecentSpikes      []FeeSpike     `json:"recent_spikes"`
	TrendStrength     float64        `json:"trend_strength"`
	PredictedDuration *time.Duration `json:"predicted_duration,omitempty"`
}
