package engine

import (
	"fmt"
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Config holds every tunable named in the configuration surface. It is
// shared immutably after Engine construction (spec §5).
type Config struct {
	PollingInterval time.Duration
	TimeWindows     []model.TimeWindow
	SampleSpacing   time.Duration

	ExtremesPeriodLength time.Duration
	ExtremesHistorySize  int

	SpikeThresholdMultiplier float64
	SpikeMinimumDuration     time.Duration
	SpikeHistoryCapacity     int

	CongestionWindow           time.Duration
	TrendNormalizationConstant float64

	AlertThreshold              model.Severity
	ConsecutiveFailureThreshold int

	StorageRetention time.Duration
}

// Validate enforces the configuration-surface invariants from spec §6.
// A ConfigurationError here is fatal before the engine enters Running
// state (spec §7).
func (c Config) Validate() error {
	if c.PollingInterval < time.Second {
		return fmt.Errorf("polling_interval must be at least 1s, got %s", c.PollingInterval)
	}
	if err := model.ValidateWindows(c.TimeWindows); err != nil {
		return err
	}
	if c.SpikeThresholdMultiplier <= 1.0 {
		return fmt.Errorf("spike_detection.threshold_multiplier must be > 1.0, got %f", c.SpikeThresholdMultiplier)
	}
	if c.SpikeMinimumDuration <= 0 {
		return fmt.Errorf("spike_detection.minimum_spike_duration must be positive")
	}
	if c.CongestionWindow <= 0 {
		return fmt.Errorf("spike_detection.congestion_window must be positive")
	}
	if c.StorageRetention <= 0 {
		return fmt.Errorf("storage_retention must be positive")
	}
	switch c.AlertThreshold {
	case model.SeverityMinor, model.SeverityModerate, model.SeverityMajor, model.SeverityCritical:
	default:
		return fmt.Errorf("alert_threshold must be one of Minor|Moderate|Major|Critical, got %q", c.AlertThreshold)
	}
	if c.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be positive, got %d", c.ConsecutiveFailureThreshold)
	}
	return nil
}

// shortTermWindow returns the window with the smallest duration, used as
// the spike detector's baseline (spec §4.4 names "the short-term rolling
// average" without pinning which configured window that is).
func (c Config) shortTermWindow() string {
	if len(c.TimeWindows) == 0 {
		return ""
	}
	shortest := c.TimeWindows[0]
	for _, w := range c.TimeWindows[1:] {
		if w.Duration < shortest.Duration {
			shortest = w
		}
	}
	return shortest.Name
}
