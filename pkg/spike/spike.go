// Package spike implements the fee-spike state machine: begin, continue,
// and close transitions driven by comparing each new observation against a
// freshly computed baseline, in the same threshold-crossing style
// naive.go's fee estimator uses to flag outlier fee rates.
package spike

import (
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// openSpike tracks an in-progress spike that hasn't closed yet.
type openSpike struct {
	startTime      time.Time
	peakFee        uint64
	baseline       float64
	lastQualifying time.Time
}

// Detector holds the spike state machine and a bounded deque of closed
// spikes. It is not safe for concurrent use; the engine's single writer
// goroutine owns it exclusively (spec §5).
type Detector struct {
	thresholdMultiplier  float64
	minimumSpikeDuration time.Duration
	historyCapacity      int

	open       *openSpike
	historical []model.FeeSpike
}

// New creates a Detector with the given threshold and duration parameters.
func New(thresholdMultiplier float64, minimumSpikeDuration time.Duration, historyCapacity int) *Detector {
	if historyCapacity <= 0 {
		historyCapacity = 256
	}
	return &Detector{
		thresholdMultiplier:  thresholdMultiplier,
		minimumSpikeDuration: minimumSpikeDuration,
		historyCapacity:      historyCapacity,
		historical:           make([]model.FeeSpike, 0, historyCapacity),
	}
}

// Process runs the newly-arrived points (already sorted by timestamp)
// against baseline, advancing the spike state machine, and returns any
// spikes that closed during this call (spec §4.4).
func (d *Detector) Process(points []model.FeeDataPoint, baseline float64, now time.Time) []model.FeeSpike {
	var closed []model.FeeSpike

	for _, p := range points {
		qualifies := baseline > 0 && float64(p.Fee)/baseline >= d.thresholdMultiplier

		if qualifies {
			if d.open == nil {
				d.open = &openSpike{
					startTime:      p.Timestamp,
					peakFee:        p.Fee,
					baseline:       baseline,
					lastQualifying: p.Timestamp,
				}
			} else {
				if p.Fee > d.open.peakFee {
					d.open.peakFee = p.Fee
				}
				d.open.lastQualifying = p.Timestamp
			}
			continue
		}

		if d.open != nil {
			if s, ok := d.close(p.Timestamp); ok {
				closed = append(closed, s)
			}
		}
	}

	if d.open != nil && now.Sub(d.open.lastQualifying) > d.minimumSpikeDuration*2 {
		if s, ok := d.close(d.open.lastQualifying); ok {
			closed = append(closed, s)
		}
	}

	return closed
}

// close finalizes the currently open spike as of endTime. A spike shorter
// than minimum_spike_duration is discarded rather than emitted (spec
// §4.4); close always clears d.open.
func (d *Detector) close(endTime time.Time) (model.FeeSpike, bool) {
	o := d.open
	d.open = nil

	duration := endTime.Sub(o.startTime)
	if duration < d.minimumSpikeDuration {
		return model.FeeSpike{}, false
	}

	ratio := float64(o.peakFee) / o.baseline
	spike := model.FeeSpike{
		PeakFee:     o.peakFee,
		BaselineFee: o.baseline,
		SpikeRatio:  ratio,
		StartTime:   o.startTime,
		Duration:    duration,
		Severity:    model.ClassifySeverity(ratio),
	}

	d.historical = append(d.historical, spike)
	if len(d.historical) > d.historyCapacity {
		d.historical = d.historical[len(d.historical)-d.historyCapacity:]
	}

	return spike, true
}

// Historical returns the bounded deque of closed spikes, oldest first, by
// value.
func (d *Detector) Historical() []model.FeeSpike {
	out := make([]model.FeeSpike, len(d.historical))
	copy(out, d.historical)
	return out
}

// IsOpen reports whether a spike is currently in progress.
func (d *Detector) IsOpen() bool {
	return d.open != nil
}

// OpenDuration returns how long the currently open spike (if any) has
// lasted as of now, used by the trend analyzer to fold in-progress spikes
// into its duration extrapolation.
func (d *Detector) OpenDuration(now time.Time) (time.Duration, bool) {
	if d.open == nil {
		return 0, false
	}
	return now.Sub(d.open.startTime), true
}
