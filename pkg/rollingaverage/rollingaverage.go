// Package rollingaverage computes the per-window mean fee using the ring
// buffers in pkg/ringbuffer as backing storage, one buffer per configured
// window, the same per-bucket accumulator layout
// pkg/feerate/bitcoincore.TransactionStats uses for its per-period sums.
package rollingaverage

import (
	"math/big"
	"sort"
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/ringbuffer"
)

// defaultSampleSpacing is the expected gap between observations, used to
// size a window's ring buffer capacity when the caller doesn't supply one
// (spec §9: capacity = ceil(duration / spacing) * safety_factor).
const defaultSampleSpacing = time.Second

const safetyFactor = 2

// Calculator holds one ring buffer per configured time window and derives
// AverageResult values on demand. It is not safe for concurrent use; the
// engine's single writer goroutine owns it exclusively (spec §5).
type Calculator struct {
	windows     []model.TimeWindow
	buffers     map[string]*ringbuffer.Buffer
	maxDuration time.Duration
}

// New builds a Calculator for the given windows, sizing each window's ring
// buffer from its duration and the expected sample spacing.
func New(windows []model.TimeWindow, sampleSpacing time.Duration) *Calculator {
	if sampleSpacing <= 0 {
		sampleSpacing = defaultSampleSpacing
	}

	buffers := make(map[string]*ringbuffer.Buffer, len(windows))
	for _, w := range windows {
		capacity := int(w.Duration/sampleSpacing)*safetyFactor + 1
		buffers[w.Name] = ringbuffer.New(capacity)
	}

	sorted := append([]model.TimeWindow(nil), windows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Duration == sorted[j].Duration {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Duration < sorted[j].Duration
	})

	return &Calculator{windows: sorted, buffers: buffers, maxDuration: model.MaxDuration(windows)}
}

// Observe feeds a new data point into every window's buffer, as of now. A
// point already older than the longest configured window cannot contribute
// to any window's Compute result, so it is dropped here rather than
// occupying ring buffer capacity it will never be read back from.
func (c *Calculator) Observe(p model.FeeDataPoint, now time.Time) {
	if now.Sub(p.Timestamp) > c.maxDuration {
		return
	}
	for _, buf := range c.buffers {
		buf.Append(p)
	}
}

// Compute derives the AverageResult for every configured window as of now.
// A window is marked IsPartial when its sample count falls short of
// min_samples (spec §4.2); the mean itself is still reported so callers can
// decide how to treat partial data rather than losing the value entirely.
func (c *Calculator) Compute(now time.Time) map[string]model.AverageResult {
	out := make(map[string]model.AverageResult, len(c.windows))
	for _, w := range c.windows {
		buf := c.buffers[w.Name]
		points := buf.Within(w.Duration, now)

		sum := new(big.Float).SetPrec(128)
		for _, p := range points {
			sum.Add(sum, new(big.Float).SetUint64(p.Fee))
		}

		var mean float64
		if len(points) > 0 {
			mean, _ = new(big.Float).Quo(sum, big.NewFloat(float64(len(points)))).Float64()
		}

		out[w.Name] = model.AverageResult{
			WindowName:   w.Name,
			Value:        mean,
			SampleCount:  len(points),
			IsPartial:    len(points) < w.MinSamples,
			CalculatedAt: now,
		}
	}
	return out
}
