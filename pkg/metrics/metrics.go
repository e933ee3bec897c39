// Package metrics defines the Prometheus collectors the engine reports
// through the /metrics endpoint, in the same package-level
// prometheus.NewCounterVec/NewHistogramVec/NewGaugeVec style
// internal/metrics/metrics.go uses, scaled to this engine's tick/spike/
// data-quality surface.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_insights_ticks_total",
			Help: "Total number of polling ticks, by outcome",
		},
		[]string{"result"},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fee_insights_tick_duration_seconds",
			Help:    "Time spent processing a single polling tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	dataQuality = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fee_insights_data_quality",
			Help: "Current data quality (1=active label, 0=inactive)",
		},
		[]string{"quality"},
	)

	spikesEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_insights_spikes_emitted_total",
			Help: "Total number of fee spikes emitted to alerting, by severity",
		},
		[]string{"severity"},
	)

	providerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fee_insights_provider_failures_total",
			Help: "Total number of provider fetch failures, by provider",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, tickDuration, dataQuality, spikesEmitted, providerFailuresTotal)
}

// Collector is the narrow recording surface the engine holds onto; it
// exists so Engine doesn't reach for package-level vars directly. Every
// Collector records into the same package-level collectors.
type Collector struct{}

// New returns a Collector backed by the package's registered metrics.
func New() *Collector {
	return &Collector{}
}

// ObserveTick records one tick's outcome and duration.
func (c *Collector) ObserveTick(result string, durationSeconds float64) {
	ticksTotal.WithLabelValues(result).Inc()
	tickDuration.Observe(durationSeconds)
}

// SetDataQuality records the current data quality as the active gauge
// label, zeroing the others so only one reads 1 at a time.
func (c *Collector) SetDataQuality(qualities []string, active string) {
	for _, q := range qualities {
		value := 0.0
		if q == active {
			value = 1.0
		}
		dataQuality.WithLabelValues(q).Set(value)
	}
}

// IncSpikeEmitted records one spike dispatched to alerting at severity.
func (c *Collector) IncSpikeEmitted(severity string) {
	spikesEmitted.WithLabelValues(severity).Inc()
}

// IncProviderFailure records one failed fetch from the named provider.
func (c *Collector) IncProviderFailure(provider string) {
	providerFailuresTotal.WithLabelValues(provider).Inc()
}
