// Package engine wires the rolling-average calculator, extremes tracker,
// spike detector, and trend analyzer into the single-writer orchestrator
// that sequences them per polling tick. The ticker-plus-error-channel
// shape of Run mirrors naive.Estimator.Run, generalized to a cancellable
// context and to publishing a snapshot instead of a single estimate.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/extremes"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/metrics"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/rollingaverage"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/spike"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/trend"
)

// dataQualityLabels enumerates every value model.DataQuality can take, so
// the data-quality gauge can zero the inactive ones on each update.
var dataQualityLabels = []string{
	string(model.DataQualityGood),
	string(model.DataQualityDegraded),
	string(model.DataQualityStale),
}

// Engine is the insights orchestrator. All mutation of its subcomponents
// happens on the single goroutine that runs poll(); readers only ever
// touch the atomically-published snapshot (spec §5).
type Engine struct {
	cfg      Config
	provider Provider
	emitter  AlertEmitter
	logger   *zap.Logger

	calculator  *rollingaverage.Calculator
	extremesTrk *extremes.Tracker
	spikeDet    *spike.Detector
	trendAn     *trend.Analyzer
	dedupe      *dedupeCache
	metrics     *metrics.Collector

	snapshot atomic.Pointer[model.InsightsSnapshot]
	state    atomic.Value // State

	consecutiveFailures int
	lastSuccessfulTick  time.Time
}

// New builds an Engine from cfg, returning a ConfigurationError
// (wrapped with errors.Wrap, fatal before Running is entered) if cfg is
// invalid.
func New(cfg Config, provider Provider, emitter AlertEmitter, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	now := time.Now()
	e := &Engine{
		cfg:         cfg,
		provider:    provider,
		emitter:     emitter,
		logger:      logger,
		calculator:  rollingaverage.New(cfg.TimeWindows, cfg.SampleSpacing),
		extremesTrk: extremes.New(cfg.ExtremesPeriodLength, cfg.ExtremesHistorySize, now),
		spikeDet:    spike.New(cfg.SpikeThresholdMultiplier, cfg.SpikeMinimumDuration, cfg.SpikeHistoryCapacity),
		trendAn:     trend.New(cfg.CongestionWindow, cfg.TrendNormalizationConstant),
		dedupe:      newDedupeCache(cfg.StorageRetention),
		metrics:     metrics.New(),
	}
	e.state.Store(StateInitialized)
	e.snapshot.Store(e.emptySnapshot(now))
	return e, nil
}

func (e *Engine) emptySnapshot(now time.Time) *model.InsightsSnapshot {
	averages := make(map[string]model.AverageResult, len(e.cfg.TimeWindows))
	for _, w := range e.cfg.TimeWindows {
		averages[w.Name] = model.AverageResult{WindowName: w.Name, Value: 0, SampleCount: 0, IsPartial: true, CalculatedAt: now}
	}
	return &model.InsightsSnapshot{
		RollingAverages:  averages,
		Extremes:         e.extremesTrk.View(),
		CongestionTrends: model.CongestionTrend{CurrentTrend: model.TrendNone, RecentSpikes: []model.FeeSpike{}},
		LastUpdated:      now,
		DataQuality:       model.DataQualityStale,
	}
}

// State returns the orchestrator's current lifecycle state.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

// GetCurrentInsights returns the most recently published snapshot by
// value (spec §6 query interface). It never blocks on the writer.
func (e *Engine) GetCurrentInsights() model.InsightsSnapshot {
	return *e.snapshot.Load()
}

// Run drives the orchestrator on a periodic timer at polling_interval,
// ticking immediately on start the same way naive.Estimator.Run runs one
// estimate before entering its ticker loop. It blocks until ctx is
// cancelled, completing the in-flight tick before returning (spec §5's
// cancellation contract).
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollingInterval)
	defer ticker.Stop()

	e.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.poll(ctx)
		}
	}
}

// RunOnce executes a single tick outside of Run's ticker loop, for callers
// that drive the engine over a bounded dataset (the replay provider) rather
// than on a wall-clock schedule.
func (e *Engine) RunOnce(ctx context.Context) {
	e.poll(ctx)
}

// poll executes one full tick: bounded fetch, normalize, feed every
// subcomponent in spec order, publish. Any recoverable failure leaves the
// previously published snapshot in place, adjusting only its data quality
// (spec §4.6/§7).
func (e *Engine) poll(ctx context.Context) {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.PollingInterval/2)
	defer cancel()

	batch, err := e.provider.FetchLatestFees(fetchCtx)
	if err != nil {
		e.handleProviderFailure(err)
		e.metrics.ObserveTick("provider_failure", time.Since(start).Seconds())
		return
	}

	now := time.Now()
	result := normalize(batch, e.dedupe, now)
	e.dedupe.Prune(now)

	if len(result.accepted) == 0 {
		e.handleEmptyBatch(now)
		e.metrics.ObserveTick("empty_batch", time.Since(start).Seconds())
		return
	}

	e.processFeeData(result.accepted, now)
	e.metrics.ObserveTick("success", time.Since(start).Seconds())
}

// processFeeData runs steps (2)-(8) of spec §4.6 in order: feed
// calculator, feed extremes tracker and roll if due, recompute averages,
// run spike detection against the short-term baseline, run the trend
// analyzer, build the snapshot, and atomically publish it.
func (e *Engine) processFeeData(batch []model.FeeDataPoint, now time.Time) {
	for _, p := range batch {
		e.calculator.Observe(p, now)
	}

	e.extremesTrk.UpdateWithFees(batch)
	e.extremesTrk.RollIfDue(now)

	averages := e.calculator.Compute(now)
	baseline := averages[e.cfg.shortTermWindow()].Value

	closedSpikes := e.spikeDet.Process(batch, baseline, now)
	for _, s := range closedSpikes {
		if s.Severity.AtLeast(e.cfg.AlertThreshold) {
			e.emitter.EmitSpike(s)
			e.metrics.IncSpikeEmitted(string(s.Severity))
		}
	}

	openDuration, hasOpen := e.spikeDet.OpenDuration(now)
	congestion := e.trendAn.Analyze(e.spikeDet.Historical(), openDuration, hasOpen, now)

	snapshot := &model.InsightsSnapshot{
		RollingAverages:  averages,
		Extremes:         e.extremesTrk.View(),
		CongestionTrends: congestion,
		LastUpdated:      now,
		DataQuality:      model.DataQualityGood,
	}

	e.snapshot.Store(snapshot)
	e.lastSuccessfulTick = now
	e.consecutiveFailures = 0
	e.state.Store(StateRunning)
	e.metrics.SetDataQuality(dataQualityLabels, string(model.DataQualityGood))
}

// handleProviderFailure implements the ProviderFailure row of the error
// taxonomy: reuse the last snapshot, mark data_quality Degraded, and enter
// the Degraded state after enough consecutive failures.
func (e *Engine) handleProviderFailure(err error) {
	e.logger.Error("provider fetch failed",
		zap.String("provider", e.provider.Name()),
		zap.Error(err))

	e.consecutiveFailures++
	e.degradeSnapshot(model.DataQualityDegraded)
	e.metrics.IncProviderFailure(e.provider.Name())
	e.metrics.SetDataQuality(dataQualityLabels, string(model.DataQualityDegraded))

	if e.consecutiveFailures >= e.cfg.ConsecutiveFailureThreshold {
		e.state.Store(StateDegraded)
	}
}

// handleEmptyBatch treats a batch that normalized down to zero usable
// points as a recoverable failure: the prior snapshot persists, downgraded
// to Stale only once it has aged past 2x polling_interval (spec §4.6).
func (e *Engine) handleEmptyBatch(now time.Time) {
	e.logger.Warn("no usable fee data points this tick")

	if !e.lastSuccessfulTick.IsZero() && now.Sub(e.lastSuccessfulTick) > 2*e.cfg.PollingInterval {
		e.degradeSnapshot(model.DataQualityStale)
		e.metrics.SetDataQuality(dataQualityLabels, string(model.DataQualityStale))
	}
}

func (e *Engine) degradeSnapshot(quality model.DataQuality) {
	prior := e.snapshot.Load()
	degraded := *prior
	degraded.DataQuality = quality
	e.snapshot.Store(&degraded)
}
