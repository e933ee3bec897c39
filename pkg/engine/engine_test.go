package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

type fakeProvider struct {
	batches [][]model.FeeDataPoint
	errs    []error
	calls   int
}

func (f *fakeProvider) FetchLatestFees(ctx context.Context) ([]model.FeeDataPoint, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return nil, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeEmitter struct {
	spikes []model.FeeSpike
}

func (f *fakeEmitter) EmitSpike(s model.FeeSpike) {
	f.spikes = append(f.spikes, s)
}

func testConfig() Config {
	return Config{
		PollingInterval:             time.Second,
		TimeWindows:                 []model.TimeWindow{{Name: "1m", Duration: time.Minute, MinSamples: 2}},
		SampleSpacing:                time.Millisecond * 100,
		ExtremesPeriodLength:         time.Hour,
		ExtremesHistorySize:          24,
		SpikeThresholdMultiplier:     2.0,
		SpikeMinimumDuration:         time.Millisecond,
		SpikeHistoryCapacity:         32,
		CongestionWindow:             time.Hour,
		TrendNormalizationConstant:   10,
		AlertThreshold:               model.SeverityMinor,
		ConsecutiveFailureThreshold:  2,
		StorageRetention:             time.Hour,
	}
}

func TestEngineStartsInInitializedState(t *testing.T) {
	e, err := New(testConfig(), &fakeProvider{}, &fakeEmitter{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, e.State())
}

func TestEnginePublishesSnapshotOnSuccessfulTick(t *testing.T) {
	now := time.Now()
	provider := &fakeProvider{batches: [][]model.FeeDataPoint{
		{
			{Fee: 100, Timestamp: now.Add(-time.Millisecond), TransactionHash: "a"},
			{Fee: 200, Timestamp: now, TransactionHash: "b"},
		},
	}}
	e, err := New(testConfig(), provider, &fakeEmitter{}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	e.poll(ctx)

	snap := e.GetCurrentInsights()
	assert.Equal(t, model.DataQualityGood, snap.DataQuality)
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 2, snap.RollingAverages["1m"].SampleCount)
}

func TestEngineDegradesOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{errs: []error{errors.New("rpc timeout"), errors.New("rpc timeout")}}
	e, err := New(testConfig(), provider, &fakeEmitter{}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	e.poll(ctx)
	e.poll(ctx)

	assert.Equal(t, StateDegraded, e.State())
	assert.Equal(t, model.DataQualityDegraded, e.GetCurrentInsights().DataQuality)
}

func TestEngineEmitsSpikeAboveThreshold(t *testing.T) {
	now := time.Now()
	cfg := testConfig()
	cfg.AlertThreshold = model.SeverityModerate

	provider := &fakeProvider{batches: [][]model.FeeDataPoint{
		{{Fee: 100, Timestamp: now, TransactionHash: "seed-a"}, {Fee: 100, Timestamp: now.Add(time.Millisecond), TransactionHash: "seed-b"}},
		{
			{Fee: 500, Timestamp: now.Add(2 * time.Millisecond), TransactionHash: "spike-a"},
			{Fee: 10, Timestamp: now.Add(3 * time.Millisecond), TransactionHash: "spike-b"},
		},
	}}
	emitter := &fakeEmitter{}
	e, err := New(cfg, provider, emitter, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	e.poll(ctx)
	e.poll(ctx)

	require.NotEmpty(t, emitter.spikes)
	assert.True(t, emitter.spikes[0].Severity.AtLeast(model.SeverityModerate))
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SpikeThresholdMultiplier = 0.5
	_, err := New(cfg, &fakeProvider{}, &fakeEmitter{}, zap.NewNop())
	assert.Error(t, err)
}

func TestEngineDeduplicatesTransactionHashAcrossTicks(t *testing.T) {
	now := time.Now()
	provider := &fakeProvider{batches: [][]model.FeeDataPoint{
		{{Fee: 100, Timestamp: now, TransactionHash: "dup"}},
		{{Fee: 100, Timestamp: now.Add(time.Millisecond), TransactionHash: "dup"}},
	}}
	e, err := New(testConfig(), provider, &fakeEmitter{}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	e.poll(ctx)
	e.poll(ctx)

	assert.Equal(t, 1, e.GetCurrentInsights().RollingAverages["1m"].SampleCount)
}
