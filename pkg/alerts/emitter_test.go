package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

type fakeStore struct {
	mu      sync.Mutex
	configs []Config
	events  []Event
}

func (f *fakeStore) EnabledConfigs(ctx context.Context) ([]Config, error) {
	return f.configs, nil
}

func (f *fakeStore) RecordEvent(ctx context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeStore) snapshotEvents() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func waitForEvents(t *testing.T, store *fakeStore, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := store.snapshotEvents(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", n)
	return nil
}

func TestEmitterDispatchesToWebhookAboveThreshold(t *testing.T) {
	var received int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{configs: []Config{
		{ID: 1, WebhookURL: server.URL, Threshold: model.SeverityMajor, Enabled: true},
	}}
	emitter := NewWebhookEmitter(store, zap.NewNop())

	emitter.EmitSpike(model.FeeSpike{Severity: model.SeverityCritical, PeakFee: 999})

	events := waitForEvents(t, store, 1)
	assert.True(t, events[0].Delivered)
}

func TestEmitterSkipsConfigsBelowThreshold(t *testing.T) {
	store := &fakeStore{configs: []Config{
		{ID: 1, WebhookURL: "http://unused.invalid", Threshold: model.SeverityCritical, Enabled: true},
	}}
	emitter := NewWebhookEmitter(store, zap.NewNop())

	emitter.EmitSpike(model.FeeSpike{Severity: model.SeverityMinor})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.snapshotEvents())
}

func TestEmitterRecordsUndeliveredOnHTTPFailure(t *testing.T) {
	store := &fakeStore{configs: []Config{
		{ID: 1, WebhookURL: "http://127.0.0.1:1", Threshold: model.SeverityMinor, Enabled: true},
	}}
	emitter := NewWebhookEmitter(store, zap.NewNop())

	emitter.EmitSpike(model.FeeSpike{Severity: model.SeverityMajor})

	events := waitForEvents(t, store, 1)
	assert.False(t, events[0].Delivered)
}

func TestEmitterDoesNotBlockCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{configs: []Config{
		{ID: 1, WebhookURL: server.URL, Threshold: model.SeverityMinor, Enabled: true},
	}}
	emitter := NewWebhookEmitter(store, zap.NewNop())

	start := time.Now()
	emitter.EmitSpike(model.FeeSpike{Severity: model.SeverityMajor})
	require.Less(t, time.Since(start), 50*time.Millisecond)
}
