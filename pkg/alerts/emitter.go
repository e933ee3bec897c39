package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// configStore is the subset of Store's behavior EmitSpike depends on,
// narrowed so tests can substitute a fake without a live database.
type configStore interface {
	EnabledConfigs(ctx context.Context) ([]Config, error)
	RecordEvent(ctx context.Context, e Event) error
}

// WebhookEmitter implements engine.AlertEmitter: it looks up enabled
// configs whose threshold the spike's severity meets and POSTs the spike
// payload to each of their webhooks, fire-and-forget (spec §4.8 — the core neither awaits nor
// retries on the emitter's behalf).
type WebhookEmitter struct {
	store      configStore
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookEmitter creates a WebhookEmitter backed by store.
func NewWebhookEmitter(store configStore, logger *zap.Logger) *WebhookEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookEmitter{
		store:      store,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

type spikePayload struct {
	Severity    model.Severity `json:"severity"`
	PeakFee     uint64         `json:"peak_fee"`
	BaselineFee float64        `json:"baseline_fee"`
	SpikeRatio  float64        `json:"spike_ratio"`
	TriggeredAt time.Time      `json:"triggered_at"`
}

// EmitSpike implements engine.AlertEmitter. It spawns one goroutine per
// spike that loads the enabled configs and posts to their webhooks one
// after another, so the caller's tick is never blocked by a slow or
// unreachable endpoint.
func (e *WebhookEmitter) EmitSpike(spike model.FeeSpike) {
	triggeredAt := time.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		configs, err := e.store.EnabledConfigs(ctx)
		if err != nil {
			e.logger.Error("could not load alert configs", zap.Error(err))
			return
		}

		for _, cfg := range configs {
			if !spike.Severity.AtLeast(cfg.Threshold) {
				continue
			}
			e.dispatch(ctx, cfg, spike, triggeredAt)
		}
	}()
}

func (e *WebhookEmitter) dispatch(ctx context.Context, cfg Config, spike model.FeeSpike, triggeredAt time.Time) {
	delivered := e.post(ctx, cfg.WebhookURL, spikePayload{
		Severity:    spike.Severity,
		PeakFee:     spike.PeakFee,
		BaselineFee: spike.BaselineFee,
		SpikeRatio:  spike.SpikeRatio,
		TriggeredAt: triggeredAt,
	})

	event := Event{
		ConfigID:    cfg.ID,
		Severity:    spike.Severity,
		PeakFee:     spike.PeakFee,
		BaselineFee: spike.BaselineFee,
		SpikeRatio:  spike.SpikeRatio,
		WebhookURL:  cfg.WebhookURL,
		Delivered:   delivered,
		TriggeredAt: triggeredAt,
	}
	if err := e.store.RecordEvent(ctx, event); err != nil {
		e.logger.Error("could not record alert event", zap.Error(err))
	}
}

func (e *WebhookEmitter) post(ctx context.Context, url string, payload spikePayload) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("could not marshal spike payload", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		e.logger.Error("could not build webhook request", zap.String("url", url), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Warn("webhook delivery failed", zap.String("url", url), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
