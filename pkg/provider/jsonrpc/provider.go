// Package jsonrpc implements the Provider boundary against a ledger
// indexer's JSON-RPC endpoint, the same ybbus/jsonrpc-backed,
// cache-plus-janitor client shape utils.CachedRPCClient uses for Bitcoin
// Core, adapted here to a single fee-feed RPC method instead of a full
// node's RPC surface.
package jsonrpc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// DefaultCacheExpiration bounds how long a fetched batch is reused before
// a consumer re-polling inside the window forces a fresh upstream call.
const DefaultCacheExpiration = 30 * time.Second

type cacheItem struct {
	batch      []model.FeeDataPoint
	expiration time.Time
}

// Provider fetches fee data points from a ledger indexer's
// "getLatestFees" JSON-RPC method.
type Provider struct {
	client jsonrpc.RPCClient
	logger *zap.Logger
	name   string

	mu    sync.RWMutex
	cache *cacheItem

	stop chan struct{}
}

// Config configures the RPC transport.
type Config struct {
	Endpoint   string
	AuthToken  string
	HTTPClient *http.Client
}

// New creates a Provider and starts its expired-cache janitor, mirroring
// CachedRPCClient's runJanitor/stopJanitor lifecycle.
func New(cfg Config, providerName string, logger *zap.Logger) *Provider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	headers := make(map[string]string)
	if cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + cfg.AuthToken
	}

	client := jsonrpc.NewClientWithOpts(cfg.Endpoint, &jsonrpc.RPCClientOpts{
		CustomHeaders: headers,
		HTTPClient:    cfg.HTTPClient,
	})

	p := &Provider{
		client: client,
		logger: logger,
		name:   providerName,
		stop:   make(chan struct{}),
	}

	go p.runJanitor(5 * time.Minute)
	return p
}

// Name implements engine.Provider.
func (p *Provider) Name() string {
	return p.name
}

// Close stops the background janitor goroutine.
func (p *Provider) Close() {
	close(p.stop)
}

type latestFeesResponse struct {
	Fees []rpcFeePoint `json:"fees"`
}

type rpcFeePoint struct {
	Fee             uint64 `json:"fee"`
	TimestampMillis int64  `json:"timestamp_ms"`
	TransactionHash string `json:"transaction_hash"`
	LedgerSequence  uint64 `json:"ledger_sequence"`
}

// FetchLatestFees implements engine.Provider. It consults the short-TTL
// cache first, the same get-before-call order
// utils/cachedClient.go:GetRawTransactionVerbose uses, and only issues a
// "getLatestFees" RPC call on a miss.
func (p *Provider) FetchLatestFees(ctx context.Context) ([]model.FeeDataPoint, error) {
	if batch, ok := p.get(); ok {
		return batch, nil
	}

	var resp latestFeesResponse
	err := p.client.CallFor(&resp, "getLatestFees")
	if err != nil {
		return nil, errors.Wrapf(err, "%s: getLatestFees RPC call failed", p.name)
	}

	out := make([]model.FeeDataPoint, 0, len(resp.Fees))
	for _, f := range resp.Fees {
		out = append(out, model.FeeDataPoint{
			Fee:             f.Fee,
			Timestamp:       time.UnixMilli(f.TimestampMillis).UTC(),
			TransactionHash: f.TransactionHash,
			LedgerSequence:  f.LedgerSequence,
		})
	}

	p.set(out)
	return out, nil
}

// get returns the cached batch if it hasn't expired yet.
func (p *Provider) get() ([]model.FeeDataPoint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.cache == nil || time.Now().After(p.cache.expiration) {
		return nil, false
	}
	return p.cache.batch, true
}

func (p *Provider) set(batch []model.FeeDataPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache = &cacheItem{
		batch:      batch,
		expiration: time.Now().Add(DefaultCacheExpiration),
	}
}

func (p *Provider) deleteExpired() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache != nil && time.Now().After(p.cache.expiration) {
		p.cache = nil
	}
}

func (p *Provider) runJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.deleteExpired()
		case <-p.stop:
			return
		}
	}
}
