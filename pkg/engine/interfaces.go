package engine

import (
	"context"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Provider is the inbound data boundary (spec §4.7/§6). The core treats it
// as opaque and never assumes idempotency across calls.
type Provider interface {
	FetchLatestFees(ctx context.Context) ([]model.FeeDataPoint, error)
	Name() string
}

// AlertEmitter is the outbound alert boundary (spec §4.8). EmitSpike must
// not block the caller; the core neither awaits nor retries on its behalf.
type AlertEmitter interface {
	EmitSpike(spike model.FeeSpike)
}
