package alerts

import "github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"

// NopEmitter implements engine.AlertEmitter by discarding every spike. It
// backs deployments that run without an alert_configs database.
type NopEmitter struct{}

// EmitSpike discards spike.
func (NopEmitter) EmitSpike(spike model.FeeSpike) {}
