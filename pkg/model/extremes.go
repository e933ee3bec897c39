package model

import "time"

// ExtremeObservation is a single fee value carried by a period's current
// min or max, along with where it came from.
type ExtremeObservation struct {
	Value           uint64    `json:"value"`
	Timestamp       time.Time `json:"timestamp"`
	TransactionHash string    `json:"transaction_hash"`
}

// ExtremePeriod tracks the min/max fee within one period window.
// CurrentMin/CurrentMax are nil for a sealed period that saw no data (a
// gap period inserted when the tracker detects missed rollovers).
type ExtremePeriod struct {
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	CurrentMin  *ExtremeObservation  `json:"current_min,omitempty"`
	CurrentMax  *ExtremeObservation  `json:"current_max,omitempty"`
}

// HasData reports whether any sample was observed during this period.
func (p ExtremePeriod) HasData() bool {
	return p.CurrentMin != nil
}
