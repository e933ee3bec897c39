// Package extremes tracks per-period min/max fee observations and seals
// them into a bounded historical ring on rollover, the same rollover style
// TransactionStats.clearCurrent uses to rotate its mempool counters on a
// new block, adapted here to wall-clock periods instead of block height.
package extremes

import (
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// defaultHistorySize is the default bounded ring size (spec §4.3: "size H
// (configured; default 24)").
const defaultHistorySize = 24

// Tracker owns the current open period and a bounded ring of sealed
// periods. It is not safe for concurrent use; the engine's single writer
// goroutine owns it exclusively (spec §5).
type Tracker struct {
	periodLength time.Duration
	historySize  int

	current    model.ExtremePeriod
	historical []model.ExtremePeriod
}

// New creates a Tracker whose current period starts at periodStart and
// whose sealed-period ring holds at most historySize entries.
func New(periodLength time.Duration, historySize int, periodStart time.Time) *Tracker {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Tracker{
		periodLength: periodLength,
		historySize:  historySize,
		current: model.ExtremePeriod{
			PeriodStart: periodStart,
			PeriodEnd:   periodStart.Add(periodLength),
		},
		historical: make([]model.ExtremePeriod, 0, historySize),
	}
}

// UpdateWithFees folds batch into the current period's min/max, using
// strict inequality so ties preserve the earliest occurrence (spec §4.3).
func (t *Tracker) UpdateWithFees(batch []model.FeeDataPoint) {
	for _, p := range batch {
		obs := model.ExtremeObservation{
			Value:           p.Fee,
			Timestamp:       p.Timestamp,
			TransactionHash: p.TransactionHash,
		}

		if t.current.CurrentMin == nil || obs.Value < t.current.CurrentMin.Value {
			min := obs
			t.current.CurrentMin = &min
		}
		if t.current.CurrentMax == nil || obs.Value > t.current.CurrentMax.Value {
			max := obs
			t.current.CurrentMax = &max
		}
	}
}

// RollIfDue seals the current period and opens a new one whenever now has
// passed period_end, inserting empty "no-data" sentinel periods for any
// fully-missed cycles (spec §4.3).
func (t *Tracker) RollIfDue(now time.Time) {
	for !now.Before(t.current.PeriodEnd) {
		t.seal()
		t.current = model.ExtremePeriod{
			PeriodStart: t.current.PeriodEnd,
			PeriodEnd:   t.current.PeriodEnd.Add(t.periodLength),
		}
	}
}

func (t *Tracker) seal() {
	t.historical = append(t.historical, t.current)
	if len(t.historical) > t.historySize {
		t.historical = t.historical[len(t.historical)-t.historySize:]
	}
}

// View returns the current period and historical ring by value, oldest
// first; no internal reference escapes (spec §4.3).
func (t *Tracker) View() model.ExtremesView {
	historical := make([]model.ExtremePeriod, len(t.historical))
	copy(historical, t.historical)
	return model.ExtremesView{
		Current:    t.current,
		Historical: historical,
	}
}
