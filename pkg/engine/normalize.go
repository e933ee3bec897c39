package engine

import (
	"sort"
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// normalizeResult reports how many points were accepted versus dropped, so
// the caller can decide whether the batch was usable and increment
// data-quality counters accordingly (spec §7's InvalidData counter).
type normalizeResult struct {
	accepted []model.FeeDataPoint
	dropped  int
}

// normalize drops invalid points (future timestamp beyond clock-skew
// tolerance, or a transaction_hash already seen in any window) and sorts
// the remainder by timestamp, per spec §4.6 step (1). Fee negativity can't
// occur since FeeDataPoint.Fee is unsigned; the check still runs through
// FeeDataPoint.Valid for any future widening of that invariant.
func normalize(batch []model.FeeDataPoint, dedupe *dedupeCache, now time.Time) normalizeResult {
	accepted := make([]model.FeeDataPoint, 0, len(batch))
	dropped := 0

	for _, p := range batch {
		if !p.Valid(now) {
			dropped++
			continue
		}
		if dedupe.SeenOrRecord(p.TransactionHash, p.Timestamp) {
			dropped++
			continue
		}
		accepted = append(accepted, p)
	}

	// Stable: ties on timestamp must preserve arrival order (spec §4.1/§4.6)
	// so the extremes tracker's strict-inequality tie rule (spec §4.3)
	// attributes an extreme deterministically.
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Timestamp.Before(accepted[j].Timestamp)
	})

	return normalizeResult{accepted: accepted, dropped: dropped}
}
