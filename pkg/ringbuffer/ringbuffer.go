// Package ringbuffer implements the fixed-capacity circular buffer used by
// the rolling-average calculator to hold fee observations for one time
// window.
package ringbuffer

import (
	"time"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Buffer is a fixed-capacity ring of FeeDataPoint entries. Append is
// amortized O(1); once full, the oldest entry is overwritten. Entries are
// kept in non-decreasing timestamp order (spec §3/§4.1); out-of-order
// arrivals are inserted in place rather than appended at the head.
//
// Buffer is not safe for concurrent use — spec §5 gives each window buffer
// exactly one writer (the rolling-average calculator on the orchestrator's
// single worker goroutine).
type Buffer struct {
	entries  []model.FeeDataPoint
	capacity int
	// head is the index of the oldest live entry; count is how many of
	// entries currently hold live data (count <= capacity).
	head  int
	count int
}

// New creates a Buffer with the given fixed capacity. Capacity must be
// positive.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		entries:  make([]model.FeeDataPoint, capacity),
		capacity: capacity,
	}
}

// Len returns the number of live entries currently held.
func (b *Buffer) Len() int {
	return b.count
}

// Capacity returns the buffer's fixed capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Append inserts p, maintaining timestamp order. A point whose timestamp is
// not earlier than the last live entry is appended directly (the common
// case); an out-of-order point is inserted at its correct position via a
// shift, per spec §4.2. When the buffer is full, the oldest entry is
// overwritten.
func (b *Buffer) Append(p model.FeeDataPoint) {
	if b.count == 0 {
		b.set(0, p)
		b.count = 1
		return
	}

	lastIdx := b.index(b.count - 1)
	if !p.Timestamp.Before(b.entries[lastIdx].Timestamp) {
		b.appendAtEnd(p)
		return
	}

	b.insertSorted(p)
}

// appendAtEnd adds p past the current last entry, overwriting the oldest
// live entry if the buffer is already at capacity.
func (b *Buffer) appendAtEnd(p model.FeeDataPoint) {
	if b.count < b.capacity {
		b.set(b.count, p)
		b.count++
		return
	}

	// Full: overwrite the oldest entry and advance head.
	b.set(0, p) // logical index 0 == physical head slot before advance
	b.head = b.wrap(b.head + 1)
}

// insertSorted places p among the live, in-order entries at the position
// that keeps timestamps non-decreasing, preserving arrival order among
// ties (spec §4.1). Snapshot-then-rebuild keeps the logic simple; window
// buffers are small relative to arrival rate, so this is acceptable (spec
// §9: "O(k) per out-of-order sample, acceptable given expected rarity").
func (b *Buffer) insertSorted(p model.FeeDataPoint) {
	items := b.snapshot()

	pos := len(items)
	for i, e := range items {
		if p.Timestamp.Before(e.Timestamp) {
			pos = i
			break
		}
	}

	items = append(items, model.FeeDataPoint{})
	copy(items[pos+1:], items[pos:len(items)-1])
	items[pos] = p

	if len(items) > b.capacity {
		items = items[len(items)-b.capacity:]
	}

	b.head = 0
	b.count = len(items)
	copy(b.entries, items)
}

// Within yields, oldest-first, the live entries whose timestamp is within
// [reference-duration, reference]. Stale entries older than that are
// skipped without being evicted; they simply fall out of range until
// overwritten by a later Append (spec §4.1).
func (b *Buffer) Within(duration time.Duration, reference time.Time) []model.FeeDataPoint {
	cutoff := reference.Add(-duration)
	out := make([]model.FeeDataPoint, 0, b.count)
	for i := 0; i < b.count; i++ {
		e := b.entries[b.index(i)]
		if e.Timestamp.Before(cutoff) || e.Timestamp.After(reference) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// snapshot returns all live entries, oldest first, as a freshly allocated
// slice — used internally by insertSorted, which needs to reorder storage.
func (b *Buffer) snapshot() []model.FeeDataPoint {
	out := make([]model.FeeDataPoint, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.entries[b.index(i)]
	}
	return out
}

func (b *Buffer) index(logical int) int {
	return b.wrap(b.head + logical)
}

func (b *Buffer) wrap(i int) int {
	return i % b.capacity
}

func (b *Buffer) set(logical int, p model.FeeDataPoint) {
	b.entries[b.index(logical)] = p
}
