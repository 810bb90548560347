package orderbook

import (
	"sort"
	"sync"

	"terminuscore/internal/venue"
)

// Aggregator owns one venueBook per venue slot behind a single
// reader/writer lock. Writers — InitSnapshot, ApplyDelta,
// ClearVenue — take the exclusive lock; the reader, GetAggregated, takes
// the shared lock. No lock is ever held across an external call.
type Aggregator struct {
	priceScale int64

	mu          sync.RWMutex
	books       [venueSlots]*venueBook
	dirty       bool
	lastWriteMs int64
}

// NewAggregator constructs an aggregator with the given price scale.
// Passing 0 selects DefaultPriceScale, so zero-value callers get
// BTC-style two-decimal behavior without special-casing.
func NewAggregator(priceScale int64) *Aggregator {
	if priceScale <= 0 {
		priceScale = DefaultPriceScale
	}
	a := &Aggregator{priceScale: priceScale}
	for i := range a.books {
		a.books[i] = newVenueBook()
	}
	return a
}

// PriceScale returns the configured scale factor for this instance.
func (a *Aggregator) PriceScale() int64 { return a.priceScale }

// InitSnapshot installs a full snapshot for one venue.
func (a *Aggregator) InitSnapshot(v venue.Venue, updateID uint64, bids, asks []Level, nowMs int64) {
	a.mu.Lock()
	a.books[v].applySnapshot(updateID, bids, asks, nowMs)
	a.dirty = true
	a.lastWriteMs = nowMs
	a.mu.Unlock()
}

// ApplyDelta applies an incremental update to one venue.
func (a *Aggregator) ApplyDelta(v venue.Venue, updateID uint64, bidDeltas, askDeltas []Level, nowMs int64) {
	a.mu.Lock()
	a.books[v].applyDelta(updateID, bidDeltas, askDeltas, nowMs)
	a.dirty = true
	a.lastWriteMs = nowMs
	a.mu.Unlock()
}

// ClearVenue resets one venue's book to its default-constructed state.
func (a *Aggregator) ClearVenue(v venue.Venue) {
	a.mu.Lock()
	a.books[v] = newVenueBook()
	a.dirty = true
	a.mu.Unlock()
}

// Dirty reports whether any write has landed since the last ClearDirty.
// This is a best-effort hint, not a barrier.
func (a *Aggregator) Dirty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty
}

// ClearDirty clears the hint. Callers that use Dirty for change detection
// are responsible for calling this after consuming a snapshot.
func (a *Aggregator) ClearDirty() {
	a.mu.Lock()
	a.dirty = false
	a.mu.Unlock()
}

// Health reports the dirty hint alongside the wall-clock timestamp (ms)
// passed to the most recent InitSnapshot/ApplyDelta, or 0 if neither has
// ever run. ClearVenue touches dirty but not lastWriteMs since it removes
// data rather than landing new data.
func (a *Aggregator) Health() (dirty bool, lastWriteMs int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty, a.lastWriteMs
}

// GetAggregated merges every non-stale, initialized venue's top MaxLevels
// into a cross-venue snapshot under the shared lock, then computes
// BBO/spread/mid and runs wall detection on the merged copy after the
// lock is released.
func (a *Aggregator) GetAggregated(levels int, nowMs int64) Snapshot {
	if levels <= 0 || levels > OutputLevels {
		levels = OutputLevels
	}

	a.mu.RLock()
	mergedBids, mergedAsks := a.mergeLocked(nowMs)
	a.mu.RUnlock()

	snap := Snapshot{TimestampMs: nowMs}

	if n := len(mergedBids); n > 0 {
		if n > levels {
			n = levels
		}
		snap.Bids = mergedBids[:n]
		snap.BidCount = n
	}
	if n := len(mergedAsks); n > 0 {
		if n > levels {
			n = levels
		}
		snap.Asks = mergedAsks[:n]
		snap.AskCount = n
	}

	if snap.BidCount > 0 {
		snap.BestBid = snap.Bids[0].PriceF(a.priceScale)
	}
	if snap.AskCount > 0 {
		snap.BestAsk = snap.Asks[0].PriceF(a.priceScale)
	}
	snap.Spread = snap.BestAsk - snap.BestBid
	snap.MidPrice = (snap.BestBid + snap.BestAsk) / 2

	detectWalls(&snap, a.priceScale)

	return snap
}

// mergeLocked folds every non-stale, initialized venue's top MaxLevels
// into two price-ordered, quantity-summed slices. Must be called with at
// least the shared lock held.
func (a *Aggregator) mergeLocked(nowMs int64) (bids, asks []Level) {
	bidIdx := make(map[int64]int, MaxLevels)
	askIdx := make(map[int64]int, MaxLevels)

	for _, book := range a.books {
		if !book.initialized || book.isStale(nowMs) {
			continue
		}
		mergeSide(book.bids.topN(MaxLevels), &bids, bidIdx)
		mergeSide(book.asks.topN(MaxLevels), &asks, askIdx)
	}

	sortMerged(bids, bidLess)
	sortMerged(asks, askLess)
	return bids, asks
}

// mergeSide folds one venue's levels into the running merged total,
// summing quantities at equal prices.
func mergeSide(levels []Level, out *[]Level, idx map[int64]int) {
	for _, lvl := range levels {
		if i, ok := idx[lvl.PriceRaw]; ok {
			(*out)[i].Qty += lvl.Qty
			continue
		}
		idx[lvl.PriceRaw] = len(*out)
		*out = append(*out, lvl)
	}
}

func sortMerged(levels []Level, cmp less) {
	sort.Slice(levels, func(i, j int) bool {
		return cmp(levels[i].PriceRaw, levels[j].PriceRaw)
	})
}
