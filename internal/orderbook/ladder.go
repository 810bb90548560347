package orderbook

import "sort"

// less reports whether price a ranks strictly better than price b under a
// side's ordering: for bids that means a > b, for asks a < b. Design
// Notes §9 allows expressing the two sides via "a type parameter, a
// closure, a boolean flag, or two near-identical structures" — this
// package uses a closure captured at construction, matching the
// teacher's own preference for small closures over parallel types
// (mergeLevels, addJitter in _examples/Alexandrazhao-HFT_test).
type less func(a, b int64) bool

func bidLess(a, b int64) bool { return a > b }
func askLess(a, b int64) bool { return a < b }

// ladder is one side (bid or ask) of one venue's book: an array of unique
// prices bounded by MaxLevels and kept strictly ordered by less.
type ladder struct {
	less     less
	levels   []Level
	lastBest int64
}

func newLadder(cmp less) *ladder {
	return &ladder{
		less:   cmp,
		levels: make([]Level, 0, 64),
	}
}

// applySnapshot replaces the ladder wholesale. Levels with Qty <=
// QtyEpsilon are dropped; if more than MaxLevels survive, the best
// MaxLevels under the side's ordering are kept: sort-then-truncate, not
// input-order truncation.
func (l *ladder) applySnapshot(pairs []Level) {
	l.levels = l.levels[:0]
	for _, p := range pairs {
		if p.Qty > QtyEpsilon {
			l.levels = append(l.levels, p)
		}
	}
	sort.Slice(l.levels, func(i, j int) bool {
		return l.less(l.levels[i].PriceRaw, l.levels[j].PriceRaw)
	})
	if len(l.levels) > MaxLevels {
		l.levels = l.levels[:MaxLevels]
	}
	l.lastBest = l.bestPriceLocked()
}

// applyDelta applies one (price, qty) change and reports whether the best
// price differs from the value observed at the end of the previous call.
func (l *ladder) applyDelta(priceRaw int64, qty float64) bool {
	if qty <= QtyEpsilon {
		return l.remove(priceRaw)
	}
	return l.upsert(priceRaw, qty)
}

func (l *ladder) remove(priceRaw int64) bool {
	for i, lvl := range l.levels {
		if lvl.PriceRaw == priceRaw {
			l.levels = append(l.levels[:i], l.levels[i+1:]...)
			return l.refreshBest()
		}
	}
	return false
}

func (l *ladder) upsert(priceRaw int64, qty float64) bool {
	for i := range l.levels {
		if l.levels[i].PriceRaw == priceRaw {
			l.levels[i].Qty = qty
			return false // overwriting qty never moves the best
		}
		if l.less(priceRaw, l.levels[i].PriceRaw) {
			l.insertAt(i, Level{PriceRaw: priceRaw, Qty: qty})
			return l.refreshBest()
		}
	}
	// priceRaw ranks worse than every current level: append if there's
	// room, otherwise it's simply the new worst and gets dropped.
	if len(l.levels) < MaxLevels {
		l.levels = append(l.levels, Level{PriceRaw: priceRaw, Qty: qty})
		return l.refreshBest()
	}
	return false
}

// insertAt inserts lvl at index i, evicting the current worst level (the
// tail) if the ladder is already at MaxLevels: a strictly-better price
// arriving at a full ladder is accepted, and the current worst level is
// evicted to make room.
func (l *ladder) insertAt(i int, lvl Level) {
	if len(l.levels) < MaxLevels {
		l.levels = append(l.levels, Level{})
		copy(l.levels[i+1:], l.levels[i:len(l.levels)-1])
		l.levels[i] = lvl
		return
	}
	copy(l.levels[i+1:], l.levels[i:len(l.levels)-1])
	l.levels[i] = lvl
}

func (l *ladder) refreshBest() bool {
	newBest := l.bestPriceLocked()
	changed := newBest != l.lastBest
	l.lastBest = newBest
	return changed
}

func (l *ladder) bestPriceLocked() int64 {
	if len(l.levels) == 0 {
		return 0
	}
	return l.levels[0].PriceRaw
}

// topN copies up to n best levels, in ladder order, into a fresh slice.
func (l *ladder) topN(n int) []Level {
	if n > len(l.levels) {
		n = len(l.levels)
	}
	out := make([]Level, n)
	copy(out, l.levels[:n])
	return out
}

func (l *ladder) totalQty() float64 {
	sum := 0.0
	for _, lvl := range l.levels {
		sum += lvl.Qty
	}
	return sum
}

func (l *ladder) bestPrice() int64 { return l.bestPriceLocked() }
func (l *ladder) empty() bool      { return len(l.levels) == 0 }
func (l *ladder) size() int        { return len(l.levels) }
