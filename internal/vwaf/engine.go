package vwaf

import (
	"math"
	"sync"

	"terminuscore/internal/venue"
)

// Engine owns the funding-rate sample table for every venue slot behind
// its own mutex, deliberately separate from the orderbook aggregator's
// lock — no operation ever holds both at once. Same parallel fixed
// arrays and lock-guard-everything shape as a native funding engine
// would use, translated from a mutex-guarded struct into sync.Mutex.
type Engine struct {
	mu sync.Mutex

	rate   [venueSlots]float64
	oiUSD  [venueSlots]float64
	tsMs   [venueSlots]int64
	active [venueSlots]bool
}

// NewEngine constructs an empty engine; every slot starts inactive.
func NewEngine() *Engine {
	return &Engine{}
}

// UpdateFunding stores one venue's latest sample and marks its slot
// active. Call sites are adapter funding pollers.
func (e *Engine) UpdateFunding(v venue.Venue, rate, oiUSD float64, tsMs int64) {
	e.mu.Lock()
	e.rate[v] = rate
	e.oiUSD[v] = oiUSD
	e.tsMs[v] = tsMs
	e.active[v] = true
	e.mu.Unlock()
}

// Compute runs the full VWAF derivation against nowMs. A slot counts
// toward the result only if it's active and fresher than FreshMs; below
// MinOIUSD total weighted OI the result only lists the active venues in
// ByVenue, with every rate/OI/weight/aggregate field left zero.
func (e *Engine) Compute(nowMs int64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var resultActive [venueSlots]bool
	var totalOI float64
	for i := 0; i < venueSlots; i++ {
		resultActive[i] = e.active[i] && nowMs-e.tsMs[i] < FreshMs
		if resultActive[i] {
			totalOI += e.oiUSD[i]
		}
	}

	r := Result{}
	if totalOI < MinOIUSD {
		for i := 0; i < venueSlots; i++ {
			if resultActive[i] {
				r.ByVenue = append(r.ByVenue, VenueResult{
					Venue: venue.Venue(i),
				})
			}
		}
		return r
	}

	r.TotalOIUSD = totalOI

	var n int
	for i := 0; i < venueSlots; i++ {
		if !resultActive[i] {
			continue
		}
		weight := e.oiUSD[i] / totalOI
		r.VWAF += e.rate[i] * weight
		r.ByVenue = append(r.ByVenue, VenueResult{
			Venue:  venue.Venue(i),
			Rate:   e.rate[i],
			OIUSD:  e.oiUSD[i],
			Weight: weight,
		})
		n++
	}

	r.Annualized = r.VWAF * 3 * 365

	var sqSum float64
	for i := 0; i < venueSlots; i++ {
		if !resultActive[i] {
			continue
		}
		dev := e.rate[i] - r.VWAF
		sqSum += dev * dev
	}
	if n > 0 {
		r.Divergence = math.Sqrt(sqSum / float64(n))
	}

	switch {
	case r.VWAF > 0.0005:
		r.Sentiment = 2
	case r.VWAF > 0.0002:
		r.Sentiment = 1
	case r.VWAF < -0.0005:
		r.Sentiment = -2
	case r.VWAF < -0.0002:
		r.Sentiment = -1
	default:
		r.Sentiment = 0
	}

	return r
}

// Clear drops every sample, marking all slots inactive without touching
// their stored values: a cheap active-flag reset rather than a full
// zeroing of the sample arrays.
func (e *Engine) Clear() {
	e.mu.Lock()
	for i := 0; i < venueSlots; i++ {
		e.active[i] = false
	}
	e.mu.Unlock()
}
