// Package orderbook implements the price-ladder, venue-book and
// cross-venue aggregation core: one ordered price ladder per side per
// venue, merged on demand into a cross-venue best-bid/offer, spread and
// wall view.
//
// Nothing in this package performs I/O, parses venue payloads, or
// schedules its own work. Every operation is synchronous and expected to
// run in microseconds; callers (the binding layer, a broadcast timer)
// drive it.
package orderbook

import "terminuscore/internal/venue"

// Configuration constants. Most are compile-time constants; PriceScale is
// properly per-instrument and is instead a field on Aggregator.
const (
	DefaultPriceScale int64   = 100
	MaxLevels         int     = 1000
	OutputLevels      int     = 50
	QtyEpsilon        float64 = 1e-12
	StaleMS           int64   = 5000
	WallThresholdPct  float64 = 0.03
	WallCap           int     = 8
)

// Level is a single (price, quantity) pair. Price is carried pre-scaled
// to an integer (price_raw); Qty is the native float64 quantity. Levels
// with Qty <= QtyEpsilon never appear in a ladder or in aggregated output.
type Level struct {
	PriceRaw int64   `json:"price_raw"`
	Qty      float64 `json:"qty"`
}

// PriceF converts a scaled integer price back to floating units using the
// given scale. Output boundaries are the only place this conversion
// happens; all internal comparisons stay on PriceRaw.
func (l Level) PriceF(scale int64) float64 {
	return float64(l.PriceRaw) / float64(scale)
}

// Wall records one outsized price level found during wall detection.
type Wall struct {
	Price      float64 `json:"price"`
	Qty        float64 `json:"qty"`
	PctOfDepth float64 `json:"pct_of_depth"`
	IsBid      bool    `json:"is_bid"`
}

// Snapshot is the aggregated, point-in-time cross-venue view returned by
// Aggregator.GetAggregated.
type Snapshot struct {
	TimestampMs int64 `json:"timestamp_ms"`

	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
	BidCount int     `json:"bid_count"`
	AskCount int     `json:"ask_count"`

	BidWalls     []Wall `json:"bid_walls"`
	AskWalls     []Wall `json:"ask_walls"`
	BidWallCount int    `json:"bid_wall_count"`
	AskWallCount int    `json:"ask_wall_count"`

	BestBid  float64 `json:"best_bid"`
	BestAsk  float64 `json:"best_ask"`
	Spread   float64 `json:"spread"`
	MidPrice float64 `json:"mid_price"`
}

// venueSlots is just venue.Count, aliased locally so this package doesn't
// need to import venue everywhere it sizes an array.
const venueSlots = int(venue.Count)
