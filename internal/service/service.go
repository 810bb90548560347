// Package service is the binding layer: a thin, validating façade over
// internal/orderbook and internal/vwaf that exposes the system's six
// external entry points by string venue tag instead of slot index. It
// owns no lock of its own — every method either validates and returns, or
// delegates straight into exactly one of Aggregator's or Engine's already
// locked operations.
package service

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"terminuscore/internal/orderbook"
	"terminuscore/internal/venue"
	"terminuscore/internal/vwaf"
)

// PriceQty is one (price, qty) pair as received at the boundary, in
// native floating units — the binding layer converts to orderbook.Level's
// scaled-integer representation before touching any state.
type PriceQty struct {
	Price float64
	Qty   float64
}

// Service composes one Aggregator and one VWAF engine behind the six
// entry points the system exposes externally. It's safe for concurrent use; all
// synchronization lives in the components it wraps.
type Service struct {
	agg  *orderbook.Aggregator
	vwaf *vwaf.Engine
}

// New constructs a Service. priceScale is forwarded to the aggregator
// unchanged (0 selects orderbook.DefaultPriceScale).
func New(priceScale int64) *Service {
	return &Service{
		agg:  orderbook.NewAggregator(priceScale),
		vwaf: vwaf.NewEngine(),
	}
}

// InitSnapshot parses tag, scales every level, and installs it as venue's
// full snapshot. Invalid tags, non-finite values or negative prices are
// rejected with ErrInvalidArgument before any state is touched.
func (s *Service) InitSnapshot(tag string, updateID uint64, bids, asks []PriceQty, nowMs int64) error {
	v, err := venue.Parse(tag)
	if err != nil {
		logs.Warnf("service: init_snapshot rejected tag %q: %v", tag, err)
		return invalidArgf("init_snapshot: bad venue tag %q", tag)
	}
	bidLevels, err := s.scale(bids)
	if err != nil {
		logs.Warnf("service: init_snapshot %s rejected bids: %v", tag, err)
		return invalidArgf("init_snapshot: bad bid levels")
	}
	askLevels, err := s.scale(asks)
	if err != nil {
		logs.Warnf("service: init_snapshot %s rejected asks: %v", tag, err)
		return invalidArgf("init_snapshot: bad ask levels")
	}
	s.agg.InitSnapshot(v, updateID, bidLevels, askLevels, nowMs)
	return nil
}

// ApplyDelta parses tag, scales every level, and applies it as an
// incremental update to venue.
func (s *Service) ApplyDelta(tag string, updateID uint64, bids, asks []PriceQty, nowMs int64) error {
	v, err := venue.Parse(tag)
	if err != nil {
		logs.Warnf("service: apply_delta rejected tag %q: %v", tag, err)
		return invalidArgf("apply_delta: bad venue tag %q", tag)
	}
	bidLevels, err := s.scale(bids)
	if err != nil {
		logs.Warnf("service: apply_delta %s rejected bids: %v", tag, err)
		return invalidArgf("apply_delta: bad bid levels")
	}
	askLevels, err := s.scale(asks)
	if err != nil {
		logs.Warnf("service: apply_delta %s rejected asks: %v", tag, err)
		return invalidArgf("apply_delta: bad ask levels")
	}
	s.agg.ApplyDelta(v, updateID, bidLevels, askLevels, nowMs)
	return nil
}

// ClearVenue parses tag and resets that venue's book.
func (s *Service) ClearVenue(tag string) error {
	v, err := venue.Parse(tag)
	if err != nil {
		logs.Warnf("service: clear_venue rejected tag %q: %v", tag, err)
		return invalidArgf("clear_venue: bad venue tag %q", tag)
	}
	logs.Infof("service: clearing venue %s", tag)
	s.agg.ClearVenue(v)
	return nil
}

// GetAggregated returns a fresh cross-venue snapshot, defaulting and
// clamping levels the same way orderbook.Aggregator.GetAggregated does.
func (s *Service) GetAggregated(levels int, nowMs int64) orderbook.Snapshot {
	return s.agg.GetAggregated(levels, nowMs)
}

// Health passes through the aggregator's dirty hint and last-write
// timestamp for the process liveness endpoint.
func (s *Service) Health() (dirty bool, lastWriteMs int64) {
	return s.agg.Health()
}

// UpdateFunding parses tag and stores a funding-rate sample.
func (s *Service) UpdateFunding(tag string, rate, oiUSD float64, tsMs int64) error {
	v, err := venue.Parse(tag)
	if err != nil {
		logs.Warnf("service: update_funding rejected tag %q: %v", tag, err)
		return invalidArgf("update_funding: bad venue tag %q", tag)
	}
	if !isFinite(rate) || !isFinite(oiUSD) {
		logs.Warnf("service: update_funding %s rejected non-finite sample", tag)
		return invalidArgf("update_funding: non-finite rate or oi_usd")
	}
	s.vwaf.UpdateFunding(v, rate, oiUSD, tsMs)
	return nil
}

// VWAFView is vwaf.Result enriched with output-side fields on top of the
// raw compute result: a string sentiment label and each contributing
// venue's string tag.
type VWAFView struct {
	VWAF          float64          `json:"vwaf"`
	Annualized    float64          `json:"annualized"`
	Divergence    float64          `json:"divergence"`
	TotalOIUSD    float64          `json:"total_oi_usd"`
	Sentiment     int              `json:"sentiment"`
	SentimentName string           `json:"sentiment_label"`
	ByVenue       []VWAFVenueView  `json:"by_venue"`
}

// VWAFVenueView is one contributing venue's entry in VWAFView.ByVenue.
type VWAFVenueView struct {
	Venue  string  `json:"venue"`
	Rate   float64 `json:"rate"`
	OIUSD  float64 `json:"oi_usd"`
	Weight float64 `json:"weight"`
}

// GetVWAF computes the current VWAF result and attaches a string
// sentiment label and venue tags for each contributing venue.
func (s *Service) GetVWAF(nowMs int64) VWAFView {
	r := s.vwaf.Compute(nowMs)
	view := VWAFView{
		VWAF:          r.VWAF,
		Annualized:    r.Annualized,
		Divergence:    r.Divergence,
		TotalOIUSD:    r.TotalOIUSD,
		Sentiment:     r.Sentiment,
		SentimentName: vwaf.SentimentLabel(r.Sentiment),
	}
	for _, bv := range r.ByVenue {
		view.ByVenue = append(view.ByVenue, VWAFVenueView{
			Venue:  bv.Venue.String(),
			Rate:   bv.Rate,
			OIUSD:  bv.OIUSD,
			Weight: bv.Weight,
		})
	}
	return view
}

// scale converts a batch of floating (price, qty) pairs to orderbook
// Levels, rejecting the whole batch on the first non-finite quantity or
// non-finite/negative price so no partial state is ever installed. A
// negative or zero-magnitude quantity is not an error here — it's the
// caller's way of saying "remove this level," and flows through to
// ladder.applyDelta/applySnapshot to be treated as a drop.
func (s *Service) scale(pairs []PriceQty) ([]orderbook.Level, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	scale := s.agg.PriceScale()
	scaleDec := decimal.NewFromInt(scale)
	out := make([]orderbook.Level, len(pairs))
	for i, p := range pairs {
		if !isFinite(p.Price) || !isFinite(p.Qty) || p.Price < 0 {
			return nil, ErrInvalidArgument
		}
		out[i] = orderbook.Level{
			PriceRaw: decimal.NewFromFloat(p.Price).Mul(scaleDec).Round(0).IntPart(),
			Qty:      p.Qty,
		}
	}
	return out, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
