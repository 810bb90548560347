package vwaf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminuscore/internal/venue"
)

func TestComputeWeightedAverageAndSentiment(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.0004, 2e6, 0)
	e.UpdateFunding(venue.Bybit, -0.0002, 1e6, 0)

	r := e.Compute(0)

	assert.InDelta(t, 0.0002, r.VWAF, 1e-9)
	assert.Equal(t, 0, r.Sentiment)
	assert.InDelta(t, 0.0002*3*365, r.Annualized, 1e-9)
	assert.InDelta(t, 3.16e-4, r.Divergence, 1e-6)
	assert.InDelta(t, 3e6, r.TotalOIUSD, 1e-9)
}

func TestComputeLowOIGating(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.001, 500_000, 0)

	r := e.Compute(0)

	assert.Equal(t, 0.0, r.VWAF)
	assert.Equal(t, 0, r.Sentiment)
	assert.Equal(t, 0.0, r.TotalOIUSD)
	require.Len(t, r.ByVenue, 1)
	assert.Equal(t, 0.0, r.ByVenue[0].Weight)
}

func TestComputeNoSamplesIsZeroed(t *testing.T) {
	e := NewEngine()
	r := e.Compute(0)
	assert.Equal(t, 0.0, r.VWAF)
	assert.Equal(t, 0, r.Sentiment)
	assert.Empty(t, r.ByVenue)
}

func TestComputeExcludesStaleSamples(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.001, 5e6, 0)
	r := e.Compute(FreshMs + 1)
	assert.Empty(t, r.ByVenue)
	assert.Equal(t, 0.0, r.TotalOIUSD)
}

func TestComputeSentimentBuckets(t *testing.T) {
	cases := []struct {
		rate float64
		want int
	}{
		{0.0006, 2},
		{0.0003, 1},
		{0.0001, 0},
		{-0.0003, -1},
		{-0.0006, -2},
	}
	for _, c := range cases {
		e := NewEngine()
		e.UpdateFunding(venue.Binance, c.rate, 5e6, 0)
		r := e.Compute(0)
		assert.Equal(t, c.want, r.Sentiment, "rate=%v", c.rate)
	}
}

func TestComputeConvexity(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.0001, 3e6, 0)
	e.UpdateFunding(venue.Bybit, 0.0005, 7e6, 0)
	e.UpdateFunding(venue.OKX, -0.0003, 1e6, 0)

	r := e.Compute(0)
	assert.GreaterOrEqual(t, r.VWAF, -0.0003)
	assert.LessOrEqual(t, r.VWAF, 0.0005)
}

func TestComputeDivergenceNonNegativeAndZeroWhenEqual(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.0003, 3e6, 0)
	e.UpdateFunding(venue.Bybit, 0.0003, 7e6, 0)
	r := e.Compute(0)
	assert.GreaterOrEqual(t, r.Divergence, 0.0)
	assert.InDelta(t, 0.0, r.Divergence, 1e-12)
}

func TestClearMarksAllInactive(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.0003, 3e6, 0)
	e.Clear()
	r := e.Compute(0)
	assert.Empty(t, r.ByVenue)
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "extremely_short", SentimentLabel(-2))
	assert.Equal(t, "short_heavy", SentimentLabel(-1))
	assert.Equal(t, "neutral", SentimentLabel(0))
	assert.Equal(t, "long_heavy", SentimentLabel(1))
	assert.Equal(t, "extremely_long", SentimentLabel(2))
	assert.Equal(t, "extremely_short", SentimentLabel(-5))
	assert.Equal(t, "extremely_long", SentimentLabel(5))
}

func TestByVenueOrderIsSlotOrder(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Bitget, 0.0001, 2e6, 0)
	e.UpdateFunding(venue.Binance, 0.0002, 2e6, 0)

	r := e.Compute(0)
	require.Len(t, r.ByVenue, 2)
	assert.Equal(t, venue.Binance, r.ByVenue[0].Venue)
	assert.Equal(t, venue.Bitget, r.ByVenue[1].Venue)
}

func TestComputeIsRaceFreeUnderConcurrentUpdates(t *testing.T) {
	e := NewEngine()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			e.UpdateFunding(venue.Binance, float64(i)*1e-5, 2e6, int64(i))
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = e.Compute(int64(i))
	}
	<-done
}

func TestDivergenceFormulaMatchesManualComputation(t *testing.T) {
	e := NewEngine()
	e.UpdateFunding(venue.Binance, 0.0004, 2e6, 0)
	e.UpdateFunding(venue.Bybit, -0.0002, 1e6, 0)
	r := e.Compute(0)

	vwaf := 0.0004*(2.0/3.0) + (-0.0002)*(1.0/3.0)
	dev1 := 0.0004 - vwaf
	dev2 := -0.0002 - vwaf
	want := math.Sqrt((dev1*dev1 + dev2*dev2) / 2)
	assert.InDelta(t, want, r.Divergence, 1e-12)
}
