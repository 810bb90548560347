package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectWallsThresholdExactness(t *testing.T) {
	// total = 10 + 1*5 = 15; 10/15 ≈ 0.667 clears the 0.03 threshold,
	// each 1-qty level is 1/15 ≈ 0.0667 which also clears it.
	snap := &Snapshot{
		Bids: []Level{
			{PriceRaw: 10000, Qty: 10},
			{PriceRaw: 9999, Qty: 1},
			{PriceRaw: 9998, Qty: 1},
			{PriceRaw: 9997, Qty: 1},
			{PriceRaw: 9996, Qty: 1},
			{PriceRaw: 9995, Qty: 1},
		},
		BidCount: 6,
	}
	detectWalls(snap, 100)

	require.Equal(t, 6, snap.BidWallCount)
	assert.InDelta(t, 10.0/15.0, snap.BidWalls[0].PctOfDepth, 1e-9)
	assert.True(t, snap.BidWalls[0].IsBid)
	assert.InDelta(t, 100.0, snap.BidWalls[0].Price, 1e-9)
}

func TestDetectWallsZeroTotalEmitsNone(t *testing.T) {
	snap := &Snapshot{Bids: nil, BidCount: 0, Asks: nil, AskCount: 0}
	detectWalls(snap, 100)
	assert.Equal(t, 0, snap.BidWallCount)
	assert.Equal(t, 0, snap.AskWallCount)
}

func TestDetectWallsCappedAtEight(t *testing.T) {
	bids := make([]Level, 0, 20)
	for i := 0; i < 20; i++ {
		bids = append(bids, Level{PriceRaw: int64(1000 - i), Qty: 1})
	}
	snap := &Snapshot{Bids: bids, BidCount: len(bids)}
	detectWalls(snap, 100)
	assert.LessOrEqual(t, snap.BidWallCount, WallCap)
}

func TestDetectWallsBelowThresholdNotReported(t *testing.T) {
	snap := &Snapshot{
		Bids: []Level{
			{PriceRaw: 10000, Qty: 1000},
			{PriceRaw: 9999, Qty: 1}, // 1/1001 well under 3%
		},
		BidCount: 2,
	}
	detectWalls(snap, 100)
	require.Equal(t, 1, snap.BidWallCount)
	assert.EqualValues(t, 10000, int64(snap.BidWalls[0].Price*100+0.5))
}
