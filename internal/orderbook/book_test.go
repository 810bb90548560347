package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueBookApplyDeltaBeforeInitIsDropped(t *testing.T) {
	b := newVenueBook()
	b.applyDelta(1, []Level{{PriceRaw: 100, Qty: 1}}, nil, 1000)
	assert.True(t, b.bids.empty())
	assert.False(t, b.initialized)
}

func TestVenueBookStaleSequenceDropped(t *testing.T) {
	b := newVenueBook()
	b.applySnapshot(100, []Level{{PriceRaw: 100, Qty: 1}}, nil, 0)
	require.EqualValues(t, 100, b.lastUpdateID)

	b.applyDelta(100, []Level{{PriceRaw: 110, Qty: 5}}, nil, 10)
	assert.EqualValues(t, 100, b.lastUpdateID)
	assert.Equal(t, 1, b.bids.size())
}

func TestVenueBookApplyDeltaAdvancesSequence(t *testing.T) {
	b := newVenueBook()
	b.applySnapshot(100, []Level{{PriceRaw: 100, Qty: 1}}, nil, 0)
	b.applyDelta(101, []Level{{PriceRaw: 110, Qty: 5}}, nil, 10)
	assert.EqualValues(t, 101, b.lastUpdateID)
	assert.Equal(t, 2, b.bids.size())
}

func TestVenueBookIsStale(t *testing.T) {
	b := newVenueBook()
	b.applySnapshot(1, []Level{{PriceRaw: 100, Qty: 1}}, nil, 0)
	assert.False(t, b.isStale(StaleMS))
	assert.True(t, b.isStale(StaleMS + 1))
}

func TestVenueBookUninitializedNeverStale(t *testing.T) {
	b := newVenueBook()
	assert.False(t, b.isStale(1_000_000))
}

func TestVenueBookReset(t *testing.T) {
	b := newVenueBook()
	b.applySnapshot(1, []Level{{PriceRaw: 100, Qty: 1}}, nil, 0)
	b.reset()
	assert.False(t, b.initialized)
	assert.True(t, b.bids.empty())
	assert.EqualValues(t, 0, b.lastUpdateID)
}
