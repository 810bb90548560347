package orderbook

// detectWalls runs in place over a fully populated snapshot, finding
// levels whose share of their side's total quantity is at least
// WallThresholdPct: same threshold, same walk-and-cap loop, same "skip a
// side with zero total" rule a native implementation would use.
func detectWalls(snap *Snapshot, priceScale int64) {
	var totalBid, totalAsk float64
	for _, l := range snap.Bids[:snap.BidCount] {
		totalBid += l.Qty
	}
	for _, l := range snap.Asks[:snap.AskCount] {
		totalAsk += l.Qty
	}

	if totalBid > 0 {
		for _, l := range snap.Bids[:snap.BidCount] {
			if snap.BidWallCount >= WallCap {
				break
			}
			pct := l.Qty / totalBid
			if pct >= WallThresholdPct {
				snap.BidWalls = append(snap.BidWalls, Wall{
					Price:      l.PriceF(priceScale),
					Qty:        l.Qty,
					PctOfDepth: pct,
					IsBid:      true,
				})
				snap.BidWallCount++
			}
		}
	}

	if totalAsk > 0 {
		for _, l := range snap.Asks[:snap.AskCount] {
			if snap.AskWallCount >= WallCap {
				break
			}
			pct := l.Qty / totalAsk
			if pct >= WallThresholdPct {
				snap.AskWalls = append(snap.AskWalls, Wall{
					Price:      l.PriceF(priceScale),
					Qty:        l.Qty,
					PctOfDepth: pct,
					IsBid:      false,
				})
				snap.AskWallCount++
			}
		}
	}
}
