package server

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"terminuscore/internal/service"
	"terminuscore/internal/venue"
)

// simulator is a demo/ops stand-in for the per-venue socket adapters the
// core deliberately excludes: no venue subscription, no JSON parsing of
// venue payloads. It seeds every venue with a snapshot and then drives
// randomized deltas and funding samples through the same Service entry
// points a real adapter would call — it never reaches into
// orderbook.Aggregator or vwaf.Engine directly.
type simulator struct {
	svc *service.Service

	stopCh chan struct{}
	wg     sync.WaitGroup

	mid [venue.Count]float64
	seq [venue.Count]uint64
}

const basePrice = 65000.0

func newSimulator(svc *service.Service) *simulator {
	s := &simulator{svc: svc, stopCh: make(chan struct{})}
	for i := range s.mid {
		s.mid[i] = basePrice + rnd(-20, 20)
	}
	return s
}

func (s *simulator) start() {
	s.wg.Add(1)
	go s.run()
}

func (s *simulator) stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *simulator) run() {
	defer s.wg.Done()

	now := time.Now().UnixMilli()
	for _, v := range venue.All() {
		s.seq[v]++
		if err := s.svc.InitSnapshot(v.String(), s.seq[v], s.syntheticLevels(v, true), s.syntheticLevels(v, false), now); err != nil {
			logs.Warnf("simulator: seed %s: %v", v, err)
		}
		if err := s.svc.UpdateFunding(v.String(), rnd(-0.0006, 0.0006), rnd(2e8, 8e9), now); err != nil {
			logs.Warnf("simulator: seed funding %s: %v", v, err)
		}
	}
	logs.Infof("simulator: seeded %d venues", venue.Count)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

// tick perturbs one randomly chosen venue: a fresh mid-price walk and a
// small batch of bid/ask deltas around it, with an occasional funding
// update layered on top.
func (s *simulator) tick() {
	v := venue.All()[rand.Intn(int(venue.Count))]
	s.mid[v] += rnd(-3, 3)
	if s.mid[v] < 1 {
		s.mid[v] = basePrice
	}

	now := time.Now().UnixMilli()
	s.seq[v]++
	bids := s.syntheticLevels(v, true)
	asks := s.syntheticLevels(v, false)
	if err := s.svc.ApplyDelta(v.String(), s.seq[v], bids, asks, now); err != nil {
		logs.Warnf("simulator: delta %s: %v", v, err)
	}

	if rand.Intn(20) == 0 {
		if err := s.svc.UpdateFunding(v.String(), rnd(-0.0006, 0.0006), rnd(2e8, 8e9), now); err != nil {
			logs.Warnf("simulator: funding %s: %v", v, err)
		}
	}
}

// syntheticLevels produces a small ladder of levels straddling the
// venue's current mid-price, widening slightly across levels.
func (s *simulator) syntheticLevels(v venue.Venue, bid bool) []service.PriceQty {
	mid := s.mid[v]
	out := make([]service.PriceQty, 0, 10)
	for i := 1; i <= 10; i++ {
		step := float64(i) * rnd(0.5, 2.5)
		price := mid - step
		if !bid {
			price = mid + step
		}
		out = append(out, service.PriceQty{
			Price: price,
			Qty:   rnd(0.01, 4.0),
		})
	}
	return out
}

func rnd(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
