package sim

import (
	"math"

	"github.com/hddwater/bargesim/sim/kernel"
)

// consume draws one tick of demand from every crossing's storage, fullest
// barge first, and records any shortfall as deficit and downtime.
func (s *Simulator) consume() {
	date := s.cal.Date(s.now)
	for _, h := range s.hdds {
		phase := PhaseForDate(h, s.now)
		demand := s.cal.RateAt(s.cfg.Rigs, h, s.now) * dt
		if demand <= 0 {
			s.metrics.closeDry(h, s.now)
			continue
		}
		drawn := s.k.DrawStorage(h.Crossing, demand)
		s.metrics.recordConsumption(date, s.now, dt, h, phase, demand, drawn)
	}
}

// sourceOpen reports whether a source pumps at hour t.
func sourceOpen(src SourceConfig, t float64) bool {
	if src.HoursPerDay >= 24 {
		return true
	}
	hod := math.Mod(t, 24)
	end := src.OpenHour + src.HoursPerDay
	if end <= 24 {
		return hod >= src.OpenHour && hod < end
	}
	return hod >= src.OpenHour || hod < end-24
}

// fillSources pours one tick of each open source's flow into its fill queue,
// one barge at a time in request order, and charges the water.
func (s *Simulator) fillSources() {
	date := s.cal.Date(s.now)
	for _, id := range s.router.Sources() {
		src := s.cfg.Sources[id]
		if !sourceOpen(src, s.now) {
			continue
		}
		left := src.FlowRate * 60 * dt
		for left > waterEpsilon {
			b := s.k.Filling(id)
			if b == nil {
				if b = s.k.StartFill(id); b == nil {
					break
				}
				s.logBarge(b, "filling at "+id)
			}
			added, done := s.k.AddFill(id, left)
			left -= added
			s.metrics.recordFilled(date, added)
			s.metrics.Costs.Water += added * s.cfg.Cost.WaterAcquisition[id]
			if done != nil {
				s.logBarge(done, "full at "+id)
				continue
			}
			if added <= 0 {
				break
			}
		}
	}
}

// filledWater is the water in full transport barges pooled at source.
func (s *Simulator) filledWater(source string) float64 {
	total := 0.0
	for _, size := range []kernel.Size{kernel.Large, kernel.Small} {
		for _, b := range s.k.FreeBargesAtSource(source, size, kernel.RoleTransport) {
			if b.IsFull() {
				total += b.Fill()
			}
		}
	}
	return total
}
