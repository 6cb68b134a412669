package sim

// rerouteCandidate is a crossing a partly unloaded tug could serve directly.
type rerouteCandidate struct {
	hdd       *HDD
	score     float64
	timeSaved float64
	headroom  float64
	supply    float64
}

// bestReroute scores every other consuming crossing within MaxDistanceNM of
// from. The score is ten points per hour saved against returning to the
// nearest source and redelivering, an urgency bonus (50 under four hours of
// supply, 20 under eight), and up to 20 points for the share of the tug's
// water the candidate can absorb. It reports false when no candidate reaches
// MinScore with a positive time saving.
func (s *Simulator) bestReroute(t *Tug, from string, water float64) (rerouteCandidate, bool) {
	size := s.loadSize(t)
	src, back, ok := s.router.NearestSource(from)
	if !ok || water <= 0 {
		return rerouteCandidate{}, false
	}
	var best rerouteCandidate
	found := false
	for _, h := range s.consumingHDDs() {
		if h.Crossing == from {
			continue
		}
		nm, ok := s.router.Distance(from, h.Crossing)
		if !ok || nm > s.cfg.Reroute.MaxDistanceNM {
			continue
		}
		level, capacity := s.k.Storage(h.Crossing)
		headroom := capacity - level - s.enRoute(h.Crossing)
		if headroom <= 0 {
			continue
		}
		direct, _ := s.router.LoadedHours(from, h.Crossing, size)
		redeliver, ok := s.router.LoadedHours(src, h.Crossing, size)
		if !ok {
			continue
		}
		saved := back + s.cfg.SwitchoutTime + redeliver - direct
		supply := s.supplyHours(h, 0)
		bonus := 0.0
		switch {
		case supply < 4:
			bonus = 50
		case supply < 8:
			bonus = 20
		}
		c := rerouteCandidate{
			hdd:       h,
			score:     10*saved + bonus + 20*min(1, headroom/water),
			timeSaved: saved,
			headroom:  headroom,
			supply:    supply,
		}
		if !found || c.score > best.score {
			best, found = c, true
		}
	}
	if !found || best.score < s.cfg.Reroute.MinScore || best.timeSaved <= 0 {
		return rerouteCandidate{}, false
	}
	return best, true
}
