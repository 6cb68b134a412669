package sim

import (
	"fmt"
	"sort"
)

// shouldThrottle reports whether a tug leaving crossing with water should stay
// and meter it into storage instead of running back. It needs a drawing rig,
// enough water, little headroom, no other crossing short of supply, and enough
// unthrottled tugs left to cover the safety floor.
func (s *Simulator) shouldThrottle(t *Tug, crossing string, water float64) bool {
	h := s.byName[crossing]
	if !PhaseForDate(h, s.now).Consumes() || water <= s.cfg.Throttle.EntryWater {
		return false
	}
	level, capacity := s.k.Storage(crossing)
	if capacity-level >= s.cfg.Throttle.EntryHeadroom {
		return false
	}
	if s.otherUrgent(crossing) != nil {
		return false
	}
	available := 0
	for _, o := range s.tugs {
		if _, throttled := o.State.(ThrottledStandby); o.Active() && !throttled {
			available++
		}
	}
	floor := s.cfg.Throttle.SafetyFloor
	if len(s.consumingHDDs()) <= 1 {
		floor = 1
	}
	return available-1 >= floor
}

// otherUrgent is the consuming crossing other than except with the least
// supply, if it is under UrgentSupplyHours.
func (s *Simulator) otherUrgent(except string) *HDD {
	type urgent struct {
		h      *HDD
		supply float64
	}
	var list []urgent
	for _, h := range s.consumingHDDs() {
		if h.Crossing == except {
			continue
		}
		if supply := s.supplyHours(h, 0); supply < s.cfg.Throttle.UrgentSupplyHours {
			list = append(list, urgent{h, supply})
		}
	}
	if len(list) == 0 {
		return nil
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].supply < list[j].supply })
	return list[0].h
}

// workThrottled re-evaluates a throttled tug every CheckInterval: it breaks
// out to an urgent crossing, goes home when nearly empty or when the phase
// ends, and otherwise pumps IncrementHours of the current draw. The pump
// connection is shared with delivering tugs, so while another tug holds it the
// increment waits for the next tick.
func (s *Simulator) workThrottled(t *Tug, st ThrottledStandby) {
	if s.now < st.NextCheck {
		return
	}
	c := st.Crossing
	h := s.byName[c]
	water := s.k.TugWater(t.ID)
	if water < s.cfg.Throttle.WaterLow {
		s.returnToSource(t, c, "throttle: water low")
		return
	}
	if !PhaseForDate(h, s.now).Consumes() {
		s.release(t, c, water)
		return
	}
	if water > s.cfg.Throttle.BreakoutWater {
		if u := s.otherUrgent(c); u != nil {
			if _, ok := s.router.LoadedHours(c, u.Crossing, s.loadSize(t)); ok {
				s.startDirect(t, c, u, water, "throttle breakout to "+u.Crossing)
				return
			}
		}
	}
	if holder := s.pumpSlot[c]; holder != "" && holder != t.ID {
		return
	}
	level, capacity := s.k.Storage(c)
	inc := min(s.cfg.Throttle.IncrementHours*s.cal.RateAt(s.cfg.Rigs, h, s.now), capacity-level, water)
	st.NextCheck = s.now + s.cfg.Throttle.CheckInterval
	t.State = st
	if inc <= 0 {
		return
	}
	moved := s.k.TransferToStorage(t.ID, c, inc)
	s.metrics.recordInjected(s.cal.Date(s.now), c, moved)
	s.logTug(t, fmt.Sprintf("throttled pump %.0f gal", moved), moved)
}
