package sim

import (
	"fmt"

	"github.com/hddwater/bargesim/sim/kernel"
)

// processArrivals completes every leg whose arrival time has passed.
func (s *Simulator) processArrivals() {
	for _, t := range s.tugs {
		switch st := t.State.(type) {
		case EnRouteLoaded:
			if s.now >= st.Arrival {
				s.arriveAtRig(t, st.Crossing, "arrived loaded")
			}
		case DirectDelivery:
			if s.now >= st.Arrival {
				s.arriveAtRig(t, st.Crossing, "arrived direct from "+st.From)
			}
		case EnRouteEmpty:
			if s.now >= st.Arrival {
				s.arriveSource(t, st)
			}
		case EnRouteStorage:
			if s.now >= st.Arrival {
				s.arriveStorage(t, st)
			}
		case EnRoutePickup:
			if s.now >= st.Arrival {
				s.arrivePickup(t, st)
			}
		case Idle, ArrivedAtRig, AtRig, ThrottledStandby, Demobilized:
		}
	}
}

// arriveAtRig queues a loaded tug for the crossing's single pump connection.
func (s *Simulator) arriveAtRig(t *Tug, crossing, detail string) {
	for _, b := range s.k.AttachedBarges(t.ID) {
		_ = s.k.SetStatus(b.ID(), kernel.StatusAtRig)
	}
	s.rigQueue[crossing] = append(s.rigQueue[crossing], t.ID)
	s.setState(t, ArrivedAtRig{Crossing: crossing, Since: s.now}, crossing, detail)
}

// processRigs admits queued tugs to free pump connections in arrival order,
// then advances every tug through hookup, pumping and disconnect, and runs
// the throttled-standby checks.
func (s *Simulator) processRigs() {
	for _, h := range s.hdds {
		c := h.Crossing
		if s.pumpSlot[c] != "" || len(s.rigQueue[c]) == 0 {
			continue
		}
		t := s.tugByID(s.rigQueue[c][0])
		s.rigQueue[c] = s.rigQueue[c][1:]
		target := s.k.TugWater(t.ID)
		if stop, ok := t.CurrentStop(); ok && stop.Volume > 0 {
			target = min(target, stop.Volume)
		}
		s.pumpSlot[c] = t.ID
		s.setState(t, AtRig{Crossing: c, Phase: Hookup, Until: s.now + s.cfg.HookupTime, Target: target}, c,
			fmt.Sprintf("hookup, waited %.2fh", s.now-arrivedSince(t)))
	}
	for _, t := range s.tugs {
		switch st := t.State.(type) {
		case AtRig:
			s.workAtRig(t, st)
		case ThrottledStandby:
			s.workThrottled(t, st)
		case Idle, EnRouteLoaded, ArrivedAtRig, EnRouteEmpty, EnRouteStorage, DirectDelivery, EnRoutePickup, Demobilized:
		}
	}
}

func arrivedSince(t *Tug) float64 {
	if st, ok := t.State.(ArrivedAtRig); ok {
		return st.Since
	}
	return 0
}

func (s *Simulator) workAtRig(t *Tug, st AtRig) {
	switch st.Phase {
	case Hookup:
		if s.now < st.Until {
			return
		}
		for _, b := range s.k.AttachedBarges(t.ID) {
			_ = s.k.SetStatus(b.ID(), kernel.StatusDraining)
		}
		st.Phase = Pumping
		s.setState(t, st, st.Crossing, fmt.Sprintf("pumping %.0f gal planned", st.Target))
	case Pumping:
		want := min(s.cfg.PumpRate*60*dt, st.Target-st.Pumped)
		moved := s.k.TransferToStorage(t.ID, st.Crossing, want)
		st.Pumped += moved
		s.metrics.recordInjected(s.cal.Date(s.now), st.Crossing, moved)
		done := st.Target-st.Pumped <= waterEpsilon ||
			s.k.TugWater(t.ID) <= waterEpsilon ||
			moved < want-waterEpsilon
		if !done {
			t.State = st
			return
		}
		st.Phase = Disconnect
		st.Until = s.now + s.cfg.HookupTime
		t.State = st
		s.logTug(t, fmt.Sprintf("pumped %.0f gal into %s", st.Pumped, st.Crossing), st.Pumped)
	case Disconnect:
		if s.now < st.Until {
			return
		}
		delete(s.pumpSlot, st.Crossing)
		s.leaveStop(t, st.Crossing)
	}
}

// leaveStop decides what a tug does after disconnecting: the next planned
// stop, a direct reroute, throttled standby, or the run back to a source.
func (s *Simulator) leaveStop(t *Tug, crossing string) {
	t.StopIdx++
	water := s.k.TugWater(t.ID)
	if stop, ok := t.CurrentStop(); ok && water > waterEpsilon {
		if hours, ok := s.router.LoadedHours(crossing, stop.Crossing, s.loadSize(t)); ok {
			for _, b := range s.k.AttachedBarges(t.ID) {
				_ = s.k.SetStatus(b.ID(), kernel.StatusEnRouteLoaded)
			}
			s.setState(t, DirectDelivery{Arrival: s.now + hours, From: crossing, Crossing: stop.Crossing}, "",
				fmt.Sprintf("next stop %s with %.0f gal", stop.Crossing, water))
			return
		}
	}
	s.release(t, crossing, water)
}

// release sends a tug with no planned stop left onward from crossing.
func (s *Simulator) release(t *Tug, crossing string, water float64) {
	if water >= s.cfg.Reroute.MinWater {
		if c, ok := s.bestReroute(t, crossing, water); ok {
			s.startDirect(t, crossing, c.hdd, water,
				fmt.Sprintf("reroute score %.1f, saves %.1fh", c.score, c.timeSaved))
			return
		}
	}
	if s.shouldThrottle(t, crossing, water) {
		for _, b := range s.k.AttachedBarges(t.ID) {
			_ = s.k.SetStatus(b.ID(), kernel.StatusAtRig)
		}
		s.setState(t, ThrottledStandby{Crossing: crossing, NextCheck: s.now + s.cfg.Throttle.CheckInterval}, crossing,
			fmt.Sprintf("throttled with %.0f gal", water))
		return
	}
	s.returnToSource(t, crossing, "delivery complete")
}

// startDirect sends a tug with water straight from one crossing to another.
func (s *Simulator) startDirect(t *Tug, from string, to *HDD, water float64, detail string) {
	hours, _ := s.router.LoadedHours(from, to.Crossing, s.loadSize(t))
	for _, b := range s.k.AttachedBarges(t.ID) {
		_ = s.k.SetStatus(b.ID(), kernel.StatusEnRouteLoaded)
	}
	t.Plan, t.StopIdx = []Stop{{Rig: to.Rig, Crossing: to.Crossing, Volume: water}}, 0
	s.setState(t, DirectDelivery{Arrival: s.now + hours, From: from, Crossing: to.Crossing}, "", detail)
}

// loadSize is the slowest towing class among the attached barges.
func (s *Simulator) loadSize(t *Tug) kernel.Size {
	for _, b := range s.k.AttachedBarges(t.ID) {
		if b.Size() == kernel.Large {
			return kernel.Large
		}
	}
	return kernel.Small
}
