package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/hddwater/bargesim/sim/kernel"
	"github.com/hddwater/bargesim/sim/trace"
)

// Dispatch triggers.
const (
	TriggerContinuous = "continuous"
	TriggerReactive   = "reactive"
	TriggerProactive  = "proactive"
)

// dispatchNeed is one crossing's unmet need this tick.
type dispatchNeed struct {
	hdd     *HDD
	trigger string
	urgency float64
	need    float64
	supply  float64
}

// scheduleHint summarises the pending transport intents of a crossing.
type scheduleHint struct {
	arrivingSoon bool
	overdue      bool
}

// dispatch repeatedly serves the most urgent unmet need with the cheapest
// source holding both an idle tug and filled barges, up to
// MaxDispatchesPerTick times. Water already sent this tick counts as en route,
// so later iterations see it and never commit it twice.
func (s *Simulator) dispatch() {
	hints := s.scheduleHints()
	for range s.cfg.Planning.MaxDispatchesPerTick {
		sent := false
		for _, n := range s.dispatchNeeds(hints) {
			if s.dispatchTo(n) {
				sent = true
				break
			}
		}
		if !sent {
			return
		}
	}
}

func (s *Simulator) scheduleHints() map[string]scheduleHint {
	hints := make(map[string]scheduleHint)
	for _, in := range s.intents.Pending() {
		if in.Kind != IntentTransport || in.Status != IntentPending {
			continue
		}
		h := hints[in.HDD]
		if in.Arrival >= s.now && in.Arrival <= s.now+4 {
			h.arrivingSoon = true
		}
		if in.Dispatch < s.now {
			h.overdue = true
		}
		hints[in.HDD] = h
	}
	return hints
}

// dispatchNeeds evaluates every consuming crossing and returns the candidates
// by descending urgency. Each applicable trigger proposes an urgency and the
// highest one wins: continuous-ops top-off below 95% full (200-300),
// reactive when supply is shorter than the delivery lead time (400-600), and
// proactive when the level projected at the next drilling start falls short
// of a day's demand (300-450).
func (s *Simulator) dispatchNeeds(hints map[string]scheduleHint) []dispatchNeed {
	var needs []dispatchNeed
	for _, h := range s.consumingHDDs() {
		level, capacity := s.k.Storage(h.Crossing)
		if capacity <= 0 {
			continue
		}
		have := level + s.enRoute(h.Crossing)
		need := capacity - have
		if need < s.minDispatch() {
			continue
		}
		n := dispatchNeed{hdd: h, need: need, supply: s.supplyHours(h, 0)}
		propose := func(trigger string, u float64) {
			if u > n.urgency {
				n.urgency, n.trigger = u, trigger
			}
		}
		if s.cfg.ContinuousOps {
			if frac := have / capacity; frac < 0.95 {
				propose(TriggerContinuous, 200+100*(1-frac))
			}
		}
		if lead := s.leadHours(h); n.supply < lead {
			propose(TriggerReactive, 400+200*min(1, max(0, 1-n.supply/lead)))
		}
		if target, deficit := s.morningDeficit(h, have, capacity); deficit > 0 {
			propose(TriggerProactive, 300+150*min(1, deficit/target))
		}
		if n.trigger == "" {
			continue
		}
		if !s.cal.DrillingHour(s.now) {
			n.urgency += 25
		}
		if hint := hints[h.Crossing]; hint.arrivingSoon {
			n.urgency -= 100
		} else if hint.overdue {
			n.urgency += 50
		}
		needs = append(needs, n)
	}
	sort.SliceStable(needs, func(i, j int) bool { return needs[i].urgency > needs[j].urgency })
	return needs
}

// leadHours is the time from dispatch to the first pumped gallon plus the
// pumping of one tug load, from the best source.
func (s *Simulator) leadHours(h *HDD) float64 {
	load := tugLoad(s.cfg, kernel.Small)
	src, _, ok := s.router.BestSource(h.Crossing, load, kernel.Small)
	if !ok {
		return 0
	}
	travel, _ := s.router.LoadedHours(src, h.Crossing, kernel.Small)
	return s.cfg.SwitchoutTime + travel + s.cfg.HookupTime + s.router.PumpHours(load)
}

// nextMorning is the start of the next drilling window after the current one.
func (s *Simulator) nextMorning() float64 {
	if s.cal.Continuous {
		return s.now + 24
	}
	if s.cal.DrillingHour(s.now) {
		return s.cal.NextDrillingStart(math.Floor(s.now/24)*24 + 24)
	}
	return s.cal.NextDrillingStart(s.now)
}

// morningDeficit projects have forward to the next drilling start and returns
// the day's target and how far below it the projection falls.
func (s *Simulator) morningDeficit(h *HDD, have, capacity float64) (target, deficit float64) {
	start := s.nextMorning()
	projected := have
	for t := s.now; t < start; t++ {
		projected -= s.cal.RateAt(s.cfg.Rigs, h, t) * min(1, start-t)
	}
	target = min(capacity, s.cal.DailyDemand(s.cfg.Rigs, h.Rig, PhaseForDate(h, start)))
	if target <= 0 {
		return 0, 0
	}
	return target, target - projected
}

type sourceOption struct {
	source string
	cost   float64
	tug    *Tug
	barges []*kernel.Barge
}

// dispatchTo serves one need from the cheapest viable source. When no source
// holds both a tug and filled barges it mobilizes a tug reactively if none is
// idle anywhere, or repositions an idle tug to the cheapest source with
// filled barges.
func (s *Simulator) dispatchTo(n dispatchNeed) bool {
	c := n.hdd.Crossing
	var opts []sourceOption
	for _, src := range s.router.Sources() {
		barges := s.chooseBarges(src, n.need)
		size, gal := kernel.Small, min(n.need, tugLoad(s.cfg, kernel.Small))
		if len(barges) > 0 {
			size, gal = barges[0].Size(), min(n.need, volumeOf(barges))
		}
		cost := s.costs.DeliveredCostPerGallon(src, c, gal, size)
		if math.IsInf(cost, 1) {
			continue
		}
		opts = append(opts, sourceOption{source: src, cost: cost, tug: s.idleTugAt(src, -1), barges: barges})
	}
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].cost < opts[j].cost })

	record := trace.DispatchRecord{
		Time:     s.now,
		Crossing: c,
		Rig:      n.hdd.Rig,
		Trigger:  n.trigger,
		Urgency:  n.urgency,
		Need:     n.need,
	}
	for _, o := range opts {
		record.Candidates = append(record.Candidates, trace.SourceCandidate{
			Source:        o.source,
			CostPerGallon: o.cost,
			HasTug:        o.tug != nil,
			FilledWater:   volumeOf(o.barges),
		})
	}

	for _, o := range opts {
		if o.tug != nil && len(o.barges) > 0 {
			s.send(o.tug, o.barges, n, record)
			return true
		}
	}
	for _, o := range opts {
		if len(o.barges) == 0 {
			continue
		}
		if !s.anyIdleTug() {
			t := s.MobilizeTug(o.source, fmt.Sprintf("reactive dispatch to %s", c))
			if t == nil {
				return false
			}
			record.Mobilized = true
			s.send(t, o.barges, n, record)
			return true
		}
		if !s.repositioningTo(o.source) {
			s.reposition(o.source)
		}
		return false
	}
	return false
}

func (s *Simulator) send(t *Tug, barges []*kernel.Barge, n dispatchNeed, record trace.DispatchRecord) {
	vol := volumeOf(barges)
	from := t.Location
	s.sendLoaded(t, barges, []Stop{{
		Rig:      n.hdd.Rig,
		Crossing: n.hdd.Crossing,
		Volume:   vol,
		Urgency:  n.urgency,
	}}, fmt.Sprintf("%s dispatch (urgency %.0f)", n.trigger, n.urgency))
	record.Source = from
	record.TugID = t.ID
	record.Barges = bargeIDs(barges)
	record.Volume = vol
	s.trace.RecordDispatch(record)
}

func (s *Simulator) anyIdleTug() bool {
	for _, t := range s.tugs {
		if t.IsIdle() {
			return true
		}
	}
	return false
}

func (s *Simulator) repositioningTo(source string) bool {
	for _, t := range s.tugs {
		if st, ok := t.State.(EnRoutePickup); ok && st.Purpose == Reposition && st.Target == source {
			return true
		}
	}
	return false
}

// reposition sends the idle tug closest to source there running light.
func (s *Simulator) reposition(source string) {
	var best *Tug
	bestHours := 0.0
	for _, t := range s.tugs {
		if !t.IsIdle() || t.Location == source {
			continue
		}
		hours, ok := s.router.EmptyHours(t.Location, source)
		if ok && (best == nil || hours < bestHours) {
			best, bestHours = t, hours
		}
	}
	if best == nil {
		return
	}
	s.setState(best, EnRoutePickup{Arrival: s.now + bestHours, Target: source, Purpose: Reposition}, "",
		"reposition to "+source)
}
