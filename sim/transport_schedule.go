package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim/kernel"
)

// TransportPlan is the proactive water delivery schedule.
type TransportPlan struct {
	Intents  []*DeliveryIntent
	Warnings []string
}

// PlanTransport walks an hour-by-hour projection of every crossing's storage
// level from pilot start to rig-down. Storage starts full at its planned
// capacity and drains at the calendar rate. Whenever the projected level drops
// below TransportTriggerFraction of the crossing's peak daily demand, and at
// least TransportSpacingHours have passed since the previous delivery, a
// delivery is timed to arrive at that hour. Intents are then assigned to the
// fleet's tugs greedily in dispatch order.
func PlanTransport(cfg Config, cal *Calendar, hdds []*HDD, router *Router, storage StoragePlan, fleet Fleet, nextID *int) TransportPlan {
	var plan TransportPlan
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		logrus.Warn(msg)
		plan.Warnings = append(plan.Warnings, msg)
	}
	id := func() int {
		*nextID++
		return *nextID
	}

	if fleet.SmallTransport+fleet.LargeTransport == 0 {
		warn("transport: fleet has no transport barges; no deliveries planned")
		return plan
	}

	for _, h := range hdds {
		capacity := storage.Capacity(h.Crossing)
		if capacity <= 0 {
			if peakDailyDemand(cfg, cal, h.Rig) > 0 {
				warn("transport: %s has no planned storage; deliveries left to the dispatch policy", h.Crossing)
			}
			continue
		}
		peak := peakDailyDemand(cfg, cal, h.Rig)
		trigger := cfg.Planning.TransportTriggerFraction * peak
		level := capacity
		last := math.Inf(-1)
		for t := math.Ceil(h.Pilot); t < h.RigDown; t++ {
			level = max(0, level-cal.RateAt(cfg.Rigs, h, t))
			if level >= trigger || t-last < cfg.Planning.TransportSpacingHours {
				continue
			}
			daily := cal.DailyDemand(cfg.Rigs, h.Rig, PhaseForDate(h, t))
			if daily <= 0 {
				daily = peak
			}
			size := transportSize(cfg, fleet, daily)
			target := min(cfg.Planning.TransportTargetMultiple*daily, 2*bargeVolume(cfg, size), capacity)
			vol := min(target-level, tugLoad(cfg, size))
			if vol <= 0 {
				continue
			}
			source, _, ok := router.BestSource(h.Crossing, vol, size)
			if !ok {
				warn("transport: %s is unreachable from every source", h.Crossing)
				break
			}
			travel, _ := router.LoadedHours(source, h.Crossing, size)
			dispatch := t - travel - cfg.HookupTime
			plan.Intents = append(plan.Intents, &DeliveryIntent{
				ID:         id(),
				Kind:       IntentTransport,
				Source:     source,
				HDD:        h.Crossing,
				Rig:        h.Rig,
				Size:       size,
				Volume:     vol,
				FillStart:  dispatch - cfg.SwitchoutTime - router.FillHours(source, vol),
				Dispatch:   dispatch,
				Arrival:    t,
				Deadline:   h.RigDown,
				Status:     IntentPending,
				PlannedTug: -1,
				Priority:   PriorityScheduled,
			})
			level = min(capacity, level+vol)
			last = t
		}
	}

	assignTugs(cfg, router, fleet, plan.Intents, warn)
	return plan
}

// assignTugs gives each intent the earliest-free planned tug. An intent whose
// tug is still busy at its dispatch time is deferred to the tug's free time.
func assignTugs(cfg Config, router *Router, fleet Fleet, intents []*DeliveryIntent, warn func(string, ...any)) {
	sort.SliceStable(intents, func(i, j int) bool {
		if intents[i].Dispatch != intents[j].Dispatch {
			return intents[i].Dispatch < intents[j].Dispatch
		}
		return intents[i].ID < intents[j].ID
	})
	if fleet.Tugs == 0 {
		for _, in := range intents {
			in.Priority = PriorityDeferred
		}
		if len(intents) > 0 {
			warn("transport: fleet has no tugs; %d deliveries deferred", len(intents))
		}
		return
	}
	freeAt := make([]float64, fleet.Tugs)
	for i := range freeAt {
		freeAt[i] = math.Inf(-1)
	}
	for _, in := range intents {
		best := 0
		for i := 1; i < len(freeAt); i++ {
			if freeAt[i] < freeAt[best] {
				best = i
			}
		}
		if shift := freeAt[best] - in.Dispatch; shift > 0 {
			in.Priority = PriorityDeferred
			in.FillStart += shift
			in.Dispatch += shift
			in.Arrival += shift
			logrus.Debugf("transport: intent #%d to %s deferred %.1fh for tug %d", in.ID, in.HDD, shift, best)
		}
		in.PlannedTug = best
		cycle, ok := router.CycleHours(in.Source, in.HDD, in.Volume, in.Size)
		if !ok {
			cycle = 0
		}
		freeAt[best] = in.Dispatch + cycle - router.FillHours(in.Source, in.Volume)
	}
}

func peakDailyDemand(cfg Config, cal *Calendar, rig string) float64 {
	peak := 0.0
	for _, p := range []Phase{PhasePilot, PhaseReam, PhaseSwab, PhasePull} {
		peak = max(peak, cal.DailyDemand(cfg.Rigs, rig, p))
	}
	return peak
}

// transportSize prefers large barges once a day's demand outgrows a small load.
func transportSize(cfg Config, fleet Fleet, daily float64) kernel.Size {
	if fleet.LargeTransport > 0 && (fleet.SmallTransport == 0 || daily > tugLoad(cfg, kernel.Small)) {
		return kernel.Large
	}
	return kernel.Small
}

func bargeVolume(cfg Config, size kernel.Size) float64 {
	if size == kernel.Large {
		return cfg.LargeBargeVolume
	}
	return cfg.SmallBargeVolume
}

func bargesPerTug(cfg Config, size kernel.Size) int {
	if size == kernel.Large {
		return cfg.LargeBargesPerTug
	}
	return cfg.SmallBargesPerTug
}

// tugLoad is the water one tug can tow in barges of one size.
func tugLoad(cfg Config, size kernel.Size) float64 {
	return bargeVolume(cfg, size) * float64(bargesPerTug(cfg, size))
}
