package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim/kernel"
)

// StorageAllocation is the storage buffer planned for one crossing.
type StorageAllocation struct {
	Crossing   string
	Rig        string
	Source     string
	Small      int
	Large      int
	Capacity   float64
	FillStart  float64
	Arrival    float64
	Return     float64 // hour the barges are expected back in the pool
	Partial    bool
	TransferTo string // next crossing on the rig that inherits the barges
	Inherited  string // previous crossing these barges came from
}

// StoragePlan is the one-time storage provisioning schedule.
type StoragePlan struct {
	Allocations map[string]*StorageAllocation
	Intents     []*DeliveryIntent
	Warnings    []string
}

// Capacity is the planned storage capacity at crossing.
func (p StoragePlan) Capacity(crossing string) float64 {
	if a, ok := p.Allocations[crossing]; ok {
		return a.Capacity
	}
	return 0
}

type storagePlanner struct {
	cfg    Config
	cal    *Calendar
	router *Router
	fleet  Fleet
	nextID *int

	ledger  []*StorageAllocation
	plan    StoragePlan
	ordered []*HDD
	planned map[string]bool
}

// PlanStorage sizes and schedules the storage buffer of every crossing in
// ascending pilot order. Each crossing targets StorageTargetMultiplier times
// its pilot-phase daily demand, arriving StorageArrivalLeadHours before pilot.
// Barges are tracked in a ledger so later crossings wait for earlier ones to
// return, and a rig's next crossing inherits the barges in place when its
// pilot starts within the transfer window after the previous rig-down.
func PlanStorage(cfg Config, cal *Calendar, hdds []*HDD, router *Router, fleet Fleet, nextID *int) StoragePlan {
	p := &storagePlanner{
		cfg:     cfg,
		cal:     cal,
		router:  router,
		fleet:   fleet,
		nextID:  nextID,
		plan:    StoragePlan{Allocations: make(map[string]*StorageAllocation)},
		planned: make(map[string]bool),
	}
	ordered := append([]*HDD(nil), hdds...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Pilot < ordered[j].Pilot })
	p.ordered = ordered

	lastOnRig := make(map[string]*HDD)
	for _, h := range ordered {
		p.planned[h.Crossing] = true
		need := p.need(h)
		prev := lastOnRig[h.Rig]
		lastOnRig[h.Rig] = h
		if need <= 0 {
			continue
		}
		if prev != nil && p.transferEligible(prev, h) {
			p.transfer(prev, h, need)
			continue
		}
		p.allocate(h, need)
	}

	for _, h := range ordered {
		a, ok := p.plan.Allocations[h.Crossing]
		if !ok || a.TransferTo != "" {
			continue
		}
		p.plan.Intents = append(p.plan.Intents, &DeliveryIntent{
			ID:         p.id(),
			Kind:       IntentReturn,
			Source:     a.Source,
			HDD:        a.Crossing,
			Rig:        a.Rig,
			Dispatch:   h.RigDown,
			Deadline:   math.Inf(1),
			Status:     IntentPending,
			PlannedTug: -1,
			Priority:   PriorityScheduled,
		})
	}
	return p.plan
}

func (p *storagePlanner) need(h *HDD) float64 {
	return p.cfg.Planning.StorageTargetMultiplier * p.cal.DailyDemand(p.cfg.Rigs, h.Rig, PhasePilot)
}

// share caps how many of avail barges h may take at hour t so that every
// crossing still to be planned on another rig, drilling while h holds its
// barges, is left at least one. Crossings that will inherit barges in place
// do not count.
func (p *storagePlanner) share(h *HDD, t float64, avail int) int {
	peers := 0
	prev := make(map[string]*HDD)
	for _, o := range p.ordered {
		before := prev[o.Rig]
		prev[o.Rig] = o
		if p.planned[o.Crossing] || o.Rig == h.Rig || p.need(o) <= 0 {
			continue
		}
		if before != nil && p.transferEligible(before, o) {
			continue
		}
		if o.Pilot-p.cfg.Planning.StorageArrivalLeadHours < h.RigDown && o.RigDown > t {
			peers++
		}
	}
	return max(1, avail-peers)
}

// trimTo drops small barges before large ones until at most n remain.
func trimTo(small, large, n int) (int, int) {
	for small+large > n && small > 0 {
		small--
	}
	for small+large > n && large > 0 {
		large--
	}
	return small, large
}

func (p *storagePlanner) id() int {
	*p.nextID++
	return *p.nextID
}

func (p *storagePlanner) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logrus.Warn(msg)
	p.plan.Warnings = append(p.plan.Warnings, msg)
}

func (p *storagePlanner) transferEligible(prev, next *HDD) bool {
	a, ok := p.plan.Allocations[prev.Crossing]
	if !ok || a.Capacity <= 0 || a.TransferTo != "" {
		return false
	}
	gapDays := (next.Pilot - prev.RigDown) / 24
	return gapDays >= p.cfg.Planning.MinTransferGapDays && gapDays <= p.cfg.Planning.SameRigTransferGapDays
}

// transfer hands prev's stationed barges to next at next's pilot start and
// tops up any shortfall with a fresh delivery.
func (p *storagePlanner) transfer(prev, next *HDD, need float64) {
	from := p.plan.Allocations[prev.Crossing]
	from.TransferTo = next.Crossing
	back, _ := p.router.EmptyHours(next.Crossing, from.Source)
	inherited := &StorageAllocation{
		Crossing:  next.Crossing,
		Rig:       next.Rig,
		Source:    from.Source,
		Small:     from.Small,
		Large:     from.Large,
		Capacity:  from.Capacity,
		FillStart: from.FillStart,
		Arrival:   next.Pilot,
		Return:    next.RigDown + back + p.cfg.Planning.StorageReturnBufferHours,
		Inherited: prev.Crossing,
	}
	// The same physical barges stay busy until the later return.
	for _, a := range p.ledger {
		if a.Crossing == prev.Crossing {
			a.Return = inherited.Return
		}
	}
	p.ledger = append(p.ledger, inherited)
	p.plan.Allocations[next.Crossing] = inherited
	p.plan.Intents = append(p.plan.Intents, &DeliveryIntent{
		ID:         p.id(),
		Kind:       IntentTransfer,
		Source:     from.Source,
		HDD:        next.Crossing,
		Rig:        next.Rig,
		From:       prev.Crossing,
		Dispatch:   next.Pilot,
		Arrival:    next.Pilot,
		Deadline:   next.RigDown,
		Status:     IntentPending,
		PlannedTug: -1,
		Priority:   PriorityScheduled,
	})
	logrus.Infof("storage: %s inherits %dS/%dL from %s at pilot (gap %.1f days)",
		next.Crossing, from.Small, from.Large, prev.Crossing, (next.Pilot-prev.RigDown)/24)

	if short := need - from.Capacity; short >= p.cfg.SmallBargeVolume*0.5 {
		topUp := p.reserve(next, short, next.Pilot-p.cfg.Planning.StorageArrivalLeadHours, next.Ream)
		if topUp != nil {
			inherited.Small += topUp.Small
			inherited.Large += topUp.Large
			inherited.Capacity += topUp.Capacity
		}
	}
}

// desiredSizing prefers one large barge when it covers the need, fills any gap
// above one large barge with small ones, and falls back to whatever class the
// fleet holds.
func (p *storagePlanner) desiredSizing(need float64) (small, large int) {
	S, L := p.cfg.SmallBargeVolume, p.cfg.LargeBargeVolume
	switch {
	case p.fleet.LargeStorage > 0 && need <= L:
		return 0, 1
	case p.fleet.LargeStorage > 0 && p.fleet.SmallStorage > 0:
		return int(math.Ceil((need - L) / S)), 1
	case p.fleet.LargeStorage > 0:
		return 0, int(math.Ceil(need / L))
	default:
		return int(math.Ceil(need / S)), 0
	}
}

func (p *storagePlanner) availableAt(t float64) (small, large int) {
	small, large = p.fleet.SmallStorage, p.fleet.LargeStorage
	for _, a := range p.ledger {
		if a.Inherited != "" {
			continue
		}
		if a.Return > t {
			small -= a.Small
			large -= a.Large
		}
	}
	return max(0, small), max(0, large)
}

// allocate sizes, sources and schedules a fresh storage delivery for h.
func (p *storagePlanner) allocate(h *HDD, need float64) {
	a := p.reserve(h, need, h.Pilot-p.cfg.Planning.StorageArrivalLeadHours, h.Ream)
	if a == nil {
		return
	}
	p.plan.Allocations[h.Crossing] = a
}

// reserve books barges in the ledger and emits per-tug storage intents. The
// delivery may slip to the first return that frees enough barges, as long as
// it still lands before latest; otherwise it is partially allocated.
func (p *storagePlanner) reserve(h *HDD, need, arrival, latest float64) *StorageAllocation {
	wantS, wantL := p.desiredSizing(need)
	loadSize := kernel.Small
	if wantL > 0 {
		loadSize = kernel.Large
	}
	unit := p.cfg.SmallBargeVolume
	if loadSize == kernel.Large {
		unit = p.cfg.LargeBargeVolume
	}
	source, _, ok := p.router.BestSource(h.Crossing, unit, loadSize)
	if !ok {
		p.warn("storage: %s is unreachable from every source; no storage planned", h.Crossing)
		return nil
	}
	travel, _ := p.router.LoadedHours(source, h.Crossing, loadSize)
	capacity := float64(wantS)*p.cfg.SmallBargeVolume + float64(wantL)*p.cfg.LargeBargeVolume
	fill := p.router.FillHours(source, capacity)
	dispatch := arrival - travel - p.cfg.HookupTime
	fillStart := dispatch - fill

	small, large := wantS, wantL
	partial := false
	availS, availL := p.availableAt(fillStart)
	if availS < wantS || availL < wantL {
		waited := false
		for _, t := range p.returnTimesAfter(fillStart) {
			s, l := p.availableAt(t)
			if s >= wantS && l >= wantL && t+fill+travel+p.cfg.HookupTime <= latest {
				shift := t - fillStart
				fillStart, dispatch, arrival = t, dispatch+shift, arrival+shift
				availS, availL = s, l
				waited = true
				p.warn("storage: %s waits %.1fh for returning barges", h.Crossing, shift)
				break
			}
		}
		if !waited {
			small, large = min(wantS, availS), min(wantL, availL)
			if large < wantL && availS > small {
				missing := float64(wantL-large) * p.cfg.LargeBargeVolume
				small = min(availS, small+int(math.Ceil(missing/p.cfg.SmallBargeVolume)))
			}
			partial = true
			p.warn("storage: resource constraint at %s: wanted %dS/%dL, allocating %dS/%dL",
				h.Crossing, wantS, wantL, small, large)
			if small+large == 0 {
				return nil
			}
		}
	}
	if budget := p.share(h, fillStart, availS+availL); small+large > budget {
		keptS, keptL := trimTo(small, large, budget)
		p.warn("storage: %s shares the pool with concurrent crossings: wanted %dS/%dL, allocating %dS/%dL",
			h.Crossing, small, large, keptS, keptL)
		small, large, partial = keptS, keptL, true
	}

	back, _ := p.router.EmptyHours(h.Crossing, source)
	a := &StorageAllocation{
		Crossing:  h.Crossing,
		Rig:       h.Rig,
		Source:    source,
		Small:     small,
		Large:     large,
		Capacity:  float64(small)*p.cfg.SmallBargeVolume + float64(large)*p.cfg.LargeBargeVolume,
		FillStart: fillStart,
		Arrival:   arrival,
		Return:    h.RigDown + back + p.cfg.Planning.StorageReturnBufferHours,
		Partial:   partial,
	}
	p.ledger = append(p.ledger, a)
	p.emitChunks(h, a, kernel.Large, large, p.cfg.LargeBargesPerTug, dispatch)
	p.emitChunks(h, a, kernel.Small, small, p.cfg.SmallBargesPerTug, dispatch)
	return a
}

func (p *storagePlanner) emitChunks(h *HDD, a *StorageAllocation, size kernel.Size, count, perTug int, dispatch float64) {
	for count > 0 {
		n := min(count, perTug)
		count -= n
		travel, _ := p.router.LoadedHours(a.Source, h.Crossing, size)
		p.plan.Intents = append(p.plan.Intents, &DeliveryIntent{
			ID:         p.id(),
			Kind:       IntentStorage,
			Source:     a.Source,
			HDD:        h.Crossing,
			Rig:        h.Rig,
			Size:       size,
			Barges:     n,
			FillStart:  a.FillStart,
			Dispatch:   dispatch,
			Arrival:    dispatch + travel + p.cfg.HookupTime,
			Deadline:   h.RigDown,
			Status:     IntentPending,
			PlannedTug: -1,
			Priority:   PriorityScheduled,
		})
	}
}

func (p *storagePlanner) returnTimesAfter(t float64) []float64 {
	var out []float64
	for _, a := range p.ledger {
		if a.Inherited == "" && a.Return > t {
			out = append(out, a.Return)
		}
	}
	sort.Float64s(out)
	return out
}
