package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim/kernel"
)

// assetPool is the unmobilized remainder of the fleet plus id counters.
// Demobilized assets return their count to the pool.
type assetPool struct {
	remaining Fleet
	tugs      int
	st, ss    int
	lt, ls    int
}

func (p *assetPool) count(size kernel.Size, role kernel.Role) *int {
	switch {
	case size == kernel.Small && role == kernel.RoleTransport:
		return &p.remaining.SmallTransport
	case size == kernel.Small:
		return &p.remaining.SmallStorage
	case role == kernel.RoleTransport:
		return &p.remaining.LargeTransport
	default:
		return &p.remaining.LargeStorage
	}
}

func (p *assetPool) nextBargeID(size kernel.Size, role kernel.Role) string {
	switch {
	case size == kernel.Small && role == kernel.RoleTransport:
		p.st++
		return fmt.Sprintf("ST%d", p.st)
	case size == kernel.Small:
		p.ss++
		return fmt.Sprintf("SS%d", p.ss)
	case role == kernel.RoleTransport:
		p.lt++
		return fmt.Sprintf("LT%d", p.lt)
	default:
		p.ls++
		return fmt.Sprintf("LS%d", p.ls)
	}
}

// Pool returns the unmobilized asset counts.
func (s *Simulator) Pool() Fleet { return s.pool.remaining }

// MobilizeBarge brings one barge of the given class into service, empty, at
// source and queues it for filling. It returns nil when the class is exhausted.
func (s *Simulator) MobilizeBarge(size kernel.Size, role kernel.Role, source, reason string) *kernel.Barge {
	n := s.pool.count(size, role)
	if *n <= 0 {
		return nil
	}
	volume := bargeVolume(s.cfg, size)
	b, err := s.k.AddBarge(s.pool.nextBargeID(size, role), size, role, volume, source)
	if err != nil {
		s.warn("mobilize %s %s barge at %s: %v", size, role, source, err)
		return nil
	}
	*n--
	if _, err := s.k.RequestFill(b.ID(), s.now); err != nil {
		s.warn("request fill %s: %v", b.ID(), err)
	}
	s.metrics.Costs.Mobilization += s.bargeMobCost(size)
	s.logBarge(b, "mobilized: "+reason)
	logrus.Infof("[%7.2fh] mobilized %s at %s (%s)", s.now, b.ID(), source, reason)
	return b
}

// MobilizeTug brings one tug into service, idle at source. It returns nil when
// the tug pool is exhausted.
func (s *Simulator) MobilizeTug(source, reason string) *Tug {
	if s.pool.remaining.Tugs <= 0 {
		return nil
	}
	s.pool.tugs++
	id := fmt.Sprintf("tug%d", s.pool.tugs)
	if err := s.k.RegisterTug(id); err != nil {
		s.warn("mobilize %s: %v", id, err)
		return nil
	}
	s.pool.remaining.Tugs--
	t := &Tug{ID: id, State: Idle{}, Location: source, Home: source, MobilizedAt: s.now}
	s.tugs = append(s.tugs, t)
	s.metrics.Costs.Mobilization += s.cfg.Cost.Mobilization.TugMob
	s.logTug(t, "mobilized: "+reason, 0)
	logrus.Infof("[%7.2fh] mobilized %s at %s (%s)", s.now, id, source, reason)
	return t
}

func (s *Simulator) bargeMobCost(size kernel.Size) float64 {
	if size == kernel.Large {
		return s.cfg.Cost.Mobilization.LargeBargeMob
	}
	return s.cfg.Cost.Mobilization.SmallBargeMob
}

func (s *Simulator) bargeDemobCost(size kernel.Size) float64 {
	if size == kernel.Large {
		return s.cfg.Cost.Mobilization.LargeBargeDemob
	}
	return s.cfg.Cost.Mobilization.SmallBargeDemob
}

// needTime is when an intent's assets must be in service: fill start (or
// dispatch, for intents that fill nothing) minus the mobilization lead.
func (s *Simulator) needTime(in *DeliveryIntent) float64 {
	start := in.Dispatch
	if in.Kind == IntentStorage || in.Kind == IntentTransport {
		start = min(in.FillStart, in.Dispatch)
	}
	return start - s.cfg.Planning.MobilizationLeadHours
}

// checkMobilizationNeeds mobilizes assets for pending intents whose need time
// has arrived. The bootstrap pass at t=0 also covers every intent dispatching
// inside the bootstrap window, since the lookahead cannot reach before t=0.
func (s *Simulator) checkMobilizationNeeds(bootstrap bool) {
	var due []*DeliveryIntent
	for _, in := range s.intents.Pending() {
		// Transfers move nothing and returns mobilize their own tug.
		if in.Status != IntentPending || in.Kind == IntentTransfer || in.Kind == IntentReturn {
			continue
		}
		if s.needTime(in) <= s.now || (bootstrap && in.Dispatch <= s.now+s.cfg.Planning.BootstrapWindowHours) {
			due = append(due, in)
		}
	}
	if len(due) == 0 {
		return
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Dispatch != due[j].Dispatch {
			return due[i].Dispatch < due[j].Dispatch
		}
		return due[i].ID < due[j].ID
	})
	reason := "lookahead"
	if bootstrap {
		reason = "bootstrap"
	}
	s.mobilizeStorage(due, reason)
	s.mobilizeTransport(due, reason)
	s.mobilizeTugs(due, reason)
}

type sourceSize struct {
	source string
	size   kernel.Size
}

func (s *Simulator) mobilizeStorage(due []*DeliveryIntent, reason string) {
	want := make(map[sourceSize]int)
	var keys []sourceSize
	for _, in := range due {
		if in.Kind != IntentStorage {
			continue
		}
		key := sourceSize{in.Source, in.Size}
		if _, ok := want[key]; !ok {
			keys = append(keys, key)
		}
		want[key] += in.Barges
	}
	perLarge := int(math.Ceil(s.cfg.LargeBargeVolume / s.cfg.SmallBargeVolume))
	for _, key := range keys {
		have := len(s.k.FreeBargesAtSource(key.source, key.size, kernel.RoleStorage))
		other := kernel.Small
		if key.size == kernel.Small {
			other = kernel.Large
		}
		subs := 0
		for n := want[key] - have; n > 0; n-- {
			if s.MobilizeBarge(key.size, kernel.RoleStorage, key.source, reason+" storage") != nil {
				continue
			}
			// Cover the capacity with the other size class.
			if other == kernel.Large {
				if s.MobilizeBarge(other, kernel.RoleStorage, key.source, reason+" storage substitute") == nil {
					s.warn("storage pool exhausted at %s for %s barges", key.source, key.size)
					break
				}
				subs++
				n -= perLarge - 1
				continue
			}
			got := 0
			for got < min(perLarge, s.cfg.SmallBargesPerTug) &&
				s.MobilizeBarge(other, kernel.RoleStorage, key.source, reason+" storage substitute") != nil {
				got++
			}
			if got == 0 {
				s.warn("storage pool exhausted at %s for %s barges", key.source, key.size)
				break
			}
			subs += got
		}
		if subs > 0 {
			s.retargetStorage(due, key, other, subs)
		}
	}
}

// retargetStorage moves the latest due storage intents of key onto the
// substitute size class so their delivery picks up the substitute barges.
func (s *Simulator) retargetStorage(due []*DeliveryIntent, key sourceSize, other kernel.Size, subs int) {
	perTug := s.cfg.SmallBargesPerTug
	if other == kernel.Large {
		perTug = s.cfg.LargeBargesPerTug
	}
	for i := len(due) - 1; i >= 0 && subs > 0; i-- {
		in := due[i]
		if in.Kind != IntentStorage || in.Source != key.source || in.Size != key.size {
			continue
		}
		covered := float64(in.Barges) * bargeVolume(s.cfg, key.size)
		n := min(subs, perTug, max(1, int(math.Ceil(covered/bargeVolume(s.cfg, other)))))
		logrus.Infof("[%7.2fh] storage intent #%d carries %d %s barges instead of %d %s",
			s.now, in.ID, n, other, in.Barges, key.size)
		in.Size, in.Barges = other, n
		subs -= n
	}
}

// mobilizeTransport covers each source's due transport volume with transport
// barges, large first.
func (s *Simulator) mobilizeTransport(due []*DeliveryIntent, reason string) {
	want := make(map[string]float64)
	var sources []string
	for _, in := range due {
		if in.Kind != IntentTransport {
			continue
		}
		if _, ok := want[in.Source]; !ok {
			sources = append(sources, in.Source)
		}
		want[in.Source] += in.Volume
	}
	for _, src := range sources {
		deficit := want[src] - s.transportCapacityFor(src)
		for deficit > waterEpsilon {
			var b *kernel.Barge
			if deficit > s.cfg.SmallBargeVolume || s.pool.remaining.SmallTransport == 0 {
				b = s.MobilizeBarge(kernel.Large, kernel.RoleTransport, src, reason+" transport")
			}
			if b == nil {
				b = s.MobilizeBarge(kernel.Small, kernel.RoleTransport, src, reason+" transport")
			}
			if b == nil {
				b = s.MobilizeBarge(kernel.Large, kernel.RoleTransport, src, reason+" transport")
			}
			if b == nil {
				break
			}
			deficit -= b.Volume()
		}
	}
}

// transportCapacityFor is the transport barge volume pooled at source or on
// tugs heading back to it.
func (s *Simulator) transportCapacityFor(source string) float64 {
	total := 0.0
	for _, b := range s.k.PooledBarges(source) {
		if b.Role() == kernel.RoleTransport {
			total += b.Volume()
		}
	}
	for _, t := range s.tugs {
		if st, ok := t.State.(EnRouteEmpty); ok && st.Source == source {
			for _, b := range s.k.AttachedBarges(t.ID) {
				if b.Role() == kernel.RoleTransport {
					total += b.Volume()
				}
			}
		}
	}
	return total
}

// mobilizeTugs keeps enough tugs in service for the due intents: at least one,
// and as many as the greedy transport plan assumed.
func (s *Simulator) mobilizeTugs(due []*DeliveryIntent, reason string) {
	needed := 1
	for _, in := range due {
		needed = max(needed, in.PlannedTug+1)
	}
	active := 0
	for _, t := range s.tugs {
		if t.Active() {
			active++
		}
	}
	for _, in := range due {
		if active >= needed {
			return
		}
		if s.idleTugAt(in.Source, -1) != nil {
			continue
		}
		if s.MobilizeTug(in.Source, fmt.Sprintf("%s %s intent #%d", reason, in.Kind, in.ID)) == nil {
			return
		}
		active++
	}
	for active < needed {
		if s.MobilizeTug(due[0].Source, reason) == nil {
			return
		}
		active++
	}
}

// checkDemobilization retires idle tugs and pooled barges while no crossing
// consumes water and no intent needs assets within the lookahead window.
func (s *Simulator) checkDemobilization() {
	horizon := s.now + s.cfg.Planning.DemobLookaheadHours
	for _, h := range s.hdds {
		if h.Pilot <= horizon && h.RigDown > s.now {
			return
		}
	}
	for _, in := range s.intents.Pending() {
		if in.Status == IntentPending && in.Kind != IntentTransfer && s.needTime(in) <= horizon {
			return
		}
	}
	for _, t := range s.tugs {
		if t.IsIdle() && s.k.RetireTug(t.ID) == nil {
			s.pool.remaining.Tugs++
			s.metrics.Costs.Mobilization += s.cfg.Cost.Mobilization.TugDemob
			s.setState(t, Demobilized{At: s.now}, t.Location, "demobilized: no demand within lookahead")
		}
	}
	for _, src := range s.router.Sources() {
		for _, b := range s.k.PooledBarges(src) {
			if err := s.k.Retire(b.ID()); err != nil {
				continue
			}
			*s.pool.count(b.Size(), b.Role())++
			s.metrics.Costs.Mobilization += s.bargeDemobCost(b.Size())
			s.logBarge(b, "demobilized: no demand within lookahead")
		}
	}
}

// demobilizeRemaining charges demobilization for every asset still in
// service at the end of the run.
func (s *Simulator) demobilizeRemaining() {
	for _, t := range s.tugs {
		if !t.Active() {
			continue
		}
		s.metrics.Costs.Mobilization += s.cfg.Cost.Mobilization.TugDemob
		s.setState(t, Demobilized{At: s.now}, t.Location, "demobilized: end of project")
	}
	for _, b := range s.k.Barges() {
		if b.Retired() {
			continue
		}
		s.metrics.Costs.Mobilization += s.bargeDemobCost(b.Size())
	}
}
