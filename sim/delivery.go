package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim/kernel"
)

// processIntents executes every intent whose due time has arrived. Failed
// attempts retry after RetryHours, or BackoffHours once FailuresBeforeBackoff
// attempts have failed. Intents past their deadline are abandoned.
func (s *Simulator) processIntents() {
	for _, in := range s.intents.PopDue(s.now) {
		if s.now > in.Deadline {
			in.Status = IntentAbandoned
			s.abandoned++
			s.warn("abandoned %s intent #%d to %s after %d attempts", in.Kind, in.ID, in.HDD, in.Attempts)
			continue
		}
		var ok bool
		switch in.Kind {
		case IntentStorage:
			ok = s.executeStorage(in)
		case IntentTransfer:
			ok = s.executeTransfer(in)
		case IntentTransport:
			ok = s.executeTransport(in)
		case IntentReturn:
			ok = s.executeReturn(in)
		}
		if ok {
			if in.Status == IntentPending {
				in.Status = IntentDispatched
			}
			continue
		}
		in.Attempts++
		wait := s.cfg.Planning.RetryHours
		if in.Attempts >= s.cfg.Planning.FailuresBeforeBackoff {
			wait = s.cfg.Planning.BackoffHours
		}
		in.NextRetry = s.now + wait
		logrus.Debugf("[%7.2fh] %s intent #%d to %s failed (attempt %d), retry at %.2f",
			s.now, in.Kind, in.ID, in.HDD, in.Attempts, in.NextRetry)
		s.intents.Schedule(in)
	}
}

func (s *Simulator) schedule(in *DeliveryIntent) {
	s.nextID++
	in.ID = s.nextID
	s.intentBy[in.ID] = in
	s.intents.Schedule(in)
}

// executeStorage tows one chunk of storage barges to its crossing. Full
// barges are preferred; partly filled ones go once the intent has failed
// FailuresBeforeBackoff times.
func (s *Simulator) executeStorage(in *DeliveryIntent) bool {
	h := s.byName[in.HDD]
	if !PhaseForDate(h, s.now).Consumes() && s.now >= h.Pilot {
		in.Status = IntentSkipped
		return true
	}
	late := in.Attempts >= s.cfg.Planning.FailuresBeforeBackoff
	free := s.k.FreeBargesAtSource(in.Source, in.Size, kernel.RoleStorage)
	if len(free) == 0 && late {
		if src := s.sourceHolding(in.Size, kernel.RoleStorage); src != "" && src != in.Source {
			logrus.Infof("[%7.2fh] storage intent #%d moves from %s to %s", s.now, in.ID, in.Source, src)
			in.Source = src
			free = s.k.FreeBargesAtSource(src, in.Size, kernel.RoleStorage)
		}
	}
	t := s.idleTugAt(in.Source, in.PlannedTug)
	if t == nil || len(free) == 0 {
		return false
	}
	sort.SliceStable(free, func(i, j int) bool { return free[i].Fill() > free[j].Fill() })
	n := min(in.Barges, len(free))
	chosen := free[:n]
	if !late && (n < in.Barges || !chosen[n-1].IsFull()) {
		return false
	}
	ids := bargeIDs(chosen)
	if err := s.k.AttachBarges(t.ID, ids, kernel.StatusEnRouteStorage); err != nil {
		s.warn("storage intent #%d: %v", in.ID, err)
		return false
	}
	travel, _ := s.router.LoadedHours(in.Source, in.HDD, in.Size)
	t.Plan, t.StopIdx = nil, 0
	s.setState(t, EnRouteStorage{
		Arrival:  s.now + s.cfg.SwitchoutTime + travel,
		Crossing: in.HDD,
		Intent:   in.ID,
	}, "", fmt.Sprintf("storage delivery #%d to %s", in.ID, in.HDD))
	for _, b := range chosen {
		s.logBarge(b, "storage to "+in.HDD)
	}
	return true
}

// executeTransfer hands the previous crossing's stationed barges to the next
// crossing of the same rig at its pilot start. No tug moves.
func (s *Simulator) executeTransfer(in *DeliveryIntent) bool {
	stationed := s.k.StationedBarges(in.From)
	if len(stationed) == 0 {
		s.warn("transfer %s -> %s: nothing stationed; scheduling a storage delivery", in.From, in.HDD)
		s.spawnStorage(in)
		return true
	}
	ids := bargeIDs(stationed)
	water, _ := s.k.Storage(in.From)
	if err := s.k.TransferStationed(ids, in.From, in.HDD); err != nil {
		s.warn("transfer %s -> %s: %v", in.From, in.HDD, err)
		return false
	}
	s.metrics.Moves = append(s.metrics.Moves, StorageMove{
		Time:   s.now,
		From:   in.From,
		To:     in.HDD,
		Barges: ids,
		Water:  water,
	})
	for _, b := range stationed {
		s.logBarge(b, "transferred from "+in.From)
	}
	logrus.Infof("[%7.2fh] %d storage barges transferred %s -> %s", s.now, len(ids), in.From, in.HDD)
	return true
}

// spawnStorage replaces a transfer that found nothing to transfer with
// storage deliveries sized like the inherited allocation.
func (s *Simulator) spawnStorage(in *DeliveryIntent) {
	a, ok := s.storage.Allocations[in.HDD]
	if !ok {
		return
	}
	h := s.byName[in.HDD]
	for _, c := range []struct {
		size  kernel.Size
		count int
	}{{kernel.Large, a.Large}, {kernel.Small, a.Small}} {
		perTug := bargesPerTug(s.cfg, c.size)
		for left := c.count; left > 0; left -= perTug {
			s.schedule(&DeliveryIntent{
				Kind:       IntentStorage,
				Source:     a.Source,
				HDD:        in.HDD,
				Rig:        in.Rig,
				Size:       c.size,
				Barges:     min(left, perTug),
				FillStart:  s.now,
				Dispatch:   s.now,
				Arrival:    s.now,
				Deadline:   h.RigDown,
				Status:     IntentPending,
				PlannedTug: -1,
				Priority:   PriorityDeferred,
			})
		}
	}
}

// executeTransport sends a planned delivery from its source.
func (s *Simulator) executeTransport(in *DeliveryIntent) bool {
	level, capacity := s.k.Storage(in.HDD)
	if capacity <= 0 {
		return false
	}
	if capacity-level-s.enRoute(in.HDD) < s.minDispatch() {
		in.Status = IntentSkipped
		logrus.Debugf("[%7.2fh] transport intent #%d skipped: %s already covered", s.now, in.ID, in.HDD)
		return true
	}
	t := s.idleTugAt(in.Source, in.PlannedTug)
	if t == nil {
		return false
	}
	barges := s.chooseBarges(in.Source, in.Volume)
	if len(barges) == 0 {
		return false
	}
	s.sendLoaded(t, barges, []Stop{{Rig: in.Rig, Crossing: in.HDD, Volume: in.Volume}},
		fmt.Sprintf("scheduled delivery #%d", in.ID))
	return true
}

// executeReturn sends the idle tug closest to the finished crossing to
// collect its storage barges, mobilizing one if none is idle.
func (s *Simulator) executeReturn(in *DeliveryIntent) bool {
	if len(s.k.StationedBarges(in.HDD)) == 0 {
		return true
	}
	var best *Tug
	bestHours := 0.0
	for _, t := range s.tugs {
		if !t.IsIdle() {
			continue
		}
		hours, ok := s.router.EmptyHours(t.Location, in.HDD)
		if ok && (best == nil || hours < bestHours) {
			best, bestHours = t, hours
		}
	}
	if best == nil {
		src, _, ok := s.router.NearestSource(in.HDD)
		if !ok {
			return false
		}
		if best = s.MobilizeTug(src, fmt.Sprintf("return intent #%d", in.ID)); best == nil {
			return false
		}
		bestHours, _ = s.router.EmptyHours(src, in.HDD)
	}
	s.setState(best, EnRoutePickup{
		Arrival: s.now + bestHours,
		Target:  in.HDD,
		Purpose: RetrieveStorage,
		Intent:  in.ID,
	}, "", fmt.Sprintf("collect storage from %s", in.HDD))
	return true
}

// arriveStorage stations a storage chunk, unless the crossing has already
// finished drilling, in which case the barges go back to a source.
func (s *Simulator) arriveStorage(t *Tug, st EnRouteStorage) {
	h := s.byName[st.Crossing]
	if PhaseForDate(h, s.now) == PhaseRigDown || PhaseForDate(h, s.now) == PhaseComplete {
		t.Location = st.Crossing
		s.returnToSource(t, st.Crossing, "storage arrived after drilling; returning")
		return
	}
	barges, err := s.k.DetachAll(t.ID, st.Crossing)
	if err != nil {
		s.warn("station at %s: %v", st.Crossing, err)
		return
	}
	for _, b := range barges {
		s.logBarge(b, "stationed at "+st.Crossing)
	}
	t.Location = st.Crossing
	s.logTug(t, fmt.Sprintf("stationed %d storage barges at %s", len(barges), st.Crossing), 0)
	s.returnToSource(t, st.Crossing, "storage delivered")
}

// arrivePickup completes a running-light leg: collecting storage barges from
// a finished crossing, or repositioning to a source with filled barges.
func (s *Simulator) arrivePickup(t *Tug, st EnRoutePickup) {
	t.Location = st.Target
	if st.Purpose == Reposition {
		s.setState(t, Idle{}, st.Target, "repositioned")
		return
	}
	stationed := s.k.StationedBarges(st.Target)
	var take []*kernel.Barge
	for _, size := range []kernel.Size{kernel.Large, kernel.Small} {
		for _, b := range stationed {
			if b.Size() == size && len(take) < bargesPerTug(s.cfg, size) {
				take = append(take, b)
			}
		}
		if len(take) > 0 {
			break
		}
	}
	for _, b := range take {
		if err := s.k.UnstationBargeFromHDD(b.ID(), t.ID); err != nil {
			s.warn("collect %s: %v", b.ID(), err)
			continue
		}
		s.logBarge(b, "collected from "+st.Target)
	}
	if len(take) < len(stationed) {
		if in, ok := s.intentBy[st.Intent]; ok {
			in.Status = IntentPending
			in.NextRetry = s.now
			s.intents.Schedule(in)
		}
	}
	s.returnToSource(t, st.Target, fmt.Sprintf("returning %d storage barges", len(take)))
}

// arriveSource drops every attached barge into the source pool and queues
// them for filling. Storage barges switch to transport duty once no storage
// delivery of their size is still pending.
func (s *Simulator) arriveSource(t *Tug, st EnRouteEmpty) {
	barges, err := s.k.DetachAll(t.ID, st.Source)
	if err != nil {
		s.warn("return %s to %s: %v", t.ID, st.Source, err)
	}
	for _, b := range barges {
		if b.Role() == kernel.RoleStorage && !s.storageNeeded(b.Size()) {
			if err := s.k.SetRole(b.ID(), kernel.RoleTransport); err == nil {
				s.logBarge(b, "switched to transport duty")
			}
		}
		if _, err := s.k.RequestFill(b.ID(), s.now); err != nil {
			s.warn("request fill %s: %v", b.ID(), err)
		}
		s.logBarge(b, "returned to "+st.Source)
	}
	t.Plan, t.StopIdx = nil, 0
	s.setState(t, Idle{}, st.Source, fmt.Sprintf("returned with %d barges", len(barges)))
}

func (s *Simulator) storageNeeded(size kernel.Size) bool {
	for _, in := range s.intents.Pending() {
		if in.Status != IntentPending {
			continue
		}
		if (in.Kind == IntentStorage && in.Size == size) || in.Kind == IntentTransfer {
			return true
		}
	}
	return false
}

// sourceHolding is the first source, in id order, with a pooled barge of the class.
func (s *Simulator) sourceHolding(size kernel.Size, role kernel.Role) string {
	for _, src := range s.router.Sources() {
		if len(s.k.FreeBargesAtSource(src, size, role)) > 0 {
			return src
		}
	}
	return ""
}

// sendLoaded attaches barges to an idle tug and starts its delivery plan.
func (s *Simulator) sendLoaded(t *Tug, barges []*kernel.Barge, plan []Stop, detail string) {
	from := t.Location
	if err := s.k.AttachBarges(t.ID, bargeIDs(barges), kernel.StatusEnRouteLoaded); err != nil {
		s.warn("dispatch %s: %v", t.ID, err)
		return
	}
	size := kernel.Small
	for _, b := range barges {
		if b.Size() == kernel.Large {
			size = kernel.Large
		}
	}
	travel, _ := s.router.LoadedHours(from, plan[0].Crossing, size)
	t.Plan, t.StopIdx = plan, 0
	s.setState(t, EnRouteLoaded{
		Arrival:  s.now + s.cfg.SwitchoutTime + travel,
		Crossing: plan[0].Crossing,
	}, "", fmt.Sprintf("%s: %.0f gal to %s", detail, s.k.TugWater(t.ID), plan[0].Crossing))
	for _, b := range barges {
		s.logBarge(b, "loaded for "+plan[0].Crossing)
	}
}

// chooseBarges picks full transport barges at source for one tug: the set of
// one size that meets need with the least excess, or else the largest set.
func (s *Simulator) chooseBarges(source string, need float64) []*kernel.Barge {
	var options [][]*kernel.Barge
	for _, size := range []kernel.Size{kernel.Large, kernel.Small} {
		var full []*kernel.Barge
		for _, b := range s.k.FreeBargesAtSource(source, size, kernel.RoleTransport) {
			if b.IsFull() {
				full = append(full, b)
			}
		}
		for n := 1; n <= min(len(full), bargesPerTug(s.cfg, size)); n++ {
			options = append(options, full[:n])
		}
	}
	var best []*kernel.Barge
	bestVol := 0.0
	for _, opt := range options {
		vol := volumeOf(opt)
		switch {
		case best == nil:
			best, bestVol = opt, vol
		case bestVol < need && vol > bestVol:
			best, bestVol = opt, vol
		case vol >= need && (bestVol < need || vol < bestVol):
			best, bestVol = opt, vol
		}
	}
	return best
}

func (s *Simulator) minDispatch() float64 {
	return s.cfg.SmallBargeVolume / 4
}

func volumeOf(barges []*kernel.Barge) float64 {
	total := 0.0
	for _, b := range barges {
		total += b.Fill()
	}
	return total
}

func bargeIDs(barges []*kernel.Barge) []string {
	ids := make([]string, len(barges))
	for i, b := range barges {
		ids[i] = b.ID()
	}
	return ids
}
