// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim/kernel"
	"github.com/hddwater/bargesim/sim/trace"
)

const (
	tickMinutes  = 5
	ticksPerHour = 60 / tickMinutes
	// dt is the length of one tick in hours.
	dt = float64(tickMinutes) / 60

	waterEpsilon = 1e-6
)

// ErrMissingRigRates is returned when a scheduled rig has no consumption rates.
var ErrMissingRigRates = errors.New("missing rig rates")

// Options tune what a run records.
type Options struct {
	// OptimizationMode skips the asset log, dispatch trace and hourly timeline.
	OptimizationMode bool
	// TraceLevel defaults to assets, or none in optimization mode.
	TraceLevel trace.TraceLevel
}

// Simulator holds the clock, the asset ledger and every planner output of one
// run. It is single-use: build it with NewSimulator and call Run once.
type Simulator struct {
	cfg    Config
	fleet  Fleet
	opts   Options
	cal    *Calendar
	hdds   []*HDD
	byName map[string]*HDD
	router *Router
	costs  *CostModel
	k      *kernel.Kernel

	tugs     []*Tug
	pool     assetPool
	intents  IntentQueue
	intentBy map[int]*DeliveryIntent
	nextID   int
	storage  StoragePlan

	pumpSlot  map[string]string   // crossing -> tug holding the pump connection
	rigQueue  map[string][]string // crossing -> tugs waiting for the connection
	metrics   *Metrics
	trace     *trace.SimulationTrace
	warnings  []string
	abandoned int

	tick int
	now  float64
	end  float64

	// OnTick, when set, is called after every tick.
	OnTick func(*Simulator)
}

// NewSimulator validates and normalizes cfg, resolves the schedule and runs
// both delivery planners. Structural problems (empty schedule, bad dates,
// missing rig rates, unreachable crossings) are returned as errors; range
// problems are corrected and logged.
func NewSimulator(cfg Config, fleet Fleet, oracle DistanceOracle, opts Options) (*Simulator, error) {
	if len(cfg.Schedule) == 0 {
		return nil, ErrEmptySchedule
	}
	if err := cfg.ValidateStructure(); err != nil {
		return nil, err
	}
	if err := ValidateFleet(fleet); err != nil {
		return nil, err
	}
	cfg, fixes := cfg.Normalize()
	for _, f := range fixes {
		logrus.Warnf("config: %s", f)
	}

	cal, hdds, err := NewCalendar(cfg.Schedule, cfg)
	if err != nil {
		return nil, err
	}
	router := NewRouter(oracle, cfg)
	byName := make(map[string]*HDD, len(hdds))
	for _, h := range hdds {
		if _, ok := cfg.Rigs[h.Rig]; !ok {
			return nil, fmt.Errorf("crossing %s: rig %q: %w", h.Crossing, h.Rig, ErrMissingRigRates)
		}
		if !router.Reachable(h.Crossing) {
			return nil, fmt.Errorf("crossing %s: %w from any source", h.Crossing, ErrNoRoute)
		}
		byName[h.Crossing] = h
	}

	level := opts.TraceLevel
	if level == "" {
		level = trace.TraceLevelAssets
		if opts.OptimizationMode {
			level = trace.TraceLevelNone
		}
	}

	s := &Simulator{
		cfg:      cfg,
		fleet:    fleet,
		opts:     opts,
		cal:      cal,
		hdds:     hdds,
		byName:   byName,
		router:   router,
		k:        kernel.New(),
		pool:     assetPool{remaining: fleet},
		intentBy: make(map[int]*DeliveryIntent),
		pumpSlot: make(map[string]string),
		rigQueue: make(map[string][]string),
		metrics:  NewMetrics(!opts.OptimizationMode),
		trace:    trace.NewSimulationTrace(trace.TraceConfig{Level: level}),
		warnings: fixes,
	}
	s.costs = NewCostModel(cfg, router, s.k)
	for _, src := range router.Sources() {
		s.k.RegisterSource(src)
	}
	for _, h := range hdds {
		s.k.RegisterHDD(h.Crossing)
		s.end = max(s.end, h.RigDown+float64(cfg.Planning.CompletionBufferDays)*24)
	}

	s.storage = PlanStorage(cfg, cal, hdds, router, fleet, &s.nextID)
	transport := PlanTransport(cfg, cal, hdds, router, s.storage, fleet, &s.nextID)
	s.warnings = append(s.warnings, s.storage.Warnings...)
	s.warnings = append(s.warnings, transport.Warnings...)
	for _, in := range append(append([]*DeliveryIntent(nil), s.storage.Intents...), transport.Intents...) {
		s.intentBy[in.ID] = in
		s.intents.Schedule(in)
	}
	logrus.Infof("planned %d storage and %d transport intents over %.0f hours",
		len(s.storage.Intents), len(transport.Intents), s.end)
	return s, nil
}

// Kernel exposes the asset ledger for inspection.
func (s *Simulator) Kernel() *kernel.Kernel { return s.k }

// Tugs returns every tug mobilized so far, demobilized ones included.
func (s *Simulator) Tugs() []*Tug { return s.tugs }

// Now is the current simulation hour.
func (s *Simulator) Now() float64 { return s.now }

// Calendar returns the resolved calendar.
func (s *Simulator) Calendar() *Calendar { return s.cal }

// HDDs returns the resolved schedule.
func (s *Simulator) HDDs() []*HDD { return s.hdds }

// Config returns the normalized configuration of the run.
func (s *Simulator) Config() Config { return s.cfg }

// StoragePlan returns the storage provisioning schedule.
func (s *Simulator) StoragePlan() StoragePlan { return s.storage }

// Intents returns every delivery intent of the run.
func (s *Simulator) Intents() []*DeliveryIntent {
	out := make([]*DeliveryIntent, 0, len(s.intentBy))
	for _, id := range slices.Sorted(maps.Keys(s.intentBy)) {
		out = append(out, s.intentBy[id])
	}
	return out
}

// Run advances the clock in five-minute ticks until the end of the last
// crossing's completion buffer, then returns the report. It always returns a
// report; unmet demand shows up as ran-dry events and deficit.
func (s *Simulator) Run() *Report {
	for s.tick = 0; ; s.tick++ {
		s.now = float64(s.tick*tickMinutes) / 60
		if s.now >= s.end {
			break
		}
		s.step()
		if s.OnTick != nil {
			s.OnTick(s)
		}
	}
	s.now = s.end
	s.metrics.closeAll(s.end)
	s.demobilizeRemaining()
	for _, in := range s.intents.Pending() {
		if in.Status == IntentPending {
			in.Status = IntentAbandoned
			s.abandoned++
		}
	}
	logrus.Infof("simulation ended at hour %.1f: %d ran-dry events, deficit %.0f gal",
		s.end, len(s.metrics.RanDry), s.metrics.TotalDeficit)
	return s.report()
}

func (s *Simulator) step() {
	hourly := s.tick%ticksPerHour == 0
	if hourly {
		s.checkMobilizationNeeds(s.tick == 0)
		s.checkDemobilization()
	}
	s.processIntents()
	s.processArrivals()
	s.processRigs()
	s.consume()
	s.fillSources()
	s.dispatch()
	s.accrue()
	if hourly {
		s.sampleStorage()
	}
}

// accrue charges rental and fuel for one tick and tracks daily fleet size.
func (s *Simulator) accrue() {
	c := &s.metrics.Costs
	tc := s.cfg.Cost.Tug
	active := 0
	for _, t := range s.tugs {
		if !t.Active() {
			continue
		}
		active++
		c.Rental += tc.DayRate / 24 * dt
		if t.Underway() {
			t.RunningHours += dt
			c.Fuel += tc.FuelRunningGPH * dt * s.cfg.Cost.FuelPrice
		} else {
			t.IdleHours += dt
			c.Fuel += tc.FuelIdleGPH * dt * s.cfg.Cost.FuelPrice
		}
	}
	barges := 0
	for _, b := range s.k.Barges() {
		if b.Retired() {
			continue
		}
		barges++
		rate := s.cfg.Cost.Barge.SmallDayRate
		if b.Size() == kernel.Large {
			rate = s.cfg.Cost.Barge.LargeDayRate
		}
		c.Rental += rate / 24 * dt
	}
	d := s.metrics.Day(s.cal.Date(s.now))
	d.ActiveTugs = max(d.ActiveTugs, active)
	d.ActiveBarges = max(d.ActiveBarges, barges)
}

func (s *Simulator) sampleStorage() {
	date := s.cal.Date(s.now)
	for _, h := range s.hdds {
		level, capacity := s.k.Storage(h.Crossing)
		s.metrics.sample(h.Crossing, StorageSample{
			Time:     s.now,
			Date:     date,
			Hour:     int(s.cal.HourOfDay(s.now)),
			Level:    level,
			Capacity: capacity,
		})
	}
}

func (s *Simulator) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logrus.Warnf("[%7.2fh] %s", s.now, msg)
	s.warnings = append(s.warnings, msg)
}

// setState moves a tug to a new state and logs the transition.
func (s *Simulator) setState(t *Tug, st TugState, location, detail string) {
	t.State = st
	t.Location = location
	s.logTug(t, detail, 0)
}

func (s *Simulator) logTug(t *Tug, detail string, pumped float64) {
	logrus.Debugf("[%7.2fh] %s %s %s", s.now, t.ID, t.State.Status(), detail)
	s.trace.RecordAsset(trace.AssetLogEntry{
		Time:         s.now,
		Date:         s.cal.Date(s.now),
		Hour:         int(s.cal.HourOfDay(s.now)),
		AssetType:    trace.AssetTug,
		AssetID:      t.ID,
		Status:       t.State.Status(),
		Location:     s.tugPlace(t),
		Detail:       detail,
		Cargo:        strings.Join(s.k.AttachedIDs(t.ID), ","),
		CargoLevel:   s.k.TugWater(t.ID),
		PumpedAmount: pumped,
	})
}

func (s *Simulator) logBarge(b *kernel.Barge, detail string) {
	loc := b.Location()
	if loc == "" {
		loc = "with " + b.Tug()
	}
	s.trace.RecordAsset(trace.AssetLogEntry{
		Time:       s.now,
		Date:       s.cal.Date(s.now),
		Hour:       int(s.cal.HourOfDay(s.now)),
		AssetType:  trace.AssetBarge,
		AssetID:    b.ID(),
		Status:     string(b.Status()),
		Location:   loc,
		Detail:     detail,
		Cargo:      b.Role().String(),
		CargoLevel: b.Fill(),
	})
}

// tugPlace describes where a tug is, including the leg it is on.
func (s *Simulator) tugPlace(t *Tug) string {
	if t.Location != "" {
		return t.Location
	}
	switch st := t.State.(type) {
	case EnRouteLoaded:
		return "to " + st.Crossing
	case EnRouteEmpty:
		return "to " + st.Source
	case EnRouteStorage:
		return "to " + st.Crossing
	case DirectDelivery:
		return st.From + " to " + st.Crossing
	case EnRoutePickup:
		return "to " + st.Target
	}
	return ""
}

func (s *Simulator) tugByID(id string) *Tug {
	for _, t := range s.tugs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// idleTugAt returns an idle tug moored at source, preferring the planned one.
func (s *Simulator) idleTugAt(source string, planned int) *Tug {
	if planned >= 0 && planned < len(s.tugs) {
		if t := s.tugs[planned]; t.IsIdle() && t.Location == source {
			return t
		}
	}
	for _, t := range s.tugs {
		if t.IsIdle() && t.Location == source {
			return t
		}
	}
	return nil
}

// enRoute is the water on tugs heading for or working at crossing.
func (s *Simulator) enRoute(crossing string) float64 {
	total := 0.0
	for _, t := range s.tugs {
		if t.Target() == crossing {
			total += s.k.TugWater(t.ID)
		}
	}
	return total
}

// currentRate is the per-drilling-hour draw of h's current phase.
func (s *Simulator) currentRate(h *HDD) float64 {
	return PhaseRate(s.cfg.Rigs, h.Rig, PhaseForDate(h, s.now))
}

// supplyHours is how many drilling hours the stored and en-route water lasts.
func (s *Simulator) supplyHours(h *HDD, extra float64) float64 {
	rate := s.currentRate(h)
	if rate <= 0 {
		return math.Inf(1)
	}
	level, _ := s.k.Storage(h.Crossing)
	return (level + s.enRoute(h.Crossing) + extra) / rate
}

// consumingHDDs lists the crossings in a water-drawing phase, in schedule order.
func (s *Simulator) consumingHDDs() []*HDD {
	var out []*HDD
	for _, h := range s.hdds {
		if PhaseForDate(h, s.now).Consumes() {
			out = append(out, h)
		}
	}
	return out
}

// returnToSource sends a tug running light to the source nearest from.
func (s *Simulator) returnToSource(t *Tug, from, detail string) {
	src, hours, ok := s.router.NearestSource(from)
	if !ok {
		src, hours = t.Home, 0
	}
	t.Plan, t.StopIdx = nil, 0
	for _, b := range s.k.AttachedBarges(t.ID) {
		_ = s.k.SetStatus(b.ID(), kernel.StatusEnRouteEmpty)
	}
	s.setState(t, EnRouteEmpty{Arrival: s.now + hours, Source: src}, "", detail)
}
