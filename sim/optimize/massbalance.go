package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/kernel"
)

// MassBalance is a coarse water budget of a campaign: the heaviest day of
// combined demand against what a fleet can move in a day at the campaign's
// average delivery cycle. It ignores geography beyond that one average, so it
// can reject viable fleets when source distances vary widely; use it only to
// thin a search, never to judge a fleet.
type MassBalance struct {
	PeakDailyDemand  float64 // gallons, all crossings drilling on the same day
	PeakStorage      float64 // storage target of the crossings drilling on the busiest day
	AvgCycleHours    float64 // mean best-source cycle over every crossing
	SmallBargeVolume float64
	LargeBargeVolume float64
	SmallPerTug      int
	LargePerTug      int
}

// NewMassBalance computes the budget of cfg.
func NewMassBalance(cfg sim.Config, oracle sim.DistanceOracle) (MassBalance, error) {
	cfg, _ = cfg.Normalize()
	cal, hdds, err := sim.NewCalendar(cfg.Schedule, cfg)
	if err != nil {
		return MassBalance{}, err
	}
	router := sim.NewRouter(oracle, cfg)
	load := cfg.SmallBargeVolume * float64(cfg.SmallBargesPerTug)

	var cycles []float64
	last := 0.0
	for _, h := range hdds {
		if _, hours, ok := router.BestSource(h.Crossing, load, kernel.Small); ok {
			cycles = append(cycles, hours)
		}
		last = max(last, h.RigDown)
	}

	mb := MassBalance{
		SmallBargeVolume: cfg.SmallBargeVolume,
		LargeBargeVolume: cfg.LargeBargeVolume,
		SmallPerTug:      cfg.SmallBargesPerTug,
		LargePerTug:      cfg.LargeBargesPerTug,
	}
	if len(cycles) > 0 {
		mb.AvgCycleHours = stat.Mean(cycles, nil)
	}
	var daily, storage []float64
	for day := 0.0; day <= last; day += 24 {
		demand := 0.0
		for _, h := range hdds {
			demand += cal.DailyDemand(cfg.Rigs, h.Rig, sim.PhaseForDate(h, day+12))
		}
		daily = append(daily, demand)
		storage = append(storage, demand*cfg.Planning.StorageTargetMultiplier)
	}
	if len(daily) > 0 {
		mb.PeakDailyDemand = floats.Max(daily)
		mb.PeakStorage = floats.Max(storage)
	}
	return mb, nil
}

// DailyDelivery is the water f's transport barges can deliver per day when
// every tug cycles continuously.
func (mb MassBalance) DailyDelivery(f sim.Fleet) float64 {
	if f.Tugs == 0 || mb.AvgCycleHours <= 0 {
		return 0
	}
	small := min(f.SmallTransport, f.Tugs*mb.SmallPerTug)
	large := min(f.LargeTransport, f.Tugs*mb.LargePerTug)
	perCycle := float64(small)*mb.SmallBargeVolume + float64(large)*mb.LargeBargeVolume
	return perCycle * 24 / mb.AvgCycleHours
}

// Viable reports whether f could plausibly keep up with peak demand. slack
// scales the delivery estimate; values above one keep marginal fleets.
func (mb MassBalance) Viable(f sim.Fleet, slack float64) bool {
	if mb.PeakDailyDemand <= 0 {
		return true
	}
	return mb.DailyDelivery(f)*slack >= mb.PeakDailyDemand
}

// Estimate sizes a starting fleet from the budget: enough small-barge tugs to
// cover peak demand, full barge sets for each, and storage for the busiest
// day's target.
func (mb MassBalance) Estimate() sim.Fleet {
	if mb.PeakDailyDemand <= 0 || mb.AvgCycleHours <= 0 {
		return sim.Fleet{}
	}
	perTug := float64(mb.SmallPerTug) * mb.SmallBargeVolume * 24 / mb.AvgCycleHours
	tugs := max(1, int(math.Ceil(mb.PeakDailyDemand/perTug)))
	return sim.Fleet{
		Tugs:           tugs,
		SmallTransport: tugs * mb.SmallPerTug,
		SmallStorage:   int(math.Ceil(mb.PeakStorage / mb.SmallBargeVolume)),
	}
}
