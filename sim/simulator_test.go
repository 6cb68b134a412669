package sim

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim/kernel"
)

// checkInvariants fails the test on any ledger inconsistency or storage level
// outside its capacity.
func checkInvariants(t *testing.T) func(*Simulator) {
	t.Helper()
	failed := false
	return func(s *Simulator) {
		if failed {
			return
		}
		if errs := s.Kernel().Validate(); len(errs) > 0 {
			failed = true
			t.Errorf("hour %.2f: kernel validation: %v", s.Now(), errs)
		}
		for _, h := range s.HDDs() {
			level, capacity := s.Kernel().Storage(h.Crossing)
			sum := 0.0
			for _, b := range s.Kernel().StationedBarges(h.Crossing) {
				sum += b.Fill()
			}
			if level < -waterEpsilon || level > capacity+waterEpsilon || !closeTo(level, sum) {
				failed = true
				t.Errorf("hour %.2f: %s storage %.3f of %.0f, barges hold %.3f", s.Now(), h.Crossing, level, capacity, sum)
			}
		}
		for _, tug := range s.Tugs() {
			for _, b := range s.Kernel().AttachedBarges(tug.ID) {
				if b.Tug() != tug.ID {
					failed = true
					t.Errorf("hour %.2f: %s lists %s owned by %q", s.Now(), tug.ID, b.ID(), b.Tug())
				}
			}
		}
	}
}

func closeTo(a, b float64) bool {
	d := a - b
	return d < 1e-3 && d > -1e-3
}

func TestNewSimulator_RejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty schedule", func(c *Config) { c.Schedule = nil }, ErrEmptySchedule},
		{"rig without rates", func(c *Config) { c.Schedule[0].Rig = "R9" }, ErrMissingRigRates},
		{"unreachable crossing", func(c *Config) { c.Schedule[0].Crossing = "H9" }, ErrNoRoute},
		{"dates out of order", func(c *Config) { c.Schedule[0].Pull = "2026-03-01" }, ErrBadSchedule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := singleRigConfig()
			tt.mutate(&cfg)
			_, err := NewSimulator(cfg, scenarioFleet, testOracle(), Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewSimulator_NegativeFleetIsRejected(t *testing.T) {
	_, err := NewSimulator(singleRigConfig(), Fleet{Tugs: -1}, testOracle(), Options{})
	assert.Error(t, err)
}

func TestNewSimulator_CorrectionsBecomeWarnings(t *testing.T) {
	cfg := singleRigConfig()
	cfg.PumpRate = -3

	s := newTestSimulator(t, cfg, scenarioFleet)
	r := s.Run()

	assert.Equal(t, 1000.0, s.Config().PumpRate)
	assert.Contains(t, r.Warnings[0], "pump_rate")
}

func TestRun_ScenarioOneRigWellSuppliedNeverRunsDry(t *testing.T) {
	// GIVEN one rig drawing 75,000 gal/day from an 800 GPM source with one
	// tug, two transport barges and three storage barges
	s := newTestSimulator(t, singleRigConfig(), scenarioFleet)
	s.OnTick = checkInvariants(t)

	// WHEN the campaign runs
	r := s.Run()

	// THEN no rig runs dry
	assert.Zero(t, r.RanDryCount)
	assert.True(t, r.Success)
	assert.Zero(t, r.TotalDeficit)
	assert.Equal(t, r.Costs.GrandTotal, r.Score)

	// AND every drilling day is met in full
	for _, date := range []string{"2026-03-06", "2026-03-07", "2026-03-10"} {
		d := r.Daily[date]
		require.NotNil(t, d, date)
		assert.InDelta(t, 75000, d.Demand, 1e-6, date)
		assert.InDelta(t, d.Demand, d.Usage, 1e-6, date)
	}

	// AND every asset is demobilized by the end
	for _, tug := range s.Tugs() {
		assert.False(t, tug.Active(), tug.ID)
	}
	assert.Greater(t, r.Costs.Rental, 0.0)
	assert.Greater(t, r.Costs.Mobilization, 0.0)
	assert.Greater(t, r.Costs.Water, 0.0)
}

func TestRun_ScenarioNoTugsRunsDryFromFirstDrillingHour(t *testing.T) {
	// GIVEN the same campaign with no tugs
	fleet := scenarioFleet
	fleet.Tugs = 0
	s := newTestSimulator(t, singleRigConfig(), fleet)
	pilot := s.byName["H1"].Pilot

	// WHEN it runs
	r := s.Run()

	// THEN the first drilling day gets nothing
	first := r.Daily["2026-03-05"]
	require.NotNil(t, first)
	assert.InDelta(t, 75000, first.Demand, 1e-6)
	assert.InDelta(t, first.Demand, first.Deficit, 1e-6)
	assert.Zero(t, first.Usage)
	assert.True(t, first.RanDry["R1"])

	// AND one ran-dry event spans its whole drilling window
	require.NotEmpty(t, r.RanDryEvents)
	e := r.RanDryEvents[0]
	assert.Equal(t, "H1", e.HDD)
	assert.Equal(t, PhasePilot, e.Phase)
	assert.InDelta(t, pilot+7, e.Start, 1e-9)
	assert.InDelta(t, pilot+17, e.End, 1e-9)
	assert.InDelta(t, 10, e.Duration, 1e-9)
	assert.Greater(t, r.RanDryCount, 0)
	assert.False(t, r.Success)
	assert.InDelta(t, r.Costs.GrandTotal+s.Config().RanDryPenalty*float64(r.RanDryCount), r.Score, 1e-6)
}

func TestRun_ZeroFleetAccruesDeficitEveryConsumingHour(t *testing.T) {
	r := newTestSimulator(t, singleRigConfig(), Fleet{}).Run()

	assert.InDelta(t, r.TotalDemand, r.TotalDeficit, 1e-6)
	assert.Greater(t, r.RanDryCount, 0)
	assert.Zero(t, r.TotalFilled)
}

func TestRun_SiblingCrossingDoesNotSplitRanDryPeriods(t *testing.T) {
	// GIVEN an unsupplied rig that drills H1 and later H2
	single := newTestSimulator(t, singleRigConfig(), Fleet{}).Run()
	s := newTestSimulator(t, sameRigConfig(10), Fleet{})

	// WHEN it runs
	r := s.Run()

	// THEN H1 runs dry exactly as it does when drilled alone
	perCrossing := map[string]int{}
	for _, e := range r.RanDryEvents {
		perCrossing[e.HDD]++
		assert.Greater(t, e.Duration, 1.0, "%s at hour %.2f", e.HDD, e.Start)
		assert.Equal(t, s.cal.Date(e.Start), e.Date)
	}
	assert.Equal(t, single.RanDryCount, perCrossing["H1"])
	assert.Equal(t, single.RanDryEvents, r.RanDryEvents[:perCrossing["H1"]])

	// AND H2 adds one event per drilling day of its own
	assert.Positive(t, perCrossing["H2"])
	assert.Equal(t, perCrossing["H1"]+perCrossing["H2"], r.RanDryCount)
}

func TestRun_AbundantStorageAndFlowNeverRunsDry(t *testing.T) {
	// GIVEN storage far larger than the campaign's demand and a fast source
	cfg := singleRigConfig()
	cfg.Sources["S1"] = SourceConfig{FlowRate: 20000, HoursPerDay: 24}
	cfg.Planning.StorageTargetMultiplier = 10
	s := newTestSimulator(t, cfg, Fleet{Tugs: 2, SmallTransport: 4, LargeStorage: 3})

	r := s.Run()

	assert.Zero(t, r.RanDryCount)
	assert.Zero(t, r.TotalDeficit)
}

func TestRun_WaterIsConserved(t *testing.T) {
	// GIVEN a run where storage, transport and returns all move water
	s := newTestSimulator(t, sameRigConfig(10), scenarioFleet)

	r := s.Run()

	// THEN everything drawn from sources is either consumed or still afloat
	assert.InDelta(t, r.TotalFilled, s.Kernel().TotalWater()+r.TotalUsage, 1e-3)
	assert.InDelta(t, r.TotalDemand, r.TotalUsage+r.TotalDeficit, 1e-3)
}

func TestRun_IsDeterministic(t *testing.T) {
	run := func() *Report {
		return newTestSimulator(t, twoRigConfig(), Fleet{Tugs: 2, SmallTransport: 4, SmallStorage: 4}).Run()
	}
	a, b := run(), run()

	assert.Equal(t, a.Daily, b.Daily)
	assert.Equal(t, a.RanDryEvents, b.RanDryEvents)
	assert.Equal(t, a.Costs, b.Costs)
	assert.Equal(t, len(a.AssetLog), len(b.AssetLog))

	var ja, jb bytes.Buffer
	require.NoError(t, json.NewEncoder(&ja).Encode(a.Daily))
	require.NoError(t, json.NewEncoder(&jb).Encode(b.Daily))
	assert.Equal(t, ja.String(), jb.String())
}

func TestRun_ShortStoragePoolStillSuppliesEveryRig(t *testing.T) {
	// GIVEN two concurrent rigs and fewer storage barges than they want
	s := newTestSimulator(t, twoRigConfig(), Fleet{Tugs: 3, SmallTransport: 4, SmallStorage: 2})
	s.OnTick = checkInvariants(t)

	// WHEN the campaign runs
	r := s.Run()

	// THEN water reaches both crossings
	for _, crossing := range []string{"H1", "H3"} {
		withdrawn := 0.0
		for _, sample := range r.Timeline[crossing] {
			withdrawn += sample.Withdrawn
		}
		assert.Positive(t, withdrawn, crossing)
	}
	assert.Less(t, r.TotalDeficit, r.TotalDemand)
}

func TestRun_InvariantsHoldForTwoRigs(t *testing.T) {
	s := newTestSimulator(t, twoRigConfig(), Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 3, LargeTransport: 1})
	s.OnTick = checkInvariants(t)

	r := s.Run()

	assert.NotEmpty(t, r.AssetLog)
	assert.NotEmpty(t, r.Timeline["H1"])
}

func TestRun_ScenarioFiveDayGapReturnsStorageToSource(t *testing.T) {
	// GIVEN two crossings on one rig five days apart
	s := newTestSimulator(t, sameRigConfig(5), scenarioFleet)
	h2 := s.byName["H2"]
	var stationedAtH2Pilot []*kernel.Barge
	invariants := checkInvariants(t)
	s.OnTick = func(s *Simulator) {
		invariants(s)
		if stationedAtH2Pilot == nil && s.Now() >= h2.Pilot-1 {
			stationedAtH2Pilot = s.Kernel().StationedBarges("H1")
			if stationedAtH2Pilot == nil {
				stationedAtH2Pilot = []*kernel.Barge{}
			}
		}
	}

	// WHEN it runs
	r := s.Run()

	// THEN H1's barges went back to a source instead of across
	assert.Empty(t, stationedAtH2Pilot)
	assert.Empty(t, r.StorageMoves)
	var collected bool
	for _, e := range r.AssetLog {
		if e.Detail == "collected from H1" {
			collected = true
		}
	}
	assert.True(t, collected)
}

func TestRun_ScenarioTenDayGapTransfersStoredBarges(t *testing.T) {
	// GIVEN two crossings on one rig ten days apart
	s := newTestSimulator(t, sameRigConfig(10), scenarioFleet)
	h1, h2 := s.byName["H1"], s.byName["H2"]
	var atH1Before []string
	dispatchedBetween := 0
	s.OnTick = func(s *Simulator) {
		if s.Now() < h1.RigDown || s.Now() >= h2.Pilot {
			return
		}
		if atH1Before == nil {
			for _, b := range s.Kernel().StationedBarges("H1") {
				atH1Before = append(atH1Before, b.ID())
			}
		}
		for _, tug := range s.Tugs() {
			if _, ok := tug.State.(EnRouteStorage); ok {
				dispatchedBetween++
			}
		}
	}

	// WHEN it runs
	r := s.Run()

	// THEN the same barges are reassigned to H2 at its pilot start
	require.Len(t, r.StorageMoves, 1)
	move := r.StorageMoves[0]
	assert.Equal(t, "H1", move.From)
	assert.Equal(t, "H2", move.To)
	assert.InDelta(t, h2.Pilot, move.Time, dt)
	assert.ElementsMatch(t, atH1Before, move.Barges)
	assert.NotEmpty(t, move.Barges)

	// AND nothing was towed from a source in between
	assert.Zero(t, dispatchedBetween)
	for _, in := range s.Intents() {
		if in.Kind == IntentStorage {
			assert.NotEqual(t, "H2", in.HDD)
		}
	}
}

func TestRun_OptimizationModeSkipsLogs(t *testing.T) {
	s, err := NewSimulator(singleRigConfig(), scenarioFleet, testOracle(), Options{OptimizationMode: true})
	require.NoError(t, err)

	r := s.Run()

	assert.Empty(t, r.AssetLog)
	assert.Empty(t, r.Timeline)
	assert.NotEmpty(t, r.Daily)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	assert.NotContains(t, buf.String(), "assetLog")
}
